package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eventgrid/backend/internal/events"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/pkg/queue"
	"github.com/eventgrid/backend/pkg/spreadsheet"
	"github.com/eventgrid/backend/pkg/storage"
)

type fakeRoster struct {
	event   *models.Event
	entries []events.RosterEntry
	err     error
}

func (f *fakeRoster) Roster(_ context.Context, _, _ uuid.UUID) (*models.Event, []events.RosterEntry, error) {
	return f.event, f.entries, f.err
}

type fakeUploads struct {
	mu   sync.Mutex
	keys []string
	body []byte
}

func (f *fakeUploads) UploadReport(_ context.Context, key string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.body = b
	return nil
}

type fakeQueue struct {
	jobs    chan *queue.Job
	retried chan *queue.Job
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	select {
	case j := <-q.jobs:
		return j, queue.QueueReports, nil
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}

func (q *fakeQueue) Retry(_ context.Context, job *queue.Job) error {
	q.retried <- job
	return nil
}

func reportJob(t *testing.T, eventID uuid.UUID) *queue.Job {
	job, err := queue.NewJob(queue.JobTypeAttendanceReport, queue.AttendanceReportPayload{EventID: eventID})
	require.NoError(t, err)
	return job
}

func TestProcessUploadsWorkbook(t *testing.T) {
	event := &models.Event{ID: uuid.New(), Title: "Robotics Day", ApprovalStatus: models.EventFreezed}
	roster := &fakeRoster{event: event, entries: []events.RosterEntry{
		{Name: "Ann", Email: "ann@x.com", ParticipantType: models.ParticipantInternal, Attended: true},
	}}
	uploads := &fakeUploads{}
	p := NewReportProcessor(roster, uploads, nil, nil, nil)

	require.NoError(t, p.Process(context.Background(), reportJob(t, event.ID)))
	require.Equal(t, []string{storage.AttendanceReportKey(event.ID.String())}, uploads.keys)

	f, err := excelize.OpenReader(bytes.NewReader(uploads.body))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(spreadsheet.AttendanceSheet)
	require.NoError(t, err)
	require.Equal(t, []string{"Ann", "ann@x.com", "internal", "Yes"}, rows[2])
}

func TestProcessSkipsUnfrozenEvent(t *testing.T) {
	event := &models.Event{ID: uuid.New(), ApprovalStatus: models.EventApproved}
	uploads := &fakeUploads{}
	p := NewReportProcessor(&fakeRoster{event: event}, uploads, nil, nil, nil)

	require.NoError(t, p.Process(context.Background(), reportJob(t, event.ID)))
	require.Empty(t, uploads.keys)
}

func TestProcessRejectsUnknownJob(t *testing.T) {
	p := NewReportProcessor(&fakeRoster{}, &fakeUploads{}, nil, nil, nil)
	err := p.Process(context.Background(), &queue.Job{Type: "email"})
	require.Error(t, err)
}

func TestRunRetriesFailedJobs(t *testing.T) {
	q := &fakeQueue{jobs: make(chan *queue.Job, 1), retried: make(chan *queue.Job, 1)}
	p := NewReportProcessor(&fakeRoster{err: errors.New("store down")}, &fakeUploads{}, q, nil, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	job := reportJob(t, uuid.New())
	q.jobs <- job
	select {
	case got := <-q.retried:
		require.Equal(t, job.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
