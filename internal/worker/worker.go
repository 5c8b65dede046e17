package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/access"
	"github.com/eventgrid/backend/internal/events"
	"github.com/eventgrid/backend/internal/metrics"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/pkg/queue"
	"github.com/eventgrid/backend/pkg/spreadsheet"
	"github.com/eventgrid/backend/pkg/storage"
)

// RosterSource loads the registrants of an event.
type RosterSource interface {
	Roster(ctx context.Context, actorID, eventID uuid.UUID) (*models.Event, []events.RosterEntry, error)
}

// ReportUploader stores a finished report.
type ReportUploader interface {
	UploadReport(ctx context.Context, key string, body io.Reader, size int64) error
}

// JobQueue is the part of the Redis queue the worker loop uses.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ReportProcessor turns attendance report jobs into spreadsheets in S3.
type ReportProcessor struct {
	roster  RosterSource
	uploads ReportUploader
	queue   JobQueue
	metrics *metrics.Metrics
	logger  *zap.Logger
	backoff time.Duration
}

// NewReportProcessor creates an attendance report processor.
func NewReportProcessor(roster RosterSource, uploads ReportUploader, q JobQueue, m *metrics.Metrics, logger *zap.Logger) *ReportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportProcessor{roster: roster, uploads: uploads, queue: q, metrics: m, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one attendance report job.
func (p *ReportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAttendanceReport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AttendanceReportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	event, entries, err := p.roster.Roster(ctx, access.System, payload.EventID)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if event.ApprovalStatus != models.EventFreezed {
		p.logger.Info("event not frozen, skipping report", zap.String("event_id", event.ID.String()))
		return nil
	}

	rows := make([]spreadsheet.AttendanceRow, len(entries))
	for i, e := range entries {
		rows[i] = spreadsheet.AttendanceRow{
			Name:            e.Name,
			Email:           e.Email,
			ParticipantType: string(e.ParticipantType),
			Attended:        e.Attended,
		}
	}
	var buf bytes.Buffer
	if err := spreadsheet.WriteAttendance(&buf, event.Title, rows); err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}

	key := storage.AttendanceReportKey(event.ID.String())
	size := int64(buf.Len())
	if err := p.uploads.UploadReport(ctx, key, &buf, size); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	p.logger.Info("attendance report completed", zap.String("event_id", event.ID.String()), zap.String("s3_key", key), zap.Int("rows", len(rows)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ReportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("report worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.metrics.Job(string(job.Type), "failed")
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
			continue
		}
		p.metrics.Job(string(job.Type), "succeeded")
	}
}

func (p *ReportProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
