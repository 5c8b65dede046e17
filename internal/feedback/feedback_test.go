package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/middleware"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
	"github.com/eventgrid/backend/internal/store/memory"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type fixture struct {
	store    *memory.Store
	eventID  uuid.UUID
	attendee uuid.UUID
	absentee uuid.UUID
}

func newFixture(t *testing.T, certificate bool) *fixture {
	t.Helper()
	f := &fixture{store: memory.New()}
	err := f.store.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		attendee := &models.User{Email: "ann@x.io", Name: "Ann Lee"}
		absentee := &models.User{Email: "bob@x.io", Name: "Bob"}
		for _, u := range []*models.User{attendee, absentee} {
			if err := tx.CreateUser(ctx, u); err != nil {
				return err
			}
		}
		e := &models.Event{
			Title:                "Robot Build",
			Certificate:          certificate,
			ApprovalStatus:       models.EventFreezed,
			EndDate:              time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC),
			ExternalParticipants: models.IDs{attendee.ID, absentee.ID},
			AttendedParticipants: models.IDs{attendee.ID},
		}
		if err := tx.CreateEvent(ctx, e); err != nil {
			return err
		}
		f.eventID, f.attendee, f.absentee = e.ID, attendee.ID, absentee.ID
		return nil
	})
	require.NoError(t, err)
	return f
}

var answers = []models.Answer{{Question: " Rating ", Answer: "5 "}, {Question: "Comments", Answer: "great"}}

func TestSubmitOnlyForAttendeesOnce(t *testing.T) {
	f := newFixture(t, false)
	svc := NewService(f.store)
	ctx := context.Background()

	_, err := svc.Submit(ctx, f.absentee, f.eventID, answers)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	fb, err := svc.Submit(ctx, f.attendee, f.eventID, answers)
	require.NoError(t, err)
	require.Equal(t, "Rating", fb.Answers[0].Question)
	require.Equal(t, "5", fb.Answers[0].Answer)

	_, err = svc.Submit(ctx, f.attendee, f.eventID, answers)
	require.True(t, apperr.Is(err, apperr.KindConflict))
	require.Equal(t, "already_submitted", apperr.CodeOf(err))

	_, err = svc.Submit(ctx, f.attendee, uuid.New(), answers)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSubmitValidatesAnswers(t *testing.T) {
	f := newFixture(t, false)
	svc := NewService(f.store)

	_, err := svc.Submit(context.Background(), f.attendee, f.eventID, nil)
	require.Equal(t, "answers_required", apperr.CodeOf(err))

	_, err = svc.Submit(context.Background(), f.attendee, f.eventID, []models.Answer{{Question: " ", Answer: "x"}})
	require.Equal(t, "missing_question", apperr.CodeOf(err))
}

func TestListHidesAuthors(t *testing.T) {
	f := newFixture(t, false)
	svc := NewService(f.store)
	ctx := context.Background()
	_, err := svc.Submit(ctx, f.attendee, f.eventID, answers)
	require.NoError(t, err)

	list, err := svc.List(ctx, f.eventID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	raw, err := json.Marshal(list[0])
	require.NoError(t, err)
	require.NotContains(t, string(raw), f.attendee.String())
	require.NotContains(t, string(raw), "user_id")

	_, err = svc.List(ctx, uuid.New())
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCertificateEligibility(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	f := newFixture(t, true)
	svc := NewService(f.store)
	svc.now = func() time.Time { return issued }

	cert, err := svc.Certificate(ctx, f.attendee, f.eventID)
	require.NoError(t, err)
	require.Equal(t, "Ann Lee", cert.ParticipantName)
	require.Equal(t, "Robot Build", cert.EventTitle)
	require.Equal(t, issued, cert.IssuedAt)

	_, err = svc.Certificate(ctx, f.absentee, f.eventID)
	require.Equal(t, "not_attendee", apperr.CodeOf(err))

	_, err = svc.Certificate(ctx, f.attendee, uuid.New())
	require.Equal(t, "certificate_unavailable", apperr.CodeOf(err))

	off := newFixture(t, false)
	_, err = NewService(off.store).Certificate(ctx, off.attendee, off.eventID)
	require.True(t, apperr.Is(err, apperr.KindValidation))
	require.Equal(t, "certificate_unavailable", apperr.CodeOf(err))
}

func TestFeedbackRemovedWithEvent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := NewService(f.store).Submit(ctx, f.attendee, f.eventID, answers)
	require.NoError(t, err)

	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteEvent(ctx, f.eventID)
	}))
	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		list, err := tx.ListFeedback(ctx, f.eventID)
		require.Empty(t, list)
		return err
	}))
}

func TestHandlerSubmit(t *testing.T) {
	f := newFixture(t, false)
	h := NewHandler(NewService(f.store), nil)

	serve := func(actor uuid.UUID, path, body string) *httptest.ResponseRecorder {
		r := gin.New()
		r.POST("/feedback/submit/:eventId", func(c *gin.Context) {
			c.Set(middleware.ContextUserID, actor)
			c.Next()
		}, h.Submit)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	path := "/feedback/submit/" + f.eventID.String()
	body := `{"answers":[{"question":"Rating","answer":"4"}]}`

	require.Equal(t, http.StatusCreated, serve(f.attendee, path, body).Code)
	require.Equal(t, http.StatusConflict, serve(f.attendee, path, body).Code)
	require.Equal(t, http.StatusForbidden, serve(f.absentee, path, body).Code)
	require.Equal(t, http.StatusBadRequest, serve(f.attendee, "/feedback/submit/nope", body).Code)
	require.Equal(t, http.StatusBadRequest, serve(f.attendee, path, "{").Code)
}
