package events

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
	"github.com/eventgrid/backend/pkg/queue"
	"github.com/eventgrid/backend/pkg/storage"
)

// RosterEntry is one registered participant of an event.
type RosterEntry struct {
	UserID          uuid.UUID              `json:"user_id"`
	Name            string                 `json:"name"`
	Email           string                 `json:"email"`
	ParticipantType models.ParticipantType `json:"participant_type"`
	Attended        bool                   `json:"attended"`
}

// Roster lists the registrants of an event with their attendance, ordered by email.
func (s *Service) Roster(ctx context.Context, actorID, eventID uuid.UUID) (*models.Event, []RosterEntry, error) {
	var (
		e       *models.Event
		entries []RosterEntry
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		e, err = getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := s.requireHostAdmin(ctx, tx, actorID, e); err != nil {
			return err
		}
		entries = make([]RosterEntry, 0, e.RegistrantCount())
		for _, group := range []struct {
			ids  models.IDs
			kind models.ParticipantType
		}{
			{e.InternalParticipants, models.ParticipantInternal},
			{e.ExternalParticipants, models.ParticipantExternal},
		} {
			for _, id := range group.ids {
				entry := RosterEntry{UserID: id, ParticipantType: group.kind, Attended: e.AttendedParticipants.Has(id)}
				u, err := tx.GetUser(ctx, id)
				switch {
				case err == nil:
					entry.Name, entry.Email = u.Name, u.Email
				case !errors.Is(err, store.ErrNotFound):
					return apperr.Internal(err, "load participant")
				}
				entries = append(entries, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Email) < strings.ToLower(entries[j].Email)
	})
	return e, entries, nil
}

// ReportQueue accepts attendance report export jobs.
type ReportQueue interface {
	EnqueueAttendanceReport(ctx context.Context, payload queue.AttendanceReportPayload) error
}

// ReportLinker locates exported attendance reports.
type ReportLinker interface {
	ReportExists(ctx context.Context, key string) (bool, error)
	PresignReport(ctx context.Context, key string) (string, error)
}

// Reports schedules and serves attendance report exports of frozen events.
type Reports struct {
	events *Service
	queue  ReportQueue
	links  ReportLinker
}

// NewReports creates the report exporter front end.
func NewReports(events *Service, q ReportQueue, links ReportLinker) *Reports {
	return &Reports{events: events, queue: q, links: links}
}

// Request enqueues an export of the attendance roster of a frozen event.
func (r *Reports) Request(ctx context.Context, actorID, eventID uuid.UUID) error {
	if _, err := r.frozen(ctx, actorID, eventID); err != nil {
		return err
	}
	err := r.queue.EnqueueAttendanceReport(ctx, queue.AttendanceReportPayload{EventID: eventID, RequestedBy: actorID})
	if err != nil {
		return apperr.Internal(err, "enqueue attendance report")
	}
	return nil
}

// URL returns a presigned download link for the exported roster of a frozen event.
func (r *Reports) URL(ctx context.Context, actorID, eventID uuid.UUID) (string, error) {
	if _, err := r.frozen(ctx, actorID, eventID); err != nil {
		return "", err
	}
	key := storage.AttendanceReportKey(eventID.String())
	ok, err := r.links.ReportExists(ctx, key)
	if err != nil {
		return "", apperr.Internal(err, "check attendance report")
	}
	if !ok {
		return "", apperr.NotFound("attendance report has not been generated yet").WithCode("report_pending")
	}
	url, err := r.links.PresignReport(ctx, key)
	if err != nil {
		return "", apperr.Internal(err, "presign attendance report")
	}
	return url, nil
}

func (r *Reports) frozen(ctx context.Context, actorID, eventID uuid.UUID) (*models.Event, error) {
	e, err := r.events.Get(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}
	if e.ApprovalStatus != models.EventFreezed {
		return nil, apperr.InvalidTransition("attendance reports exist only for frozen events").WithCode("not_frozen")
	}
	return e, nil
}
