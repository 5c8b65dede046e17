// Package feedback collects attendee feedback and decides certificate eligibility.
package feedback

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

// Service runs feedback operations.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates a feedback service.
func NewService(s store.Store) *Service {
	return &Service{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Entry is a feedback response without the identity of its author.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	EventID   uuid.UUID       `json:"event_id"`
	Answers   []models.Answer `json:"answers"`
	CreatedAt time.Time       `json:"created_at"`
}

// Certificate is the data a participation certificate is rendered from.
type Certificate struct {
	EventID         uuid.UUID `json:"event_id"`
	EventTitle      string    `json:"event_title"`
	ParticipantID   uuid.UUID `json:"participant_id"`
	ParticipantName string    `json:"participant_name"`
	Email           string    `json:"email"`
	EventEndDate    time.Time `json:"event_end_date"`
	IssuedAt        time.Time `json:"issued_at"`
}

// Submit records the actor's feedback for an event they attended. Each attendee answers once.
func (s *Service) Submit(ctx context.Context, actorID, eventID uuid.UUID, answers []models.Answer) (*models.Feedback, error) {
	cleaned := make([]models.Answer, 0, len(answers))
	for _, a := range answers {
		q := strings.TrimSpace(a.Question)
		if q == "" {
			return nil, apperr.Validation("every answer needs a question").WithCode("missing_question")
		}
		cleaned = append(cleaned, models.Answer{Question: q, Answer: strings.TrimSpace(a.Answer)})
	}
	if len(cleaned) == 0 {
		return nil, apperr.Validation("answers are required").WithCode("answers_required")
	}

	f := &models.Feedback{EventID: eventID, UserID: actorID, Answers: cleaned}
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		e, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !e.AttendedParticipants.Has(actorID) {
			return apperr.Forbidden("only attendees can submit feedback").WithCode("not_attendee")
		}
		err = tx.CreateFeedback(ctx, f)
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Conflict("feedback already submitted for this event").WithCode("already_submitted")
		}
		if err != nil {
			return apperr.Internal(err, "create feedback")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// List returns the feedback of an event, oldest first, without author identities.
func (s *Service) List(ctx context.Context, eventID uuid.UUID) ([]Entry, error) {
	var out []Entry
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := getEvent(ctx, tx, eventID); err != nil {
			return err
		}
		list, err := tx.ListFeedback(ctx, eventID)
		if err != nil {
			return apperr.Internal(err, "list feedback")
		}
		out = make([]Entry, len(list))
		for i, f := range list {
			out[i] = Entry{ID: f.ID, EventID: f.EventID, Answers: f.Answers, CreatedAt: f.CreatedAt}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Certificate returns the certificate data of the actor for an event that issues certificates and
// that the actor attended.
func (s *Service) Certificate(ctx context.Context, actorID, eventID uuid.UUID) (*Certificate, error) {
	var cert *Certificate
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		e, err := tx.GetEvent(ctx, eventID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !e.Certificate) {
			return apperr.Validation("certificate not available for this event").WithCode("certificate_unavailable")
		}
		if err != nil {
			return apperr.Internal(err, "load event")
		}
		if !e.AttendedParticipants.Has(actorID) {
			return apperr.Forbidden("only attendees can download a certificate").WithCode("not_attendee")
		}
		u, err := tx.GetUser(ctx, actorID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		if err != nil {
			return apperr.Internal(err, "load user")
		}
		cert = &Certificate{
			EventID:         e.ID,
			EventTitle:      e.Title,
			ParticipantID:   u.ID,
			ParticipantName: u.Name,
			Email:           u.Email,
			EventEndDate:    e.EndDate,
			IssuedAt:        s.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func getEvent(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Event, error) {
	e, err := tx.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("event not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load event")
	}
	return e, nil
}
