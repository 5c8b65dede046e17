// Package events runs the event lifecycle: proposal, approval, registration and attendance.
package events

import (
	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
)

// DefaultApprovalRemarks is recorded when an event is approved without remarks.
const DefaultApprovalRemarks = "Event approved"

var transitions = map[models.EventStatus][]models.EventStatus{
	models.EventPending:  {models.EventApproved, models.EventRejected},
	models.EventApproved: {models.EventFreezed},
}

// CanTransition reports whether an event may move from one status to another.
func CanTransition(from, to models.EventStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func Terminal(s models.EventStatus) bool {
	return len(transitions[s]) == 0
}

// transition moves e to status to on behalf of actorID.
func transition(e *models.Event, to models.EventStatus, actorID uuid.UUID, remarks string) error {
	if !to.Valid() {
		return apperr.Validation("unknown approval status %q", to).WithCode("invalid_status")
	}
	if !CanTransition(e.ApprovalStatus, to) {
		return apperr.InvalidTransition("event is %s and cannot become %s", e.ApprovalStatus, to).
			WithDetail("from", e.ApprovalStatus).
			WithDetail("to", to)
	}
	switch to {
	case models.EventRejected:
		if remarks == "" {
			return apperr.Validation("remarks are required when rejecting an event").WithCode("remarks_required")
		}
	case models.EventApproved:
		if remarks == "" {
			remarks = DefaultApprovalRemarks
		}
	}
	if remarks != "" {
		e.Remarks = remarks
	}
	e.ApprovalStatus = to
	if actorID != uuid.Nil {
		id := actorID
		e.StatusUpdatedBy = &id
	}
	return nil
}
