package events

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

// Fanout is the set of departments whose event lists change when an event's hosts change.
type Fanout struct {
	Detach models.IDs
	Attach models.IDs
}

// Empty reports whether no department is touched.
func (f Fanout) Empty() bool {
	return len(f.Detach) == 0 && len(f.Attach) == 0
}

// Diff returns the departments leaving and joining when hosts move from before to after.
func Diff(before, after models.IDs) Fanout {
	return Fanout{
		Detach: before.Dedup().Minus(after),
		Attach: after.Dedup().Minus(before),
	}
}

// apply writes the fan-out for eventID. Missing departments are skipped on detach and rejected on attach.
func (f Fanout) apply(ctx context.Context, tx store.Tx, eventID uuid.UUID) error {
	for _, id := range f.Detach {
		d, err := tx.GetDepartment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return apperr.Internal(err, "load department")
		}
		if updated, removed := d.Events.Remove(eventID); removed {
			d.Events = updated
			if err := tx.UpdateDepartment(ctx, d); err != nil {
				return apperr.Internal(err, "detach event from department")
			}
		}
	}
	for _, id := range f.Attach {
		d, err := tx.GetDepartment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("department %s not found", id)
		}
		if err != nil {
			return apperr.Internal(err, "load department")
		}
		if updated, added := d.Events.Add(eventID); added {
			d.Events = updated
			if err := tx.UpdateDepartment(ctx, d); err != nil {
				return apperr.Internal(err, "attach event to department")
			}
		}
	}
	return nil
}

// moveOrganization moves eventID from the events list of organization from to that of to.
func moveOrganization(ctx context.Context, tx store.Tx, eventID uuid.UUID, from, to *uuid.UUID) error {
	if sameOrg(from, to) {
		return nil
	}
	if from != nil {
		org, err := tx.GetOrganization(ctx, *from)
		switch {
		case err == nil:
			if updated, removed := org.Events.Remove(eventID); removed {
				org.Events = updated
				if err := tx.UpdateOrganization(ctx, org); err != nil {
					return apperr.Internal(err, "detach event from organization")
				}
			}
		case !errors.Is(err, store.ErrNotFound):
			return apperr.Internal(err, "load organization")
		}
	}
	if to != nil {
		org, err := tx.GetOrganization(ctx, *to)
		switch {
		case err == nil:
			if updated, added := org.Events.Add(eventID); added {
				org.Events = updated
				if err := tx.UpdateOrganization(ctx, org); err != nil {
					return apperr.Internal(err, "attach event to organization")
				}
			}
		case !errors.Is(err, store.ErrNotFound):
			return apperr.Internal(err, "load organization")
		}
	}
	return nil
}

func sameOrg(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
