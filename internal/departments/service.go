package departments

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/access"
	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/membership"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

// Service implements department operations over the entity store.
type Service struct {
	store   store.Store
	changes store.ChangeListener
}

// NewService creates a departments service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// CreateInput is the payload for Create.
type CreateInput struct {
	OrganizationID uuid.UUID
	Name           string
	Type           string
	Description    string
}

// EditInput holds optional department fields; nil leaves a field unchanged.
type EditInput struct {
	Name        *string
	Type        *string
	Description *string
}

// Create adds a department to an organization the actor administers.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*models.Department, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Validation("department name is required")
	}
	var dept *models.Department
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		org, err := tx.GetOrganization(ctx, in.OrganizationID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("organization not found")
		}
		if err != nil {
			return apperr.Internal(err, "load organization")
		}
		if err := actor.RequireOrgAdmin(org); err != nil {
			return err
		}
		if err := ensureNameFree(ctx, tx, org.ID, in.Name, uuid.Nil); err != nil {
			return err
		}
		dept = &models.Department{
			OrganizationID: &org.ID,
			Name:           in.Name,
			Type:           strings.TrimSpace(in.Type),
			Description:    in.Description,
			Categories:     models.Names{},
			CreatedBy:      actorID,
		}
		if err := tx.CreateDepartment(ctx, dept); err != nil {
			return translate(err, "create department")
		}
		org.Departments, _ = org.Departments.Add(dept.ID)
		if err := tx.UpdateOrganization(ctx, org); err != nil {
			return apperr.Internal(err, "link department to organization")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

// Edit changes name, type or description. Names stay unique within the organization.
func (s *Service) Edit(ctx context.Context, actorID, deptID uuid.UUID, in EditInput) (*models.Department, error) {
	var dept *models.Department
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		dept, err = getDept(ctx, tx, deptID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireOrgAdminOfDept(ctx, tx, dept); err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation("department name cannot be empty")
			}
			if dept.OrganizationID != nil {
				if err := ensureNameFree(ctx, tx, *dept.OrganizationID, name, dept.ID); err != nil {
					return err
				}
			}
			dept.Name = name
		}
		if in.Type != nil {
			dept.Type = strings.TrimSpace(*in.Type)
		}
		if in.Description != nil {
			dept.Description = *in.Description
		}
		return translate(tx.UpdateDepartment(ctx, dept), "update department")
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

// Delete removes a department and every edge that points at it.
func (s *Service) Delete(ctx context.Context, actorID, deptID uuid.UUID) error {
	return s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		dept, err := getDept(ctx, tx, deptID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireOrgAdminOfDept(ctx, tx, dept); err != nil {
			return err
		}
		return Dissolve(ctx, tx, dept)
	})
}

// Dissolve detaches dept from its organization, from other events' collaboration lists and from
// its participants, then deletes it. Events and categories it hosts are kept.
func Dissolve(ctx context.Context, tx store.Tx, dept *models.Department) error {
	if dept.OrganizationID != nil {
		org, err := tx.GetOrganization(ctx, *dept.OrganizationID)
		switch {
		case err == nil:
			if updated, changed := org.Departments.Remove(dept.ID); changed {
				org.Departments = updated
				if err := tx.UpdateOrganization(ctx, org); err != nil {
					return apperr.Internal(err, "unlink department from organization")
				}
			}
		case !errors.Is(err, store.ErrNotFound):
			return apperr.Internal(err, "load organization")
		}
	}
	collaborating, err := tx.ListEvents(ctx, store.EventFilter{CollaboratorID: &dept.ID})
	if err != nil {
		return apperr.Internal(err, "list collaborating events")
	}
	for i := range collaborating {
		e := &collaborating[i]
		e.CollaboratedDepartments, _ = e.CollaboratedDepartments.Remove(dept.ID)
		if err := tx.UpdateEvent(ctx, e); err != nil {
			return apperr.Internal(err, "unlink department from event")
		}
	}
	return membership.RemoveContainer(ctx, tx, membership.Dept(dept.ID))
}

// AddMembers adds organization participants to the department.
func (s *Service) AddMembers(ctx context.Context, actorID, deptID uuid.UUID, emails []string) (*membership.AddResult, error) {
	var res *membership.AddResult
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		dept, err := getDept(ctx, tx, deptID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireDeptAdmin(ctx, tx, dept); err != nil {
			return err
		}
		res, err = membership.AddMembers(ctx, tx, membership.Dept(deptID), emails)
		return err
	})
	return res, err
}

// AssignAdmin makes the user with email an admin of the department.
func (s *Service) AssignAdmin(ctx context.Context, actorID, deptID uuid.UUID, email string) (*models.Department, error) {
	var dept *models.Department
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		d, err := getDept(ctx, tx, deptID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireOrgAdminOfDept(ctx, tx, d); err != nil {
			return err
		}
		if _, err := membership.AssignAdmin(ctx, tx, membership.Dept(deptID), email); err != nil {
			return err
		}
		dept, err = getDept(ctx, tx, deptID)
		return err
	})
	return dept, err
}

// ReplaceAdmin swaps one department admin for another.
func (s *Service) ReplaceAdmin(ctx context.Context, actorID, deptID, oldAdminID uuid.UUID, newEmail string) (*models.Department, error) {
	var dept *models.Department
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		d, err := getDept(ctx, tx, deptID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireOrgAdminOfDept(ctx, tx, d); err != nil {
			return err
		}
		if err := membership.ReplaceAdmin(ctx, tx, membership.Dept(deptID), oldAdminID, newEmail); err != nil {
			return err
		}
		dept, err = getDept(ctx, tx, deptID)
		return err
	})
	return dept, err
}

// Get returns one department visible to an admin of it or of its organization.
func (s *Service) Get(ctx context.Context, actorID, deptID uuid.UUID) (*models.Department, error) {
	var dept *models.Department
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		dept, err = getDept(ctx, tx, deptID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		return actor.RequireDeptAdmin(ctx, tx, dept)
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

// List returns all departments, or those of orgID when set.
func (s *Service) List(ctx context.Context, orgID *uuid.UUID) ([]models.Department, error) {
	var list []models.Department
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		list, err = tx.ListDepartments(ctx, orgID)
		return translate(err, "list departments")
	})
	return list, err
}

// ListByAdmin returns the departments userID administers.
func (s *Service) ListByAdmin(ctx context.Context, userID uuid.UUID) ([]models.Department, error) {
	var list []models.Department
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		list, err = tx.ListDepartmentsByAdmin(ctx, userID)
		return translate(err, "list departments")
	})
	return list, err
}

// CollaborationMode selects which candidates Collaborators returns.
type CollaborationMode string

const (
	CollaborationAll      CollaborationMode = ""
	CollaborationInternal CollaborationMode = "internal"
	CollaborationExternal CollaborationMode = "external"
)

// Collaborators returns the other departments, split by whether they share deptID's organization.
func (s *Service) Collaborators(ctx context.Context, deptID uuid.UUID, mode CollaborationMode) ([]models.Department, error) {
	var internal, external []models.Department
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		current, err := getDept(ctx, tx, deptID)
		if err != nil {
			return err
		}
		all, err := tx.ListDepartments(ctx, nil)
		if err != nil {
			return apperr.Internal(err, "list departments")
		}
		for _, d := range all {
			if d.ID == current.ID {
				continue
			}
			if current.OrganizationID != nil && d.InOrganization(*current.OrganizationID) {
				internal = append(internal, d)
			} else {
				external = append(external, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch mode {
	case CollaborationInternal:
		return nonNil(internal), nil
	case CollaborationExternal:
		return nonNil(external), nil
	default:
		return nonNil(append(internal, external...)), nil
	}
}

func nonNil(list []models.Department) []models.Department {
	if list == nil {
		return []models.Department{}
	}
	return list
}

func getDept(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Department, error) {
	d, err := tx.GetDepartment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("department not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load department")
	}
	return d, nil
}

func ensureNameFree(ctx context.Context, tx store.Tx, orgID uuid.UUID, name string, self uuid.UUID) error {
	existing, err := tx.FindDepartmentByName(ctx, orgID, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Internal(err, "check department name")
	}
	if existing.ID != self {
		return apperr.Conflict("department with this name already exists").WithCode("duplicate_name")
	}
	return nil
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict("department with this name already exists").WithCode("duplicate_name")
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("department not found")
	default:
		return apperr.Internal(err, "%s", op)
	}
}

// SetChangeListener registers l to hear about committed writes of this service.
func (s *Service) SetChangeListener(l store.ChangeListener) { s.changes = l }

// write runs fn in a transaction and reports the change once it has committed.
func (s *Service) write(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := s.store.InTx(ctx, fn); err != nil {
		return err
	}
	store.Notify(ctx, s.changes)
	return nil
}
