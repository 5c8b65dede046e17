// Package approval runs the propose/approve/delete lifecycle of event categories and department types.
package approval

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/access"
	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

// MaxCategoryDescription is the longest accepted category description, in characters.
const MaxCategoryDescription = 500

// Service implements category and type approval over the entity store.
type Service struct {
	store   store.Store
	changes store.ChangeListener
}

// NewService creates an approval service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// CategoryInput is the payload for ProposeCategory.
type CategoryInput struct {
	DepartmentID uuid.UUID
	Name         string
	Description  string
}

// TypeInput is the payload for ProposeType. OrganizationID is optional.
type TypeInput struct {
	OrganizationID *uuid.UUID
	Name           string
	Description    string
}

// ProposeCategory records a pending category for a department the actor administers.
func (s *Service) ProposeCategory(ctx context.Context, actorID uuid.UUID, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.Description == "" || in.DepartmentID == uuid.Nil {
		return nil, apperr.Validation("name, description and department id are required").WithCode("missing_fields")
	}
	if utf8.RuneCountInString(in.Description) > MaxCategoryDescription {
		return nil, apperr.Validation("description must be at most %d characters", MaxCategoryDescription).WithCode("description_too_long")
	}
	var cat *models.Category
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		dept, err := getDept(ctx, tx, in.DepartmentID)
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
		existing, err := tx.ListCategories(ctx, store.CategoryFilter{DepartmentIDs: []uuid.UUID{dept.ID}})
		if err != nil {
			return apperr.Internal(err, "list categories")
		}
		for _, c := range existing {
			if strings.EqualFold(c.Name, in.Name) {
				return apperr.Conflict("category %q already exists for this department", c.Name).WithCode("duplicate_category")
			}
		}
		cat = &models.Category{
			Name:         in.Name,
			Description:  in.Description,
			Status:       models.ApprovalPending,
			DepartmentID: dept.ID,
		}
		if err := tx.CreateCategory(ctx, cat); err != nil {
			return apperr.Internal(err, "create category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// ApproveCategory marks a category approved and links its name into the department.
func (s *Service) ApproveCategory(ctx context.Context, actorID, categoryID uuid.UUID) (*models.Category, error) {
	var cat *models.Category
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		cat, err = getCategory(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		dept, err := getDept(ctx, tx, cat.DepartmentID)
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
		if cat.Status != models.ApprovalApproved {
			cat.Status = models.ApprovalApproved
			if err := tx.UpdateCategory(ctx, cat); err != nil {
				return apperr.Internal(err, "update category")
			}
		}
		if updated, added := dept.Categories.Add(cat.Name); added {
			dept.Categories = updated
			if err := tx.UpdateDepartment(ctx, dept); err != nil {
				return apperr.Internal(err, "link category to department")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// DeleteCategory unlinks a category from its department and deletes it.
func (s *Service) DeleteCategory(ctx context.Context, actorID, categoryID uuid.UUID) error {
	return s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		cat, err := getCategory(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		dept, err := tx.GetDepartment(ctx, cat.DepartmentID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := actor.RequireSuperAdmin(); err != nil {
				return err
			}
		case err != nil:
			return apperr.Internal(err, "load department")
		default:
			if err := actor.RequireOrgAdminOfDept(ctx, tx, dept); err != nil {
				return err
			}
			if updated, removed := dept.Categories.Remove(cat.Name); removed {
				dept.Categories = updated
				if err := tx.UpdateDepartment(ctx, dept); err != nil {
					return apperr.Internal(err, "unlink category from department")
				}
			}
		}
		if err := tx.DeleteCategory(ctx, cat.ID); err != nil {
			return translate(err, "category", "delete category")
		}
		return nil
	})
}

// ListCategories returns every category, or those of deptID when set.
func (s *Service) ListCategories(ctx context.Context, deptID *uuid.UUID) ([]models.Category, error) {
	var list []models.Category
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var f store.CategoryFilter
		if deptID != nil {
			f.DepartmentIDs = []uuid.UUID{*deptID}
		}
		var err error
		list, err = tx.ListCategories(ctx, f)
		return translate(err, "category", "list categories")
	})
	return nonNil(list), err
}

// ListCategoriesForOrgAdmin returns the categories of departments in organizations the actor administers.
// A deptID outside that scope is forbidden.
func (s *Service) ListCategoriesForOrgAdmin(ctx context.Context, actorID uuid.UUID, deptID *uuid.UUID) ([]models.Category, error) {
	var list []models.Category
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		orgs, err := tx.ListOrganizationsByAdmin(ctx, actorID)
		if err != nil {
			return apperr.Internal(err, "list organizations")
		}
		if len(orgs) == 0 {
			return apperr.Forbidden("you are not an admin of any organization")
		}
		var scope models.IDs
		for _, o := range orgs {
			for _, id := range o.Departments {
				scope, _ = scope.Add(id)
			}
		}
		if deptID != nil {
			if !scope.Has(*deptID) {
				return apperr.Forbidden("department is outside your organizations")
			}
			scope = models.IDs{*deptID}
		}
		if len(scope) == 0 {
			return nil
		}
		list, err = tx.ListCategories(ctx, store.CategoryFilter{DepartmentIDs: scope})
		return translate(err, "category", "list categories")
	})
	return nonNil(list), err
}

// ProposeType records a pending type, optionally scoped to an organization the actor administers.
func (s *Service) ProposeType(ctx context.Context, actorID uuid.UUID, in TypeInput) (*models.Type, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.Description == "" {
		return nil, apperr.Validation("name and description are required").WithCode("missing_fields")
	}
	var typ *models.Type
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if in.OrganizationID != nil {
			org, err := getOrg(ctx, tx, *in.OrganizationID)
			if err != nil {
				return err
			}
			if err := actor.RequireOrgAdmin(org); err != nil {
				return err
			}
		}
		typ = &models.Type{
			Name:           in.Name,
			Description:    in.Description,
			Status:         models.ApprovalPending,
			OrganizationID: in.OrganizationID,
		}
		if err := tx.CreateType(ctx, typ); err != nil {
			return apperr.Internal(err, "create type")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return typ, nil
}

// ApproveType marks a type approved and links its name into orgID. Only a Super Admin may approve.
func (s *Service) ApproveType(ctx context.Context, actorID, typeID, orgID uuid.UUID) (*models.Type, error) {
	if orgID == uuid.Nil {
		return nil, apperr.Validation("organization id is required to approve the type").WithCode("missing_fields")
	}
	var typ *models.Type
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireSuperAdmin(); err != nil {
			return err
		}
		typ, err = getType(ctx, tx, typeID)
		if err != nil {
			return err
		}
		if typ.OrganizationID != nil && *typ.OrganizationID != orgID {
			return apperr.Validation("type was proposed for another organization").WithCode("organization_mismatch")
		}
		org, err := getOrg(ctx, tx, orgID)
		if err != nil {
			return err
		}
		if typ.Status != models.ApprovalApproved || typ.OrganizationID == nil {
			typ.Status = models.ApprovalApproved
			typ.OrganizationID = &org.ID
			if err := tx.UpdateType(ctx, typ); err != nil {
				return apperr.Internal(err, "update type")
			}
		}
		if updated, added := org.Types.Add(typ.Name); added {
			org.Types = updated
			if err := tx.UpdateOrganization(ctx, org); err != nil {
				return apperr.Internal(err, "link type to organization")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return typ, nil
}

// DeleteType unlinks a type from its organization and deletes it. Only a Super Admin may delete.
func (s *Service) DeleteType(ctx context.Context, actorID, typeID uuid.UUID) error {
	return s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireSuperAdmin(); err != nil {
			return err
		}
		typ, err := getType(ctx, tx, typeID)
		if err != nil {
			return err
		}
		if typ.OrganizationID != nil {
			org, err := tx.GetOrganization(ctx, *typ.OrganizationID)
			switch {
			case err == nil:
				if updated, removed := org.Types.Remove(typ.Name); removed {
					org.Types = updated
					if err := tx.UpdateOrganization(ctx, org); err != nil {
						return apperr.Internal(err, "unlink type from organization")
					}
				}
			case !errors.Is(err, store.ErrNotFound):
				return apperr.Internal(err, "load organization")
			}
		}
		return translate(tx.DeleteType(ctx, typ.ID), "type", "delete type")
	})
}

// ListTypes returns every type.
func (s *Service) ListTypes(ctx context.Context) ([]models.Type, error) {
	var list []models.Type
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		list, err = tx.ListTypes(ctx, store.TypeFilter{})
		return translate(err, "type", "list types")
	})
	if list == nil {
		list = []models.Type{}
	}
	return list, err
}

func nonNil(list []models.Category) []models.Category {
	if list == nil {
		return []models.Category{}
	}
	return list
}

func getDept(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Department, error) {
	d, err := tx.GetDepartment(ctx, id)
	if err != nil {
		return nil, translate(err, "department", "load department")
	}
	return d, nil
}

func getOrg(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Organization, error) {
	o, err := tx.GetOrganization(ctx, id)
	if err != nil {
		return nil, translate(err, "organization", "load organization")
	}
	return o, nil
}

func getCategory(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Category, error) {
	c, err := tx.GetCategory(ctx, id)
	if err != nil {
		return nil, translate(err, "category", "load category")
	}
	return c, nil
}

func getType(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Type, error) {
	t, err := tx.GetType(ctx, id)
	if err != nil {
		return nil, translate(err, "type", "load type")
	}
	return t, nil
}

func translate(err error, entity, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("%s not found", entity)
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
