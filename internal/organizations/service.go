package organizations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/access"
	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/departments"
	"github.com/eventgrid/backend/internal/membership"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

// Service implements organization operations over the entity store.
type Service struct {
	store   store.Store
	changes store.ChangeListener
}

// NewService creates an organizations service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// CreateInput is the payload for Create.
type CreateInput struct {
	Name         string
	Email        string
	Address      string
	City         string
	State        string
	POC          string
	Contact      string
	MemberDomain []string
}

// EditInput holds optional organization fields; nil leaves a field unchanged.
type EditInput struct {
	Name         *string
	Email        *string
	Address      *string
	City         *string
	State        *string
	POC          *string
	Contact      *string
	MemberDomain *[]string
}

// Create registers a new organization. Names are unique case-insensitively, emails after lower-casing.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*models.Organization, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, apperr.Validation("organization name and email are required")
	}
	domains, err := normalizeDomains(in.MemberDomain)
	if err != nil {
		return nil, err
	}
	org := &models.Organization{
		Name:         name,
		Email:        email,
		Types:        models.Names{},
		Address:      in.Address,
		City:         in.City,
		State:        in.State,
		POC:          in.POC,
		Contact:      in.Contact,
		MemberDomain: domains,
		CreatedBy:    actorID,
	}
	err = s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireSuperAdmin(); err != nil {
			return err
		}
		if err := ensureUnique(ctx, tx, name, email, uuid.Nil); err != nil {
			return err
		}
		return translate(tx.CreateOrganization(ctx, org), "create organization")
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// Edit changes descriptive fields of an organization the actor administers.
func (s *Service) Edit(ctx context.Context, actorID, orgID uuid.UUID, in EditInput) (*models.Organization, error) {
	var org *models.Organization
	err := s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		org, err = getOrg(ctx, tx, orgID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireOrgAdmin(org); err != nil {
			return err
		}
		name, email := "", ""
		if in.Name != nil {
			if name = strings.TrimSpace(*in.Name); name == "" {
				return apperr.Validation("organization name cannot be empty")
			}
			org.Name = name
		}
		if in.Email != nil {
			if email = strings.ToLower(strings.TrimSpace(*in.Email)); email == "" {
				return apperr.Validation("organization email cannot be empty")
			}
			org.Email = email
		}
		if err := ensureUnique(ctx, tx, name, email, org.ID); err != nil {
			return err
		}
		if in.MemberDomain != nil {
			domains, err := normalizeDomains(*in.MemberDomain)
			if err != nil {
				return err
			}
			org.MemberDomain = domains
		}
		setIf(&org.Address, in.Address)
		setIf(&org.City, in.City)
		setIf(&org.State, in.State)
		setIf(&org.POC, in.POC)
		setIf(&org.Contact, in.Contact)
		return translate(tx.UpdateOrganization(ctx, org), "update organization")
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Delete removes an organization together with its departments. Events and types are kept.
func (s *Service) Delete(ctx context.Context, actorID, orgID uuid.UUID) error {
	return s.write(ctx, func(ctx context.Context, tx store.Tx) error {
		org, err := getOrg(ctx, tx, orgID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireOrgAdmin(org); err != nil {
			return err
		}
		owned, err := tx.ListDepartments(ctx, &orgID)
		if err != nil {
			return apperr.Internal(err, "list departments")
		}
		ids := org.Departments.Clone()
		for _, d := range owned {
			ids, _ = ids.Add(d.ID)
		}
		for _, id := range ids {
			dept, err := tx.GetDepartment(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return apperr.Internal(err, "load department")
			}
			if err := departments.Dissolve(ctx, tx, dept); err != nil {
				return err
			}
		}
		return membership.RemoveContainer(ctx, tx, membership.Org(orgID))
	})
}

// AddMembers adds users by email to the organization.
func (s *Service) AddMembers(ctx context.Context, actorID, orgID uuid.UUID, emails []string) (*membership.AddResult, error) {
	var res *membership.AddResult
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		org, err := getOrg(ctx, tx, orgID)
		if err != nil {
			return err
		}
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireOrgAdmin(org); err != nil {
			return err
		}
		res, err = membership.AddMembers(ctx, tx, membership.Org(orgID), emails)
		return err
	})
	return res, err
}

// AssignAdminByName makes the user with email an admin of the organization named name.
func (s *Service) AssignAdminByName(ctx context.Context, actorID uuid.UUID, name, email string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(email) == "" {
		return nil, apperr.Validation("organization name and user email are required")
	}
	var org *models.Organization
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireSuperAdmin(); err != nil {
			return err
		}
		matches, err := tx.FindOrganizations(ctx, name, "")
		if err != nil {
			return apperr.Internal(err, "find organization")
		}
		if len(matches) == 0 {
			return apperr.NotFound("organization not found")
		}
		if _, err := membership.AssignAdmin(ctx, tx, membership.Org(matches[0].ID), email); err != nil {
			return err
		}
		org, err = getOrg(ctx, tx, matches[0].ID)
		return err
	})
	return org, err
}

// ReplaceAdmin swaps adminID for the user with newEmail.
func (s *Service) ReplaceAdmin(ctx context.Context, actorID, orgID, adminID uuid.UUID, newEmail string) (*models.Organization, error) {
	var org *models.Organization
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		actor, err := access.Load(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if err := actor.RequireSuperAdmin(); err != nil {
			return err
		}
		if err := membership.ReplaceAdmin(ctx, tx, membership.Org(orgID), adminID, newEmail); err != nil {
			return err
		}
		org, err = getOrg(ctx, tx, orgID)
		return err
	})
	return org, err
}

// Get returns one organization.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org *models.Organization
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		org, err = getOrg(ctx, tx, orgID)
		return err
	})
	return org, err
}

// List returns every organization.
func (s *Service) List(ctx context.Context) ([]models.Organization, error) {
	var list []models.Organization
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		list, err = tx.ListOrganizations(ctx)
		return translate(err, "list organizations")
	})
	return list, err
}

// ListByAdmin returns the organizations userID administers.
func (s *Service) ListByAdmin(ctx context.Context, userID uuid.UUID) ([]models.Organization, error) {
	var list []models.Organization
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		list, err = tx.ListOrganizationsByAdmin(ctx, userID)
		return translate(err, "list organizations")
	})
	return list, err
}

func getOrg(ctx context.Context, tx store.Tx, id uuid.UUID) (*models.Organization, error) {
	org, err := tx.GetOrganization(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("organization not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load organization")
	}
	return org, nil
}

// ensureUnique rejects a name or email already used by another organization. Empty values are not checked.
func ensureUnique(ctx context.Context, tx store.Tx, name, email string, self uuid.UUID) error {
	if name == "" && email == "" {
		return nil
	}
	matches, err := tx.FindOrganizations(ctx, name, email)
	if err != nil {
		return apperr.Internal(err, "check organization uniqueness")
	}
	for _, o := range matches {
		if o.ID == self {
			continue
		}
		field := "email"
		if name != "" && strings.EqualFold(o.Name, name) {
			field = "name"
		}
		return apperr.Conflict("organization with this name or email already exists").
			WithCode("duplicate_organization").WithDetail("duplicate", field)
	}
	return nil
}

func normalizeDomains(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if !strings.HasPrefix(d, "@") {
			return nil, apperr.Validation("member domain must start with '@'").
				WithCode("invalid_member_domain").WithDetail("domain", d)
		}
		out = append(out, d)
	}
	return out, nil
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict("organization with this name or email already exists").WithCode("duplicate_organization")
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("organization not found")
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
