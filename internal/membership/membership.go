// Package membership keeps the bidirectional edges between containers (organizations and
// departments) and their participants consistent, and re-derives participant roles after
// every change. All functions run inside a caller-provided transaction.
package membership

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/roles"
	"github.com/eventgrid/backend/internal/store"
)

// Scope is the kind of container.
type Scope int

const (
	ScopeOrganization Scope = iota
	ScopeDepartment
)

func (s Scope) String() string {
	if s == ScopeDepartment {
		return "department"
	}
	return "organization"
}

// Ref identifies one container.
type Ref struct {
	Scope Scope
	ID    uuid.UUID
}

func Org(id uuid.UUID) Ref  { return Ref{Scope: ScopeOrganization, ID: id} }
func Dept(id uuid.UUID) Ref { return Ref{Scope: ScopeDepartment, ID: id} }

// AddResult reports the outcome of AddMembers.
type AddResult struct {
	Added    []string `json:"added_users"`
	NotFound []string `json:"non_existent_users"`
}

// node is a loaded container of either scope.
type node struct {
	ref  Ref
	org  *models.Organization
	dept *models.Department
}

func load(ctx context.Context, tx store.Tx, ref Ref) (*node, error) {
	n := &node{ref: ref}
	var err error
	switch ref.Scope {
	case ScopeDepartment:
		n.dept, err = tx.GetDepartment(ctx, ref.ID)
	default:
		n.org, err = tx.GetOrganization(ctx, ref.ID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("%s not found", ref.Scope)
	}
	if err != nil {
		return nil, apperr.Internal(err, "load %s", ref.Scope)
	}
	return n, nil
}

func (n *node) admins() *models.IDs {
	if n.dept != nil {
		return &n.dept.Admins
	}
	return &n.org.Admins
}

func (n *node) members() *models.IDs {
	if n.dept != nil {
		return &n.dept.Members
	}
	return &n.org.Members
}

func (n *node) save(ctx context.Context, tx store.Tx) error {
	var err error
	if n.dept != nil {
		err = tx.UpdateDepartment(ctx, n.dept)
	} else {
		err = tx.UpdateOrganization(ctx, n.org)
	}
	if err != nil {
		return apperr.Internal(err, "save %s", n.ref.Scope)
	}
	return nil
}

// memberships returns the participant-side edge list for scope.
func memberships(u *models.User, scope Scope) *models.IDs {
	if scope == ScopeDepartment {
		return &u.Departments
	}
	return &u.Organizations
}

// NormalizeEmails trims, lower-cases and de-duplicates emails, dropping blanks.
func NormalizeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// EmailDomain returns the "@domain" suffix starting at the last "@", or "" when there is none.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return email[i:]
}

// AddMembers adds the participants identified by emails to the container's members. Nothing is
// written when any email fails the domain allow-list, the parent-organization requirement or the
// already-a-member check. Unknown emails are reported and skipped.
func AddMembers(ctx context.Context, tx store.Tx, ref Ref, emails []string) (*AddResult, error) {
	emails = NormalizeEmails(emails)
	if len(emails) == 0 {
		return nil, apperr.Validation("provide at least one user email").WithCode("emails_required")
	}
	n, err := load(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	if n.org != nil && len(n.org.MemberDomain) > 0 {
		var mismatched []string
		for _, e := range emails {
			if !containsFold(n.org.MemberDomain, EmailDomain(e)) {
				mismatched = append(mismatched, e)
			}
		}
		if len(mismatched) > 0 {
			return nil, apperr.Validation("some emails don't match the organization's allowed domains").
				WithCode("domain_mismatch").WithDetail("invalid_emails", mismatched)
		}
	}

	users, err := tx.GetUsersByEmails(ctx, emails)
	if err != nil {
		return nil, apperr.Internal(err, "resolve users")
	}
	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.Email] = true
	}
	result := &AddResult{Added: []string{}, NotFound: []string{}}
	for _, e := range emails {
		if !found[e] {
			result.NotFound = append(result.NotFound, e)
		}
	}

	if n.dept != nil {
		if err := requireOrgParticipants(ctx, tx, n.dept, users); err != nil {
			return nil, err
		}
	}

	var already []string
	for _, u := range users {
		if n.members().Has(u.ID) {
			already = append(already, u.Email)
		}
	}
	if len(already) > 0 {
		return nil, apperr.Conflict("some users are already members of the %s", ref.Scope).
			WithCode("already_members").WithDetail("already_members", already)
	}

	affected := make([]uuid.UUID, 0, len(users))
	for i := range users {
		u := &users[i]
		*n.members(), _ = n.members().Add(u.ID)
		list := memberships(u, ref.Scope)
		if updated, changed := list.Add(ref.ID); changed {
			*list = updated
			if err := tx.UpdateUser(ctx, u); err != nil {
				return nil, apperr.Internal(err, "save user")
			}
		}
		result.Added = append(result.Added, u.Email)
		affected = append(affected, u.ID)
	}
	if err := n.save(ctx, tx); err != nil {
		return nil, err
	}
	if err := Rederive(ctx, tx, affected...); err != nil {
		return nil, err
	}
	return result, nil
}

func requireOrgParticipants(ctx context.Context, tx store.Tx, dept *models.Department, users []models.User) error {
	var org *models.Organization
	if dept.OrganizationID != nil {
		o, err := tx.GetOrganization(ctx, *dept.OrganizationID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return apperr.Internal(err, "load organization")
		}
		org = o
	}
	var outside []string
	for _, u := range users {
		if org == nil || !org.HasParticipant(u.ID) {
			outside = append(outside, u.Email)
		}
	}
	if len(outside) > 0 {
		return apperr.Validation("some users are not members of the organization").
			WithCode("not_org_members").WithDetail("invalid_users", outside)
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// AssignAdmin makes the participant with email an admin of the container. Re-assigning an
// existing organization admin is a Conflict; for departments it is a no-op.
func AssignAdmin(ctx context.Context, tx store.Tx, ref Ref, email string) (*models.User, error) {
	n, err := load(ctx, tx, ref)
	if err != nil {
		return nil, err
	}
	user, err := userByEmail(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if n.admins().Has(user.ID) {
		if ref.Scope == ScopeOrganization {
			return nil, apperr.Conflict("user is already an admin of this organization").WithCode("already_admin")
		}
		return user, nil
	}
	if err := attachAdmin(ctx, tx, n, user); err != nil {
		return nil, err
	}
	if err := n.save(ctx, tx); err != nil {
		return nil, err
	}
	if err := Rederive(ctx, tx, user.ID); err != nil {
		return nil, err
	}
	return tx.GetUser(ctx, user.ID)
}

// ReplaceAdmin swaps oldAdminID for the participant with newEmail in one unit. When newEmail
// does not resolve nothing is changed.
func ReplaceAdmin(ctx context.Context, tx store.Tx, ref Ref, oldAdminID uuid.UUID, newEmail string) error {
	n, err := load(ctx, tx, ref)
	if err != nil {
		return err
	}
	newUser, err := userByEmail(ctx, tx, newEmail)
	if err != nil {
		return err
	}
	if !n.admins().Has(oldAdminID) {
		return apperr.NotFound("user is not an admin of this %s", ref.Scope).WithCode("admin_not_found")
	}
	if newUser.ID == oldAdminID {
		return nil
	}

	*n.admins(), _ = n.admins().Remove(oldAdminID)
	if !n.members().Has(oldAdminID) {
		old, err := tx.GetUser(ctx, oldAdminID)
		switch {
		case err == nil:
			list := memberships(old, ref.Scope)
			*list, _ = list.Remove(ref.ID)
			if err := tx.UpdateUser(ctx, old); err != nil {
				return apperr.Internal(err, "save user")
			}
		case !errors.Is(err, store.ErrNotFound):
			return apperr.Internal(err, "load user")
		}
	}
	if err := attachAdmin(ctx, tx, n, newUser); err != nil {
		return err
	}
	if err := n.save(ctx, tx); err != nil {
		return err
	}
	return Rederive(ctx, tx, oldAdminID, newUser.ID)
}

func attachAdmin(ctx context.Context, tx store.Tx, n *node, user *models.User) error {
	*n.admins(), _ = n.admins().Add(user.ID)
	list := memberships(user, n.ref.Scope)
	if updated, changed := list.Add(n.ref.ID); changed {
		*list = updated
		if err := tx.UpdateUser(ctx, user); err != nil {
			return apperr.Internal(err, "save user")
		}
	}
	return nil
}

// RemoveContainer deletes the container record, drops it from every participant that references
// it and re-derives their roles. Edges from other entity kinds are the caller's concern.
func RemoveContainer(ctx context.Context, tx store.Tx, ref Ref) error {
	n, err := load(ctx, tx, ref)
	if err != nil {
		return err
	}
	users, err := tx.ListUsersReferencing(ctx, ref.ID)
	if err != nil {
		return apperr.Internal(err, "list participants")
	}
	affected := append(n.admins().Clone(), *n.members()...)
	for i := range users {
		u := &users[i]
		list := memberships(u, ref.Scope)
		if updated, changed := list.Remove(ref.ID); changed {
			*list = updated
			if err := tx.UpdateUser(ctx, u); err != nil {
				return apperr.Internal(err, "save user")
			}
		}
		affected, _ = affected.Add(u.ID)
	}
	if ref.Scope == ScopeDepartment {
		err = tx.DeleteDepartment(ctx, ref.ID)
	} else {
		err = tx.DeleteOrganization(ctx, ref.ID)
	}
	if err != nil {
		return apperr.Internal(err, "delete %s", ref.Scope)
	}
	return Rederive(ctx, tx, affected.Dedup()...)
}

// Rederive recomputes and stores the roles of each participant. Missing participants are skipped.
func Rederive(ctx context.Context, tx store.Tx, userIDs ...uuid.UUID) error {
	for _, id := range models.IDs(userIDs).Dedup() {
		u, err := tx.GetUser(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return apperr.Internal(err, "load user")
		}
		snap, err := tx.MembershipSnapshot(ctx, id)
		if err != nil {
			return apperr.Internal(err, "count memberships")
		}
		derived := roles.Derive(u.Roles, snap)
		if roles.Equal(derived, u.Roles) {
			continue
		}
		u.Roles = derived
		if err := tx.UpdateUser(ctx, u); err != nil {
			return apperr.Internal(err, "save user roles")
		}
	}
	return nil
}

func userByEmail(ctx context.Context, tx store.Tx, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("email is required").WithCode("email_required")
	}
	u, err := tx.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("user with email %s not found", email).WithCode("user_not_found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load user")
	}
	return u, nil
}
