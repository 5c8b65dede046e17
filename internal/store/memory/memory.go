// Package memory is an in-process implementation of store.Store. Transactions are serialized
// under one mutex and run against a cloned state that replaces the live state only on success.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/roles"
	"github.com/eventgrid/backend/internal/store"
)

type state struct {
	orgs       map[uuid.UUID]models.Organization
	depts      map[uuid.UUID]models.Department
	users      map[uuid.UUID]models.User
	events     map[uuid.UUID]models.Event
	categories map[uuid.UUID]models.Category
	types      map[uuid.UUID]models.Type
	feedback   map[uuid.UUID]models.Feedback
}

func newState() state {
	return state{
		orgs:       map[uuid.UUID]models.Organization{},
		depts:      map[uuid.UUID]models.Department{},
		users:      map[uuid.UUID]models.User{},
		events:     map[uuid.UUID]models.Event{},
		categories: map[uuid.UUID]models.Category{},
		types:      map[uuid.UUID]models.Type{},
		feedback:   map[uuid.UUID]models.Feedback{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.orgs {
		c.orgs[k] = v.Clone()
	}
	for k, v := range s.depts {
		c.depts[k] = v.Clone()
	}
	for k, v := range s.users {
		c.users[k] = v.Clone()
	}
	for k, v := range s.events {
		c.events[k] = v.Clone()
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.types {
		c.types[k] = v.Clone()
	}
	for k, v := range s.feedback {
		c.feedback[k] = v.Clone()
	}
	return c
}

// Store keeps every record in process memory.
type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{state: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// InTx runs fn against a private copy of the state and commits it when fn and ctx both succeed.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &tx{state: s.state.clone(), now: s.now}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = t.state
	return nil
}

var _ store.Tx = (*tx)(nil)

type tx struct {
	state state
	now   func() time.Time
}

func (t *tx) stamp(id *uuid.UUID, created *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if created.IsZero() {
		*created = t.now()
	}
}

func sortByCreated[T any](items []T, key func(T) (time.Time, uuid.UUID)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi.String() < idj.String()
	})
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Organizations

func (t *tx) CreateOrganization(_ context.Context, org *models.Organization) error {
	t.stamp(&org.ID, &org.CreatedAt)
	for _, o := range t.state.orgs {
		if strings.EqualFold(o.Name, org.Name) || o.Email == org.Email {
			return store.ErrDuplicate
		}
	}
	t.state.orgs[org.ID] = org.Clone()
	return nil
}

func (t *tx) GetOrganization(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	o, ok := t.state.orgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := o.Clone()
	return &c, nil
}

func (t *tx) FindOrganizations(_ context.Context, name, email string) ([]models.Organization, error) {
	var out []models.Organization
	for _, o := range t.state.orgs {
		if (name != "" && strings.EqualFold(o.Name, name)) || (email != "" && o.Email == email) {
			out = append(out, o.Clone())
		}
	}
	sortOrgs(out)
	return out, nil
}

func (t *tx) ListOrganizations(_ context.Context) ([]models.Organization, error) {
	out := make([]models.Organization, 0, len(t.state.orgs))
	for _, o := range t.state.orgs {
		out = append(out, o.Clone())
	}
	sortOrgs(out)
	return out, nil
}

func (t *tx) ListOrganizationsByAdmin(_ context.Context, userID uuid.UUID) ([]models.Organization, error) {
	var out []models.Organization
	for _, o := range t.state.orgs {
		if o.Admins.Has(userID) {
			out = append(out, o.Clone())
		}
	}
	sortOrgs(out)
	return out, nil
}

func (t *tx) UpdateOrganization(_ context.Context, org *models.Organization) error {
	if _, ok := t.state.orgs[org.ID]; !ok {
		return store.ErrNotFound
	}
	for id, o := range t.state.orgs {
		if id != org.ID && (strings.EqualFold(o.Name, org.Name) || o.Email == org.Email) {
			return store.ErrDuplicate
		}
	}
	t.state.orgs[org.ID] = org.Clone()
	return nil
}

func (t *tx) DeleteOrganization(_ context.Context, id uuid.UUID) error {
	if _, ok := t.state.orgs[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.state.orgs, id)
	return nil
}

func sortOrgs(items []models.Organization) {
	sortByCreated(items, func(o models.Organization) (time.Time, uuid.UUID) { return o.CreatedAt, o.ID })
}

// Departments

func (t *tx) CreateDepartment(_ context.Context, dept *models.Department) error {
	t.stamp(&dept.ID, &dept.CreatedAt)
	if dept.OrganizationID != nil && t.deptNameTaken(*dept.OrganizationID, dept.Name, dept.ID) {
		return store.ErrDuplicate
	}
	t.state.depts[dept.ID] = dept.Clone()
	return nil
}

func (t *tx) deptNameTaken(orgID uuid.UUID, name string, self uuid.UUID) bool {
	for id, d := range t.state.depts {
		if id != self && d.InOrganization(orgID) && strings.EqualFold(d.Name, name) {
			return true
		}
	}
	return false
}

func (t *tx) GetDepartment(_ context.Context, id uuid.UUID) (*models.Department, error) {
	d, ok := t.state.depts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := d.Clone()
	return &c, nil
}

func (t *tx) FindDepartmentByName(_ context.Context, orgID uuid.UUID, name string) (*models.Department, error) {
	for _, d := range t.state.depts {
		if d.InOrganization(orgID) && strings.EqualFold(d.Name, name) {
			c := d.Clone()
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) ListDepartments(_ context.Context, orgID *uuid.UUID) ([]models.Department, error) {
	var out []models.Department
	for _, d := range t.state.depts {
		if orgID == nil || d.InOrganization(*orgID) {
			out = append(out, d.Clone())
		}
	}
	sortDepts(out)
	return out, nil
}

func (t *tx) ListDepartmentsByAdmin(_ context.Context, userID uuid.UUID) ([]models.Department, error) {
	var out []models.Department
	for _, d := range t.state.depts {
		if d.Admins.Has(userID) {
			out = append(out, d.Clone())
		}
	}
	sortDepts(out)
	return out, nil
}

func (t *tx) UpdateDepartment(_ context.Context, dept *models.Department) error {
	if _, ok := t.state.depts[dept.ID]; !ok {
		return store.ErrNotFound
	}
	if dept.OrganizationID != nil && t.deptNameTaken(*dept.OrganizationID, dept.Name, dept.ID) {
		return store.ErrDuplicate
	}
	t.state.depts[dept.ID] = dept.Clone()
	return nil
}

func (t *tx) DeleteDepartment(_ context.Context, id uuid.UUID) error {
	if _, ok := t.state.depts[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.state.depts, id)
	return nil
}

func sortDepts(items []models.Department) {
	sortByCreated(items, func(d models.Department) (time.Time, uuid.UUID) { return d.CreatedAt, d.ID })
}

// Users

func (t *tx) CreateUser(_ context.Context, user *models.User) error {
	t.stamp(&user.ID, &user.CreatedAt)
	for _, u := range t.state.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	t.state.users[user.ID] = user.Clone()
	return nil
}

func (t *tx) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := t.state.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := u.Clone()
	return &c, nil
}

func (t *tx) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range t.state.users {
		if u.Email == email {
			c := u.Clone()
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) GetUsersByEmails(_ context.Context, emails []string) ([]models.User, error) {
	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[e] = true
	}
	var out []models.User
	for _, u := range t.state.users {
		if want[u.Email] {
			out = append(out, u.Clone())
		}
	}
	sortUsers(out)
	return out, nil
}

func (t *tx) ListUsers(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(t.state.users))
	for _, u := range t.state.users {
		out = append(out, u.Clone())
	}
	sortUsers(out)
	return out, nil
}

func (t *tx) ListUsersReferencing(_ context.Context, containerID uuid.UUID) ([]models.User, error) {
	var out []models.User
	for _, u := range t.state.users {
		if u.Organizations.Has(containerID) || u.Departments.Has(containerID) {
			out = append(out, u.Clone())
		}
	}
	sortUsers(out)
	return out, nil
}

func (t *tx) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := t.state.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	for id, u := range t.state.users {
		if id != user.ID && u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	t.state.users[user.ID] = user.Clone()
	return nil
}

func sortUsers(items []models.User) {
	sortByCreated(items, func(u models.User) (time.Time, uuid.UUID) { return u.CreatedAt, u.ID })
}

func (t *tx) MembershipSnapshot(_ context.Context, userID uuid.UUID) (roles.Snapshot, error) {
	var snap roles.Snapshot
	for _, o := range t.state.orgs {
		if o.Admins.Has(userID) {
			snap.OrgAdminOf++
		}
		if o.Members.Has(userID) {
			snap.OrgMemberOf++
		}
	}
	for _, d := range t.state.depts {
		if d.Admins.Has(userID) {
			snap.DeptAdminOf++
		}
	}
	return snap, nil
}

// Events

func (t *tx) CreateEvent(_ context.Context, event *models.Event) error {
	t.stamp(&event.ID, &event.CreatedAt)
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	}
	t.state.events[event.ID] = event.Clone()
	return nil
}

func (t *tx) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	e, ok := t.state.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := e.Clone()
	return &c, nil
}

func (t *tx) ListEvents(_ context.Context, f store.EventFilter) ([]models.Event, error) {
	var out []models.Event
	for _, e := range t.state.events {
		if len(f.DepartmentIDs) > 0 && !containsID(f.DepartmentIDs, e.DepartmentID) {
			continue
		}
		if f.CollaboratorID != nil && !e.CollaboratedDepartments.Has(*f.CollaboratorID) {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, e.ApprovalStatus) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e.Clone())
	}
	sortByCreated(out, func(e models.Event) (time.Time, uuid.UUID) { return e.CreatedAt, e.ID })
	return out, nil
}

func hasStatus(list []models.EventStatus, s models.EventStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (t *tx) UpdateEvent(_ context.Context, event *models.Event) error {
	if _, ok := t.state.events[event.ID]; !ok {
		return store.ErrNotFound
	}
	event.UpdatedAt = t.now()
	t.state.events[event.ID] = event.Clone()
	return nil
}

func (t *tx) DeleteEvent(_ context.Context, id uuid.UUID) error {
	if _, ok := t.state.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.state.events, id)
	for fid, f := range t.state.feedback {
		if f.EventID == id {
			delete(t.state.feedback, fid)
		}
	}
	return nil
}

func (t *tx) AddRegistrant(_ context.Context, eventID, userID uuid.UUID, kind models.ParticipantType) (bool, error) {
	e, ok := t.state.events[eventID]
	if !ok {
		return false, store.ErrNotFound
	}
	if e.IsRegistered(userID) || e.RegistrantCount() >= e.MaxParticipants {
		return false, nil
	}
	if kind == models.ParticipantInternal {
		e.InternalParticipants = append(e.InternalParticipants, userID)
	} else {
		e.ExternalParticipants = append(e.ExternalParticipants, userID)
	}
	e.UpdatedAt = t.now()
	t.state.events[eventID] = e
	return true, nil
}

// Categories

func (t *tx) CreateCategory(_ context.Context, c *models.Category) error {
	t.stamp(&c.ID, &c.CreatedAt)
	t.state.categories[c.ID] = *c
	return nil
}

func (t *tx) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	c, ok := t.state.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (t *tx) ListCategories(_ context.Context, f store.CategoryFilter) ([]models.Category, error) {
	var out []models.Category
	for _, c := range t.state.categories {
		if len(f.DepartmentIDs) > 0 && !containsID(f.DepartmentIDs, c.DepartmentID) {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c)
	}
	sortByCreated(out, func(c models.Category) (time.Time, uuid.UUID) { return c.CreatedAt, c.ID })
	return out, nil
}

func (t *tx) UpdateCategory(_ context.Context, c *models.Category) error {
	if _, ok := t.state.categories[c.ID]; !ok {
		return store.ErrNotFound
	}
	t.state.categories[c.ID] = *c
	return nil
}

func (t *tx) DeleteCategory(_ context.Context, id uuid.UUID) error {
	if _, ok := t.state.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.state.categories, id)
	return nil
}

// Types

func (t *tx) CreateType(_ context.Context, ty *models.Type) error {
	t.stamp(&ty.ID, &ty.CreatedAt)
	t.state.types[ty.ID] = ty.Clone()
	return nil
}

func (t *tx) GetType(_ context.Context, id uuid.UUID) (*models.Type, error) {
	ty, ok := t.state.types[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := ty.Clone()
	return &c, nil
}

func (t *tx) ListTypes(_ context.Context, f store.TypeFilter) ([]models.Type, error) {
	var out []models.Type
	for _, ty := range t.state.types {
		if len(f.OrganizationIDs) > 0 && (ty.OrganizationID == nil || !containsID(f.OrganizationIDs, *ty.OrganizationID)) {
			continue
		}
		if f.Status != "" && ty.Status != f.Status {
			continue
		}
		out = append(out, ty.Clone())
	}
	sortByCreated(out, func(ty models.Type) (time.Time, uuid.UUID) { return ty.CreatedAt, ty.ID })
	return out, nil
}

func (t *tx) UpdateType(_ context.Context, ty *models.Type) error {
	if _, ok := t.state.types[ty.ID]; !ok {
		return store.ErrNotFound
	}
	t.state.types[ty.ID] = ty.Clone()
	return nil
}

func (t *tx) DeleteType(_ context.Context, id uuid.UUID) error {
	if _, ok := t.state.types[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.state.types, id)
	return nil
}

// Feedback

func (t *tx) CreateFeedback(_ context.Context, f *models.Feedback) error {
	for _, existing := range t.state.feedback {
		if existing.EventID == f.EventID && existing.UserID == f.UserID {
			return store.ErrDuplicate
		}
	}
	t.stamp(&f.ID, &f.CreatedAt)
	t.state.feedback[f.ID] = f.Clone()
	return nil
}

func (t *tx) GetFeedback(_ context.Context, eventID, userID uuid.UUID) (*models.Feedback, error) {
	for _, f := range t.state.feedback {
		if f.EventID == eventID && f.UserID == userID {
			c := f.Clone()
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) ListFeedback(_ context.Context, eventID uuid.UUID) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, f := range t.state.feedback {
		if f.EventID == eventID {
			out = append(out, f.Clone())
		}
	}
	sortByCreated(out, func(f models.Feedback) (time.Time, uuid.UUID) { return f.CreatedAt, f.ID })
	return out, nil
}
