// Package store defines the transactional entity store shared by every engine.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/roles"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule.
	ErrDuplicate = errors.New("store: duplicate")
)

// Store runs units of work atomically. Any error returned by fn rolls back every write made through tx.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// ChangeListener is told after a committed transaction changed organizations, departments,
// categories, types or events, so views derived from them can be dropped.
type ChangeListener interface {
	GraphChanged(ctx context.Context)
}

// Notify calls l when it is set.
func Notify(ctx context.Context, l ChangeListener) {
	if l != nil {
		l.GraphChanged(ctx)
	}
}

// Tx is the set of reads and writes available inside one transaction.
type Tx interface {
	OrganizationStore
	DepartmentStore
	UserStore
	EventStore
	CategoryStore
	TypeStore
	FeedbackStore

	// MembershipSnapshot counts the containers that list userID as admin or member.
	MembershipSnapshot(ctx context.Context, userID uuid.UUID) (roles.Snapshot, error)
}

type OrganizationStore interface {
	CreateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	// FindOrganizations returns organizations whose name matches case-insensitively or whose email matches.
	FindOrganizations(ctx context.Context, name, email string) ([]models.Organization, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	ListOrganizationsByAdmin(ctx context.Context, userID uuid.UUID) ([]models.Organization, error)
	UpdateOrganization(ctx context.Context, org *models.Organization) error
	DeleteOrganization(ctx context.Context, id uuid.UUID) error
}

type DepartmentStore interface {
	CreateDepartment(ctx context.Context, dept *models.Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error)
	// FindDepartmentByName matches name case-insensitively within orgID.
	FindDepartmentByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Department, error)
	// ListDepartments lists every department, or only those of orgID when it is non-nil.
	ListDepartments(ctx context.Context, orgID *uuid.UUID) ([]models.Department, error)
	ListDepartmentsByAdmin(ctx context.Context, userID uuid.UUID) ([]models.Department, error)
	UpdateDepartment(ctx context.Context, dept *models.Department) error
	DeleteDepartment(ctx context.Context, id uuid.UUID) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUsersByEmails returns the users found among emails; missing emails are skipped.
	GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// ListUsersReferencing returns users whose organization or department lists contain containerID.
	ListUsersReferencing(ctx context.Context, containerID uuid.UUID) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// EventFilter narrows ListEvents. Zero fields do not filter.
type EventFilter struct {
	DepartmentIDs  []uuid.UUID
	CollaboratorID *uuid.UUID
	Statuses       []models.EventStatus
	Category       string
}

type EventStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	// AddRegistrant appends userID to the list for kind only while the event is below capacity
	// and userID is not yet registered. It reports whether the write happened.
	AddRegistrant(ctx context.Context, eventID, userID uuid.UUID, kind models.ParticipantType) (bool, error)
}

// CategoryFilter narrows ListCategories. Zero fields do not filter.
type CategoryFilter struct {
	DepartmentIDs []uuid.UUID
	Status        models.ApprovalStatus
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context, filter CategoryFilter) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// TypeFilter narrows ListTypes. Zero fields do not filter.
type TypeFilter struct {
	OrganizationIDs []uuid.UUID
	Status          models.ApprovalStatus
}

type TypeStore interface {
	CreateType(ctx context.Context, t *models.Type) error
	GetType(ctx context.Context, id uuid.UUID) (*models.Type, error)
	ListTypes(ctx context.Context, filter TypeFilter) ([]models.Type, error)
	UpdateType(ctx context.Context, t *models.Type) error
	DeleteType(ctx context.Context, id uuid.UUID) error
}

type FeedbackStore interface {
	// CreateFeedback fails with ErrDuplicate when (EventID, UserID) already has feedback.
	CreateFeedback(ctx context.Context, f *models.Feedback) error
	GetFeedback(ctx context.Context, eventID, userID uuid.UUID) (*models.Feedback, error)
	ListFeedback(ctx context.Context, eventID uuid.UUID) ([]models.Feedback, error)
}
