// Package taxonomy projects the organization graph into an Organization > Type > Department >
// Category > Event tree for browsing.
package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/metrics"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

// CacheKey is where the rendered tree is cached.
const CacheKey = "taxonomy:full"

// ErrCacheMiss is returned by a Cache that holds no value for a key.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores the rendered tree between requests.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EventNode is a browsable event.
type EventNode struct {
	ID             uuid.UUID          `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Tags           []string           `json:"tags"`
	ApprovalStatus models.EventStatus `json:"approval_status"`
	Mode           models.EventMode   `json:"mode"`
	Venue          string             `json:"venue"`
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
}

// CategoryNode is a department category with its events.
type CategoryNode struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Status      models.ApprovalStatus `json:"status"`
	Events      []EventNode           `json:"events"`
}

// DepartmentNode is a department with its categories.
type DepartmentNode struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Categories  []CategoryNode `json:"categories"`
}

// TypeNode is an organization type with the departments labelled by it.
type TypeNode struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Status      models.ApprovalStatus `json:"status"`
	Departments []DepartmentNode      `json:"departments"`
}

// OrganizationNode is the root of one organization's tree.
type OrganizationNode struct {
	ID      uuid.UUID  `json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Address string     `json:"address"`
	City    string     `json:"city"`
	State   string     `json:"state"`
	Types   []TypeNode `json:"types"`
}

// Service builds and caches the taxonomy tree.
type Service struct {
	store   store.Store
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a taxonomy service. A nil cache or a non-positive ttl disables caching.
func NewService(s store.Store, cache Cache, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		cache = nil
	}
	return &Service{store: s, cache: cache, ttl: ttl, metrics: m, logger: logger}
}

// Get returns the tree, served from the cache when it holds a fresh copy.
// Only Approved and Freezed events are listed.
func (s *Service) Get(ctx context.Context) ([]OrganizationNode, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, CacheKey)
		switch {
		case err == nil:
			var tree []OrganizationNode
			if err := json.Unmarshal(raw, &tree); err == nil {
				s.metrics.CacheLookup("taxonomy", true)
				return tree, nil
			}
			s.logger.Warn("discarding corrupt taxonomy cache entry")
		case !errors.Is(err, ErrCacheMiss):
			s.logger.Warn("taxonomy cache read failed", zap.Error(err))
		}
		s.metrics.CacheLookup("taxonomy", false)
	}

	tree, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		raw, err := json.Marshal(tree)
		if err == nil {
			err = s.cache.Set(ctx, CacheKey, raw, s.ttl)
		}
		if err != nil {
			s.logger.Warn("taxonomy cache write failed", zap.Error(err))
		}
	}
	return tree, nil
}

// Invalidate drops the cached tree so the next Get rebuilds it.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, CacheKey); err != nil {
		return apperr.Internal(err, "invalidate taxonomy cache")
	}
	return nil
}

// GraphChanged drops the cached tree after a committed change. A failure is logged and the
// next Get may serve the old tree until the ttl runs out.
func (s *Service) GraphChanged(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn("taxonomy cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) build(ctx context.Context) ([]OrganizationNode, error) {
	var tree []OrganizationNode
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		orgs, err := tx.ListOrganizations(ctx)
		if err != nil {
			return apperr.Internal(err, "list organizations")
		}
		types, err := tx.ListTypes(ctx, store.TypeFilter{})
		if err != nil {
			return apperr.Internal(err, "list types")
		}
		depts, err := tx.ListDepartments(ctx, nil)
		if err != nil {
			return apperr.Internal(err, "list departments")
		}
		categories, err := tx.ListCategories(ctx, store.CategoryFilter{})
		if err != nil {
			return apperr.Internal(err, "list categories")
		}
		events, err := tx.ListEvents(ctx, store.EventFilter{Statuses: []models.EventStatus{models.EventApproved, models.EventFreezed}})
		if err != nil {
			return apperr.Internal(err, "list events")
		}
		tree = assemble(orgs, types, depts, categories, events)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// assemble nests the flat lists. Types attach by organization, departments by organization and type
// name, categories by department, events by department and category name.
func assemble(orgs []models.Organization, types []models.Type, depts []models.Department, categories []models.Category, events []models.Event) []OrganizationNode {
	typesByOrg := make(map[uuid.UUID][]models.Type)
	for _, t := range types {
		if t.OrganizationID != nil {
			typesByOrg[*t.OrganizationID] = append(typesByOrg[*t.OrganizationID], t)
		}
	}
	type deptKey struct {
		org      uuid.UUID
		typeName string
	}
	deptsByType := make(map[deptKey][]models.Department)
	for _, d := range depts {
		if d.OrganizationID != nil {
			k := deptKey{*d.OrganizationID, d.Type}
			deptsByType[k] = append(deptsByType[k], d)
		}
	}
	catsByDept := make(map[uuid.UUID][]models.Category)
	for _, c := range categories {
		catsByDept[c.DepartmentID] = append(catsByDept[c.DepartmentID], c)
	}
	type eventKey struct {
		dept     uuid.UUID
		category string
	}
	eventsByCat := make(map[eventKey][]EventNode)
	for _, e := range events {
		k := eventKey{e.DepartmentID, e.Category}
		eventsByCat[k] = append(eventsByCat[k], EventNode{
			ID:             e.ID,
			Title:          e.Title,
			Description:    e.Description,
			Tags:           e.Tags,
			ApprovalStatus: e.ApprovalStatus,
			Mode:           e.Mode,
			Venue:          e.Venue,
			StartDate:      e.StartDate,
			EndDate:        e.EndDate,
		})
	}

	tree := make([]OrganizationNode, 0, len(orgs))
	for _, o := range orgs {
		on := OrganizationNode{ID: o.ID, Name: o.Name, Email: o.Email, Address: o.Address, City: o.City, State: o.State, Types: []TypeNode{}}
		for _, t := range typesByOrg[o.ID] {
			tn := TypeNode{ID: t.ID, Name: t.Name, Description: t.Description, Status: t.Status, Departments: []DepartmentNode{}}
			for _, d := range deptsByType[deptKey{o.ID, t.Name}] {
				dn := DepartmentNode{ID: d.ID, Name: d.Name, Type: d.Type, Description: d.Description, Categories: []CategoryNode{}}
				for _, c := range catsByDept[d.ID] {
					evs := eventsByCat[eventKey{d.ID, c.Name}]
					if evs == nil {
						evs = []EventNode{}
					}
					dn.Categories = append(dn.Categories, CategoryNode{
						ID:          c.ID,
						Name:        c.Name,
						Description: c.Description,
						Status:      c.Status,
						Events:      evs,
					})
				}
				tn.Departments = append(tn.Departments, dn)
			}
			on.Types = append(on.Types, tn)
		}
		tree = append(tree, on)
	}
	return tree
}
