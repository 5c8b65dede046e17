package taxonomy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/eventgrid/backend/internal/access"
	"github.com/eventgrid/backend/internal/approval"
	"github.com/eventgrid/backend/internal/departments"
	"github.com/eventgrid/backend/internal/events"
	"github.com/eventgrid/backend/internal/metrics"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
	"github.com/eventgrid/backend/internal/store/memory"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	v, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type graph struct {
	orgID     uuid.UUID
	labs      uuid.UUID
	untyped   uuid.UUID
	approved  uuid.UUID
	frozen    uuid.UUID
	pending   uuid.UUID
	otherCat  uuid.UUID
	otherType uuid.UUID
}

func seed(t *testing.T, s *memory.Store) graph {
	t.Helper()
	var g graph
	err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		org := &models.Organization{Name: "Acme", Email: "acme@x.io"}
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}
		g.orgID = org.ID
		for _, ty := range []*models.Type{
			{Name: "Engineering", Status: models.ApprovalApproved, OrganizationID: &org.ID},
			{Name: "Arts", Status: models.ApprovalPending, OrganizationID: &org.ID},
			{Name: "Floating", Status: models.ApprovalPending},
		} {
			if err := tx.CreateType(ctx, ty); err != nil {
				return err
			}
			if ty.Name == "Arts" {
				g.otherType = ty.ID
			}
		}
		labs := &models.Department{Name: "Labs", Type: "Engineering", OrganizationID: &org.ID}
		untyped := &models.Department{Name: "Office", Type: "Admin", OrganizationID: &org.ID}
		for _, d := range []*models.Department{labs, untyped} {
			if err := tx.CreateDepartment(ctx, d); err != nil {
				return err
			}
		}
		g.labs, g.untyped = labs.ID, untyped.ID
		workshop := &models.Category{Name: "Workshop", Status: models.ApprovalApproved, DepartmentID: labs.ID}
		talk := &models.Category{Name: "Talk", Status: models.ApprovalPending, DepartmentID: labs.ID}
		for _, c := range []*models.Category{workshop, talk} {
			if err := tx.CreateCategory(ctx, c); err != nil {
				return err
			}
		}
		g.otherCat = talk.ID
		for _, e := range []*models.Event{
			{Title: "Approved", DepartmentID: labs.ID, Category: "Workshop", ApprovalStatus: models.EventApproved},
			{Title: "Frozen", DepartmentID: labs.ID, Category: "Workshop", ApprovalStatus: models.EventFreezed},
			{Title: "Pending", DepartmentID: labs.ID, Category: "Workshop", ApprovalStatus: models.EventPending},
		} {
			if err := tx.CreateEvent(ctx, e); err != nil {
				return err
			}
			switch e.ApprovalStatus {
			case models.EventApproved:
				g.approved = e.ID
			case models.EventFreezed:
				g.frozen = e.ID
			default:
				g.pending = e.ID
			}
		}
		return nil
	})
	require.NoError(t, err)
	return g
}

func TestGetNestsGraph(t *testing.T) {
	s := memory.New()
	g := seed(t, s)
	svc := NewService(s, nil, 0, nil, nil)

	tree, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	org := tree[0]
	require.Equal(t, g.orgID, org.ID)
	require.Len(t, org.Types, 2)

	var eng, arts TypeNode
	for _, ty := range org.Types {
		switch ty.Name {
		case "Engineering":
			eng = ty
		case "Arts":
			arts = ty
		}
	}
	require.Equal(t, g.otherType, arts.ID)
	require.Empty(t, arts.Departments)
	require.NotNil(t, arts.Departments)

	require.Len(t, eng.Departments, 1)
	dept := eng.Departments[0]
	require.Equal(t, g.labs, dept.ID)
	require.Len(t, dept.Categories, 2)

	for _, c := range dept.Categories {
		if c.ID == g.otherCat {
			require.Empty(t, c.Events)
			continue
		}
		ids := make([]uuid.UUID, len(c.Events))
		for i, e := range c.Events {
			ids[i] = e.ID
		}
		require.ElementsMatch(t, []uuid.UUID{g.approved, g.frozen}, ids)
	}
}

func TestGetServesFromCache(t *testing.T) {
	s := memory.New()
	seed(t, s)
	cache := newMapCache()
	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewService(s, cache, time.Minute, m, nil)
	ctx := context.Background()

	first, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, time.Minute, cache.ttls[CacheKey])

	cached, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, first, cached)

	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("taxonomy", "miss")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("taxonomy", "hit")))

	// Writes made straight through the store need an explicit invalidation.
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateOrganization(ctx, &models.Organization{Name: "Beta", Email: "beta@x.io"})
	}))
	require.NoError(t, svc.Invalidate(ctx))
	fresh, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
}

func treeIDs(tree []OrganizationNode) map[uuid.UUID]bool {
	ids := map[uuid.UUID]bool{}
	for _, o := range tree {
		for _, ty := range o.Types {
			for _, d := range ty.Departments {
				ids[d.ID] = true
				for _, c := range d.Categories {
					ids[c.ID] = true
					for _, e := range c.Events {
						ids[e.ID] = true
					}
				}
			}
		}
	}
	return ids
}

func TestDeletedDepartmentLeavesCachedTree(t *testing.T) {
	s := memory.New()
	g := seed(t, s)
	svc := NewService(s, newMapCache(), time.Minute, nil, nil)
	depts := departments.NewService(s)
	depts.SetChangeListener(svc)
	ctx := context.Background()

	tree, err := svc.Get(ctx)
	require.NoError(t, err)
	require.True(t, treeIDs(tree)[g.labs])

	require.NoError(t, depts.Delete(ctx, access.System, g.labs))

	tree, err = svc.Get(ctx)
	require.NoError(t, err)
	require.False(t, treeIDs(tree)[g.labs])
}

func TestCategoryAndEventWritesDropCachedTree(t *testing.T) {
	s := memory.New()
	g := seed(t, s)
	svc := NewService(s, newMapCache(), time.Minute, nil, nil)
	cats := approval.NewService(s)
	cats.SetChangeListener(svc)
	evs := events.NewService(s, nil)
	evs.SetChangeListener(svc)
	ctx := context.Background()

	tree, err := svc.Get(ctx)
	require.NoError(t, err)
	ids := treeIDs(tree)
	require.True(t, ids[g.otherCat])
	require.True(t, ids[g.approved])

	require.NoError(t, cats.DeleteCategory(ctx, access.System, g.otherCat))
	tree, err = svc.Get(ctx)
	require.NoError(t, err)
	require.False(t, treeIDs(tree)[g.otherCat])

	require.NoError(t, evs.Delete(ctx, access.System, g.approved))
	tree, err = svc.Get(ctx)
	require.NoError(t, err)
	ids = treeIDs(tree)
	require.False(t, ids[g.approved])
	require.True(t, ids[g.frozen])
}

func TestGetFallsBackWhenCacheFails(t *testing.T) {
	s := memory.New()
	seed(t, s)
	cache := newMapCache()
	cache.err = errors.New("connection refused")
	svc := NewService(s, cache, time.Minute, nil, nil)

	tree, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)

	cache.err = nil
	cache.data[CacheKey] = []byte("not json")
	tree, err = svc.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
}

func TestUnscopedRecordsAreLeftOut(t *testing.T) {
	s := memory.New()
	g := seed(t, s)
	tree, err := NewService(s, nil, 0, nil, nil).Get(context.Background())
	require.NoError(t, err)
	for _, ty := range tree[0].Types {
		require.NotEqual(t, "Floating", ty.Name)
		for _, d := range ty.Departments {
			require.NotEqual(t, g.untyped, d.ID)
		}
	}
}
