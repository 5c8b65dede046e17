package approval

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eventgrid/backend/internal/access"
	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
	"github.com/eventgrid/backend/internal/store/memory"
)

type graph struct {
	store     *memory.Store
	orgID     uuid.UUID
	deptID    uuid.UUID
	orgAdmin  uuid.UUID
	deptAdmin uuid.UUID
	outsider  uuid.UUID
}

func seed(t *testing.T) *graph {
	t.Helper()
	g := &graph{store: memory.New()}
	err := g.store.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		users := make([]*models.User, 3)
		for i, email := range []string{"oa@x.io", "da@x.io", "nobody@x.io"} {
			users[i] = &models.User{Email: email, Roles: []models.Role{models.RoleUser}}
			if err := tx.CreateUser(ctx, users[i]); err != nil {
				return err
			}
		}
		org := &models.Organization{Name: "Acme", Email: "acme@x.io", Admins: models.IDs{users[0].ID}}
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}
		dept := &models.Department{Name: "Physics", OrganizationID: &org.ID, Admins: models.IDs{users[1].ID}}
		if err := tx.CreateDepartment(ctx, dept); err != nil {
			return err
		}
		org.Departments = models.IDs{dept.ID}
		if err := tx.UpdateOrganization(ctx, org); err != nil {
			return err
		}
		users[0].Organizations = models.IDs{org.ID}
		users[1].Departments = models.IDs{dept.ID}
		for _, u := range users[:2] {
			if err := tx.UpdateUser(ctx, u); err != nil {
				return err
			}
		}
		g.orgID, g.deptID = org.ID, dept.ID
		g.orgAdmin, g.deptAdmin, g.outsider = users[0].ID, users[1].ID, users[2].ID
		return nil
	})
	require.NoError(t, err)
	return g
}

func (g *graph) dept(t *testing.T) *models.Department {
	var d *models.Department
	require.NoError(t, g.store.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		d, err = tx.GetDepartment(ctx, g.deptID)
		return err
	}))
	return d
}

func (g *graph) org(t *testing.T) *models.Organization {
	var o *models.Organization
	require.NoError(t, g.store.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		o, err = tx.GetOrganization(ctx, g.orgID)
		return err
	}))
	return o
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	g := seed(t)
	svc := NewService(g.store)

	cat, err := svc.ProposeCategory(ctx, g.deptAdmin, CategoryInput{DepartmentID: g.deptID, Name: "Workshop", Description: "Hands-on"})
	require.NoError(t, err)
	require.Equal(t, models.ApprovalPending, cat.Status)
	require.Empty(t, g.dept(t).Categories)

	_, err = svc.ApproveCategory(ctx, g.deptAdmin, cat.ID)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	approved, err := svc.ApproveCategory(ctx, g.orgAdmin, cat.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalApproved, approved.Status)
	require.Equal(t, models.Names{"Workshop"}, g.dept(t).Categories)

	_, err = svc.ApproveCategory(ctx, g.orgAdmin, cat.ID)
	require.NoError(t, err)
	require.Equal(t, models.Names{"Workshop"}, g.dept(t).Categories)

	require.NoError(t, svc.DeleteCategory(ctx, g.orgAdmin, cat.ID))
	require.Empty(t, g.dept(t).Categories)

	err = svc.DeleteCategory(ctx, g.orgAdmin, cat.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProposeCategoryValidation(t *testing.T) {
	ctx := context.Background()
	g := seed(t)
	svc := NewService(g.store)

	_, err := svc.ProposeCategory(ctx, g.deptAdmin, CategoryInput{DepartmentID: g.deptID, Name: "Talk"})
	require.Equal(t, "missing_fields", apperr.CodeOf(err))

	_, err = svc.ProposeCategory(ctx, g.deptAdmin, CategoryInput{DepartmentID: g.deptID, Name: "Talk", Description: strings.Repeat("a", MaxCategoryDescription+1)})
	require.Equal(t, "description_too_long", apperr.CodeOf(err))

	_, err = svc.ProposeCategory(ctx, g.outsider, CategoryInput{DepartmentID: g.deptID, Name: "Talk", Description: "d"})
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.ProposeCategory(ctx, g.deptAdmin, CategoryInput{DepartmentID: uuid.New(), Name: "Talk", Description: "d"})
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.ProposeCategory(ctx, g.deptAdmin, CategoryInput{DepartmentID: g.deptID, Name: "Talk", Description: "d"})
	require.NoError(t, err)
	_, err = svc.ProposeCategory(ctx, g.deptAdmin, CategoryInput{DepartmentID: g.deptID, Name: "talk", Description: "d"})
	require.Equal(t, "duplicate_category", apperr.CodeOf(err))
}

func TestListCategoriesForOrgAdmin(t *testing.T) {
	ctx := context.Background()
	g := seed(t)
	svc := NewService(g.store)

	_, err := svc.ProposeCategory(ctx, g.deptAdmin, CategoryInput{DepartmentID: g.deptID, Name: "Talk", Description: "d"})
	require.NoError(t, err)

	list, err := svc.ListCategoriesForOrgAdmin(ctx, g.orgAdmin, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)

	other := uuid.New()
	_, err = svc.ListCategoriesForOrgAdmin(ctx, g.orgAdmin, &other)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.ListCategoriesForOrgAdmin(ctx, g.deptAdmin, nil)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	all, err := svc.ListCategories(ctx, &other)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestTypeLifecycle(t *testing.T) {
	ctx := context.Background()
	g := seed(t)
	svc := NewService(g.store)

	typ, err := svc.ProposeType(ctx, g.orgAdmin, TypeInput{OrganizationID: &g.orgID, Name: "Science", Description: "STEM"})
	require.NoError(t, err)
	require.Equal(t, models.ApprovalPending, typ.Status)

	_, err = svc.ApproveType(ctx, g.orgAdmin, typ.ID, g.orgID)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.ApproveType(ctx, access.System, typ.ID, uuid.Nil)
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.ApproveType(ctx, access.System, typ.ID, uuid.New())
	require.Equal(t, "organization_mismatch", apperr.CodeOf(err))

	approved, err := svc.ApproveType(ctx, access.System, typ.ID, g.orgID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalApproved, approved.Status)
	require.Equal(t, models.Names{"Science"}, g.org(t).Types)

	require.NoError(t, svc.DeleteType(ctx, access.System, typ.ID))
	require.Empty(t, g.org(t).Types)

	list, err := svc.ListTypes(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestProposeTypeRequiresOrgAdmin(t *testing.T) {
	ctx := context.Background()
	g := seed(t)
	svc := NewService(g.store)

	_, err := svc.ProposeType(ctx, g.deptAdmin, TypeInput{OrganizationID: &g.orgID, Name: "Arts", Description: "d"})
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.ProposeType(ctx, g.orgAdmin, TypeInput{Name: "", Description: "d"})
	require.Equal(t, "missing_fields", apperr.CodeOf(err))

	unscoped, err := svc.ProposeType(ctx, g.orgAdmin, TypeInput{Name: "Arts", Description: "d"})
	require.NoError(t, err)
	require.Nil(t, unscoped.OrganizationID)

	approved, err := svc.ApproveType(ctx, access.System, unscoped.ID, g.orgID)
	require.NoError(t, err)
	require.NotNil(t, approved.OrganizationID)
	require.Equal(t, g.orgID, *approved.OrganizationID)
}
