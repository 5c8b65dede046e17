package organizations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/departments"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
	"github.com/eventgrid/backend/internal/store/memory"
)

type fixture struct {
	t     *testing.T
	store *memory.Store
	svc   *Service
	root  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{t: t, store: memory.New()}
	f.svc = NewService(f.store)
	f.root = f.user("root@platform.io", models.RoleSuperAdmin)
	return f
}

func (f *fixture) user(email string, extra ...models.Role) uuid.UUID {
	u := &models.User{Email: email, Roles: append(extra, models.RoleUser)}
	require.NoError(f.t, f.store.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.CreateUser(ctx, u)
	}))
	return u.ID
}

func (f *fixture) getUser(id uuid.UUID) *models.User {
	var u *models.User
	require.NoError(f.t, f.store.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		var err error
		u, err = tx.GetUser(ctx, id)
		return err
	}))
	return u
}

func (f *fixture) create(name string, domains ...string) *models.Organization {
	org, err := f.svc.Create(context.Background(), f.root, CreateInput{Name: name, Email: " " + name + "@Orgs.io", MemberDomain: domains})
	require.NoError(f.t, err)
	return org
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.create("Acme", " @ACME.io ", "")
	require.Equal(t, "acme@orgs.io", org.Email)
	require.Equal(t, []string{"@acme.io"}, org.MemberDomain)

	_, err := f.svc.Create(ctx, f.root, CreateInput{Name: "ACME", Email: "other@orgs.io"})
	require.True(t, apperr.Is(err, apperr.KindConflict))
	require.Equal(t, "duplicate_organization", apperr.CodeOf(err))

	_, err = f.svc.Create(ctx, f.root, CreateInput{Name: "Beta", Email: "b@orgs.io", MemberDomain: []string{"beta.io"}})
	require.Equal(t, "invalid_member_domain", apperr.CodeOf(err))

	_, err = f.svc.Create(ctx, f.root, CreateInput{Name: " ", Email: "c@orgs.io"})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	outsider := f.user("eve@x.io")
	_, err = f.svc.Create(ctx, outsider, CreateInput{Name: "Gamma", Email: "g@orgs.io"})
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestAssignAdminDerivesRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.create("Acme")
	ann := f.user("ann@acme.io")

	got, err := f.svc.AssignAdminByName(ctx, f.root, "acme", "ANN@acme.io")
	require.NoError(t, err)
	require.True(t, got.Admins.Has(ann))

	u := f.getUser(ann)
	require.True(t, u.Organizations.Has(org.ID))
	require.True(t, u.HasRole(models.RoleOrganizationAdmin))

	_, err = f.svc.AssignAdminByName(ctx, f.root, "Acme", "ann@acme.io")
	require.Equal(t, "already_admin", apperr.CodeOf(err))

	_, err = f.svc.AssignAdminByName(ctx, f.root, "Nowhere", "ann@acme.io")
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	mine, err := f.svc.ListByAdmin(ctx, ann)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestReplaceAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.create("Acme")
	ann := f.user("ann@acme.io")
	bob := f.user("bob@acme.io")
	_, err := f.svc.AssignAdminByName(ctx, f.root, "Acme", "ann@acme.io")
	require.NoError(t, err)

	got, err := f.svc.ReplaceAdmin(ctx, f.root, org.ID, ann, "bob@acme.io")
	require.NoError(t, err)
	require.False(t, got.Admins.Has(ann))
	require.True(t, got.Admins.Has(bob))

	require.False(t, f.getUser(ann).HasRole(models.RoleOrganizationAdmin))
	require.Empty(t, f.getUser(ann).Organizations)
	require.True(t, f.getUser(bob).HasRole(models.RoleOrganizationAdmin))

	_, err = f.svc.ReplaceAdmin(ctx, f.root, org.ID, ann, "bob@acme.io")
	require.Equal(t, "admin_not_found", apperr.CodeOf(err))
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.create("Acme")
	f.create("Beta")
	ann := f.user("ann@acme.io")
	_, err := f.svc.AssignAdminByName(ctx, f.root, "Acme", "ann@acme.io")
	require.NoError(t, err)

	city := "Pune"
	got, err := f.svc.Edit(ctx, ann, org.ID, EditInput{City: &city})
	require.NoError(t, err)
	require.Equal(t, "Pune", got.City)
	require.Equal(t, "Acme", got.Name)

	taken := "beta"
	_, err = f.svc.Edit(ctx, ann, org.ID, EditInput{Name: &taken})
	require.Equal(t, "duplicate_organization", apperr.CodeOf(err))

	same := "ACME"
	got, err = f.svc.Edit(ctx, ann, org.ID, EditInput{Name: &same})
	require.NoError(t, err)
	require.Equal(t, "ACME", got.Name)

	outsider := f.user("eve@x.io")
	_, err = f.svc.Edit(ctx, outsider, org.ID, EditInput{City: &city})
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Edit(ctx, ann, uuid.New(), EditInput{City: &city})
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAddMembersChecksDomain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.create("Acme", "@acme.io")
	ann := f.user("ann@acme.io")
	f.user("eve@x.io")

	_, err := f.svc.AddMembers(ctx, f.root, org.ID, []string{"ann@acme.io", "eve@x.io"})
	require.Equal(t, "domain_mismatch", apperr.CodeOf(err))

	res, err := f.svc.AddMembers(ctx, f.root, org.ID, []string{"ann@acme.io", "ghost@acme.io"})
	require.NoError(t, err)
	require.Equal(t, []string{"ann@acme.io"}, res.Added)
	require.Equal(t, []string{"ghost@acme.io"}, res.NotFound)
	require.True(t, f.getUser(ann).HasRole(models.RoleMember))
}

func TestDeleteCascadesToDepartments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.create("Acme")
	ann := f.user("ann@acme.io")
	dan := f.user("dan@acme.io")
	_, err := f.svc.AssignAdminByName(ctx, f.root, "Acme", "ann@acme.io")
	require.NoError(t, err)

	depts := departments.NewService(f.store)
	dept, err := depts.Create(ctx, ann, departments.CreateInput{OrganizationID: org.ID, Name: "Robotics"})
	require.NoError(t, err)
	_, err = depts.AssignAdmin(ctx, ann, dept.ID, "dan@acme.io")
	require.NoError(t, err)
	require.True(t, f.getUser(dan).HasRole(models.RoleDepartmentalAdmin))

	outsider := f.user("eve@x.io")
	require.True(t, apperr.Is(f.svc.Delete(ctx, outsider, org.ID), apperr.KindForbidden))

	require.NoError(t, f.svc.Delete(ctx, ann, org.ID))

	_, err = f.svc.Get(ctx, org.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = depts.Get(ctx, f.root, dept.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	for _, id := range []uuid.UUID{ann, dan} {
		u := f.getUser(id)
		require.Empty(t, u.Organizations)
		require.Empty(t, u.Departments)
		require.Equal(t, []models.Role{models.RoleUser}, u.Roles)
	}
}
