package departments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/membership"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
	"github.com/eventgrid/backend/internal/store/memory"
)

type fixture struct {
	t     *testing.T
	store *memory.Store
	svc   *Service
	admin uuid.UUID
	org   uuid.UUID
}

// newFixture seeds organization "Acme" administered by ann@acme.io.
func newFixture(t *testing.T) *fixture {
	f := &fixture{t: t, store: memory.New()}
	f.svc = NewService(f.store)
	f.admin = f.user("ann@acme.io")
	f.org = f.orgRecord("Acme")
	require.NoError(t, f.tx(func(ctx context.Context, tx store.Tx) error {
		_, err := membership.AssignAdmin(ctx, tx, membership.Org(f.org), "ann@acme.io")
		return err
	}))
	return f
}

func (f *fixture) tx(fn func(ctx context.Context, tx store.Tx) error) error {
	return f.store.InTx(context.Background(), fn)
}

func (f *fixture) user(email string) uuid.UUID {
	u := &models.User{Email: email, Roles: []models.Role{models.RoleUser}}
	require.NoError(f.t, f.tx(func(ctx context.Context, tx store.Tx) error { return tx.CreateUser(ctx, u) }))
	return u.ID
}

func (f *fixture) orgRecord(name string) uuid.UUID {
	o := &models.Organization{Name: name, Email: name + "@orgs.io"}
	require.NoError(f.t, f.tx(func(ctx context.Context, tx store.Tx) error { return tx.CreateOrganization(ctx, o) }))
	return o.ID
}

func (f *fixture) getOrg(id uuid.UUID) *models.Organization {
	var o *models.Organization
	require.NoError(f.t, f.tx(func(ctx context.Context, tx store.Tx) error {
		var err error
		o, err = tx.GetOrganization(ctx, id)
		return err
	}))
	return o
}

func (f *fixture) getUser(id uuid.UUID) *models.User {
	var u *models.User
	require.NoError(f.t, f.tx(func(ctx context.Context, tx store.Tx) error {
		var err error
		u, err = tx.GetUser(ctx, id)
		return err
	}))
	return u
}

func (f *fixture) create(name string) *models.Department {
	d, err := f.svc.Create(context.Background(), f.admin, CreateInput{OrganizationID: f.org, Name: name, Type: " Engineering "})
	require.NoError(f.t, err)
	return d
}

func TestCreateLinksOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.create(" Robotics ")
	require.Equal(t, "Robotics", d.Name)
	require.Equal(t, "Engineering", d.Type)
	require.True(t, d.InOrganization(f.org))
	require.True(t, f.getOrg(f.org).Departments.Has(d.ID))

	_, err := f.svc.Create(ctx, f.admin, CreateInput{OrganizationID: f.org, Name: "ROBOTICS"})
	require.Equal(t, "duplicate_name", apperr.CodeOf(err))

	outsider := f.user("eve@x.io")
	_, err = f.svc.Create(ctx, outsider, CreateInput{OrganizationID: f.org, Name: "Chem"})
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Create(ctx, f.admin, CreateInput{OrganizationID: uuid.New(), Name: "Chem"})
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.Create(ctx, f.admin, CreateInput{OrganizationID: f.org, Name: "  "})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestEditKeepsNamesUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	robotics := f.create("Robotics")
	f.create("Chemistry")

	taken := "chemistry"
	_, err := f.svc.Edit(ctx, f.admin, robotics.ID, EditInput{Name: &taken})
	require.Equal(t, "duplicate_name", apperr.CodeOf(err))

	name, desc := "Robotics Lab", "bots"
	got, err := f.svc.Edit(ctx, f.admin, robotics.ID, EditInput{Name: &name, Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "Robotics Lab", got.Name)
	require.Equal(t, "bots", got.Description)
	require.Equal(t, "Engineering", got.Type)
}

func TestAddMembersRequiresOrganizationParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create("Robotics")
	bob := f.user("bob@acme.io")
	f.user("eve@x.io")
	require.NoError(t, f.tx(func(ctx context.Context, tx store.Tx) error {
		_, err := membership.AddMembers(ctx, tx, membership.Org(f.org), []string{"bob@acme.io"})
		return err
	}))

	_, err := f.svc.AddMembers(ctx, f.admin, d.ID, []string{"bob@acme.io", "eve@x.io"})
	require.Equal(t, "not_org_members", apperr.CodeOf(err))

	res, err := f.svc.AddMembers(ctx, f.admin, d.ID, []string{"bob@acme.io"})
	require.NoError(t, err)
	require.Equal(t, []string{"bob@acme.io"}, res.Added)
	require.True(t, f.getUser(bob).Departments.Has(d.ID))

	_, err = f.svc.AddMembers(ctx, f.admin, d.ID, []string{"bob@acme.io"})
	require.Equal(t, "already_members", apperr.CodeOf(err))
}

func TestAssignAndReplaceAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.create("Robotics")
	dan := f.user("dan@acme.io")
	fay := f.user("fay@acme.io")

	got, err := f.svc.AssignAdmin(ctx, f.admin, d.ID, "dan@acme.io")
	require.NoError(t, err)
	require.True(t, got.Admins.Has(dan))
	require.True(t, f.getUser(dan).HasRole(models.RoleDepartmentalAdmin))

	_, err = f.svc.AssignAdmin(ctx, f.admin, d.ID, "dan@acme.io")
	require.NoError(t, err)

	mine, err := f.svc.ListByAdmin(ctx, dan)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.svc.Get(ctx, dan, d.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, fay, d.ID)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.ReplaceAdmin(ctx, f.admin, d.ID, dan, "fay@acme.io")
	require.NoError(t, err)
	require.False(t, f.getUser(dan).HasRole(models.RoleDepartmentalAdmin))
	require.True(t, f.getUser(fay).HasRole(models.RoleDepartmentalAdmin))

	_, err = f.svc.AssignAdmin(ctx, dan, d.ID, "dan@acme.io")
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestCollaborators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	robotics := f.create("Robotics")
	chem := f.create("Chemistry")

	otherOrg := f.orgRecord("Beta")
	foreign := &models.Department{Name: "Physics", OrganizationID: &otherOrg}
	require.NoError(t, f.tx(func(ctx context.Context, tx store.Tx) error { return tx.CreateDepartment(ctx, foreign) }))

	internal, err := f.svc.Collaborators(ctx, robotics.ID, CollaborationInternal)
	require.NoError(t, err)
	require.Len(t, internal, 1)
	require.Equal(t, chem.ID, internal[0].ID)

	external, err := f.svc.Collaborators(ctx, robotics.ID, CollaborationExternal)
	require.NoError(t, err)
	require.Len(t, external, 1)
	require.Equal(t, foreign.ID, external[0].ID)

	all, err := f.svc.Collaborators(ctx, robotics.ID, CollaborationAll)
	require.NoError(t, err)
	require.Len(t, all, 2)

	none, err := f.svc.Collaborators(ctx, foreign.ID, CollaborationInternal)
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	_, err = f.svc.Collaborators(ctx, uuid.New(), CollaborationAll)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteDetachesEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.create("Robotics")
	guest := f.create("Chemistry")
	dan := f.user("dan@acme.io")
	_, err := f.svc.AssignAdmin(ctx, f.admin, guest.ID, "dan@acme.io")
	require.NoError(t, err)

	event := &models.Event{
		Title:                   "Robot Build",
		DepartmentID:            host.ID,
		CollaboratedDepartments: models.IDs{guest.ID},
	}
	require.NoError(t, f.tx(func(ctx context.Context, tx store.Tx) error { return tx.CreateEvent(ctx, event) }))

	require.NoError(t, f.svc.Delete(ctx, f.admin, guest.ID))

	require.False(t, f.getOrg(f.org).Departments.Has(guest.ID))
	require.Empty(t, f.getUser(dan).Departments)
	require.False(t, f.getUser(dan).HasRole(models.RoleDepartmentalAdmin))
	require.NoError(t, f.tx(func(ctx context.Context, tx store.Tx) error {
		e, err := tx.GetEvent(ctx, event.ID)
		if err != nil {
			return err
		}
		require.Empty(t, e.CollaboratedDepartments)
		return nil
	}))

	list, err := f.svc.List(ctx, &f.org)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, host.ID, list[0].ID)
}
