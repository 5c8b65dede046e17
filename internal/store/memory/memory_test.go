package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.CreateUser(ctx, &models.User{Email: "a@x.io"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.GetUserByEmail(ctx, "a@x.io")
		return err
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInTxRollsBackOnCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.CreateUser(ctx, &models.User{Email: "a@x.io"}))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	err = s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		users, err := tx.ListUsers(ctx)
		require.Empty(t, users)
		return err
	})
	require.NoError(t, err)
}

func TestReadsAreIsolatedCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	var id uuid.UUID

	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		org := &models.Organization{Name: "Acme", Email: "acme@x.io"}
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}
		id = org.ID
		got, err := tx.GetOrganization(ctx, id)
		if err != nil {
			return err
		}
		got.Members = append(got.Members, uuid.New())
		return nil
	}))

	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		got, err := tx.GetOrganization(ctx, id)
		require.NoError(t, err)
		require.Empty(t, got.Members)
		return nil
	}))
}

func TestOrganizationUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.CreateOrganization(ctx, &models.Organization{Name: "Acme", Email: "a@x.io"}))
		return tx.CreateOrganization(ctx, &models.Organization{Name: "ACME", Email: "b@x.io"})
	})
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestAddRegistrantRespectsCapacity(t *testing.T) {
	s := New()
	ctx := context.Background()
	var eventID uuid.UUID
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		e := &models.Event{Title: "Talk", MaxParticipants: 2, ApprovalStatus: models.EventApproved}
		if err := tx.CreateEvent(ctx, e); err != nil {
			return err
		}
		eventID = e.ID
		return nil
	}))

	var results []bool
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, u := range append(users, users[0]) {
			ok, err := tx.AddRegistrant(ctx, eventID, u, models.ParticipantExternal)
			if err != nil {
				return err
			}
			results = append(results, ok)
		}
		return nil
	}))
	require.Equal(t, []bool{true, true, false, false}, results)
}

func TestMembershipSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := uuid.New()
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.CreateOrganization(ctx, &models.Organization{Name: "A", Email: "a@x.io", Admins: models.IDs{u}}))
		require.NoError(t, tx.CreateOrganization(ctx, &models.Organization{Name: "B", Email: "b@x.io", Members: models.IDs{u}}))
		require.NoError(t, tx.CreateDepartment(ctx, &models.Department{Name: "D", Admins: models.IDs{u}}))

		snap, err := tx.MembershipSnapshot(ctx, u)
		require.NoError(t, err)
		require.Equal(t, 1, snap.OrgAdminOf)
		require.Equal(t, 1, snap.OrgMemberOf)
		require.Equal(t, 1, snap.DeptAdminOf)
		return nil
	}))
}
