package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/roles"
)

const orgColumns = `id, name, email, types, address, city, state, poc, contact, member_domain,
	admins, members, departments, events, created_by, created_at`

func scanOrg(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	var createdBy *uuid.UUID
	err := row.Scan(&o.ID, &o.Name, &o.Email, (*[]string)(&o.Types), &o.Address, &o.City, &o.State,
		&o.POC, &o.Contact, &o.MemberDomain, (*[]uuid.UUID)(&o.Admins), (*[]uuid.UUID)(&o.Members),
		(*[]uuid.UUID)(&o.Departments), (*[]uuid.UUID)(&o.Events), &createdBy, &o.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if createdBy != nil {
		o.CreatedBy = *createdBy
	}
	return &o, nil
}

func (t *tx) queryOrgs(ctx context.Context, q string, args ...any) ([]models.Organization, error) {
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var list []models.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	return list, rows.Err()
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func (t *tx) CreateOrganization(ctx context.Context, o *models.Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO organizations (` + orgColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := t.tx.Exec(ctx, q, o.ID, o.Name, o.Email, nonNilNames(o.Types), o.Address, o.City, o.State,
		o.POC, o.Contact, nonNilStrings(o.MemberDomain), ids(o.Admins), ids(o.Members), ids(o.Departments),
		ids(o.Events), nullableID(o.CreatedBy), o.CreatedAt)
	return mapError(err)
}

func (t *tx) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return scanOrg(t.tx.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
}

func (t *tx) FindOrganizations(ctx context.Context, name, email string) ([]models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations
		WHERE ($1 <> '' AND LOWER(name) = LOWER($1)) OR ($2 <> '' AND email = $2)
		ORDER BY created_at, id`
	return t.queryOrgs(ctx, q, name, email)
}

func (t *tx) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	return t.queryOrgs(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY created_at, id`)
}

func (t *tx) ListOrganizationsByAdmin(ctx context.Context, userID uuid.UUID) ([]models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations WHERE $1 = ANY(admins) ORDER BY created_at, id`
	return t.queryOrgs(ctx, q, userID)
}

func (t *tx) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	const q = `UPDATE organizations SET name = $2, email = $3, types = $4, address = $5, city = $6,
		state = $7, poc = $8, contact = $9, member_domain = $10, admins = $11, members = $12,
		departments = $13, events = $14
		WHERE id = $1`
	return t.execOne(ctx, q, o.ID, o.Name, o.Email, nonNilNames(o.Types), o.Address, o.City, o.State,
		o.POC, o.Contact, nonNilStrings(o.MemberDomain), ids(o.Admins), ids(o.Members), ids(o.Departments),
		ids(o.Events))
}

func (t *tx) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return t.execOne(ctx, `DELETE FROM organizations WHERE id = $1`, id)
}

func (t *tx) MembershipSnapshot(ctx context.Context, userID uuid.UUID) (roles.Snapshot, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM organizations WHERE $1 = ANY(admins)),
		(SELECT COUNT(*) FROM departments WHERE $1 = ANY(admins)),
		(SELECT COUNT(*) FROM organizations WHERE $1 = ANY(members))`
	var snap roles.Snapshot
	err := t.tx.QueryRow(ctx, q, userID).Scan(&snap.OrgAdminOf, &snap.DeptAdminOf, &snap.OrgMemberOf)
	return snap, mapError(err)
}

// ids never returns nil so that NOT NULL array columns receive '{}'.
func ids(list models.IDs) []uuid.UUID {
	if list == nil {
		return []uuid.UUID{}
	}
	return list
}

func nonNilNames(list models.Names) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func nonNilStrings(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
