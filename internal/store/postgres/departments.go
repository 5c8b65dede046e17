package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eventgrid/backend/internal/models"
)

const deptColumns = `id, organization_id, name, type, description, categories, admins, members, events,
	created_by, created_at`

func scanDept(row pgx.Row) (*models.Department, error) {
	var d models.Department
	var createdBy *uuid.UUID
	err := row.Scan(&d.ID, &d.OrganizationID, &d.Name, &d.Type, &d.Description, (*[]string)(&d.Categories),
		(*[]uuid.UUID)(&d.Admins), (*[]uuid.UUID)(&d.Members), (*[]uuid.UUID)(&d.Events), &createdBy, &d.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if createdBy != nil {
		d.CreatedBy = *createdBy
	}
	return &d, nil
}

func (t *tx) queryDepts(ctx context.Context, q string, args ...any) ([]models.Department, error) {
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var list []models.Department
	for rows.Next() {
		d, err := scanDept(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

func (t *tx) CreateDepartment(ctx context.Context, d *models.Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO departments (` + deptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := t.tx.Exec(ctx, q, d.ID, d.OrganizationID, d.Name, d.Type, d.Description, nonNilNames(d.Categories),
		ids(d.Admins), ids(d.Members), ids(d.Events), nullableID(d.CreatedBy), d.CreatedAt)
	return mapError(err)
}

func (t *tx) GetDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	return scanDept(t.tx.QueryRow(ctx, `SELECT `+deptColumns+` FROM departments WHERE id = $1`, id))
}

func (t *tx) FindDepartmentByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Department, error) {
	const q = `SELECT ` + deptColumns + ` FROM departments
		WHERE organization_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`
	return scanDept(t.tx.QueryRow(ctx, q, orgID, name))
}

func (t *tx) ListDepartments(ctx context.Context, orgID *uuid.UUID) ([]models.Department, error) {
	if orgID == nil {
		return t.queryDepts(ctx, `SELECT `+deptColumns+` FROM departments ORDER BY created_at, id`)
	}
	const q = `SELECT ` + deptColumns + ` FROM departments WHERE organization_id = $1 ORDER BY created_at, id`
	return t.queryDepts(ctx, q, *orgID)
}

func (t *tx) ListDepartmentsByAdmin(ctx context.Context, userID uuid.UUID) ([]models.Department, error) {
	const q = `SELECT ` + deptColumns + ` FROM departments WHERE $1 = ANY(admins) ORDER BY created_at, id`
	return t.queryDepts(ctx, q, userID)
}

func (t *tx) UpdateDepartment(ctx context.Context, d *models.Department) error {
	const q = `UPDATE departments SET organization_id = $2, name = $3, type = $4, description = $5,
		categories = $6, admins = $7, members = $8, events = $9
		WHERE id = $1`
	return t.execOne(ctx, q, d.ID, d.OrganizationID, d.Name, d.Type, d.Description, nonNilNames(d.Categories),
		ids(d.Admins), ids(d.Members), ids(d.Events))
}

func (t *tx) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return t.execOne(ctx, `DELETE FROM departments WHERE id = $1`, id)
}
