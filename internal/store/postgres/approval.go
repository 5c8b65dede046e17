package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
)

const categoryColumns = `id, name, description, status, department_id, created_at`

func scanCategory(row pgx.Row) (*models.Category, error) {
	var c models.Category
	var status string
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &status, &c.DepartmentID, &c.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	c.Status = models.ApprovalStatus(status)
	return &c, nil
}

func (t *tx) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.Exec(ctx, q, c.ID, c.Name, c.Description, string(c.Status), c.DepartmentID, c.CreatedAt)
	return mapError(err)
}

func (t *tx) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return scanCategory(t.tx.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func (t *tx) ListCategories(ctx context.Context, f store.CategoryFilter) ([]models.Category, error) {
	var where []string
	var args []any
	if len(f.DepartmentIDs) > 0 {
		args = append(args, f.DepartmentIDs)
		where = append(where, fmt.Sprintf("department_id = ANY($%d)", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT ` + categoryColumns + ` FROM categories`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := t.tx.Query(ctx, q+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var list []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (t *tx) UpdateCategory(ctx context.Context, c *models.Category) error {
	const q = `UPDATE categories SET name = $2, description = $3, status = $4, department_id = $5 WHERE id = $1`
	return t.execOne(ctx, q, c.ID, c.Name, c.Description, string(c.Status), c.DepartmentID)
}

func (t *tx) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return t.execOne(ctx, `DELETE FROM categories WHERE id = $1`, id)
}

const typeColumns = `id, name, description, status, organization_id, created_at`

func scanType(row pgx.Row) (*models.Type, error) {
	var ty models.Type
	var status string
	if err := row.Scan(&ty.ID, &ty.Name, &ty.Description, &status, &ty.OrganizationID, &ty.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	ty.Status = models.ApprovalStatus(status)
	return &ty, nil
}

func (t *tx) CreateType(ctx context.Context, ty *models.Type) error {
	if ty.ID == uuid.Nil {
		ty.ID = uuid.New()
	}
	if ty.CreatedAt.IsZero() {
		ty.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO types (` + typeColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.Exec(ctx, q, ty.ID, ty.Name, ty.Description, string(ty.Status), ty.OrganizationID, ty.CreatedAt)
	return mapError(err)
}

func (t *tx) GetType(ctx context.Context, id uuid.UUID) (*models.Type, error) {
	return scanType(t.tx.QueryRow(ctx, `SELECT `+typeColumns+` FROM types WHERE id = $1`, id))
}

func (t *tx) ListTypes(ctx context.Context, f store.TypeFilter) ([]models.Type, error) {
	var where []string
	var args []any
	if len(f.OrganizationIDs) > 0 {
		args = append(args, f.OrganizationIDs)
		where = append(where, fmt.Sprintf("organization_id = ANY($%d)", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT ` + typeColumns + ` FROM types`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := t.tx.Query(ctx, q+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var list []models.Type
	for rows.Next() {
		ty, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ty)
	}
	return list, rows.Err()
}

func (t *tx) UpdateType(ctx context.Context, ty *models.Type) error {
	const q = `UPDATE types SET name = $2, description = $3, status = $4, organization_id = $5 WHERE id = $1`
	return t.execOne(ctx, q, ty.ID, ty.Name, ty.Description, string(ty.Status), ty.OrganizationID)
}

func (t *tx) DeleteType(ctx context.Context, id uuid.UUID) error {
	return t.execOne(ctx, `DELETE FROM types WHERE id = $1`, id)
}
