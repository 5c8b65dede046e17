package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eventgrid/backend/internal/models"
)

const userColumns = `id, email, password_hash, name, gender, phone_number, state, nationality, profession,
	interests, roles, organizations, departments, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var roleNames []string
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.Gender, &u.PhoneNumber, &u.State,
		&u.Nationality, &u.Profession, &u.Interests, &roleNames, (*[]uuid.UUID)(&u.Organizations),
		(*[]uuid.UUID)(&u.Departments), &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	u.Roles = make([]models.Role, len(roleNames))
	for i, r := range roleNames {
		u.Roles[i] = models.Role(r)
	}
	return &u, nil
}

func roleStrings(list []models.Role) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = string(r)
	}
	return out
}

func (t *tx) queryUsers(ctx context.Context, q string, args ...any) ([]models.User, error) {
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var list []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

func (t *tx) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := t.tx.Exec(ctx, q, u.ID, u.Email, u.Password, u.Name, u.Gender, u.PhoneNumber, u.State,
		u.Nationality, u.Profession, nonNilStrings(u.Interests), roleStrings(u.Roles), ids(u.Organizations),
		ids(u.Departments), u.CreatedAt)
	return mapError(err)
}

func (t *tx) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (t *tx) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (t *tx) GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ANY($1) ORDER BY created_at, id`
	return t.queryUsers(ctx, q, nonNilStrings(emails))
}

func (t *tx) ListUsers(ctx context.Context) ([]models.User, error) {
	return t.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
}

func (t *tx) ListUsersReferencing(ctx context.Context, containerID uuid.UUID) ([]models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users
		WHERE $1 = ANY(organizations) OR $1 = ANY(departments)
		ORDER BY created_at, id`
	return t.queryUsers(ctx, q, containerID)
}

func (t *tx) UpdateUser(ctx context.Context, u *models.User) error {
	const q = `UPDATE users SET email = $2, password_hash = $3, name = $4, gender = $5, phone_number = $6,
		state = $7, nationality = $8, profession = $9, interests = $10, roles = $11, organizations = $12,
		departments = $13
		WHERE id = $1`
	return t.execOne(ctx, q, u.ID, u.Email, u.Password, u.Name, u.Gender, u.PhoneNumber, u.State,
		u.Nationality, u.Profession, nonNilStrings(u.Interests), roleStrings(u.Roles), ids(u.Organizations),
		ids(u.Departments))
}
