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

const eventColumns = `id, title, description, tags, department_id, category, registration_start_date,
	registration_end_date, start_date, end_date, start_time, end_time, number_of_days, max_participants,
	mode, venue, collaborated_departments, budget, budget_amount, certificate, proposed_by, approval_status,
	status_updated_by, remarks, summary, internal_participants, external_participants, attended_participants,
	created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var mode, status string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Tags, &e.DepartmentID, &e.Category,
		&e.RegistrationStartDate, &e.RegistrationEndDate, &e.StartDate, &e.EndDate, &e.StartTime, &e.EndTime,
		&e.NumberOfDays, &e.MaxParticipants, &mode, &e.Venue, (*[]uuid.UUID)(&e.CollaboratedDepartments),
		&e.Budget, &e.BudgetAmount, &e.Certificate, &e.ProposedBy, &status, &e.StatusUpdatedBy, &e.Remarks,
		&e.Summary, (*[]uuid.UUID)(&e.InternalParticipants), (*[]uuid.UUID)(&e.ExternalParticipants),
		(*[]uuid.UUID)(&e.AttendedParticipants), &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	e.Mode = models.EventMode(mode)
	e.ApprovalStatus = models.EventStatus(status)
	return &e, nil
}

func (t *tx) CreateEvent(ctx context.Context, e *models.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	const q = `INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`
	_, err := t.tx.Exec(ctx, q, e.ID, e.Title, e.Description, nonNilStrings(e.Tags), e.DepartmentID, e.Category,
		e.RegistrationStartDate, e.RegistrationEndDate, e.StartDate, e.EndDate, e.StartTime, e.EndTime,
		e.NumberOfDays, e.MaxParticipants, string(e.Mode), e.Venue, ids(e.CollaboratedDepartments), e.Budget,
		e.BudgetAmount, e.Certificate, e.ProposedBy, string(e.ApprovalStatus), e.StatusUpdatedBy, e.Remarks,
		e.Summary, ids(e.InternalParticipants), ids(e.ExternalParticipants), ids(e.AttendedParticipants),
		e.CreatedAt, e.UpdatedAt)
	return mapError(err)
}

func (t *tx) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(t.tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

func (t *tx) ListEvents(ctx context.Context, f store.EventFilter) ([]models.Event, error) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(f.DepartmentIDs) > 0 {
		where = append(where, "department_id = ANY("+arg(f.DepartmentIDs)+")")
	}
	if f.CollaboratorID != nil {
		where = append(where, arg(*f.CollaboratorID)+" = ANY(collaborated_departments)")
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "approval_status = ANY("+arg(statuses)+")")
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	q := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"

	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

func (t *tx) UpdateEvent(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = time.Now().UTC()
	const q = `UPDATE events SET title = $2, description = $3, tags = $4, department_id = $5, category = $6,
		registration_start_date = $7, registration_end_date = $8, start_date = $9, end_date = $10,
		start_time = $11, end_time = $12, number_of_days = $13, max_participants = $14, mode = $15,
		venue = $16, collaborated_departments = $17, budget = $18, budget_amount = $19, certificate = $20,
		approval_status = $21, status_updated_by = $22, remarks = $23, summary = $24,
		internal_participants = $25, external_participants = $26, attended_participants = $27,
		updated_at = $28
		WHERE id = $1`
	return t.execOne(ctx, q, e.ID, e.Title, e.Description, nonNilStrings(e.Tags), e.DepartmentID, e.Category,
		e.RegistrationStartDate, e.RegistrationEndDate, e.StartDate, e.EndDate, e.StartTime, e.EndTime,
		e.NumberOfDays, e.MaxParticipants, string(e.Mode), e.Venue, ids(e.CollaboratedDepartments), e.Budget,
		e.BudgetAmount, e.Certificate, string(e.ApprovalStatus), e.StatusUpdatedBy, e.Remarks, e.Summary,
		ids(e.InternalParticipants), ids(e.ExternalParticipants), ids(e.AttendedParticipants), e.UpdatedAt)
}

func (t *tx) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return t.execOne(ctx, `DELETE FROM events WHERE id = $1`, id)
}

// AddRegistrant is a single conditional update so the capacity check and the append cannot interleave.
func (t *tx) AddRegistrant(ctx context.Context, eventID, userID uuid.UUID, kind models.ParticipantType) (bool, error) {
	column := "external_participants"
	if kind == models.ParticipantInternal {
		column = "internal_participants"
	}
	q := `UPDATE events SET ` + column + ` = array_append(` + column + `, $2), updated_at = NOW()
		WHERE id = $1
		  AND cardinality(internal_participants) + cardinality(external_participants) < max_participants
		  AND NOT ($2 = ANY(internal_participants) OR $2 = ANY(external_participants))`
	tag, err := t.tx.Exec(ctx, q, eventID, userID)
	if err != nil {
		return false, mapError(err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	if !exists {
		return false, store.ErrNotFound
	}
	return false, nil
}
