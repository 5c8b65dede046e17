package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eventgrid/backend/internal/models"
)

const feedbackColumns = `id, event_id, user_id, answers, created_at`

func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var f models.Feedback
	var raw []byte
	if err := row.Scan(&f.ID, &f.EventID, &f.UserID, &raw, &f.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	if err := json.Unmarshal(raw, &f.Answers); err != nil {
		return nil, fmt.Errorf("decode feedback answers: %w", err)
	}
	return &f, nil
}

func (t *tx) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	answers := f.Answers
	if answers == nil {
		answers = []models.Answer{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode feedback answers: %w", err)
	}
	const q = `INSERT INTO feedback (` + feedbackColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err = t.tx.Exec(ctx, q, f.ID, f.EventID, f.UserID, raw, f.CreatedAt)
	return mapError(err)
}

func (t *tx) GetFeedback(ctx context.Context, eventID, userID uuid.UUID) (*models.Feedback, error) {
	const q = `SELECT ` + feedbackColumns + ` FROM feedback WHERE event_id = $1 AND user_id = $2`
	return scanFeedback(t.tx.QueryRow(ctx, q, eventID, userID))
}

func (t *tx) ListFeedback(ctx context.Context, eventID uuid.UUID) ([]models.Feedback, error) {
	const q = `SELECT ` + feedbackColumns + ` FROM feedback WHERE event_id = $1 ORDER BY created_at, id`
	rows, err := t.tx.Query(ctx, q, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var list []models.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *f)
	}
	return list, rows.Err()
}
