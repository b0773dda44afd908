package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/work-diary/internal/models"
)

// GetSubscription возвращает запись подписки пользователя или ErrNotFound.
func (s *Storage) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, status, trial_end_date, created_at, is_active
			  FROM subscriptions
			  WHERE user_id = $1`
	var sub models.Subscription
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(
		&sub.UserID, &sub.Status, &sub.TrialEndDate, &sub.CreatedAt, &sub.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// CreateSubscription сохраняет запись, только если у пользователя её ещё нет.
// Возвращает false, если запись уже существовала; существующая запись не меняется.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (bool, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, status, trial_end_date, created_at, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (user_id) DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query,
		sub.UserID, sub.Status, sub.TrialEndDate, sub.CreatedAt, sub.IsActive)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// FindTrialsEndingBetween находит пробные периоды, заканчивающиеся в интервале [from, to),
// вместе с контактами пользователей.
func (s *Storage) FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]models.TrialNotice, error) {
	const op = "storage.FindTrialsEndingBetween"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.user_id, u.email, u.display_name, s.trial_end_date
			  FROM subscriptions s
			  JOIN users u ON u.uid::text = s.user_id
			  WHERE s.status = 'trial'
			    AND s.trial_end_date >= $1
			    AND s.trial_end_date < $2
			  ORDER BY s.trial_end_date`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.TrialNotice
	for rows.Next() {
		var n models.TrialNotice
		if err = rows.Scan(&n.UserID, &n.Email, &n.DisplayName, &n.TrialEndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
