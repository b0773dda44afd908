package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/work-diary/internal/models"
)

// UpsertDay записывает отметку дня. Повторная запись того же дня перезаписывает
// статус и время последней записи, вторая строка не создаётся.
func (s *Storage) UpsertDay(ctx context.Context, rec models.DailyRecord) (*models.DailyRecord, error) {
	const op = "storage.UpsertDay"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO work_diary (id, user_id, date, month, status, timestamp)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (id) DO UPDATE
			  SET status = EXCLUDED.status,
			      timestamp = EXCLUDED.timestamp
			  RETURNING user_id, date, month, status, timestamp`
	var saved models.DailyRecord
	err := s.DB.QueryRowContext(ctx, query,
		rec.Key(), rec.UserID, rec.Date, rec.Month, rec.Status, rec.Timestamp).Scan(
		&saved.UserID, &saved.Date, &saved.Month, &saved.Status, &saved.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &saved, nil
}

// GetDay возвращает отметку дня или ErrNotFound.
func (s *Storage) GetDay(ctx context.Context, userID, date string) (*models.DailyRecord, error) {
	const op = "storage.GetDay"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, date, month, status, timestamp
			  FROM work_diary
			  WHERE id = $1`
	var rec models.DailyRecord
	err := s.DB.QueryRowContext(ctx, query, models.DiaryKey(userID, date)).Scan(
		&rec.UserID, &rec.Date, &rec.Month, &rec.Status, &rec.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}

// ListMonth возвращает отметки пользователя за месяц, от последнего дня к первому.
func (s *Storage) ListMonth(ctx context.Context, userID, month string) ([]models.DailyRecord, error) {
	const op = "storage.ListMonth"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, date, month, status, timestamp
			  FROM work_diary
			  WHERE user_id = $1 AND month = $2
			  ORDER BY date DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID, month)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.DailyRecord, 0)
	for rows.Next() {
		var rec models.DailyRecord
		if err = rows.Scan(&rec.UserID, &rec.Date, &rec.Month, &rec.Status, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
