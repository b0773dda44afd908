package services

import (
	"math"
	"time"

	"github.com/magabrotheeeer/work-diary/internal/models"
)

// IsActive решает, есть ли у пользователя доступ к дневнику в момент now.
// Пробный период действует включительно до TrialEndDate. Флаг IsActive записи не учитывается.
func IsActive(rec *models.Subscription, now time.Time) bool {
	if rec == nil {
		return false
	}
	switch rec.Status {
	case models.SubscriptionActive:
		return true
	case models.SubscriptionTrial:
		return !now.After(rec.TrialEndDate)
	default:
		return false
	}
}

// DaysRemaining возвращает число оставшихся дней пробного периода, округлённое вверх.
// Для любого статуса, кроме trial, и для истёкшего периода возвращает 0.
func DaysRemaining(rec *models.Subscription, now time.Time) int {
	if rec == nil || rec.Status != models.SubscriptionTrial {
		return 0
	}
	left := rec.TrialEndDate.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// StateOf вычисляет состояние подписки на момент now.
func StateOf(rec *models.Subscription, now time.Time) models.SubscriptionState {
	if rec == nil {
		return models.StateNone
	}
	switch rec.Status {
	case models.SubscriptionActive:
		return models.StateActive
	case models.SubscriptionTrial:
		if IsActive(rec, now) {
			return models.StateTrial
		}
		return models.StateExpired
	default:
		return models.StateInactive
	}
}

// View собирает ответ о статусе подписки.
func View(rec *models.Subscription, now time.Time) *models.SubscriptionView {
	if rec == nil {
		return &models.SubscriptionView{State: models.StateNone}
	}
	return &models.SubscriptionView{
		Status:        rec.Status,
		State:         StateOf(rec, now),
		IsActive:      IsActive(rec, now),
		DaysRemaining: DaysRemaining(rec, now),
		TrialEndDate:  rec.TrialEndDate,
		CreatedAt:     rec.CreatedAt,
	}
}
