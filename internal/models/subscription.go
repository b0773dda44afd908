// Package models содержит доменные структуры дневника: запись подписки,
// дневную отметку, агрегаты по месяцам и пользователя, а также DTO для JSON-запросов.
package models

import "time"

// SubscriptionStatus хранимый статус подписки.
type SubscriptionStatus string

const (
	// SubscriptionTrial пробный период, создаётся при первом обращении пользователя.
	SubscriptionTrial SubscriptionStatus = "trial"
	// SubscriptionActive оплаченная подписка, выставляется вручную администратором.
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionInactive отключённая подписка, выставляется вручную администратором.
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Subscription запись о подписке пользователя, ровно одна на пользователя.
// TrialEndDate и CreatedAt задаются один раз при создании и больше не меняются.
// IsActive носит информационный характер: доступ решается по Status и TrialEndDate.
type Subscription struct {
	UserID       string             `json:"user_id"`
	Status       SubscriptionStatus `json:"status"`
	TrialEndDate time.Time          `json:"trial_end_date"`
	CreatedAt    time.Time          `json:"created_at"`
	IsActive     bool               `json:"is_active"`
}

// TrialNoticeKind тип уведомления о пробном периоде.
type TrialNoticeKind string

const (
	// TrialEndsTomorrow напоминание за день до окончания пробного периода.
	TrialEndsTomorrow TrialNoticeKind = "ends_tomorrow"
	// TrialEndsToday пробный период заканчивается сегодня.
	TrialEndsToday TrialNoticeKind = "ends_today"
)

// TrialNotice сообщение, которое планировщик публикует в очередь уведомлений.
type TrialNotice struct {
	UserID       string          `json:"user_id"`
	Email        string          `json:"email"`
	DisplayName  string          `json:"display_name"`
	TrialEndDate time.Time       `json:"trial_end_date"`
	Kind         TrialNoticeKind `json:"kind"`
}

// SubscriptionState вычисляемое состояние подписки. Expired и None никогда не хранятся.
type SubscriptionState string

const (
	// StateTrial пробный период ещё идёт.
	StateTrial SubscriptionState = "trial"
	// StateActive оплаченная подписка.
	StateActive SubscriptionState = "active"
	// StateExpired пробный период закончился.
	StateExpired SubscriptionState = "expired"
	// StateInactive подписка отключена.
	StateInactive SubscriptionState = "inactive"
	// StateNone записи о подписке нет.
	StateNone SubscriptionState = "none"
)

// SubscriptionView ответ о статусе подписки для клиента и middleware доступа.
type SubscriptionView struct {
	Status        SubscriptionStatus `json:"status"`
	State         SubscriptionState  `json:"state"`
	IsActive      bool               `json:"is_active"`
	DaysRemaining int                `json:"days_remaining"`
	TrialEndDate  time.Time          `json:"trial_end_date"`
	CreatedAt     time.Time          `json:"created_at"`
}
