package models

import "time"

// DayStatus отметка дня.
type DayStatus string

const (
	// DayWork рабочий день.
	DayWork DayStatus = "work"
	// DayHoliday выходной.
	DayHoliday DayStatus = "holiday"
)

// Valid сообщает, является ли статус одним из допустимых.
func (s DayStatus) Valid() bool {
	return s == DayWork || s == DayHoliday
}

// DailyRecord дневная отметка пользователя. Ключ записи: UserID + "_" + Date.
// Month всегда равен первым семи символам Date и выставляется только при записи.
type DailyRecord struct {
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`  // 2006-01-02
	Month     string    `json:"month"` // 2006-01
	Status    DayStatus `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Key возвращает ключ документа в коллекции дневника.
func (r DailyRecord) Key() string {
	return DiaryKey(r.UserID, r.Date)
}

// DiaryKey строит составной ключ дневной записи.
func DiaryKey(userID, date string) string {
	return userID + "_" + date
}

// MonthlyAggregate количество рабочих и выходных дней за месяц.
type MonthlyAggregate struct {
	Month          string `json:"month"`
	WorkDays       int    `json:"work_days"`
	Holidays       int    `json:"holidays"`
	WorkPercentage int    `json:"work_percentage"`
}

// Total сумма учтённых дней.
func (a MonthlyAggregate) Total() int {
	return a.WorkDays + a.Holidays
}

// MonthSummary строка истории за несколько месяцев.
type MonthSummary struct {
	Month    string `json:"month"`
	WorkDays int    `json:"work_days"`
	Holidays int    `json:"holidays"`
	Total    int    `json:"total"`
}

// DummyDayStatus используется для приёма отметки дня из JSON-запроса.
type DummyDayStatus struct {
	Status string `json:"status" validate:"required,oneof=work holiday"`
}
