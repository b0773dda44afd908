// Package month содержит работу с календарными датами дневника: формат дня,
// формат месяца и сдвиг на целые календарные месяцы.
package month

import (
	"fmt"
	"time"
)

const (
	// DateLayout формат дня в дневнике.
	DateLayout = "2006-01-02"
	// Layout формат месяца в дневнике.
	Layout = "2006-01"
)

// FromDate возвращает месяц дневной записи. Месяц всегда равен первым семи символам даты,
// поэтому при записи его нужно брать только отсюда.
func FromDate(date string) (string, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", fmt.Errorf("month.FromDate: %w", err)
	}
	return date[:7], nil
}

// Validate проверяет строку месяца формата 2006-01.
func Validate(m string) error {
	if _, err := time.Parse(Layout, m); err != nil {
		return fmt.Errorf("month.Validate: %w", err)
	}
	return nil
}

// Today возвращает календарную дату момента now в часовом поясе loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}

// Of возвращает месяц момента t.
func Of(t time.Time) string {
	return t.Format(Layout)
}

// Shift сдвигает месяц ref на n календарных месяцев назад.
// Отсчёт идёт от первого числа, поэтому 31 марта минус один месяц даёт февраль, а не март.
func Shift(ref time.Time, n int) string {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -n, 0).Format(Layout)
}

// LastMonths возвращает count месяцев, заканчивающихся месяцем ref, от старого к новому.
func LastMonths(ref time.Time, count int) []string {
	if count <= 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := count - 1; i >= 0; i-- {
		result = append(result, Shift(ref, i))
	}
	return result
}
