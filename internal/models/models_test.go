package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDayStatus_Valid(t *testing.T) {
	assert.True(t, DayWork.Valid())
	assert.True(t, DayHoliday.Valid())
	assert.False(t, DayStatus("sick").Valid())
	assert.False(t, DayStatus("").Valid())
}

func TestDailyRecord_Key(t *testing.T) {
	rec := DailyRecord{UserID: "u1", Date: "2024-03-15"}

	assert.Equal(t, "u1_2024-03-15", rec.Key())
	assert.Equal(t, rec.Key(), DiaryKey("u1", "2024-03-15"))
}

func TestMonthlyAggregate_Total(t *testing.T) {
	assert.Equal(t, 5, MonthlyAggregate{WorkDays: 3, Holidays: 2}.Total())
	assert.Equal(t, 0, MonthlyAggregate{}.Total())
}

func TestUser_RefDropsPasswordHash(t *testing.T) {
	u := User{UUID: "id", Email: "a@b.c", DisplayName: "A", PasswordHash: "secret"}

	ref := u.Ref()

	assert.Equal(t, &UserRef{ID: "id", Email: "a@b.c", DisplayName: "A"}, ref)
}
