package models

import "errors"

var (
	// ErrStoreUnavailable хранилище не ответило на чтение. Доступ в этом случае запрещается.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrPersistenceFailed запись не была сохранена.
	ErrPersistenceFailed = errors.New("persistence failed")
	// ErrInvalidStatus статус дня не work и не holiday.
	ErrInvalidStatus = errors.New("invalid day status")
	// ErrInvalidDate дата не в формате 2006-01-02 или месяц не в формате 2006-01.
	ErrInvalidDate = errors.New("invalid date")
)
