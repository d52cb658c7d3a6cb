package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"atrium/internal/fault"
)

// notFoundOr переводит ошибку gorm в таксономию fault:
// запись не найдена → NotFound, остальное → Internal с причиной.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.New(fault.NotFound, "%s not found", what)
	}
	return fault.Wrap(err, "load %s", what)
}

// IsDuplicate — нарушение уникальности; TranslateError покрывает
// postgres/mysql, строковый фолбэк — sqlite в тестах.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE constraint") || strings.Contains(s, "Duplicate entry")
}
