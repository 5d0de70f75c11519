// Package pgerrors классифицирует ошибки PostgreSQL из lib/pq.
package pgerrors

import (
	"errors"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func code(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation сообщает о нарушении unique constraint
func IsUniqueViolation(err error) bool {
	return code(err) == codeUniqueViolation
}

// IsForeignKeyViolation сообщает о нарушении foreign key
func IsForeignKeyViolation(err error) bool {
	return code(err) == codeForeignKeyViolation
}

// IsExclusionViolation сообщает о нарушении exclusion constraint, которым
// таблица appointments отклоняет пересекающиеся записи одного терапевта.
func IsExclusionViolation(err error) bool {
	return code(err) == codeExclusionViolation
}

// IsSerializationFailure сообщает, что транзакция проиграла конфликт
// сериализации или попала в deadlock.
func IsSerializationFailure(err error) bool {
	c := code(err)
	return c == codeSerializationFailure || c == codeDeadlockDetected
}

// ConstraintName возвращает нарушенный constraint, если есть
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
