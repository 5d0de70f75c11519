package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service процедура из каталога
type Service struct {
	ID              string
	Name            string
	Code            *string
	DurationMinutes int
	Price           decimal.Decimal
	IsActive        bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration возвращает длительность услуги как time.Duration
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
