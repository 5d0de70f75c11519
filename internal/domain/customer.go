package domain

import "time"

// Customer клиент клиники
type Customer struct {
	ID       string
	Name     string
	LastName *string
	Email    *string
	Phone    *string
	Rut      *string // национальный ID Чили

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomerData данные для регистрации клиента вместе
// с первой записью
type CustomerData struct {
	Name     string
	LastName *string
	Email    *string
	Phone    *string
	Rut      *string
}

// HasContact сообщает, есть ли хотя бы одно поле для дедупликации
func (d CustomerData) HasContact() bool {
	return nonEmpty(d.Email) || nonEmpty(d.Phone) || nonEmpty(d.Rut)
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
