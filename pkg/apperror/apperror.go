// Package apperror описывает доменные ошибки с HTTP-подобным видом и
// стабильным машиночитаемым кодом.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind вид ошибки для транспортного слоя
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindConflict
)

// Error доменная ошибка. Каждый вызов конструктора создает отдельный sentinel,
// ошибки из Withf совпадают со своим исходным sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	parent *Error
}

func (e *Error) Error() string {
	return e.Message
}

// Is сравнивает ошибки по исходному sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.root() == t.root()
}

func (e *Error) root() *Error {
	for e.parent != nil {
		e = e.parent
	}
	return e
}

// Withf возвращает копию e с уточненным сообщением
func (e *Error) Withf(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), parent: e.root()}
}

// HTTPStatus переводит вид ошибки в HTTP статус
func (e *Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// HTTPStatus переводит вид ошибки в HTTP статус
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequest"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	default:
		return "InternalServerError"
	}
}

// NotFound создает ошибку 404
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Conflict создает ошибку 409
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// BadRequest создает ошибку 400
func BadRequest(code, message string) *Error {
	return &Error{Kind: KindBadRequest, Code: code, Message: message}
}

// Internal создает ошибку 500
func Internal(code, message string) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: message}
}

// From достает первую *Error из цепочки err
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf возвращает вид err, KindInternal для ошибок вне этого пакета
func KindOf(err error) Kind {
	if appErr, ok := From(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
