package client

import (
	"errors"
	"fmt"
)

// ErrAuth — 401 от любого вызова; сессия уже сброшена к этому моменту.
var ErrAuth = errors.New("authentication expired")

// NetworkError — транспорт не доехал (в т.ч. таймаут 15s).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError — HTTP-статус вне 2xx.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d: %s", e.Status, e.Body)
}

// ParseError — тело не распарсилось как ожидаемый JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }
