package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrUnavailable оборачивает любую ошибку обращения к БД (сеть, ограничения, таймаут).
	// Вызывающий код отвечает 500, а не 401.
	ErrUnavailable = errors.New("storage unavailable")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
