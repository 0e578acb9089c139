// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки валидации — всегда возвращаются вызывающему с деталями,
// никогда не повторяются автоматически.
var (
	// ErrUnknownActivity — тип активности отсутствует в таблице наград
	ErrUnknownActivity = errors.New("неизвестный тип активности")
	// ErrInvalidDuration — отрицательная длительность активности
	ErrInvalidDuration = errors.New("длительность не может быть отрицательной")
	// ErrInvalidLimit — лимит истории должен быть положительным
	ErrInvalidLimit = errors.New("лимит должен быть положительным числом")
)

// Ошибки целостности данных. Отсутствие кошелька у существующего
// пользователя — нарушение инварианта регистрации, а не нормальный путь,
// поэтому такие случаи дополнительно логируются как аномалии.
var (
	// ErrWalletNotFound — кошелёк пользователя не найден в базе
	ErrWalletNotFound = errors.New("кошелёк не найден")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// IsValidation сообщает, относится ли ошибка к классу ошибок валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownActivity) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidLimit)
}
