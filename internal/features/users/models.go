// Package users управляет регистрацией пользователей бота.
// models.go описывает структуру записи пользователя.
package users

import "time"

// User представляет пользователя бота в базе данных.
// Запись создаётся командой /start вместе с кошельком.
type User struct {
	UserID    int64     `db:"user_id"`    // Telegram user ID (уникальный)
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя пользователя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	JoinedAt  time.Time `db:"joined_at"`  // Когда зарегистрировался
	CreatedAt time.Time `db:"created_at"` // Когда запись создана в БД
	UpdatedAt time.Time `db:"updated_at"` // Последнее обновление записи
}

// UpdateInfo содержит данные для обновления информации о пользователе.
type UpdateInfo struct {
	Username  string
	FirstName string
	LastName  string
}
