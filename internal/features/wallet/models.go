// Package wallet управляет кошельками пользователей.
// models.go описывает структуру записи кошелька.
package wallet

import "time"

// Wallet представляет кошелёк пользователя.
// У каждого пользователя ровно одна запись в таблице wallets.
//
// Инвариант: баланс меняется только транзакцией движка наград
// и никогда не уходит в минус. Кошелёк создаётся при регистрации
// со стартовым бонусом и не удаляется, пока существует пользователь.
type Wallet struct {
	UserID    int64     `db:"user_id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"` // Время последнего изменения баланса
}
