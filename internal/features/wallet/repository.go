// Package wallet — repository.go выполняет операции с таблицей wallets.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prodcasino.ru/focus-bot/internal/common"
)

// Repository предоставляет методы для работы с таблицей wallets.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий кошельков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create создаёт кошелёк пользователя со стартовым балансом.
// Повторный вызов безопасен: существующий кошелёк не перезаписывается.
func (r *Repository) Create(ctx context.Context, userID int64, startingBalance int64) error {
	query := `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, startingBalance)
	if err != nil {
		return fmt.Errorf("ошибка создания кошелька: %w", err)
	}
	return nil
}

// GetByUserID возвращает кошелёк пользователя.
// Отсутствие кошелька — common.ErrWalletNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Wallet, error) {
	query := `
		SELECT user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`
	var w Wallet
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrWalletNotFound
		}
		return nil, fmt.Errorf("ошибка получения кошелька: %w", err)
	}
	return &w, nil
}

// Exists проверяет наличие кошелька у пользователя.
func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM wallets WHERE user_id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID).Scan(&exists)
	return exists, err
}

// GetAll возвращает все кошельки. Используется ночным аудитом журнала.
func (r *Repository) GetAll(ctx context.Context) ([]*Wallet, error) {
	query := `
		SELECT user_id, balance, created_at, updated_at
		FROM wallets
		ORDER BY user_id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения кошельков: %w", err)
	}
	defer rows.Close()

	var wallets []*Wallet
	for rows.Next() {
		var w Wallet
		if err := rows.Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		wallets = append(wallets, &w)
	}
	return wallets, rows.Err()
}
