// Package rewards — repository.go реализует Store поверх PostgreSQL.
// Начисление выполняется в одной транзакции БД: запись журнала и
// инкремент баланса либо применяются вместе, либо не применяются вовсе.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prodcasino.ru/focus-bot/internal/common"
	"prodcasino.ru/focus-bot/internal/features/wallet"
)

// Repository предоставляет методы для работы с таблицами activities и wallets.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий наград.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// проверка на этапе компиляции: Repository реализует Store
var _ Store = (*Repository)(nil)

// ApplyEarn атомарно записывает активность в журнал и увеличивает баланс.
//
// Инкремент делегирован базе одним выражением `balance = balance + $2` —
// конкурентные начисления одному пользователю не теряют обновления.
// Наивный вариант «прочитать, посчитать в коде, записать» здесь запрещён.
//
// Если кошелька нет — UPDATE не находит строку, транзакция откатывается
// целиком и осиротевшая запись журнала не появляется.
func (r *Repository) ApplyEarn(ctx context.Context, rec *ActivityRecord) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Запись журнала
	_, err = tx.Exec(ctx, `
		INSERT INTO activities (id, user_id, activity_type, coins_earned,
		                        duration_minutes, notes, streak_at_time,
		                        multiplier_applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.UserID, rec.ActivityType, rec.CoinsEarned,
		rec.DurationMinutes, rec.Notes, rec.StreakAtTime,
		rec.MultiplierApplied, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи активности: %w", err)
	}

	// Инкремент баланса с возвратом нового значения
	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`, rec.UserID, rec.CoinsEarned).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrWalletNotFound
		}
		return 0, fmt.Errorf("ошибка начисления: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return newBalance, nil
}

// ActivityTimesSince возвращает моменты активностей пользователя с since.
func (r *Repository) ActivityTimesSince(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	query := `
		SELECT created_at
		FROM activities
		WHERE user_id = $1 AND created_at >= $2
	`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения активностей: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// RecentActivities возвращает последние limit записей журнала пользователя.
func (r *Repository) RecentActivities(ctx context.Context, userID int64, limit int) ([]*ActivityRecord, error) {
	query := `
		SELECT id, user_id, activity_type, coins_earned, duration_minutes,
		       notes, streak_at_time, multiplier_applied, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var records []*ActivityRecord
	for rows.Next() {
		var rec ActivityRecord
		err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ActivityType, &rec.CoinsEarned,
			&rec.DurationMinutes, &rec.Notes, &rec.StreakAtTime,
			&rec.MultiplierApplied, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования активности: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// LedgerTotals возвращает число записей и сумму монет по журналу пользователя.
func (r *Repository) LedgerTotals(ctx context.Context, userID int64) (int64, int64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(coins_earned), 0)
		FROM activities
		WHERE user_id = $1
	`
	var count, coins int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count, &coins); err != nil {
		return 0, 0, fmt.Errorf("ошибка подсчёта итогов: %w", err)
	}
	return count, coins, nil
}

// CountByType возвращает число активностей пользователя по каждому типу.
func (r *Repository) CountByType(ctx context.Context, userID int64) (map[string]int64, error) {
	query := `
		SELECT activity_type, COUNT(*)
		FROM activities
		WHERE user_id = $1
		GROUP BY activity_type
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта по типам: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var activityType string
		var count int64
		if err := rows.Scan(&activityType, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		counts[activityType] = count
	}
	return counts, rows.Err()
}

// WalletBalance возвращает текущий баланс кошелька пользователя.
func (r *Repository) WalletBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1`, userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrWalletNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// ActiveUserIDs возвращает пользователей с активностями начиная с since.
func (r *Repository) ActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id
		FROM activities
		WHERE created_at >= $1
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения активных пользователей: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AllWallets возвращает все кошельки для аудита журнала.
func (r *Repository) AllWallets(ctx context.Context) ([]*wallet.Wallet, error) {
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

	var wallets []*wallet.Wallet
	for rows.Next() {
		var w wallet.Wallet
		if err := rows.Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования кошелька: %w", err)
		}
		wallets = append(wallets, &w)
	}
	return wallets, rows.Err()
}
