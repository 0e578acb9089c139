// Package rewards начисляет монеты за выполненные активности
// с учётом бонуса за серию последовательных дней (стрик).
// models.go описывает структуры данных и таблицу базовых наград.
package rewards

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Типы активностей. Закрытый список — всё остальное отклоняется валидацией.
const (
	TypePomodoro = "pomodoro_25min" // Помидор: 25 минут фокуса
	TypeExercise = "exercise_30min" // Тренировка: 30 минут
	TypeStudy    = "study_1h"       // Учёба: 1 час
	TypeDeepWork = "deep_work_2h"   // Глубокая работа: 2 часа
)

// ActivityOrder — канонический порядок типов активностей.
// Этот порядок используется как детерминированный тай-брейк при выборе
// «любимой» активности: при равных счётчиках побеждает первый по таблице.
var ActivityOrder = []string{TypePomodoro, TypeExercise, TypeStudy, TypeDeepWork}

// BaseCoins — базовая награда за каждый тип активности (до множителя).
var BaseCoins = map[string]int64{
	TypePomodoro: 50,
	TypeExercise: 75,
	TypeStudy:    100,
	TypeDeepWork: 200,
}

// ActivityRecord представляет одну выполненную активность.
// Журнал активностей append-only: записи создаются движком наград
// и никогда не изменяются и не удаляются.
//
// Поля StreakAtTime и MultiplierApplied — аудиторский след: по ним любую
// прошлую награду можно воспроизвести, даже если таблицы наград изменятся.
type ActivityRecord struct {
	ID                uuid.UUID       `db:"id"`
	UserID            int64           `db:"user_id"`
	ActivityType      string          `db:"activity_type"`
	CoinsEarned       int64           `db:"coins_earned"`
	DurationMinutes   *int            `db:"duration_minutes"` // Необязательная длительность
	Notes             *string         `db:"notes"`            // Необязательная заметка
	StreakAtTime      int             `db:"streak_at_time"`
	MultiplierApplied decimal.Decimal `db:"multiplier_applied"`
	CreatedAt         time.Time       `db:"created_at"`
}

// EarnResult — результат одного начисления.
type EarnResult struct {
	ActivityType string
	BaseCoins    int64
	StreakDays   int
	Multiplier   decimal.Decimal
	FinalCoins   int64
	NewBalance   int64
}

// Stats — агрегированная статистика пользователя.
type Stats struct {
	Balance          int64
	TotalActivities  int64
	TotalEarned      int64 // Сумма coins_earned по журналу — независимая сверка баланса
	CurrentStreak    int
	FavoriteActivity string // Пустая строка, если активностей ещё не было
	NextMilestone    Milestone
}

// History — страница истории активностей.
type History struct {
	Activities []*ActivityRecord
	Total      int
}

// Milestone описывает следующий рубеж стрика.
// Если текущий стрик уже достиг максимального порога — DaysNeeded равен 0,
// а Multiplier содержит максимальный множитель (терминальное состояние,
// не ошибка).
type Milestone struct {
	TargetDays int
	DaysNeeded int
	Multiplier decimal.Decimal
}
