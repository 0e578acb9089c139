// Package rewards — service.go содержит движок наград: единственную
// точку, через которую меняется баланс кошелька.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"prodcasino.ru/focus-bot/internal/common"
	"prodcasino.ru/focus-bot/internal/config"
	"prodcasino.ru/focus-bot/internal/features/wallet"
)

// Store — доступ к журналу активностей и кошелькам.
// Сервис получает хранилище параметром конструктора (никаких глобальных
// синглтонов): в тестах подставляется in-memory реализация.
type Store interface {
	// ApplyEarn атомарно добавляет запись в журнал И увеличивает баланс
	// кошелька. Наблюдатель никогда не увидит одно без другого.
	// Отсутствие кошелька — common.ErrWalletNotFound, запись журнала
	// при этом не сохраняется.
	ApplyEarn(ctx context.Context, rec *ActivityRecord) (newBalance int64, err error)

	// ActivityTimesSince возвращает моменты активностей пользователя
	// начиная с since.
	ActivityTimesSince(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)

	// RecentActivities возвращает последние limit записей журнала
	// по убыванию created_at.
	RecentActivities(ctx context.Context, userID int64, limit int) ([]*ActivityRecord, error)

	// LedgerTotals возвращает число записей и сумму coins_earned
	// по всему журналу пользователя.
	LedgerTotals(ctx context.Context, userID int64) (count int64, coins int64, err error)

	// CountByType возвращает число активностей пользователя по типам.
	CountByType(ctx context.Context, userID int64) (map[string]int64, error)

	// WalletBalance возвращает текущий баланс кошелька
	// (common.ErrWalletNotFound, если кошелька нет).
	WalletBalance(ctx context.Context, userID int64) (int64, error)

	// ActiveUserIDs возвращает пользователей, у которых была хотя бы
	// одна активность начиная с since. Используется напоминаниями.
	ActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error)

	// AllWallets возвращает все кошельки. Используется ночным аудитом.
	AllWallets(ctx context.Context) ([]*wallet.Wallet, error)
}

// Service — движок наград. Оркестрирует подсчёт стрика, политику
// начисления и атомарную запись в хранилище.
type Service struct {
	store Store
	cfg   *config.Config
	now   func() time.Time // Подменяется в тестах

	// Кому и когда отправлено напоминание (дата по UTC).
	// In-memory: после рестарта напоминание может прийти повторно,
	// это допустимо.
	remindedMu sync.Mutex
	remindedOn map[int64]time.Time
}

// NewService создаёт движок наград.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{
		store:      store,
		cfg:        cfg,
		now:        time.Now,
		remindedOn: make(map[int64]time.Time),
	}
}

// Earn начисляет монеты за выполненную активность.
//
// Шаги (одна логическая транзакция):
//  1. Валидация типа активности и длительности
//  2. Подсчёт стрика по истории + сегодняшней активности
//  3. Расчёт награды по политике
//  4. Атомарная запись: журнал + инкремент баланса
//
// Стрик считается ВКЛЮЧАЯ записываемую активность: самая первая
// активность начисляется по стрику 1, а день, замыкающий трёхдневную
// серию, получает множитель ×1.2. В streak_at_time сохраняется именно
// это значение.
//
// Ошибка чтения истории распространяется наверх: ложный «стрик 0» из-за
// недоступной базы молча сжёг бы заработанный бонус пользователя.
func (s *Service) Earn(ctx context.Context, userID int64, activityType string, durationMinutes *int, notes *string) (*EarnResult, error) {
	// Шаг 1: валидация
	if _, ok := BaseCoins[activityType]; !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownActivity, activityType)
	}
	if durationMinutes != nil && *durationMinutes < 0 {
		return nil, common.ErrInvalidDuration
	}

	now := s.now().UTC()

	// Шаг 2: стрик по истории за окно просмотра + текущая активность
	since := now.AddDate(0, 0, -s.cfg.StreakLookbackDays)
	times, err := s.store.ActivityTimesSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("история активностей: %w", err)
	}
	times = append(times, now)
	streak := ConsecutiveDays(times, now, s.cfg.StreakLookbackDays)

	// Шаг 3: политика начисления
	base, mult, final, err := ComputeReward(activityType, streak)
	if err != nil {
		return nil, err
	}

	// Шаг 4: атомарная запись журнала и баланса
	rec := &ActivityRecord{
		ID:                uuid.New(),
		UserID:            userID,
		ActivityType:      activityType,
		CoinsEarned:       final,
		DurationMinutes:   durationMinutes,
		Notes:             notes,
		StreakAtTime:      streak,
		MultiplierApplied: mult,
		CreatedAt:         now,
	}
	newBalance, err := s.store.ApplyEarn(ctx, rec)
	if err != nil {
		if errors.Is(err, common.ErrWalletNotFound) {
			// Кошелёк обязан существовать с момента регистрации —
			// это нарушение инварианта, логируем как аномалию.
			log.WithField("user_id", userID).Error("Начисление без кошелька: нарушен инвариант регистрации")
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"activity":   activityType,
		"streak":     streak,
		"multiplier": mult.String(),
		"coins":      final,
		"balance":    newBalance,
	}).Info("Монеты начислены")

	return &EarnResult{
		ActivityType: activityType,
		BaseCoins:    base,
		StreakDays:   streak,
		Multiplier:   mult,
		FinalCoins:   final,
		NewBalance:   newBalance,
	}, nil
}

// CurrentStreak возвращает действующий стрик пользователя по истории.
// Новая активность здесь НЕ добавляется: пользователь без активности
// сегодня видит стрик 0.
func (s *Service) CurrentStreak(ctx context.Context, userID int64) (int, error) {
	now := s.now().UTC()
	since := now.AddDate(0, 0, -s.cfg.StreakLookbackDays)
	times, err := s.store.ActivityTimesSince(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("история активностей: %w", err)
	}
	return ConsecutiveDays(times, now, s.cfg.StreakLookbackDays), nil
}

// GetStats возвращает статистику пользователя: баланс, счётчики журнала,
// действующий стрик, любимую активность и следующий рубеж.
//
// TotalEarned — независимая сумма по журналу; вместе со стартовым бонусом
// она обязана сходиться с кэшированным балансом (это проверяет аудит).
func (s *Service) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	balance, err := s.store.WalletBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrWalletNotFound) {
			log.WithField("user_id", userID).Error("Статистика без кошелька: нарушен инвариант регистрации")
		}
		return nil, err
	}

	count, earned, err := s.store.LedgerTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("итоги журнала: %w", err)
	}

	streak, err := s.CurrentStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.CountByType(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("счётчики по типам: %w", err)
	}

	return &Stats{
		Balance:         balance,
		TotalActivities: count,
		TotalEarned:     earned,
		CurrentStreak:   streak,
		// Тай-брейк детерминированный: при равных счётчиках побеждает
		// первый тип по порядку таблицы наград.
		FavoriteActivity: favoriteActivity(counts),
		NextMilestone:    NextMilestone(MultiplierTiers, streak),
	}, nil
}

// GetHistory возвращает последние limit активностей пользователя
// по убыванию created_at. Лимит обязан быть положительным; дефолт (10)
// подставляет вызывающий слой. Слишком большой лимит обрезается.
func (s *Service) GetHistory(ctx context.Context, userID int64, limit int) (*History, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", common.ErrInvalidLimit, limit)
	}
	if limit > s.cfg.HistoryMaxLimit {
		limit = s.cfg.HistoryMaxLimit
	}

	activities, err := s.store.RecentActivities(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("история активностей: %w", err)
	}
	return &History{Activities: activities, Total: len(activities)}, nil
}

// favoriteActivity выбирает самый частый тип активности.
// Возвращает пустую строку, если активностей не было.
func favoriteActivity(counts map[string]int64) string {
	favorite := ""
	var best int64
	for _, activityType := range ActivityOrder {
		if counts[activityType] > best {
			best = counts[activityType]
			favorite = activityType
		}
	}
	return favorite
}

// SendStreakReminders отправляет напоминания пользователям, которые
// рискуют потерять серию: вчера серия была жива, а сегодня активности
// ещё нет. Запускается кроном каждый час.
func (s *Service) SendStreakReminders(ctx context.Context, send func(userID int64, text string)) error {
	now := s.now().UTC()
	today := common.DayUTC(now)
	yesterday := today.AddDate(0, 0, -1)

	userIDs, err := s.store.ActiveUserIDs(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("активные пользователи: %w", err)
	}

	since := now.AddDate(0, 0, -s.cfg.StreakLookbackDays)
	for _, userID := range userIDs {
		times, err := s.store.ActivityTimesSince(ctx, userID, since)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка чтения истории для напоминания")
			continue
		}

		// Сегодня уже была активность — серия в безопасности
		if ConsecutiveDays(times, now, s.cfg.StreakLookbackDays) > 0 {
			continue
		}

		// Серия, действовавшая вчера
		streak := ConsecutiveDays(times, yesterday, s.cfg.StreakLookbackDays)
		if streak < s.cfg.StreakReminderMinDays {
			continue
		}

		if s.alreadyReminded(userID, today) {
			continue
		}

		msg := fmt.Sprintf("🔥 У тебя серия %d %s! Залогируй активность сегодня, чтобы не потерять её.",
			streak, common.PluralizeDays(streak))
		milestone := NextMilestone(MultiplierTiers, streak)
		if milestone.DaysNeeded > 0 {
			msg += fmt.Sprintf(" До множителя ×%s осталось %d %s.",
				milestone.Multiplier.String(), milestone.DaysNeeded, common.PluralizeDays(milestone.DaysNeeded))
		}
		send(userID, msg)
		s.markReminded(userID, today)
	}

	return nil
}

// AuditLedger сверяет кэшированные балансы с журналом:
// balance == стартовый бонус + sum(coins_earned).
// Расхождение — ошибка в логе для оператора. Запускается кроном ночью.
func (s *Service) AuditLedger(ctx context.Context) error {
	wallets, err := s.store.AllWallets(ctx)
	if err != nil {
		return fmt.Errorf("список кошельков: %w", err)
	}

	mismatches := 0
	for _, w := range wallets {
		_, earned, err := s.store.LedgerTotals(ctx, w.UserID)
		if err != nil {
			log.WithError(err).WithField("user_id", w.UserID).Error("Ошибка аудита журнала")
			continue
		}
		expected := s.cfg.WalletStartingBalance + earned
		if expected != w.Balance {
			mismatches++
			log.WithFields(log.Fields{
				"user_id":  w.UserID,
				"balance":  w.Balance,
				"expected": expected,
			}).Error("АУДИТ: баланс расходится с журналом")
		}
	}

	log.WithFields(log.Fields{
		"wallets":    len(wallets),
		"mismatches": mismatches,
	}).Info("Аудит журнала завершён")

	return nil
}

// alreadyReminded проверяет, отправлено ли напоминание сегодня.
func (s *Service) alreadyReminded(userID int64, today time.Time) bool {
	s.remindedMu.Lock()
	defer s.remindedMu.Unlock()
	return s.remindedOn[userID].Equal(today)
}

// markReminded помечает напоминание отправленным и чистит устаревшие записи.
func (s *Service) markReminded(userID int64, today time.Time) {
	s.remindedMu.Lock()
	defer s.remindedMu.Unlock()
	s.remindedOn[userID] = today
	for id, day := range s.remindedOn {
		if day.Before(today) {
			delete(s.remindedOn, id)
		}
	}
}
