package rewards

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodcasino.ru/focus-bot/internal/common"
	"prodcasino.ru/focus-bot/internal/config"
	"prodcasino.ru/focus-bot/internal/features/wallet"
)

// memStore — in-memory реализация Store для тестов сервиса.
// ApplyEarn атомарен под мьютексом, как и настоящая транзакция в Postgres.
type memStore struct {
	mu      sync.Mutex
	wallets map[int64]int64
	records []*ActivityRecord
}

func newMemStore() *memStore {
	return &memStore{wallets: make(map[int64]int64)}
}

func (m *memStore) ApplyEarn(_ context.Context, rec *ActivityRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.wallets[rec.UserID]
	if !ok {
		return 0, common.ErrWalletNotFound
	}
	m.wallets[rec.UserID] = balance + rec.CoinsEarned
	m.records = append(m.records, rec)
	return m.wallets[rec.UserID], nil
}

func (m *memStore) ActivityTimesSince(_ context.Context, userID int64, since time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var times []time.Time
	for _, rec := range m.records {
		if rec.UserID == userID && !rec.CreatedAt.Before(since) {
			times = append(times, rec.CreatedAt)
		}
	}
	return times, nil
}

func (m *memStore) RecentActivities(_ context.Context, userID int64, limit int) ([]*ActivityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recs []*ActivityRecord
	for _, rec := range m.records {
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (m *memStore) LedgerTotals(_ context.Context, userID int64) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count, coins int64
	for _, rec := range m.records {
		if rec.UserID == userID {
			count++
			coins += rec.CoinsEarned
		}
	}
	return count, coins, nil
}

func (m *memStore) CountByType(_ context.Context, userID int64) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, rec := range m.records {
		if rec.UserID == userID {
			counts[rec.ActivityType]++
		}
	}
	return counts, nil
}

func (m *memStore) WalletBalance(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.wallets[userID]
	if !ok {
		return 0, common.ErrWalletNotFound
	}
	return balance, nil
}

func (m *memStore) ActiveUserIDs(_ context.Context, since time.Time) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, rec := range m.records {
		if !rec.CreatedAt.Before(since) && !seen[rec.UserID] {
			seen[rec.UserID] = true
			ids = append(ids, rec.UserID)
		}
	}
	return ids, nil
}

func (m *memStore) AllWallets(_ context.Context) ([]*wallet.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var wallets []*wallet.Wallet
	for userID, balance := range m.wallets {
		wallets = append(wallets, &wallet.Wallet{UserID: userID, Balance: balance})
	}
	return wallets, nil
}

var _ Store = (*memStore)(nil)

// failingStore ломает чтение истории — для проверки, что ошибка базы
// доходит до вызывающего, а не превращается в ложный «стрик 0».
type failingStore struct {
	*memStore
}

func (f *failingStore) ActivityTimesSince(context.Context, int64, time.Time) ([]time.Time, error) {
	return nil, errors.New("база недоступна")
}

// --- Хелперы ---

var fixedNow = time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		WalletStartingBalance: 100,
		StreakLookbackDays:    60,
		StreakReminderMinDays: 3,
		HistoryDefaultLimit:   10,
		HistoryMaxLimit:       50,
	}
}

func newTestService(store Store) *Service {
	s := NewService(store, testConfig())
	s.now = func() time.Time { return fixedNow }
	return s
}

// seedActivity добавляет запись в журнал и поддерживает инвариант
// баланса (как это делает настоящий ApplyEarn).
func seedActivity(store *memStore, userID int64, activityType string, coins int64, createdAt time.Time) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.wallets[userID] += coins
	store.records = append(store.records, &ActivityRecord{
		ID:                uuid.New(),
		UserID:            userID,
		ActivityType:      activityType,
		CoinsEarned:       coins,
		StreakAtTime:      1,
		MultiplierApplied: decimal.NewFromInt(1),
		CreatedAt:         createdAt,
	})
}

// --- Earn ---

func TestEarn_FirstActivity(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	s := newTestService(store)

	res, err := s.Earn(context.Background(), 42, TypePomodoro, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(50), res.BaseCoins)
	assert.Equal(t, 1, res.StreakDays)
	assert.True(t, res.Multiplier.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, int64(50), res.FinalCoins)
	assert.Equal(t, int64(150), res.NewBalance)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, TypePomodoro, rec.ActivityType)
	assert.Equal(t, 1, rec.StreakAtTime)
	assert.Equal(t, int64(50), rec.CoinsEarned)
	assert.NotEqual(t, uuid.Nil, rec.ID)
}

func TestEarn_SeventhDayMultiplier(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	// Шесть предыдущих дней подряд
	for i := 1; i <= 6; i++ {
		seedActivity(store, 42, TypePomodoro, 50, fixedNow.AddDate(0, 0, -i))
	}
	s := newTestService(store)

	before, err := store.WalletBalance(context.Background(), 42)
	require.NoError(t, err)

	res, err := s.Earn(context.Background(), 42, TypeDeepWork, nil, nil)
	require.NoError(t, err)

	// Седьмой день подряд: 200 × 1.5 = 300
	assert.Equal(t, 7, res.StreakDays)
	assert.True(t, res.Multiplier.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, int64(300), res.FinalCoins)
	assert.Equal(t, before+300, res.NewBalance)
}

func TestEarn_SecondActivitySameDay(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	s := newTestService(store)

	first, err := s.Earn(context.Background(), 42, TypePomodoro, nil, nil)
	require.NoError(t, err)
	second, err := s.Earn(context.Background(), 42, TypeStudy, nil, nil)
	require.NoError(t, err)

	// Вторая активность в тот же день не удлиняет серию
	assert.Equal(t, 1, first.StreakDays)
	assert.Equal(t, 1, second.StreakDays)
	assert.Equal(t, int64(250), second.NewBalance)
}

func TestEarn_UnknownType(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	s := newTestService(store)

	_, err := s.Earn(context.Background(), 42, "yoga_15min", nil, nil)
	assert.ErrorIs(t, err, common.ErrUnknownActivity)

	// Ни записи в журнале, ни изменения баланса
	assert.Empty(t, store.records)
	assert.Equal(t, int64(100), store.wallets[42])
}

func TestEarn_NegativeDuration(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	s := newTestService(store)

	minutes := -5
	_, err := s.Earn(context.Background(), 42, TypePomodoro, &minutes, nil)
	assert.ErrorIs(t, err, common.ErrInvalidDuration)
	assert.Empty(t, store.records)
}

func TestEarn_MissingWallet(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	_, err := s.Earn(context.Background(), 99, TypePomodoro, nil, nil)
	assert.ErrorIs(t, err, common.ErrWalletNotFound)

	// Запись журнала без начисления не остаётся
	assert.Empty(t, store.records)
}

func TestEarn_HistoryUnavailable(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	s := newTestService(&failingStore{memStore: store})

	_, err := s.Earn(context.Background(), 42, TypePomodoro, nil, nil)
	require.Error(t, err)

	// Недоступная история — отказ, а не тихое начисление по стрику 0
	assert.Empty(t, store.records)
	assert.Equal(t, int64(100), store.wallets[42])
}

func TestEarn_Concurrent(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	s := newTestService(store)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Earn(context.Background(), 42, TypePomodoro, nil, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Ни одно начисление не потеряно: все в один день, стрик 1, по 50 монет
	assert.Equal(t, int64(100+workers*50), store.wallets[42])
	assert.Len(t, store.records, workers)

	// Баланс сходится с журналом
	_, earned, err := store.LedgerTotals(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, store.wallets[42], 100+earned)
}

// --- GetStats ---

func TestGetStats(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	seedActivity(store, 42, TypePomodoro, 50, fixedNow.AddDate(0, 0, -1))
	seedActivity(store, 42, TypePomodoro, 50, fixedNow.AddDate(0, 0, -2))
	seedActivity(store, 42, TypeStudy, 100, fixedNow.AddDate(0, 0, -2))
	s := newTestService(store)

	stats, err := s.GetStats(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(300), stats.Balance)
	assert.Equal(t, int64(3), stats.TotalActivities)
	assert.Equal(t, int64(200), stats.TotalEarned)
	// Сегодня активности нет: действующий стрик 0
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, TypePomodoro, stats.FavoriteActivity)
	assert.Equal(t, 3, stats.NextMilestone.TargetDays)
}

func TestGetStats_Idempotent(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	seedActivity(store, 42, TypeExercise, 75, fixedNow)
	s := newTestService(store)

	first, err := s.GetStats(context.Background(), 42)
	require.NoError(t, err)
	second, err := s.GetStats(context.Background(), 42)
	require.NoError(t, err)

	// Чтение статистики ничего не меняет
	assert.Equal(t, first, second)
	assert.Len(t, store.records, 1)
}

func TestGetStats_FavoriteTieBreak(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	// Поровну учёбы и помидоров: побеждает первый по таблице наград
	seedActivity(store, 42, TypeStudy, 100, fixedNow.AddDate(0, 0, -1))
	seedActivity(store, 42, TypePomodoro, 50, fixedNow.AddDate(0, 0, -2))
	s := newTestService(store)

	stats, err := s.GetStats(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, TypePomodoro, stats.FavoriteActivity)
}

func TestGetStats_NoActivities(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	s := newTestService(store)

	stats, err := s.GetStats(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.Balance)
	assert.Equal(t, "", stats.FavoriteActivity)
	assert.Equal(t, 0, stats.CurrentStreak)
}

func TestGetStats_MissingWallet(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	_, err := s.GetStats(context.Background(), 99)
	assert.ErrorIs(t, err, common.ErrWalletNotFound)
}

// --- GetHistory ---

func TestGetHistory(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	for i := 0; i < 5; i++ {
		seedActivity(store, 42, TypePomodoro, 50, fixedNow.Add(-time.Duration(i)*time.Hour))
	}
	s := newTestService(store)

	history, err := s.GetHistory(context.Background(), 42, 3)
	require.NoError(t, err)
	require.Equal(t, 3, history.Total)

	// По убыванию времени: свежие сверху
	for i := 1; i < len(history.Activities); i++ {
		assert.True(t, history.Activities[i-1].CreatedAt.After(history.Activities[i].CreatedAt))
	}
}

func TestGetHistory_InvalidLimit(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)

	for _, limit := range []int{0, -1, -100} {
		_, err := s.GetHistory(context.Background(), 42, limit)
		assert.ErrorIs(t, err, common.ErrInvalidLimit, "лимит %d", limit)
	}
}

func TestGetHistory_LimitClamped(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	for i := 0; i < 60; i++ {
		seedActivity(store, 42, TypePomodoro, 50, fixedNow.Add(-time.Duration(i)*time.Hour))
	}
	s := newTestService(store)

	history, err := s.GetHistory(context.Background(), 42, 1000)
	require.NoError(t, err)
	// Обрезано до HistoryMaxLimit
	assert.Equal(t, 50, history.Total)
}

// --- Напоминания ---

func TestSendStreakReminders(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	store.wallets[77] = 100
	// 42: трёхдневная серия, завершившаяся вчера — под угрозой
	for i := 1; i <= 3; i++ {
		seedActivity(store, 42, TypePomodoro, 50, fixedNow.AddDate(0, 0, -i))
	}
	// 77: уже активен сегодня — серия в безопасности
	seedActivity(store, 77, TypeStudy, 100, fixedNow.AddDate(0, 0, -1))
	seedActivity(store, 77, TypeStudy, 100, fixedNow.Add(-time.Hour))
	s := newTestService(store)

	var sent []int64
	send := func(userID int64, _ string) { sent = append(sent, userID) }

	require.NoError(t, s.SendStreakReminders(context.Background(), send))
	assert.Equal(t, []int64{42}, sent)

	// Повторный запуск в тот же день не дублирует напоминание
	require.NoError(t, s.SendStreakReminders(context.Background(), send))
	assert.Equal(t, []int64{42}, sent)
}

func TestSendStreakReminders_ShortStreakSkipped(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	// Серия из двух дней — ниже порога напоминаний
	seedActivity(store, 42, TypePomodoro, 50, fixedNow.AddDate(0, 0, -1))
	seedActivity(store, 42, TypePomodoro, 50, fixedNow.AddDate(0, 0, -2))
	s := newTestService(store)

	var sent []int64
	require.NoError(t, s.SendStreakReminders(context.Background(), func(userID int64, _ string) {
		sent = append(sent, userID)
	}))
	assert.Empty(t, sent)
}

// --- Аудит ---

func TestAuditLedger(t *testing.T) {
	store := newMemStore()
	store.wallets[42] = 100
	seedActivity(store, 42, TypePomodoro, 50, fixedNow.Add(-time.Hour))
	s := newTestService(store)

	// Баланс сходится с журналом: аудит проходит без ошибок
	assert.NoError(t, s.AuditLedger(context.Background()))
}
