// Package rewards — policy.go содержит политику начисления:
// таблицу множителей за стрик и расчёт итоговой награды.
package rewards

import (
	"sort"

	"github.com/shopspring/decimal"

	"prodcasino.ru/focus-bot/internal/common"
)

// Tier — пара (порог в днях, множитель).
type Tier struct {
	ThresholdDays int
	Multiplier    decimal.Decimal
}

// MultiplierTiers — бонусные множители за стрик.
//   - 3 дня  → ×1.2 (+20%)
//   - 7 дней → ×1.5 (+50%)
//   - 30 дней → ×2.0 (+100%)
//
// Порядок записей в таблице не важен: выбор всегда идёт по убыванию порога.
var MultiplierTiers = []Tier{
	{ThresholdDays: 3, Multiplier: decimal.RequireFromString("1.2")},
	{ThresholdDays: 7, Multiplier: decimal.RequireFromString("1.5")},
	{ThresholdDays: 30, Multiplier: decimal.RequireFromString("2.0")},
}

// multiplierOne — множитель по умолчанию (без бонуса).
var multiplierOne = decimal.NewFromInt(1)

// MultiplierFor возвращает множитель для заданного стрика.
// Побеждает НАИБОЛЬШИЙ порог, не превышающий streakDays; пороги
// проверяются по убыванию, независимо от порядка записей в таблице.
// Если стрик ниже всех порогов — ровно 1.0.
func MultiplierFor(tiers []Tier, streakDays int) decimal.Decimal {
	sorted := sortedTiers(tiers)
	// От большего порога к меньшему: первый подходящий выигрывает
	for i := len(sorted) - 1; i >= 0; i-- {
		if streakDays >= sorted[i].ThresholdDays {
			return sorted[i].Multiplier
		}
	}
	return multiplierOne
}

// ComputeReward считает награду за активность с учётом стрика.
//
// Возвращает (базовые монеты, множитель, итог). Итог считается как
// floor(base × multiplier) — усечение к нулю, а не округление: монеты —
// целая валюта, и «дорисовывать» их округлением вверх нельзя.
//
// Неизвестный тип активности — ошибка вызывающего
// (common.ErrUnknownActivity), а не состояние, из которого надо
// восстанавливаться.
func ComputeReward(activityType string, streakDays int) (base int64, mult decimal.Decimal, final int64, err error) {
	base, ok := BaseCoins[activityType]
	if !ok {
		return 0, decimal.Decimal{}, 0, common.ErrUnknownActivity
	}

	mult = MultiplierFor(MultiplierTiers, streakDays)
	final = decimal.NewFromInt(base).Mul(mult).Floor().IntPart()
	return base, mult, final, nil
}

// NextMilestone возвращает ближайший рубеж стрика: наименьший порог,
// СТРОГО больший текущего стрика, его множитель и сколько дней осталось.
// Если максимальный порог уже достигнут — DaysNeeded равен 0 и
// возвращается максимальный множитель («максимальный бонус», не ошибка).
func NextMilestone(tiers []Tier, currentStreak int) Milestone {
	sorted := sortedTiers(tiers)
	for _, tier := range sorted {
		if currentStreak < tier.ThresholdDays {
			return Milestone{
				TargetDays: tier.ThresholdDays,
				DaysNeeded: tier.ThresholdDays - currentStreak,
				Multiplier: tier.Multiplier,
			}
		}
	}

	// Терминальное состояние: все пороги пройдены
	last := sorted[len(sorted)-1]
	return Milestone{
		TargetDays: currentStreak,
		DaysNeeded: 0,
		Multiplier: last.Multiplier,
	}
}

// sortedTiers возвращает копию таблицы, отсортированную по возрастанию
// порога. Копия нужна, чтобы не переупорядочивать исходный срез.
func sortedTiers(tiers []Tier) []Tier {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ThresholdDays < sorted[j].ThresholdDays
	})
	return sorted
}
