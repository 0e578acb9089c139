package rewards_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodcasino.ru/focus-bot/internal/common"
	"prodcasino.ru/focus-bot/internal/features/rewards"
)

func TestMultiplierFor(t *testing.T) {
	tests := []struct {
		streak int
		want   string
	}{
		{0, "1"},
		{1, "1"},
		{2, "1"},
		{3, "1.2"},
		{6, "1.2"},
		{7, "1.5"},
		{29, "1.5"},
		{30, "2.0"},
		{1000, "2.0"},
	}

	for _, tt := range tests {
		got := rewards.MultiplierFor(rewards.MultiplierTiers, tt.streak)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"стрик %d: ожидали %s, получили %s", tt.streak, tt.want, got)
	}
}

func TestMultiplierFor_UnorderedTiers(t *testing.T) {
	// Порядок порогов в конфигурации не важен: всегда берётся
	// наибольший порог, не превышающий стрик.
	tiers := []rewards.Tier{
		{ThresholdDays: 7, Multiplier: decimal.RequireFromString("1.5")},
		{ThresholdDays: 30, Multiplier: decimal.RequireFromString("2.0")},
		{ThresholdDays: 3, Multiplier: decimal.RequireFromString("1.2")},
	}
	got := rewards.MultiplierFor(tiers, 10)
	assert.True(t, got.Equal(decimal.RequireFromString("1.5")))
}

func TestComputeReward(t *testing.T) {
	tests := []struct {
		name         string
		activityType string
		streak       int
		wantBase     int64
		wantFinal    int64
	}{
		{"помодоро без стрика", rewards.TypePomodoro, 1, 50, 50},
		{"помодоро с недельным стриком", rewards.TypePomodoro, 7, 50, 75},
		{"тренировка с трёхдневным стриком", rewards.TypeExercise, 3, 75, 90},
		{"учёба с месячным стриком", rewards.TypeStudy, 30, 100, 200},
		{"глубокая работа с недельным стриком", rewards.TypeDeepWork, 7, 200, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, _, final, err := rewards.ComputeReward(tt.activityType, tt.streak)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantFinal, final)
		})
	}
}

func TestComputeReward_Truncation(t *testing.T) {
	// 50 * 1.5 = 75 ровно, 75 * 1.2 = 90 ровно: decimal не даёт
	// плавающей погрешности и floor не съедает монеты.
	_, _, final, err := rewards.ComputeReward(rewards.TypePomodoro, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(75), final)
}

func TestComputeReward_UnknownType(t *testing.T) {
	_, _, _, err := rewards.ComputeReward("yoga_15min", 5)
	assert.ErrorIs(t, err, common.ErrUnknownActivity)
}

func TestComputeReward_Deterministic(t *testing.T) {
	b1, m1, f1, err1 := rewards.ComputeReward(rewards.TypeStudy, 12)
	b2, m2, f2, err2 := rewards.ComputeReward(rewards.TypeStudy, 12)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, b1, b2)
	assert.True(t, m1.Equal(m2))
	assert.Equal(t, f1, f2)
}

func TestNextMilestone(t *testing.T) {
	tests := []struct {
		streak         int
		wantTargetDays int
		wantDaysLeft   int
	}{
		{0, 3, 3},
		{1, 3, 2},
		{2, 3, 1},
		{3, 7, 4},
		{7, 30, 23},
		{29, 30, 1},
	}

	for _, tt := range tests {
		m := rewards.NextMilestone(rewards.MultiplierTiers, tt.streak)
		assert.Equal(t, tt.wantTargetDays, m.TargetDays, "стрик %d", tt.streak)
		assert.Equal(t, tt.wantDaysLeft, m.DaysNeeded, "стрик %d", tt.streak)
	}
}

func TestNextMilestone_MaxTierReached(t *testing.T) {
	// После высшего порога следующей цели нет
	for _, streak := range []int{30, 31, 365} {
		m := rewards.NextMilestone(rewards.MultiplierTiers, streak)
		assert.Equal(t, 0, m.DaysNeeded, "стрик %d", streak)
	}
}
