package common_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"prodcasino.ru/focus-bot/internal/common"
)

func TestPluralizeCoins(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "монета"},
		{2, "монеты"},
		{5, "монет"},
		{11, "монет"},
		{14, "монет"},
		{21, "монета"},
		{22, "монеты"},
		{100, "монет"},
		{101, "монета"},
		{111, "монет"},
		{0, "монет"},
		{-3, "монеты"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, common.PluralizeCoins(tt.n), "n=%d", tt.n)
	}
}

func TestPluralizeDays(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "день"},
		{3, "дня"},
		{7, "дней"},
		{11, "дней"},
		{21, "день"},
		{30, "дней"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, common.PluralizeDays(tt.n), "n=%d", tt.n)
	}
}

func TestDayUTC(t *testing.T) {
	// Московское время 01:30, 1 сентября → по UTC ещё 31 августа
	msk := time.FixedZone("MSK", 3*60*60)
	moment := time.Date(2026, 9, 1, 1, 30, 0, 0, msk)

	got := common.DayUTC(moment)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), got)
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "150 монет", common.FormatBalance(150))
	assert.Equal(t, "1 монета", common.FormatBalance(1))
	assert.Equal(t, "22 монеты", common.FormatBalance(22))
}

func TestFormatDateTime(t *testing.T) {
	moment := time.Date(2026, 8, 31, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "31.08.2026 15:04", common.FormatDateTime(moment))
}
