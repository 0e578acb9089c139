// Package rewards — streak.go отвечает за подсчёт серии последовательных дней.
package rewards

import (
	"time"

	"prodcasino.ru/focus-bot/internal/common"
)

// ConsecutiveDays считает, сколько календарных дней подряд — начиная
// с today и двигаясь назад — содержат хотя бы одну активность.
//
// Правила:
//   - день считается по UTC (common.DayUTC), несколько активностей
//     в один день считаются за один;
//   - если сегодня активности нет — стрик равен 0, даже если вчера
//     и позавчера активности были: серия определяется как «действующая
//     сейчас», а не как «самая длинная недавняя»;
//   - стрик длиннее windowDays обрезается до windowDays (окно просмотра
//     истории ограничено, это осознанное ограничение).
//
// Примеры:
//
//	ConsecutiveDays(nil, today, 60)                 → 0
//	ConsecutiveDays([сегодня], today, 60)           → 1
//	ConsecutiveDays([вчера, позавчера], today, 60)  → 0 (сегодня пусто)
func ConsecutiveDays(activityTimes []time.Time, today time.Time, windowDays int) int {
	if len(activityTimes) == 0 || windowDays <= 0 {
		return 0
	}

	// Проецируем моменты времени на множество уникальных дат
	days := make(map[time.Time]struct{}, len(activityTimes))
	for _, t := range activityTimes {
		days[common.DayUTC(t)] = struct{}{}
	}

	// Идём назад от сегодняшней даты, пока дни непрерывны
	streak := 0
	day := common.DayUTC(today)
	for streak < windowDays {
		if _, ok := days[day]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
