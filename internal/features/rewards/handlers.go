// Package rewards — handlers.go обрабатывает Telegram-команды начисления
// и просмотра: !сессия, !баланс, !статы, !история.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"prodcasino.ru/focus-bot/internal/common"
	"prodcasino.ru/focus-bot/internal/config"
)

// typeAliases — человеческие имена типов активностей в командах.
var typeAliases = map[string]string{
	"помидор":    TypePomodoro,
	"помидорка":  TypePomodoro,
	"pomodoro":   TypePomodoro,
	"спорт":      TypeExercise,
	"тренировка": TypeExercise,
	"exercise":   TypeExercise,
	"учёба":      TypeStudy,
	"учеба":      TypeStudy,
	"study":      TypeStudy,
	"фокус":      TypeDeepWork,
	"deep":       TypeDeepWork,
	"deep_work":  TypeDeepWork,
}

// typeTitles — отображаемые названия типов.
var typeTitles = map[string]string{
	TypePomodoro: "🍅 Помидор (25 мин)",
	TypeExercise: "💪 Тренировка (30 мин)",
	TypeStudy:    "📚 Учёба (1 ч)",
	TypeDeepWork: "🧠 Глубокая работа (2 ч)",
}

// Handler обрабатывает команды движка наград.
type Handler struct {
	service *Service
	api     *tgbotapi.BotAPI
	cfg     *config.Config
}

// NewHandler создаёт обработчик команд наград.
func NewHandler(service *Service, api *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, api: api, cfg: cfg}
}

// HandleEarn обрабатывает "!сессия <тип> [минуты] [заметка...]".
func (h *Handler) HandleEarn(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.send(chatID, "Укажи тип активности: !сессия <тип>\n"+h.typesHelp())
		return
	}

	activityType := h.resolveType(args[0])

	// Необязательная длительность в минутах
	var duration *int
	rest := args[1:]
	if len(rest) > 0 {
		if minutes, err := strconv.Atoi(rest[0]); err == nil {
			duration = &minutes
			rest = rest[1:]
		}
	}

	// Всё остальное — заметка
	var notes *string
	if len(rest) > 0 {
		n := strings.Join(rest, " ")
		notes = &n
	}

	result, err := h.service.Earn(ctx, userID, activityType, duration, notes)
	if err != nil {
		h.sendError(chatID, userID, err)
		return
	}

	msg := fmt.Sprintf("✅ %s\n%s за активность", typeTitles[result.ActivityType], common.FormatCoinsAmount(result.FinalCoins))
	if result.StreakDays > 1 {
		msg += fmt.Sprintf("\n🔥 Серия: %d %s (множитель ×%s)",
			result.StreakDays, common.PluralizeDays(result.StreakDays), result.Multiplier.String())
	}
	msg += fmt.Sprintf("\n💰 Баланс: %s", common.FormatBalance(result.NewBalance))
	h.send(chatID, msg)
}

// HandleBalance обрабатывает "!баланс".
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64) {
	stats, err := h.service.GetStats(ctx, userID)
	if err != nil {
		h.sendError(chatID, userID, err)
		return
	}
	h.send(chatID, fmt.Sprintf("💰 Твой баланс: %s монет", common.FormatNumber(stats.Balance)))
}

// HandleStats обрабатывает "!статы".
func (h *Handler) HandleStats(ctx context.Context, chatID, userID int64) {
	stats, err := h.service.GetStats(ctx, userID)
	if err != nil {
		h.sendError(chatID, userID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Твоя статистика:\n\n")
	sb.WriteString(fmt.Sprintf("💰 Баланс: %s монет\n", common.FormatNumber(stats.Balance)))
	sb.WriteString(fmt.Sprintf("📝 Активностей: %d\n", stats.TotalActivities))
	sb.WriteString(fmt.Sprintf("📈 Всего заработано: %s монет\n", common.FormatNumber(stats.TotalEarned)))
	sb.WriteString(fmt.Sprintf("🔥 Текущая серия: %d %s\n", stats.CurrentStreak, common.PluralizeDays(stats.CurrentStreak)))

	if stats.FavoriteActivity != "" {
		sb.WriteString(fmt.Sprintf("⭐ Любимая активность: %s\n", typeTitles[stats.FavoriteActivity]))
	}

	milestone := stats.NextMilestone
	if milestone.DaysNeeded > 0 {
		sb.WriteString(fmt.Sprintf("\n🎯 До множителя ×%s: ещё %d %s",
			milestone.Multiplier.String(), milestone.DaysNeeded, common.PluralizeDays(milestone.DaysNeeded)))
	} else {
		sb.WriteString(fmt.Sprintf("\n🏆 Максимальный бонус ×%s достигнут!", milestone.Multiplier.String()))
	}

	h.send(chatID, sb.String())
}

// HandleHistory обрабатывает "!история [n]".
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64, args []string) {
	limit := h.cfg.HistoryDefaultLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			h.send(chatID, "Лимит должен быть числом: !история [n]")
			return
		}
		limit = n
	}

	history, err := h.service.GetHistory(ctx, userID, limit)
	if err != nil {
		h.sendError(chatID, userID, err)
		return
	}

	if history.Total == 0 {
		h.send(chatID, "📋 Активностей пока нет. Начни с !сессия <тип>")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d активностей:\n\n", history.Total))
	for i, rec := range history.Activities {
		sb.WriteString(fmt.Sprintf("%d. %s | %s | %s",
			i+1,
			common.FormatDateTime(rec.CreatedAt),
			typeTitles[rec.ActivityType],
			common.FormatCoinsAmount(rec.CoinsEarned),
		))
		if rec.StreakAtTime > 1 {
			sb.WriteString(fmt.Sprintf(" (серия %d, ×%s)", rec.StreakAtTime, rec.MultiplierApplied.String()))
		}
		sb.WriteString("\n")
	}
	h.send(chatID, sb.String())
}

// resolveType переводит алиас команды в канонический тип активности.
// Неизвестный ввод прокидывается как есть — валидацию делает сервис.
func (h *Handler) resolveType(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := typeAliases[raw]; ok {
		return canonical
	}
	return raw
}

// typesHelp перечисляет доступные типы активностей.
func (h *Handler) typesHelp() string {
	var sb strings.Builder
	sb.WriteString("Доступные типы:\n")
	for _, activityType := range ActivityOrder {
		sb.WriteString(fmt.Sprintf("  %s — %d %s\n",
			typeTitles[activityType], BaseCoins[activityType], common.PluralizeCoins(BaseCoins[activityType])))
	}
	return sb.String()
}

// sendError переводит ошибку сервиса в понятное пользователю сообщение.
func (h *Handler) sendError(chatID, userID int64, err error) {
	switch {
	case errors.Is(err, common.ErrUnknownActivity):
		h.send(chatID, "Не знаю такой активности.\n"+h.typesHelp())
	case errors.Is(err, common.ErrInvalidDuration):
		h.send(chatID, "Длительность не может быть отрицательной.")
	case errors.Is(err, common.ErrInvalidLimit):
		h.send(chatID, "Лимит должен быть положительным числом.")
	case errors.Is(err, common.ErrWalletNotFound), errors.Is(err, common.ErrUserNotFound):
		h.send(chatID, "Сначала зарегистрируйся командой /start")
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка обработки команды")
		h.send(chatID, "Что-то сломалось. Попробуй ещё раз чуть позже.")
	}
}

// send отправляет текстовое сообщение в чат.
func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
