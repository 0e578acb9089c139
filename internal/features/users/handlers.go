// Package users — handlers.go обрабатывает команду /start.
package users

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"prodcasino.ru/focus-bot/internal/common"
	"prodcasino.ru/focus-bot/internal/config"
)

// Handler обрабатывает Telegram-команды, связанные с регистрацией.
type Handler struct {
	service *Service
	api     *tgbotapi.BotAPI
	cfg     *config.Config
}

// NewHandler создаёт обработчик команд регистрации.
func NewHandler(service *Service, api *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, api: api, cfg: cfg}
}

// HandleStart обрабатывает /start: регистрирует пользователя
// и рассказывает, как пользоваться ботом.
func (h *Handler) HandleStart(ctx context.Context, chatID, userID int64, username, firstName, lastName string) {
	created, err := h.service.Register(ctx, userID, username, firstName, lastName)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка регистрации")
		h.send(chatID, "Не получилось зарегистрировать. Попробуй ещё раз чуть позже.")
		return
	}

	if created {
		h.send(chatID, fmt.Sprintf(
			"Привет! Тебе начислен стартовый бонус: %s.\n\n"+
				"Логируй активности командой !сессия <тип> и получай монеты. "+
				"Серия дней подряд увеличивает награду. Команды: !сессия, !баланс, !статы, !история",
			common.FormatBalance(h.cfg.WalletStartingBalance)))
		return
	}

	h.send(chatID, "С возвращением! Команды: !сессия <тип>, !баланс, !статы, !история")
}

// send отправляет текстовое сообщение в чат.
func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
