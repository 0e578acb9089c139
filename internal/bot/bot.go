// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает апдейты, прогоняет их через фильтры и маршрутизирует команды.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"prodcasino.ru/focus-bot/internal/bot/filters"
	"prodcasino.ru/focus-bot/internal/bot/middleware"
	"prodcasino.ru/focus-bot/internal/config"
	"prodcasino.ru/focus-bot/internal/features/rewards"
	"prodcasino.ru/focus-bot/internal/features/users"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	rewardsHandler *rewards.Handler
	usersHandler   *users.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	rewardsHandler *rewards.Handler,
	usersHandler *users.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		cfg:            cfg,
		chatFilter:     filters.NewChatFilter(),
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		rewardsHandler: rewardsHandler,
		usersHandler:   usersHandler,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// SendMessageToUser отправляет сообщение пользователю в личный чат.
// В личке chat_id совпадает с user_id. Используется напоминаниями крона.
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось отправить сообщение пользователю")
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message

	// Логируем входящее
	middleware.LogMessage(message)

	// Только личные чаты
	if !b.chatFilter.CheckAccess(message) {
		return
	}

	// Rate limiting
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		b.sendHelp(chatID)
		return
	}

	b.routeCommand(ctx, chatID, userID, message, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, message *tgbotapi.Message, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start":
		b.usersHandler.HandleStart(ctx, chatID, userID,
			message.From.UserName, message.From.FirstName, message.From.LastName)

	case "сессия", "earn":
		b.rewardsHandler.HandleEarn(ctx, chatID, userID, args)

	case "баланс", "balance":
		b.rewardsHandler.HandleBalance(ctx, chatID, userID)

	case "статы", "stats":
		b.rewardsHandler.HandleStats(ctx, chatID, userID)

	case "история", "history":
		b.rewardsHandler.HandleHistory(ctx, chatID, userID, args)

	case "help", "помощь":
		b.sendHelp(chatID)

	default:
		b.sendHelp(chatID)
	}
}

// sendHelp отправляет справку по командам.
func (b *Bot) sendHelp(chatID int64) {
	help := "Команды:\n" +
		"  /start — регистрация\n" +
		"  !сессия <тип> [минуты] [заметка] — залогировать активность\n" +
		"  !баланс — текущий баланс\n" +
		"  !статы — статистика и серия\n" +
		"  !история [n] — последние активности"
	msg := tgbotapi.NewMessage(chatID, help)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки справки")
	}
}
