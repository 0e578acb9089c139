package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает только личные сообщения: бот персональный,
// в группах ему делать нечего.
type ChatFilter struct{}

func NewChatFilter() *ChatFilter {
	return &ChatFilter{}
}

func (f *ChatFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
		}).Warn("сообщение без отправителя")
		return false
	}
	if !message.Chat.IsPrivate() {
		log.WithFields(log.Fields{
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
		}).Debug("Сообщение не из личного чата — игнорируем")
		return false
	}
	return true
}
