// Package bot — parser.go разбирает команды из текста сообщений.
// Команды начинаются с "!" или "/": "!сессия помидор", "/start".
package bot

import "strings"

// CommandParser разбирает текст сообщения на команду и аргументы.
type CommandParser struct{}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// ParseCommand извлекает команду и аргументы из текста.
//
// Примеры:
//
//	"/start"              → ("start", nil, true)
//	"!сессия помидор 25"  → ("сессия", ["помидор", "25"], true)
//	"/stats@focus_bot"    → ("stats", nil, true)
//	"просто текст"        → ("", nil, false)
func (p *CommandParser) ParseCommand(text string) (cmd string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, false
	}
	if !strings.HasPrefix(text, "!") && !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}

	cmd = strings.ToLower(fields[0])
	// Отрезаем упоминание бота: "/stats@focus_bot" → "stats"
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	if cmd == "" {
		return "", nil, false
	}

	if len(fields) > 1 {
		args = fields[1:]
	}
	return cmd, args, true
}
