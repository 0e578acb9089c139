package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	parser := NewCommandParser()

	tests := []struct {
		name     string
		text     string
		wantCmd  string
		wantArgs []string
		wantOK   bool
	}{
		{"слэш-команда", "/start", "start", nil, true},
		{"восклицательный знак", "!баланс", "баланс", nil, true},
		{"команда с аргументами", "!сессия помидор 25", "сессия", []string{"помидор", "25"}, true},
		{"упоминание бота отрезается", "/stats@focus_bot", "stats", nil, true},
		{"регистр приводится к нижнему", "/START", "start", nil, true},
		{"пробелы по краям", "  /start  ", "start", nil, true},
		{"обычный текст", "просто текст", "", nil, false},
		{"пустая строка", "", "", nil, false},
		{"только префикс", "!", "", nil, false},
		{"префикс с пробелами", "!   ", "", nil, false},
		{"только упоминание", "/@focus_bot", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := parser.ParseCommand(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
