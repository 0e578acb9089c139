// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики
// и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"prodcasino.ru/focus-bot/internal/bot"
	"prodcasino.ru/focus-bot/internal/config"
	"prodcasino.ru/focus-bot/internal/db/postgres"
	"prodcasino.ru/focus-bot/internal/features/rewards"
	"prodcasino.ru/focus-bot/internal/features/users"
	"prodcasino.ru/focus-bot/internal/features/wallet"
	"prodcasino.ru/focus-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	// Хранилище передаётся сервисам параметром (никаких глобальных
	// синглтонов) — в тестах вместо Postgres подставляется in-memory фейк.
	userRepo := users.NewRepository(pool)
	walletRepo := wallet.NewRepository(pool)
	rewardsRepo := rewards.NewRepository(pool)

	// === 4. Сервисы ===
	userService := users.NewService(userRepo, walletRepo, cfg)
	rewardsService := rewards.NewService(rewardsRepo, cfg)

	// === 5. Обработчики ===
	usersHandler := users.NewHandler(userService, botAPI, cfg)
	rewardsHandler := rewards.NewHandler(rewardsService, botAPI, cfg)

	// === 6. Собираем бота ===
	b := bot.New(botAPI, cfg, rewardsHandler, usersHandler)

	// === 7. Планировщик задач ===
	scheduler := jobs.NewScheduler(rewardsService, b.SendMessageToUser)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Инициализируем систему миграций
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002Wallets},
		{3, migration003Activities},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    joined_at TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
`

var migration002Wallets = `
CREATE TABLE IF NOT EXISTS wallets (
    user_id BIGINT PRIMARY KEY REFERENCES users(user_id),
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
`

var migration003Activities = `
CREATE TABLE IF NOT EXISTS activities (
    id UUID PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    activity_type VARCHAR(50) NOT NULL,
    coins_earned BIGINT NOT NULL,
    duration_minutes INTEGER,
    notes TEXT,
    streak_at_time INTEGER NOT NULL,
    multiplier_applied DECIMAL(5,2) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_activities_user_created ON activities(user_id, created_at DESC);
`
