// Package users — service.go содержит логику регистрации.
// Регистрация — двухшаговая сага: создание пользователя, затем кошелька
// со стартовым бонусом. Если второй шаг упал — первый компенсируется
// удалением, чтобы не оставить пользователя без кошелька (нарушение
// инварианта, на который опирается движок наград).
package users

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"prodcasino.ru/focus-bot/internal/config"
	"prodcasino.ru/focus-bot/internal/features/wallet"
)

// Service управляет регистрацией пользователей.
type Service struct {
	repo       *Repository
	walletRepo *wallet.Repository
	cfg        *config.Config
}

// NewService создаёт сервис пользователей.
func NewService(repo *Repository, walletRepo *wallet.Repository, cfg *config.Config) *Service {
	return &Service{
		repo:       repo,
		walletRepo: walletRepo,
		cfg:        cfg,
	}
}

// Register регистрирует пользователя и создаёт кошелёк со стартовым
// бонусом. Возвращает created=false, если пользователь уже был
// зарегистрирован (повторный /start — не ошибка, данные обновляются).
func (s *Service) Register(ctx context.Context, userID int64, username, firstName, lastName string) (created bool, err error) {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("проверка регистрации: %w", err)
	}
	if exists {
		// Пользователь перезапустил бота — обновляем данные профиля.
		// Кошелёк на всякий случай досоздаём: Create идемпотентен.
		if err := s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		}); err != nil {
			return false, err
		}
		if err := s.walletRepo.Create(ctx, userID, s.cfg.WalletStartingBalance); err != nil {
			return false, err
		}
		return false, nil
	}

	// Шаг 1: пользователь
	u := &User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return false, err
	}

	// Шаг 2: кошелёк со стартовым бонусом
	if err := s.walletRepo.Create(ctx, userID, s.cfg.WalletStartingBalance); err != nil {
		// Компенсация: убираем пользователя, иначе останется запись
		// без кошелька и любое начисление будет падать.
		s.compensateUserCreate(ctx, userID)
		return false, fmt.Errorf("ошибка создания кошелька: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
		"bonus":    s.cfg.WalletStartingBalance,
	}).Info("Новый пользователь зарегистрирован")

	return true, nil
}

// IsRegistered проверяет, зарегистрирован ли пользователь.
func (s *Service) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// GetByUserID возвращает пользователя по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// compensateUserCreate удаляет пользователя после неудачного создания
// кошелька. Повторяет удаление ограниченное число раз; если не вышло —
// громко сигнализирует оператору: молчаливое частичное применение
// недопустимо.
func (s *Service) compensateUserCreate(ctx context.Context, userID int64) {
	retries := s.cfg.RegisterCompensateRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		lastErr = s.repo.Delete(ctx, userID)
		if lastErr == nil {
			log.WithField("user_id", userID).Warn("Регистрация откатилась: пользователь удалён после сбоя кошелька")
			return
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}

	log.WithError(lastErr).WithField("user_id", userID).
		Error("КРИТИЧНО: компенсация регистрации не удалась, пользователь остался без кошелька")
}
