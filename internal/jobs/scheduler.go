// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежечасные напоминания о серии
// и ночной аудит журнала.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"prodcasino.ru/focus-bot/internal/features/rewards"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron           *cron.Cron
	rewardsService *rewards.Service
	sendFunc       func(userID int64, text string)
}

// NewScheduler создаёт планировщик задач. Расписание считается в UTC —
// в том же поясе, в котором весь проект считает календарные дни.
func NewScheduler(rewardsService *rewards.Service, sendFunc func(userID int64, text string)) *Scheduler {
	return &Scheduler{
		cron:           cron.New(cron.WithLocation(time.UTC)),
		rewardsService: rewardsService,
		sendFunc:       sendFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Напоминания о серии — каждый час
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[CRON] Проверка напоминаний о серии")
		if err := s.rewardsService.SendStreakReminders(ctx, s.sendFunc); err != nil {
			log.WithError(err).Error("[CRON] Ошибка напоминаний")
		}
	})

	// Аудит журнала — ночью в 03:10 UTC
	s.cron.AddFunc("10 3 * * *", func() {
		log.Info("[CRON] Аудит журнала активностей")
		if err := s.rewardsService.AuditLedger(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка аудита")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (UTC)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
