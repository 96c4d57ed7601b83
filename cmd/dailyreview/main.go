package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-review/internal/assistant"
	"daily-review/internal/auth"
	"daily-review/internal/bot"
	"daily-review/internal/config"
	"daily-review/internal/repository"
	"daily-review/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	store := repository.NewStore(db)

	var completer assistant.Completer = assistant.Disabled{}
	if cfg.AnthropicAPIKey != "" {
		anthropic, err := assistant.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			log.Fatalf("assistant: %v", err)
		}
		completer = anthropic
	} else {
		log.Println("[info] ANTHROPIC_API_KEY not set, assistant features disabled")
	}

	sessions := auth.NewManager(store.Users)
	defer sessions.Close()

	itemSvc := service.NewItemService(store, cfg.Location)
	reminderSvc := service.NewReminderService(itemSvc)
	offerSvc := service.NewOfferService(store.Offers, completer)
	chatSvc := service.NewChatService(itemSvc, completer)

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
		Sessions:  sessions,
		Items:     itemSvc,
		Reminders: reminderSvc,
		Offers:    offerSvc,
		Chat:      chatSvc,
	}, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(cfg.Location)
	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, runJob("report", telegramBot.SendDailyReports)); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
	}
	reminderID, err := scheduler.ScheduleDaily(cfg.ReviewReminderAt, runJob("review reminder", telegramBot.SendReviewReminders))
	if err != nil {
		log.Fatalf("schedule review reminder: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	if next := scheduler.Next(reminderID); !next.IsZero() {
		log.Printf("[info] next review reminder at %s", next.Format(time.RFC3339))
	}

	log.Println("Daily review bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}

func runJob(name string, job func(context.Context) error) func() {
	return func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := job(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("%s: %v", name, err)
		}
	}
}
