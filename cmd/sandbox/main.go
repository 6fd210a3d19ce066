package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gie-wallet/internal/config"
	"gie-wallet/internal/pkg/clock"
	"gie-wallet/internal/pkg/logger"
	"gie-wallet/internal/sandbox"

	"github.com/robfig/cron/v3"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.LoadSandbox()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format, false)

	gies := sandbox.DefaultGIEs()
	for i := range gies {
		if chatID, ok := cfg.TelegramChats[gies[i].Code]; ok {
			gies[i].TelegramChatID = chatID
		}
	}

	var notifier sandbox.Notifier
	if cfg.TelegramToken != "" {
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				logger.Log.WithError(err).Error("❌ Telegram error")
			},
		})
		if err != nil {
			logger.Log.Fatalf("❌ Failed to create Telegram bot: %v", err)
		}
		notifier = sandbox.NewTelebotNotifier(bot)
		logger.Log.Info("✅ Telegram delivery enabled")
	} else {
		logger.Log.Warn("⚠️ TELEGRAM_BOT_TOKEN not set, codes are returned as fallback codes")
	}

	codes := sandbox.NewCodeIssuer(clock.Real{}, cfg.CodeTTL, cfg.MaxAttempts)
	srv := sandbox.NewServer(sandbox.NewRegistry(gies...), sandbox.NewLedger(), codes, sandbox.Options{
		APIKey:   cfg.APIKey,
		PayURL:   cfg.PayURL,
		Notifier: notifier,
	})

	// Cleanup expired codes every 5 minutes
	c := cron.New()
	if _, err := c.AddFunc("*/5 * * * *", func() {
		if n := codes.Purge(); n > 0 {
			logger.Log.Infof("🗑️ Purged %d expired codes", n)
		}
	}); err != nil {
		logger.Log.Fatalf("❌ Failed to schedule code purge: %v", err)
	}
	c.Start()
	defer c.Stop()

	app := srv.App()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("🛑 Shutting down sandbox...")
		_ = app.Shutdown()
	}()

	for _, g := range gies {
		logger.Log.WithField("status", g.Status).Infof("🌱 Seeded %s (%s)", g.Code, g.Name)
	}
	logger.Log.Infof("🚀 Sandbox backend starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatalf("❌ Failed to start sandbox: %v", err)
	}
}
