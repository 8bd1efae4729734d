package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/adventbot/internal/bot"
	"github.com/example/adventbot/internal/content"
	"github.com/example/adventbot/internal/database"
	"github.com/example/adventbot/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Fatal("BOT_TOKEN environment variable is not set")
	}

	cfg := bot.ConfigFromEnv()

	catalogPath := os.Getenv("CONTENT_PATH")
	if catalogPath == "" {
		catalogPath = "content/days.yaml"
	}
	catalog, err := content.Load(catalogPath)
	if err != nil {
		log.Fatalf("Failed to load content catalog: %v", err)
	}
	catalog.ApplyFileIDOverrides(bot.MediaOverridesFromEnv(os.Environ()))
	if err := catalog.Validate(cfg.MediaDir); err != nil {
		log.Fatalf("Content catalog is invalid: %v", err)
	}

	db, err := database.Connect(os.Getenv("DATABASE_DRIVER"), os.Getenv("DATABASE_DSN"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	repo := database.NewUserRepository(db)

	b, err := bot.New(token, cfg, catalog, repo)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	sweep := scheduler.New(repo, b, scheduler.Config{
		TotalDays:     catalog.TotalDays(),
		SweepInterval: scheduler.SweepIntervalFromEnv(),
		Location:      cfg.Location,
		UnlockHour:    cfg.UnlockHour,
		UnlockMinute:  cfg.UnlockMinute,
	})
	sweep.Start()
	defer sweep.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Printf("Bot error: %v", err)
	}
	log.Println("Bot stopped")
}
