package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/adventbot/internal/content"
	"github.com/example/adventbot/internal/database"
	"github.com/example/adventbot/pkg/models"
)

// store is the persistence contract the bot depends on
type store interface {
	GetOrCreate(userID int64, nextUnlockAt string) (*models.UserProgress, error)
	GetByID(userID int64) (*models.UserProgress, error)
	GetAll() ([]models.UserProgress, error)
	SetCursor(userID int64, day, step int) error
	SetMode(userID int64, mode string) error
	AddSparkCode(userID int64, spark, code string) error
}

var _ store = (*database.UserRepository)(nil)

// Bot is the advent bot application
type Bot struct {
	api          *tgbotapi.BotAPI
	gw           gateway
	store        store
	catalog      *content.Catalog
	cfg          *Config
	maintenance  *Maintenance
	adminUserIDs map[int64]bool

	// per-user serialization between reading and writing the cursor
	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex

	// injectable for tests
	sleep func(time.Duration)
	now   func() time.Time
}

// New creates a bot connected to the Telegram API
func New(token string, cfg *Config, catalog *content.Catalog, st store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %v", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	b := newBot(cfg, catalog, st, newTelegramGateway(api))
	b.api = api
	b.maintenance = MaintenanceFromEnv()

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			b.adminUserIDs[id] = true
		}
	}

	return b, nil
}

func newBot(cfg *Config, catalog *content.Catalog, st store, gw gateway) *Bot {
	return &Bot{
		gw:           gw,
		store:        st,
		catalog:      catalog,
		cfg:          cfg,
		adminUserIDs: make(map[int64]bool),
		userLocks:    make(map[int64]*sync.Mutex),
		sleep:        time.Sleep,
		now:          time.Now,
	}
}

// Start runs the update loop until the context is cancelled
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

// NotifyDayUnlocked implements the scheduler.Notifier interface
func (b *Bot) NotifyDayUnlocked(userID int64, day int) error {
	text := fmt.Sprintf(
		"🐶✨ Доступен новый день адвента: <b>День %d</b>!\nЖми «Открыть доступный день» 🙂", day)
	return b.gw.SendText(userID, text, mainMenuKeyboard())
}

// lockUser serializes handlers for one user so two near-simultaneous
// taps can't interleave between reading and writing the cursor.
func (b *Bot) lockUser(userID int64) func() {
	b.mu.Lock()
	l, ok := b.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		b.userLocks[userID] = l
	}
	b.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// handleUpdate routes one incoming update
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		msg := update.Message
		if b.maintenance.Intercept(b.gw, msg.Chat.ID) {
			return
		}
		switch {
		case msg.IsCommand():
			b.handleCommand(msg)
		case len(msg.Photo) > 0:
			b.handlePhotoUpload(msg)
		case msg.Sticker != nil:
			// authoring helper: echo the file_id so it can go into the catalog
			b.gw.SendText(msg.Chat.ID, fmt.Sprintf("file_id:\n<code>%s</code>", msg.Sticker.FileID), nil)
		}
		return
	}

	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		if cb.Message != nil && b.maintenance.Intercept(b.gw, cb.Message.Chat.ID) {
			b.gw.AnswerCallback(cb.ID, "")
			return
		}
		b.handleCallback(cb)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "export":
		if b.isAdmin(msg.From.ID) {
			b.handleExport(msg.Chat.ID)
		}
	case "stats":
		if b.isAdmin(msg.From.ID) {
			b.handleAdminStats(msg.Chat.ID)
		}
	default:
		b.gw.SendText(msg.Chat.ID, "Нажимай кнопки ниже 🙂", mainMenuKeyboard())
	}
}
