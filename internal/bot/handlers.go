package bot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/adventbot/internal/excel"
)

const (
	textStale      = "Эта кнопка уже неактуальна 🙂"
	textPressStart = "Нажми /start 🙂"
)

// handleStart registers the user (idempotently) and sends the intro
func (b *Bot) handleStart(msg *tgbotapi.Message) {
	unlock := b.lockUser(msg.From.ID)
	defer unlock()

	if _, err := b.store.GetOrCreate(msg.From.ID, b.cfg.NextUnlockTime(b.now()).Format(time.RFC3339)); err != nil {
		log.Printf("Error creating user %d: %v", msg.From.ID, err)
		return
	}

	caption := fmt.Sprintf(
		"Привет! Я Вайбик 🐶✨\nЗдесь будет новогодняя история на <b>%d дней</b>.\n\nНажимай ниже:",
		b.catalog.TotalDays())
	b.sendIntroCard(msg.Chat.ID, caption)
}

// sendIntroCard sends the intro/progress photo with a caption, falling
// back to plain text if the photo source is unavailable.
func (b *Bot) sendIntroCard(chatID int64, caption string) {
	src := mediaSource{FileID: b.cfg.IntroPhotoID}
	if src.FileID == "" {
		src.Path = filepath.Join(b.cfg.MediaDir, b.cfg.IntroPhotoFile)
		if _, err := os.Stat(src.Path); err != nil {
			b.gw.SendText(chatID, caption, mainMenuKeyboard())
			return
		}
	}
	if err := b.gw.SendPhoto(chatID, src, caption, mainMenuKeyboard()); err != nil {
		log.Printf("Error sending intro card to %d: %v", chatID, err)
		b.gw.SendText(chatID, caption, mainMenuKeyboard())
	}
}

// handleCallback routes a choice-affordance activation
func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		b.gw.AnswerCallback(cb.ID, "")
		return
	}
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case data == "menu":
		b.gw.SendText(chatID, "Меню:", mainMenuKeyboard())
		b.gw.AnswerCallback(cb.ID, "")

	case data == "progress":
		b.handleProgress(userID, chatID)
		b.gw.AnswerCallback(cb.ID, "")

	case data == "open_day":
		b.handleOpenDay(userID, chatID)
		b.gw.AnswerCallback(cb.ID, "")

	case strings.HasPrefix(data, "next:"):
		b.handleNext(cb)

	case strings.HasPrefix(data, "mode:"):
		b.handleChoice(cb, true)

	case strings.HasPrefix(data, "choice:"):
		b.handleChoice(cb, false)

	case strings.HasPrefix(data, "spark:"):
		b.handleSpark(cb)

	default:
		b.gw.AnswerCallback(cb.ID, "")
	}
}

// handleProgress sends the collection card
func (b *Bot) handleProgress(userID, chatID int64) {
	unlock := b.lockUser(userID)
	defer unlock()

	user, err := b.store.GetOrCreate(userID, b.cfg.NextUnlockTime(b.now()).Format(time.RFC3339))
	if err != nil {
		log.Printf("Error getting user %d: %v", userID, err)
		return
	}

	total := b.catalog.TotalDays()
	letters := "пока нет"
	if len(user.Codes) > 0 {
		letters = strings.Join(user.Codes, ", ")
	}
	caption := fmt.Sprintf(
		"✨ <b>Твой прогресс</b>\n\nОткрыто дней: <b>%d/%d</b>\nИскры: <b>%d/%d</b>\nБуквы: <b>%d/%d</b>\n\nБуквы: %s",
		user.OpenedDay, total, len(user.Sparks), total, len(user.Codes), total, letters)
	b.sendIntroCard(chatID, caption)
}

// handleOpenDay enters the highest opened day from its first step
func (b *Bot) handleOpenDay(userID, chatID int64) {
	unlock := b.lockUser(userID)
	defer unlock()

	user, err := b.store.GetOrCreate(userID, b.cfg.NextUnlockTime(b.now()).Format(time.RFC3339))
	if err != nil {
		log.Printf("Error getting user %d: %v", userID, err)
		return
	}

	day := user.OpenedDay
	if err := b.store.SetCursor(userID, day, 0); err != nil {
		log.Printf("Error setting cursor for user %d: %v", userID, err)
		return
	}

	title := fmt.Sprintf("День %d", day)
	if dayData, ok := b.catalog.Day(day); ok {
		title = dayData.Title
	}
	b.gw.SendText(chatID, fmt.Sprintf("📅 <b>%s</b>\n(пойдём по сообщениям шаг за шагом)", title), nil)
	b.sleep(b.cfg.StepDelay)
	b.sendStep(chatID, day, 0)
}

// parseCursorData splits "action:day:step[:value]" callback data
func parseCursorData(data string) (day, step int, value string, err error) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return 0, 0, "", fmt.Errorf("malformed callback data %q", data)
	}
	day, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, "", fmt.Errorf("malformed day in %q", data)
	}
	step, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, "", fmt.Errorf("malformed step in %q", data)
	}
	if len(parts) > 3 {
		value = parts[3]
	}
	return day, step, value, nil
}

// checkCursor loads the user and rejects the activation when its
// encoded (day, step) no longer matches the persisted cursor. This is
// the anti-replay guarantee: old buttons, double taps and taps across
// a restart all land here and mutate nothing.
func (b *Bot) checkCursor(cb *tgbotapi.CallbackQuery, day, step int) bool {
	user, err := b.store.GetByID(cb.From.ID)
	if err != nil {
		b.gw.AnswerCallback(cb.ID, textPressStart)
		return false
	}
	if user.ActiveDay != day || user.ActiveStep != step {
		b.gw.AnswerCallback(cb.ID, textStale)
		return false
	}
	return true
}

// handleNext advances the cursor by one step
func (b *Bot) handleNext(cb *tgbotapi.CallbackQuery) {
	day, step, _, err := parseCursorData(cb.Data)
	if err != nil {
		log.Printf("Error parsing callback %q: %v", cb.Data, err)
		b.gw.AnswerCallback(cb.ID, "")
		return
	}

	unlock := b.lockUser(cb.From.ID)
	defer unlock()

	if !b.checkCursor(cb, day, step) {
		return
	}

	b.gw.RemoveKeyboard(cb.Message.Chat.ID, cb.Message.MessageID)
	b.advanceChain(cb.From.ID, cb.Message.Chat.ID, day, step, 1, 0)
	b.gw.AnswerCallback(cb.ID, "")
}

// handleChoice handles a choice-button activation: optionally persists
// the mode, then auto-delivers the step's declared chain.
func (b *Bot) handleChoice(cb *tgbotapi.CallbackQuery, setMode bool) {
	day, step, value, err := parseCursorData(cb.Data)
	if err != nil {
		log.Printf("Error parsing callback %q: %v", cb.Data, err)
		b.gw.AnswerCallback(cb.ID, "")
		return
	}

	unlock := b.lockUser(cb.From.ID)
	defer unlock()

	if !b.checkCursor(cb, day, step) {
		return
	}

	if setMode {
		if err := b.store.SetMode(cb.From.ID, value); err != nil {
			log.Printf("Error setting mode for user %d: %v", cb.From.ID, err)
			b.gw.AnswerCallback(cb.ID, "")
			return
		}
	}

	b.gw.RemoveKeyboard(cb.Message.Chat.ID, cb.Message.MessageID)

	count, pause := 2, time.Duration(0)
	if dayData, ok := b.catalog.Day(day); ok && step < len(dayData.Steps) {
		s := &dayData.Steps[step]
		count = s.AdvanceCount()
		pause = time.Duration(s.Pause * float64(time.Second))
	}
	b.advanceChain(cb.From.ID, cb.Message.Chat.ID, day, step, count, pause)
	b.gw.AnswerCallback(cb.ID, "Принято ✅")
}

// advanceChain persists and delivers count steps after fromStep, with
// an optional pause before the last one.
func (b *Bot) advanceChain(userID, chatID int64, day, fromStep, count int, pause time.Duration) {
	for k := 1; k <= count; k++ {
		if pause > 0 && k == count {
			b.sleep(pause)
		}
		if err := b.store.SetCursor(userID, day, fromStep+k); err != nil {
			log.Printf("Error setting cursor for user %d: %v", userID, err)
			return
		}
		b.sendStep(chatID, day, fromStep+k)
	}
}

// handleSpark performs the idempotent reward claim. The cursor is not
// touched; re-claiming re-renders the confirmation but the sets stay
// as they were.
func (b *Bot) handleSpark(cb *tgbotapi.CallbackQuery) {
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 2 {
		b.gw.AnswerCallback(cb.ID, "")
		return
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		b.gw.AnswerCallback(cb.ID, "")
		return
	}

	unlock := b.lockUser(cb.From.ID)
	defer unlock()

	if _, err := b.store.GetByID(cb.From.ID); err != nil {
		b.gw.AnswerCallback(cb.ID, textPressStart)
		return
	}
	dayData, ok := b.catalog.Day(day)
	if !ok {
		b.gw.AnswerCallback(cb.ID, textNoSuchDay)
		return
	}

	if err := b.store.AddSparkCode(cb.From.ID, dayData.Spark, dayData.Code); err != nil {
		log.Printf("Error adding spark for user %d: %v", cb.From.ID, err)
		b.gw.AnswerCallback(cb.ID, "")
		return
	}

	b.gw.RemoveKeyboard(cb.Message.Chat.ID, cb.Message.MessageID)

	caption := fmt.Sprintf(
		"✨ Ты получила: <b>%s</b>\n🔑 Одна буква секретного слова: <code>%s</code>\n\nУвидимся завтра 🤍",
		dayData.Spark, dayData.Code)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "menu"),
		),
	)
	if b.cfg.SparkPhotoID != "" {
		if err := b.gw.SendPhoto(cb.Message.Chat.ID, mediaSource{FileID: b.cfg.SparkPhotoID}, caption, &kb); err == nil {
			b.gw.AnswerCallback(cb.ID, "Искра добавлена ✅")
			return
		}
	}
	b.gw.SendText(cb.Message.Chat.ID, caption, &kb)
	b.gw.AnswerCallback(cb.ID, "Искра добавлена ✅")
}

// handlePhotoUpload completes an upload-gated step, or echoes the
// file_id as an authoring helper when no such step is active.
func (b *Bot) handlePhotoUpload(msg *tgbotapi.Message) {
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	unlock := b.lockUser(msg.From.ID)
	defer unlock()

	user, err := b.store.GetByID(msg.From.ID)
	if err == nil {
		if dayData, ok := b.catalog.Day(user.ActiveDay); ok && user.ActiveStep < len(dayData.Steps) {
			step := &dayData.Steps[user.ActiveStep]
			if step.AwaitsUpload {
				// show the submission to the author; failure must not block the advance
				if b.cfg.ForwardChatID != 0 {
					_ = b.gw.SendPhoto(b.cfg.ForwardChatID, mediaSource{FileID: fileID}, "", nil)
				}
				pause := b.cfg.UploadDelay
				if step.Pause > 0 {
					pause = time.Duration(step.Pause * float64(time.Second))
				}
				b.advanceChain(msg.From.ID, msg.Chat.ID, user.ActiveDay, user.ActiveStep, step.AdvanceCount(), pause)
				return
			}
		}
	}

	b.gw.SendText(msg.Chat.ID, fmt.Sprintf("file_id:\n<code>%s</code>", fileID), nil)
}

// handleExport sends the admin an xlsx of all user records
func (b *Bot) handleExport(chatID int64) {
	users, err := b.store.GetAll()
	if err != nil {
		log.Printf("Error getting users for export: %v", err)
		b.gw.SendText(chatID, "❌ Не получилось собрать отчёт", nil)
		return
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("advent-progress-%d.xlsx", b.now().Unix()))
	if err := excel.ExportUsers(users, path); err != nil {
		log.Printf("Error exporting users: %v", err)
		b.gw.SendText(chatID, "❌ Не получилось собрать отчёт", nil)
		return
	}
	defer os.Remove(path)

	if err := b.gw.SendDocument(chatID, path); err != nil {
		log.Printf("Error sending export to %d: %v", chatID, err)
	}
}

// handleAdminStats sends a short system summary
func (b *Bot) handleAdminStats(chatID int64) {
	users, err := b.store.GetAll()
	if err != nil {
		log.Printf("Error getting users for stats: %v", err)
		return
	}
	finished := 0
	for _, u := range users {
		if u.OpenedDay >= b.catalog.TotalDays() {
			finished++
		}
	}
	text := fmt.Sprintf(
		"Статистика\n\nПользователей: %d\nДошли до финала: %d\nВремя сервера: %s",
		len(users), finished, b.now().Format("2006-01-02 15:04:05"))
	b.gw.SendText(chatID, text, nil)
}
