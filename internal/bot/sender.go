package bot

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/adventbot/internal/content"
)

// Fallback texts for recoverable delivery errors
const (
	textNoSuchDay   = "Такого дня нет 😅"
	textDayFinished = "Этот день уже закончился 🙂"
	textMediaFailed = "⚠️ Не вышло отправить медиа, попробуй ещё раз через «Открыть доступный день»"
)

// mainMenuKeyboard is the default navigation affordance
func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Открыть доступный день", "open_day"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✨ Прогресс", "progress"),
		),
	)
	return &kb
}

// buildStepKeyboard derives the navigation affordance for one step:
// declared buttons win, then a single auto-advance control if the step
// permits it and is not the last, then the menu control unless the
// step suppresses it.
func buildStepKeyboard(day, stepIdx int, step *content.Step, totalSteps int) *tgbotapi.InlineKeyboardMarkup {
	if len(step.Buttons) > 0 {
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, b := range step.Buttons {
			var btn tgbotapi.InlineKeyboardButton
			switch b.Action {
			case content.ActionURL:
				btn = tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL)
			case content.ActionSetMode:
				btn = tgbotapi.NewInlineKeyboardButtonData(b.Text, fmt.Sprintf("mode:%d:%d:%s", day, stepIdx, b.Value))
			case content.ActionChoice:
				btn = tgbotapi.NewInlineKeyboardButtonData(b.Text, fmt.Sprintf("choice:%d:%d:%s", day, stepIdx, b.Value))
			case content.ActionGetSpark:
				btn = tgbotapi.NewInlineKeyboardButtonData(b.Text, fmt.Sprintf("spark:%d", day))
			case content.ActionMenu:
				btn = tgbotapi.NewInlineKeyboardButtonData(b.Text, "menu")
			case content.ActionNext:
				btn = tgbotapi.NewInlineKeyboardButtonData(b.Text, fmt.Sprintf("next:%d:%d", day, stepIdx))
			default:
				btn = tgbotapi.NewInlineKeyboardButtonData(b.Text, "noop")
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
		return &kb
	}

	if step.Next && stepIdx < totalSteps-1 {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("➡️ Дальше", fmt.Sprintf("next:%d:%d", day, stepIdx)),
			),
		)
		return &kb
	}

	if step.NoMenu {
		return nil
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "menu"),
		),
	)
	return &kb
}

// sendStep resolves and delivers one step of a day. Errors are
// recovered locally with a fallback message to the user; persisted
// state is never touched here.
func (b *Bot) sendStep(chatID int64, day, stepIdx int) {
	dayData, ok := b.catalog.Day(day)
	if !ok {
		b.gw.SendText(chatID, textNoSuchDay, mainMenuKeyboard())
		return
	}
	if stepIdx < 0 || stepIdx >= len(dayData.Steps) {
		b.gw.SendText(chatID, textDayFinished, mainMenuKeyboard())
		return
	}

	step := &dayData.Steps[stepIdx]
	keyboard := buildStepKeyboard(day, stepIdx, step, len(dayData.Steps))

	if err := b.deliverPayload(chatID, step, keyboard); err != nil {
		log.Printf("Error delivering day %d step %d to %d: %v", day, stepIdx, chatID, err)
		b.gw.SendText(chatID, textMediaFailed, mainMenuKeyboard())
		return
	}

	// follow-up payloads go out unconditionally, without a keyboard
	for i := range step.After {
		if err := b.deliverPayload(chatID, &step.After[i], nil); err != nil {
			log.Printf("Error delivering day %d step %d follow-up %d to %d: %v", day, stepIdx, i, chatID, err)
			b.gw.SendText(chatID, textMediaFailed, mainMenuKeyboard())
			return
		}
	}
}

// deliverPayload sends a single payload through the gateway
func (b *Bot) deliverPayload(chatID int64, step *content.Step, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if step.Type == content.StepText {
		return b.gw.SendText(chatID, step.Text, keyboard)
	}

	src, err := resolveMedia(step, b.cfg.MediaDir)
	if err != nil {
		return err
	}
	switch step.Type {
	case content.StepPhoto:
		return b.gw.SendPhoto(chatID, src, step.Caption, keyboard)
	case content.StepVoice:
		return b.gw.SendVoice(chatID, src, keyboard)
	case content.StepVideo:
		return b.gw.SendVideo(chatID, src, step.Caption, keyboard)
	case content.StepVideoNote:
		return b.gw.SendVideoNote(chatID, src, keyboard)
	case content.StepSticker:
		return b.gw.SendSticker(chatID, src, keyboard)
	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}
}
