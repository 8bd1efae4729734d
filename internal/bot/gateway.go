package bot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/adventbot/internal/content"
)

// ErrMediaNotFound marks a media reference whose source could not be
// resolved, as opposed to a transport failure.
var ErrMediaNotFound = errors.New("media source not found")

// mediaSource is a resolved media reference: either a pre-uploaded
// Telegram file ID or a local file path.
type mediaSource struct {
	FileID string
	Path   string
}

func (m mediaSource) data() tgbotapi.RequestFileData {
	if m.FileID != "" {
		return tgbotapi.FileID(m.FileID)
	}
	return tgbotapi.FilePath(m.Path)
}

// resolveMedia picks the source for a media step: a file_id wins over
// a local path, a local path must exist.
func resolveMedia(step *content.Step, mediaDir string) (mediaSource, error) {
	if step.FileID != "" {
		return mediaSource{FileID: step.FileID}, nil
	}
	if step.File == "" {
		return mediaSource{}, fmt.Errorf("%w: neither file_id nor file set", ErrMediaNotFound)
	}
	path := filepath.Join(mediaDir, step.File)
	if _, err := os.Stat(path); err != nil {
		return mediaSource{}, fmt.Errorf("%w: %s", ErrMediaNotFound, path)
	}
	return mediaSource{Path: path}, nil
}

// gateway is the outbound delivery contract. The bot and its tests
// depend on this instead of the Telegram client directly.
type gateway interface {
	SendText(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	SendPhoto(chatID int64, src mediaSource, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	SendVoice(chatID int64, src mediaSource, keyboard *tgbotapi.InlineKeyboardMarkup) error
	SendVideo(chatID int64, src mediaSource, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	SendVideoNote(chatID int64, src mediaSource, keyboard *tgbotapi.InlineKeyboardMarkup) error
	SendSticker(chatID int64, src mediaSource, keyboard *tgbotapi.InlineKeyboardMarkup) error
	SendDocument(chatID int64, path string) error
	RemoveKeyboard(chatID int64, messageID int)
	AnswerCallback(callbackID, text string)
}

// telegramGateway sends through the Bot API with HTML parse mode, the
// default the whole narrative is written against.
type telegramGateway struct {
	api *tgbotapi.BotAPI
}

func newTelegramGateway(api *tgbotapi.BotAPI) *telegramGateway {
	return &telegramGateway{api: api}
}

func (g *telegramGateway) SendText(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := g.api.Send(msg)
	return err
}

func (g *telegramGateway) SendPhoto(chatID int64, src mediaSource, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewPhoto(chatID, src.data())
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := g.api.Send(msg)
	return err
}

func (g *telegramGateway) SendVoice(chatID int64, src mediaSource, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewVoice(chatID, src.data())
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := g.api.Send(msg)
	return err
}

func (g *telegramGateway) SendVideo(chatID int64, src mediaSource, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewVideo(chatID, src.data())
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := g.api.Send(msg)
	return err
}

func (g *telegramGateway) SendVideoNote(chatID int64, src mediaSource, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewVideoNote(chatID, 0, src.data())
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := g.api.Send(msg)
	return err
}

func (g *telegramGateway) SendSticker(chatID int64, src mediaSource, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewSticker(chatID, src.data())
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := g.api.Send(msg)
	return err
}

func (g *telegramGateway) SendDocument(chatID int64, path string) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	_, err := g.api.Send(msg)
	return err
}

// RemoveKeyboard strips the inline keyboard from an already-sent
// message so a used control can't be tapped again. Best-effort.
func (g *telegramGateway) RemoveKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	g.api.Send(edit)
}

func (g *telegramGateway) AnswerCallback(callbackID, text string) {
	g.api.Request(tgbotapi.NewCallback(callbackID, text))
}
