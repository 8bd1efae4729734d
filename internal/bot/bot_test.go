package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/adventbot/internal/content"
	"github.com/example/adventbot/pkg/models"
)

// fakeStore is an in-memory store for router tests
type fakeStore struct {
	users    map[int64]*models.UserProgress
	failGet  bool
	failSet  bool
	unlockAt string
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*models.UserProgress)}
}

func (s *fakeStore) GetOrCreate(userID int64, nextUnlockAt string) (*models.UserProgress, error) {
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	u := &models.UserProgress{ID: userID, OpenedDay: 1, NextUnlockAt: nextUnlockAt}
	s.users[userID] = u
	s.unlockAt = nextUnlockAt
	return u, nil
}

func (s *fakeStore) GetByID(userID int64) (*models.UserProgress, error) {
	if s.failGet {
		return nil, fmt.Errorf("store down")
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("no such user %d", userID)
	}
	return u, nil
}

func (s *fakeStore) GetAll() ([]models.UserProgress, error) {
	var all []models.UserProgress
	for _, u := range s.users {
		all = append(all, *u)
	}
	return all, nil
}

func (s *fakeStore) SetCursor(userID int64, day, step int) error {
	if s.failSet {
		return fmt.Errorf("store down")
	}
	s.users[userID].ActiveDay = day
	s.users[userID].ActiveStep = step
	return nil
}

func (s *fakeStore) SetMode(userID int64, mode string) error {
	s.users[userID].Mode = mode
	return nil
}

func (s *fakeStore) AddSparkCode(userID int64, spark, code string) error {
	u := s.users[userID]
	u.Sparks = addUnique(u.Sparks, spark)
	u.Codes = addUnique(u.Codes, code)
	return nil
}

func addUnique(items []string, value string) []string {
	for _, item := range items {
		if item == value {
			return items
		}
	}
	return append(items, value)
}

// sentMessage records one outbound delivery
type sentMessage struct {
	kind        string
	chatID      int64
	text        string // text or caption
	hasKeyboard bool
}

// fakeGateway records deliveries instead of talking to Telegram
type fakeGateway struct {
	sent      []sentMessage
	removed   int
	answers   []string
	failMedia bool
}

func (g *fakeGateway) record(kind string, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	g.sent = append(g.sent, sentMessage{kind: kind, chatID: chatID, text: text, hasKeyboard: kb != nil})
}

func (g *fakeGateway) SendText(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	g.record("text", chatID, text, kb)
	return nil
}

func (g *fakeGateway) SendPhoto(chatID int64, src mediaSource, caption string, kb *tgbotapi.InlineKeyboardMarkup) error {
	if g.failMedia {
		return fmt.Errorf("send failed")
	}
	g.record("photo", chatID, caption, kb)
	return nil
}

func (g *fakeGateway) SendVoice(chatID int64, src mediaSource, kb *tgbotapi.InlineKeyboardMarkup) error {
	if g.failMedia {
		return fmt.Errorf("send failed")
	}
	g.record("voice", chatID, "", kb)
	return nil
}

func (g *fakeGateway) SendVideo(chatID int64, src mediaSource, caption string, kb *tgbotapi.InlineKeyboardMarkup) error {
	g.record("video", chatID, caption, kb)
	return nil
}

func (g *fakeGateway) SendVideoNote(chatID int64, src mediaSource, kb *tgbotapi.InlineKeyboardMarkup) error {
	g.record("video_note", chatID, "", kb)
	return nil
}

func (g *fakeGateway) SendSticker(chatID int64, src mediaSource, kb *tgbotapi.InlineKeyboardMarkup) error {
	g.record("sticker", chatID, "", kb)
	return nil
}

func (g *fakeGateway) SendDocument(chatID int64, path string) error {
	g.record("document", chatID, path, nil)
	return nil
}

func (g *fakeGateway) RemoveKeyboard(chatID int64, messageID int) {
	g.removed++
}

func (g *fakeGateway) AnswerCallback(callbackID, text string) {
	g.answers = append(g.answers, text)
}

// testCatalog: day 1 mirrors the day-1 shape of the narrative (intro
// steps, a mode choice with a two-step chain, a claim step); day 2 has
// an upload-gated step.
func testCatalog() *content.Catalog {
	return &content.Catalog{Days: map[int]content.Day{
		1: {Title: "День 1", Spark: "Искра №1", Code: "В", Steps: []content.Step{
			{Type: content.StepText, Text: "s0", Next: true},
			{Type: content.StepText, Text: "s1", Next: true},
			{Type: content.StepText, Text: "s2", Next: true},
			{Type: content.StepText, Text: "выбор режима", Advance: 2, Buttons: []content.Button{
				{Text: "Нежно", Action: content.ActionSetMode, Value: "soft"},
				{Text: "Микс", Action: content.ActionSetMode, Value: "mix"},
			}},
			{Type: content.StepText, Text: "принято"},
			{Type: content.StepText, Text: "финал", Buttons: []content.Button{
				{Text: "Забрать Искру", Action: content.ActionGetSpark},
			}},
		}},
		2: {Title: "День 2", Spark: "Искра №2", Code: "А", Steps: []content.Step{
			{Type: content.StepText, Text: "пришли фото", NoMenu: true, AwaitsUpload: true, Advance: 2},
			{Type: content.StepText, Text: "одобрено", NoMenu: true},
			{Type: content.StepText, Text: "подарок", Buttons: []content.Button{
				{Text: "Забрать Искру", Action: content.ActionGetSpark},
			}},
		}},
	}}
}

func newTestBot(st store) (*Bot, *fakeGateway) {
	gw := &fakeGateway{}
	b := newBot(DefaultConfig(), testCatalog(), st, gw)
	b.sleep = func(time.Duration) {}
	b.now = func() time.Time { return time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC) }
	return b, gw
}

func callback(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: userID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 100,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
	}
}
