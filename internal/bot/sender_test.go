package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/adventbot/internal/content"
)

func TestBuildStepKeyboardDeclaredButtons(t *testing.T) {
	step := &content.Step{Type: content.StepText, Text: "x", Buttons: []content.Button{
		{Text: "Нежно", Action: content.ActionSetMode, Value: "soft"},
		{Text: "Забрать", Action: content.ActionGetSpark},
		{Text: "В меню", Action: content.ActionMenu},
	}}
	kb := buildStepKeyboard(3, 2, step, 5)
	if kb == nil || len(kb.InlineKeyboard) != 3 {
		t.Fatalf("expected 3 button rows: %+v", kb)
	}
	if got := *kb.InlineKeyboard[0][0].CallbackData; got != "mode:3:2:soft" {
		t.Fatalf("mode button encodes wrong cursor: %s", got)
	}
	if got := *kb.InlineKeyboard[1][0].CallbackData; got != "spark:3" {
		t.Fatalf("spark button encodes wrong day: %s", got)
	}
	if got := *kb.InlineKeyboard[2][0].CallbackData; got != "menu" {
		t.Fatalf("menu button wrong: %s", got)
	}
}

func TestBuildStepKeyboardAutoAdvance(t *testing.T) {
	step := &content.Step{Type: content.StepText, Text: "x", Next: true}
	kb := buildStepKeyboard(1, 2, step, 5)
	if kb == nil || len(kb.InlineKeyboard) != 1 {
		t.Fatalf("expected single auto-advance row: %+v", kb)
	}
	if got := *kb.InlineKeyboard[0][0].CallbackData; got != "next:1:2" {
		t.Fatalf("auto-advance encodes wrong cursor: %s", got)
	}
}

func TestBuildStepKeyboardNoAutoAdvanceOnLastStep(t *testing.T) {
	step := &content.Step{Type: content.StepText, Text: "x", Next: true}
	kb := buildStepKeyboard(1, 4, step, 5)
	if kb == nil {
		t.Fatalf("last step should fall back to the menu control")
	}
	if got := *kb.InlineKeyboard[0][0].CallbackData; got != "menu" {
		t.Fatalf("expected menu fallback, got %s", got)
	}
}

func TestBuildStepKeyboardSuppressedMenu(t *testing.T) {
	step := &content.Step{Type: content.StepText, Text: "x", NoMenu: true}
	if kb := buildStepKeyboard(1, 2, step, 5); kb != nil {
		t.Fatalf("no_menu step should have no keyboard: %+v", kb)
	}
}

func TestSendStepUnknownDayFallback(t *testing.T) {
	st := newFakeStore()
	b, gw := newTestBot(st)

	b.sendStep(10, 99, 0)

	if len(gw.sent) != 1 || gw.sent[0].text != textNoSuchDay || !gw.sent[0].hasKeyboard {
		t.Fatalf("expected no-such-day fallback with menu: %+v", gw.sent)
	}
}

func TestSendStepIndexAtSequenceLengthIsDayFinished(t *testing.T) {
	st := newFakeStore()
	b, gw := newTestBot(st)

	// index == len(steps) is the day-complete boundary, not a crash
	b.sendStep(10, 2, 3)

	if len(gw.sent) != 1 || gw.sent[0].text != textDayFinished {
		t.Fatalf("expected day-finished fallback: %+v", gw.sent)
	}
}

func TestSendStepMediaFailureFallback(t *testing.T) {
	st := newFakeStore()
	b, gw := newTestBot(st)
	gw.failMedia = true
	b.catalog.Days[3] = content.Day{Title: "День 3", Spark: "s", Code: "c", Steps: []content.Step{
		{Type: content.StepPhoto, FileID: "id", Caption: "c"},
	}}

	b.sendStep(10, 3, 0)

	if len(gw.sent) != 1 || gw.sent[0].kind != "text" || !strings.Contains(gw.sent[0].text, "медиа") {
		t.Fatalf("expected media failure fallback: %+v", gw.sent)
	}
}

func TestSendStepDeliversFollowUpsWithoutKeyboard(t *testing.T) {
	st := newFakeStore()
	b, gw := newTestBot(st)
	b.catalog.Days[3] = content.Day{Title: "День 3", Spark: "s", Code: "c", Steps: []content.Step{
		{Type: content.StepPhoto, FileID: "id", Caption: "открытка", Buttons: []content.Button{
			{Text: "Забрать", Action: content.ActionGetSpark},
		}, After: []content.Step{
			{Type: content.StepVoice, FileID: "voice-id"},
			{Type: content.StepText, Text: "ps"},
		}},
	}}

	b.sendStep(10, 3, 0)

	if len(gw.sent) != 3 {
		t.Fatalf("expected primary + 2 follow-ups: %+v", gw.sent)
	}
	if !gw.sent[0].hasKeyboard {
		t.Fatalf("primary payload lost its keyboard: %+v", gw.sent[0])
	}
	if gw.sent[1].hasKeyboard || gw.sent[2].hasKeyboard {
		t.Fatalf("follow-ups must carry no keyboard: %+v", gw.sent)
	}
	if gw.sent[1].kind != "voice" || gw.sent[2].text != "ps" {
		t.Fatalf("follow-ups out of order: %+v", gw.sent)
	}
}

func TestResolveMediaPrefersFileID(t *testing.T) {
	src, err := resolveMedia(&content.Step{Type: content.StepPhoto, FileID: "id", File: "x.png"}, "nowhere")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.FileID != "id" {
		t.Fatalf("file_id should win: %+v", src)
	}
}

func TestResolveMediaMissingFile(t *testing.T) {
	_, err := resolveMedia(&content.Step{Type: content.StepPhoto, File: "missing.png"}, t.TempDir())
	if !errors.Is(err, ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
}
