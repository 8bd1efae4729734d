package content

import (
	"fmt"
	"os"
	"path/filepath"
)

// Step types supported by the step engine
const (
	StepText      = "text"
	StepPhoto     = "photo"
	StepVoice     = "voice"
	StepVideo     = "video"
	StepVideoNote = "video_note"
	StepSticker   = "sticker"
)

// Button actions understood by the interaction router
const (
	ActionNext     = "next"
	ActionMenu     = "menu"
	ActionURL      = "url"
	ActionSetMode  = "set_mode"
	ActionChoice   = "choice"
	ActionGetSpark = "get_spark"
)

// Button is one choice affordance attached to a step
type Button struct {
	Text   string `yaml:"text"`
	Action string `yaml:"action"`
	Value  string `yaml:"value,omitempty"`
	URL    string `yaml:"url,omitempty"`
}

// Step is one ordered unit of content within a day
type Step struct {
	Type    string `yaml:"type"`
	Text    string `yaml:"text,omitempty"`
	Caption string `yaml:"caption,omitempty"`
	FileID  string `yaml:"file_id,omitempty"` // pre-uploaded Telegram media
	File    string `yaml:"file,omitempty"`    // local path, relative to the media dir

	Buttons []Button `yaml:"buttons,omitempty"`

	// Next allows the auto-generated "Дальше" control when the step
	// has no explicit buttons and is not the last step of the day.
	Next bool `yaml:"next,omitempty"`
	// NoMenu suppresses the default back-to-menu control.
	NoMenu bool `yaml:"no_menu,omitempty"`
	// Advance is how many steps a choice on this step auto-delivers.
	// Zero means the default of 2 (acknowledgment + payload).
	Advance int `yaml:"advance,omitempty"`
	// Pause is the delay in seconds before the last auto-delivered step.
	Pause float64 `yaml:"pause,omitempty"`
	// AwaitsUpload marks a step completed by a user-submitted photo.
	AwaitsUpload bool `yaml:"awaits_upload,omitempty"`

	// After are follow-up payloads sent unconditionally after the
	// primary one, with no keyboard attached.
	After []Step `yaml:"after,omitempty"`
}

// HasMedia reports whether the step type carries a media payload.
func (s *Step) HasMedia() bool {
	switch s.Type {
	case StepPhoto, StepVoice, StepVideo, StepVideoNote, StepSticker:
		return true
	}
	return false
}

// AdvanceCount returns the declared auto-deliver chain length for a
// choice on this step.
func (s *Step) AdvanceCount() int {
	if s.Advance > 0 {
		return s.Advance
	}
	return 2
}

// Day is one gated unit of content
type Day struct {
	Title string `yaml:"title"`
	Spark string `yaml:"spark"` // reward identifier granted on claim
	Code  string `yaml:"code"`  // code fragment granted alongside the spark
	Steps []Step `yaml:"steps"`
}

// Catalog is the full ordered set of days, keyed 1..N
type Catalog struct {
	Days map[int]Day `yaml:"days"`
}

// TotalDays returns N, the highest day number.
func (c *Catalog) TotalDays() int {
	max := 0
	for n := range c.Days {
		if n > max {
			max = n
		}
	}
	return max
}

// Day returns the content for one day, if present.
func (c *Catalog) Day(n int) (Day, bool) {
	d, ok := c.Days[n]
	return d, ok
}

// Validate checks the catalog so malformed content fails at startup
// instead of mid-conversation. mediaDir is prepended to local file
// references when checking that they exist.
func (c *Catalog) Validate(mediaDir string) error {
	if len(c.Days) == 0 {
		return fmt.Errorf("catalog has no days")
	}
	total := c.TotalDays()
	for n := 1; n <= total; n++ {
		day, ok := c.Days[n]
		if !ok {
			return fmt.Errorf("day numbers are not contiguous: day %d is missing", n)
		}
		if len(day.Steps) == 0 {
			return fmt.Errorf("day %d: empty step sequence", n)
		}
		if day.Spark == "" || day.Code == "" {
			return fmt.Errorf("day %d: spark and code are required", n)
		}
		for i := range day.Steps {
			step := &day.Steps[i]
			if err := validateStep(step, mediaDir); err != nil {
				return fmt.Errorf("day %d step %d: %v", n, i, err)
			}
			if (hasChoice(step) || step.AwaitsUpload) && i+step.AdvanceCount() >= len(day.Steps) {
				return fmt.Errorf("day %d step %d: advance %d runs past the end of the day", n, i, step.AdvanceCount())
			}
			for j := range step.After {
				if err := validateStep(&step.After[j], mediaDir); err != nil {
					return fmt.Errorf("day %d step %d after %d: %v", n, i, j, err)
				}
			}
		}
	}
	return nil
}

func validateStep(step *Step, mediaDir string) error {
	switch step.Type {
	case StepText:
		if step.Text == "" {
			return fmt.Errorf("text step with no text")
		}
	case StepPhoto, StepVoice, StepVideo, StepVideoNote, StepSticker:
		if step.FileID == "" && step.File == "" {
			return fmt.Errorf("media step with neither file_id nor file")
		}
		if step.FileID == "" {
			path := filepath.Join(mediaDir, step.File)
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("media file %s: %v", path, err)
			}
		}
	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}
	for _, b := range step.Buttons {
		switch b.Action {
		case ActionNext, ActionMenu, ActionGetSpark:
		case ActionURL:
			if b.URL == "" {
				return fmt.Errorf("url button %q has no url", b.Text)
			}
		case ActionSetMode, ActionChoice:
			if b.Value == "" {
				return fmt.Errorf("%s button %q has no value", b.Action, b.Text)
			}
		default:
			return fmt.Errorf("unknown button action %q", b.Action)
		}
	}
	return nil
}

// hasChoice reports whether a step carries advancing choice buttons.
func hasChoice(step *Step) bool {
	for _, b := range step.Buttons {
		if b.Action == ActionSetMode || b.Action == ActionChoice {
			return true
		}
	}
	return false
}
