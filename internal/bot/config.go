package bot

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime settings for the advent bot
type Config struct {
	// Timezone the unlock schedule is anchored to
	Location *time.Location
	// Time of day new days unlock at
	UnlockHour   int
	UnlockMinute int
	// Pause between the day title and its first step
	StepDelay time.Duration
	// Pause before the gift step after an upload-gated step
	UploadDelay time.Duration
	// Directory local media references are resolved against
	MediaDir string
	// Intro/progress card photo
	IntroPhotoID   string
	IntroPhotoFile string
	// Photo on the spark claim confirmation
	SparkPhotoID string
	// Chat user-submitted photos are forwarded to (0 disables)
	ForwardChatID int64
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *Config {
	return &Config{
		Location:       time.UTC,
		UnlockHour:     10,
		UnlockMinute:   0,
		StepDelay:      1500 * time.Millisecond,
		UploadDelay:    8 * time.Second,
		MediaDir:       "media",
		IntroPhotoFile: "img1.png",
	}
}

// ConfigFromEnv builds the configuration from environment variables,
// falling back to defaults for anything unset.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if tz := os.Getenv("TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Printf("Warning: invalid TZ %q, using UTC: %v", tz, err)
		} else {
			cfg.Location = loc
		}
	}
	if v := envInt("UNLOCK_HOUR", -1); v >= 0 && v <= 23 {
		cfg.UnlockHour = v
	}
	if v := envInt("UNLOCK_MINUTE", -1); v >= 0 && v <= 59 {
		cfg.UnlockMinute = v
	}
	if v := envFloat("STEP_DELAY", -1); v >= 0 {
		cfg.StepDelay = time.Duration(v * float64(time.Second))
	}
	if v := envFloat("UPLOAD_STEP_DELAY", -1); v >= 0 {
		cfg.UploadDelay = time.Duration(v * float64(time.Second))
	}
	if v := os.Getenv("MEDIA_DIR"); v != "" {
		cfg.MediaDir = v
	}
	if v := os.Getenv("PROGRESS_PHOTO_ID"); v != "" {
		cfg.IntroPhotoID = v
	}
	if v := os.Getenv("SPARK_PHOTO_ID"); v != "" {
		cfg.SparkPhotoID = v
	}
	if v := envInt("FORWARD_CHAT_ID", 0); v != 0 {
		cfg.ForwardChatID = int64(v)
	}
	return cfg
}

// NextUnlockTime returns the next scheduled unlock instant after now:
// tomorrow at UnlockHour:UnlockMinute in the configured timezone.
func (c *Config) NextUnlockTime(now time.Time) time.Time {
	tomorrow := now.In(c.Location).AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(),
		c.UnlockHour, c.UnlockMinute, 0, 0, c.Location)
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q: %v", key, v, err)
		return fallback
	}
	return f
}

// MediaOverridesFromEnv collects DAY<n>_STEP<m>_PHOTO_ID style
// overrides for the catalog.
func MediaOverridesFromEnv(environ []string) map[string]string {
	overrides := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		if strings.HasPrefix(key, "DAY") && strings.HasSuffix(key, "_PHOTO_ID") {
			overrides[strings.TrimSuffix(key, "_PHOTO_ID")] = value
		}
	}
	return overrides
}
