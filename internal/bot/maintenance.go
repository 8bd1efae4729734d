package bot

import (
	"os"
)

// DefaultMaintenanceText is shown while the gate is enabled.
const DefaultMaintenanceText = "Извини, к сожалению, не могу сейчас ответить."

// Maintenance is a pass-through gate in front of all inbound handling.
// When enabled it answers every interaction with a static notice and
// nothing else runs: no engine dispatch, no persistence writes.
type Maintenance struct {
	Enabled bool
	Text    string
	PhotoID string
}

// MaintenanceFromEnv reads the gate settings from the environment.
func MaintenanceFromEnv() *Maintenance {
	m := &Maintenance{
		Enabled: os.Getenv("MAINTENANCE_MODE") == "1",
		Text:    os.Getenv("MAINTENANCE_TEXT"),
		PhotoID: os.Getenv("MAINTENANCE_PHOTO_ID"),
	}
	if m.Text == "" {
		m.Text = DefaultMaintenanceText
	}
	return m
}

// Intercept sends the notice and reports whether the update was
// consumed by the gate.
func (m *Maintenance) Intercept(gw gateway, chatID int64) bool {
	if m == nil || !m.Enabled {
		return false
	}
	if m.PhotoID != "" {
		if err := gw.SendPhoto(chatID, mediaSource{FileID: m.PhotoID}, m.Text, nil); err == nil {
			return true
		}
		// fall back to plain text if the cached photo is gone
	}
	gw.SendText(chatID, m.Text, nil)
	return true
}
