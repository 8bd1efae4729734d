package models

// UserProgress is the per-user advent record. ID is the Telegram user ID.
type UserProgress struct {
	ID           int64    `json:"user_id" db:"user_id"`
	OpenedDay    int      `json:"opened_day" db:"opened_day"`         // highest day the user may enter, 1..N
	ActiveDay    int      `json:"active_day" db:"active_day"`         // cursor: day part
	ActiveStep   int      `json:"active_step" db:"active_step"`       // cursor: step index within the day
	Mode         string   `json:"mode" db:"mode"`                     // narrative branch chosen on day 1
	Sparks       []string `json:"sparks" db:"sparks"`                 // collected reward names, first-claim order
	Codes        []string `json:"codes" db:"codes"`                   // collected code letters, first-claim order
	NextUnlockAt string   `json:"next_unlock_at" db:"next_unlock_at"` // RFC3339; inert once OpenedDay == N
}
