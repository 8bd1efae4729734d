package database

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/adventbot/pkg/models"
)

// UserRepository handles database operations for user advent records
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	UserID       int64  `db:"user_id"`
	OpenedDay    int    `db:"opened_day"`
	ActiveDay    int    `db:"active_day"`
	ActiveStep   int    `db:"active_step"`
	Mode         string `db:"mode"`
	Sparks       string `db:"sparks"`
	Codes        string `db:"codes"`
	NextUnlockAt string `db:"next_unlock_at"`
}

func (row *userRow) toModel() (*models.UserProgress, error) {
	user := &models.UserProgress{
		ID:           row.UserID,
		OpenedDay:    row.OpenedDay,
		ActiveDay:    row.ActiveDay,
		ActiveStep:   row.ActiveStep,
		Mode:         row.Mode,
		NextUnlockAt: row.NextUnlockAt,
	}
	if err := json.Unmarshal([]byte(row.Sparks), &user.Sparks); err != nil {
		return nil, fmt.Errorf("failed to parse sparks: %v", err)
	}
	if err := json.Unmarshal([]byte(row.Codes), &user.Codes); err != nil {
		return nil, fmt.Errorf("failed to parse codes: %v", err)
	}
	return user, nil
}

// GetOrCreate returns the record for a user, creating it on first
// contact with the given next unlock instant. Creation is idempotent.
func (r *UserRepository) GetOrCreate(userID int64, nextUnlockAt string) (*models.UserProgress, error) {
	var query string
	if r.db.DriverName() == "postgres" {
		query = `INSERT INTO users (user_id, next_unlock_at) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`
	} else {
		query = `INSERT OR IGNORE INTO users (user_id, next_unlock_at) VALUES (?, ?)`
	}
	if _, err := r.db.Exec(query, userID, nextUnlockAt); err != nil {
		return nil, fmt.Errorf("failed to create user %d: %v", userID, err)
	}
	return r.GetByID(userID)
}

// GetByID returns a user record by Telegram user ID
func (r *UserRepository) GetByID(userID int64) (*models.UserProgress, error) {
	var row userRow
	query := r.db.Rebind(`SELECT user_id, opened_day, active_day, active_step, mode, sparks, codes, next_unlock_at FROM users WHERE user_id = ?`)
	if err := r.db.Get(&row, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user %d: %v", userID, err)
	}
	return row.toModel()
}

// GetAll returns every user record, for the unlock sweep and reports
func (r *UserRepository) GetAll() ([]models.UserProgress, error) {
	var rows []userRow
	if err := r.db.Select(&rows, `SELECT user_id, opened_day, active_day, active_step, mode, sparks, codes, next_unlock_at FROM users ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("failed to get users: %v", err)
	}
	users := make([]models.UserProgress, 0, len(rows))
	for i := range rows {
		user, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

// SetCursor updates the user's (day, step) position
func (r *UserRepository) SetCursor(userID int64, day, step int) error {
	query := r.db.Rebind(`UPDATE users SET active_day = ?, active_step = ? WHERE user_id = ?`)
	if _, err := r.db.Exec(query, day, step, userID); err != nil {
		return fmt.Errorf("failed to set cursor for user %d: %v", userID, err)
	}
	return nil
}

// SetMode stores the narrative branch choice
func (r *UserRepository) SetMode(userID int64, mode string) error {
	query := r.db.Rebind(`UPDATE users SET mode = ? WHERE user_id = ?`)
	if _, err := r.db.Exec(query, mode, userID); err != nil {
		return fmt.Errorf("failed to set mode for user %d: %v", userID, err)
	}
	return nil
}

// AddSparkCode appends a spark and code fragment to the user's
// collected sets. Duplicates are suppressed, so re-claiming a day is a
// no-op on the sets.
func (r *UserRepository) AddSparkCode(userID int64, spark, code string) error {
	user, err := r.GetByID(userID)
	if err != nil {
		return err
	}
	sparks := appendUnique(user.Sparks, spark)
	codes := appendUnique(user.Codes, code)

	sparksJSON, err := json.Marshal(sparks)
	if err != nil {
		return fmt.Errorf("failed to marshal sparks: %v", err)
	}
	codesJSON, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("failed to marshal codes: %v", err)
	}

	query := r.db.Rebind(`UPDATE users SET sparks = ?, codes = ? WHERE user_id = ?`)
	if _, err := r.db.Exec(query, string(sparksJSON), string(codesJSON), userID); err != nil {
		return fmt.Errorf("failed to add spark for user %d: %v", userID, err)
	}
	return nil
}

// UpdateUnlock advances opened_day and next_unlock_at in one statement
func (r *UserRepository) UpdateUnlock(userID int64, openedDay int, nextUnlockAt string) error {
	query := r.db.Rebind(`UPDATE users SET opened_day = ?, next_unlock_at = ? WHERE user_id = ?`)
	if _, err := r.db.Exec(query, openedDay, nextUnlockAt, userID); err != nil {
		return fmt.Errorf("failed to update unlock for user %d: %v", userID, err)
	}
	return nil
}

func appendUnique(items []string, value string) []string {
	for _, item := range items {
		if item == value {
			return items
		}
	}
	return append(items, value)
}
