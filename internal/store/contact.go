package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertUser inserts or updates a user.
func (db *DB) UpsertUser(u *User) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO users (id, name, handle, picture, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			handle = excluded.handle,
			picture = excluded.picture,
			role = excluded.role`,
		u.ID, u.Name, u.Handle, u.Picture, u.Role, now)
	if err != nil {
		return fmt.Errorf("upsert user %q: %w", u.ID, err)
	}
	return nil
}

// GetUser returns a user by ID, or nil when it does not exist.
func (db *DB) GetUser(id string) (*User, error) {
	var u User
	err := db.QueryRow(`SELECT id, name, handle, picture, role, last_seen_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Handle, &u.Picture, &u.Role, &u.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetHire records the status of the hire between a client and a lawyer.
func (db *DB) SetHire(h *Hire) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO hires (client_id, lawyer_id, status, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(client_id, lawyer_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		h.ClientID, h.LawyerID, h.Status, now)
	if err != nil {
		return fmt.Errorf("set hire %s/%s: %w", h.ClientID, h.LawyerID, err)
	}
	return nil
}

// ListContacts returns the counterparts of userID's accepted hires ordered by
// name: lawyers for a client, clients for a lawyer.
func (db *DB) ListContacts(userID string) ([]User, error) {
	rows, err := db.Query(`
		SELECT u.id, u.name, u.handle, u.picture, u.role, u.last_seen_at
		FROM hires h
		JOIN users u ON u.id = CASE WHEN h.client_id = ? THEN h.lawyer_id ELSE h.client_id END
		WHERE h.status = ? AND (h.client_id = ? OR h.lawyer_id = ?)
		ORDER BY u.name COLLATE NOCASE, u.id`,
		userID, HireAccepted, userID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Handle, &u.Picture, &u.Role, &u.LastSeenAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// IsContact reports whether a and b share an accepted hire.
func (db *DB) IsContact(a, b string) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM hires
		WHERE status = ? AND ((client_id = ? AND lawyer_id = ?) OR (client_id = ? AND lawyer_id = ?))`,
		HireAccepted, a, b, b, a).Scan(&n)
	return n > 0, err
}

// Touch records activity of userID at ts (Unix milliseconds).
func (db *DB) Touch(userID string, ts int64) error {
	_, err := db.Exec(`UPDATE users SET last_seen_at = MAX(last_seen_at, ?) WHERE id = ?`, ts, userID)
	return err
}

// OnlineContacts returns the contacts of userID seen at or after since.
func (db *DB) OnlineContacts(userID string, since int64) ([]string, error) {
	contacts, err := db.ListContacts(userID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, c := range contacts {
		if c.LastSeenAt >= since {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

// UserCount returns the total number of users.
func (db *DB) UserCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
