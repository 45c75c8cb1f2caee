// Package channelstatus keeps channel names in sync with guild counters rendered from
// per-channel templates.
package channelstatus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Entry is one stored status template.
type Entry struct {
	GuildID   string
	ChannelID string
	Template  string
	UpdatedAt time.Time
}

// Store persists status templates in sqlite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// NewStore wraps a migrated sqlite handle.
func NewStore(sqlDB *sql.DB) *Store {
	return &Store{sqlDB: sqlDB, now: time.Now}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Set inserts or replaces the template of a channel.
func (s *Store) Set(ctx context.Context, guildID, channelID, template string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	guildID = strings.TrimSpace(guildID)
	channelID = strings.TrimSpace(channelID)
	template = strings.TrimSpace(template)
	if guildID == "" || channelID == "" {
		return fmt.Errorf("guild id and channel id are required")
	}
	if template == "" {
		return fmt.Errorf("template is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO channel_status (guild_id, channel_id, template, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (guild_id, channel_id) DO UPDATE SET
		   template = excluded.template,
		   updated_at = excluded.updated_at`,
		guildID, channelID, template, toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save channel status: %w", err)
	}
	return nil
}

// Delete removes the template of a channel and reports whether one existed.
func (s *Store) Delete(ctx context.Context, guildID, channelID string) (bool, error) {
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM channel_status WHERE guild_id = ? AND channel_id = ?`,
		strings.TrimSpace(guildID), strings.TrimSpace(channelID),
	)
	if err != nil {
		return false, fmt.Errorf("delete channel status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the template of one channel.
func (s *Store) Get(ctx context.Context, guildID, channelID string) (Entry, bool, error) {
	if s == nil || s.sqlDB == nil {
		return Entry{}, false, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT guild_id, channel_id, template, updated_at
		 FROM channel_status WHERE guild_id = ? AND channel_id = ?`,
		strings.TrimSpace(guildID), strings.TrimSpace(channelID),
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get channel status: %w", err)
	}
	return entry, true, nil
}

// List returns every template, or only those of guildID when it is not empty.
func (s *Store) List(ctx context.Context, guildID string) ([]Entry, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	query := `SELECT guild_id, channel_id, template, updated_at FROM channel_status`
	var args []any
	if guildID = strings.TrimSpace(guildID); guildID != "" {
		query += ` WHERE guild_id = ?`
		args = append(args, guildID)
	}
	query += ` ORDER BY guild_id, channel_id`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list channel status: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel status: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry   Entry
		updated int64
	)
	if err := row.Scan(&entry.GuildID, &entry.ChannelID, &entry.Template, &updated); err != nil {
		return Entry{}, err
	}
	entry.UpdatedAt = fromMillis(updated)
	return entry, nil
}
