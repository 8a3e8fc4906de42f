package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/scenesync/internal/wire"
)

// Journal directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// JournalEntry is one journaled message.
type JournalEntry struct {
	Seq        int64
	Session    string
	Direction  string
	ClientID   uint8
	Time       uint8
	Kind       wire.MessageKind
	Message    []byte // full message, header included
	RecordedAt time.Time
}

// SessionInfo summarizes one journaled session.
type SessionInfo struct {
	ID       string
	Messages int
	First    time.Time
	Last     time.Time
}

// StartSession begins a new journal session and returns its id. Messages
// recorded afterwards belong to it.
func (s *Store) StartSession() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	s.mu.Lock()
	s.session = id.String()
	s.mu.Unlock()
	return id.String(), nil
}

// Session returns the current session id, or "" before StartSession.
func (s *Store) Session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Record appends msg to the journal of the current session, starting one if
// needed. The header fields are stored in their own columns for listing.
func (s *Store) Record(ctx context.Context, direction string, msg []byte) error {
	if direction != DirectionIn && direction != DirectionOut {
		return fmt.Errorf("record: invalid direction %q", direction)
	}
	var h wire.Header
	if err := h.UnmarshalBinary(msg); err != nil {
		return fmt.Errorf("record: %w", err)
	}

	session := s.Session()
	if session == "" {
		var err error
		if session, err = s.StartSession(); err != nil {
			return err
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (session, direction, client_id, time, kind, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session, direction, h.ClientID, h.Time, uint8(h.Kind), msg, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return nil
}

// ReadJournal returns every message of a session.
// Results are ordered by seq, the order they were recorded in.
//
// Returns an empty slice (not nil) if the session has no messages.
func (s *Store) ReadJournal(ctx context.Context, session string) ([]JournalEntry, error) {
	if session == "" {
		return nil, errors.New("read journal: empty session")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, session, direction, client_id, time, kind, payload, recorded_at
		FROM journal
		WHERE session = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		var (
			e                JournalEntry
			client, tm, kind int
			recorded         int64
		)
		if err := rows.Scan(&e.Seq, &e.Session, &e.Direction, &client, &tm, &kind, &e.Message, &recorded); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.ClientID = uint8(client)
		e.Time = uint8(tm)
		e.Kind = wire.MessageKind(kind)
		e.RecordedAt = time.UnixMilli(recorded).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// Sessions lists journaled sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, COUNT(*), MIN(recorded_at), MAX(recorded_at)
		FROM journal
		GROUP BY session
		ORDER BY session COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	infos := []SessionInfo{}
	for rows.Next() {
		var (
			info        SessionInfo
			first, last int64
		)
		if err := rows.Scan(&info.ID, &info.Messages, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.First = time.UnixMilli(first).UTC()
		info.Last = time.UnixMilli(last).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return infos, nil
}
