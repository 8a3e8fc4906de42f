package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrPackageNotFound is returned when no buffer is stored under a name.
var ErrPackageNotFound = errors.New("store: package not found")

// PackageInfo describes a stored package without its data.
type PackageInfo struct {
	Name      string
	Size      int
	UpdatedAt time.Time
}

// PutPackage stores data under name, replacing any previous buffer.
func (s *Store) PutPackage(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return errors.New("put package: empty name")
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO packages (name, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, name, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put package %q: %w", name, err)
	}
	return nil
}

// Package returns the buffer stored under name.
// Returns ErrPackageNotFound if there is none.
func (s *Store) Package(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM packages WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("package %q: %w", name, ErrPackageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("package %q: %w", name, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// DeletePackage removes a stored package. Deleting a missing package is not
// an error.
func (s *Store) DeletePackage(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete package %q: %w", name, err)
	}
	return nil
}

// ListPackages returns every stored package ordered by name.
// Returns an empty slice (not nil) if none are stored.
func (s *Store) ListPackages(ctx context.Context) ([]PackageInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, length(data), updated_at
		FROM packages
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	infos := []PackageInfo{}
	for rows.Next() {
		var (
			info    PackageInfo
			updated int64
		)
		if err := rows.Scan(&info.Name, &info.Size, &updated); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		info.UpdatedAt = time.UnixMilli(updated).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return infos, nil
}
