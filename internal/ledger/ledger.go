// Package ledger implements the optional theorem cache SPEC_FULL.md's
// Configuration/Ledger component describes: a sqlite-backed record of
// which (name, conclusion) pairs have already been checked successfully,
// keyed by sha256(name + canonical conclusion text), so a driver can skip
// re-verifying a theorem unchanged since a prior run. The teacher's go.mod
// carries modernc.org/sqlite as a direct dependency without exercising it
// anywhere in source (see DESIGN.md); this package is that dependency's
// first real caller, used the idiomatic database/sql way: a blank driver
// import registering the "sqlite" driver name, then ordinary sql.DB calls.
package ledger

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS theorems (
	key         TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	conclusion  TEXT NOT NULL,
	verified_at INTEGER NOT NULL
);
`

// Ledger wraps a sqlite database recording verified theorems.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and ensures
// its schema exists.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// Key computes the cache key for a theorem name and its canonical
// conclusion text (term.Term.String()).
func Key(name, conclusion string) string {
	sum := sha256.Sum256([]byte(name + "\x00" + conclusion))
	return hex.EncodeToString(sum[:])
}

// Has reports whether name/conclusion was already recorded as verified.
func (l *Ledger) Has(name, conclusion string) (bool, error) {
	row := l.db.QueryRow(`SELECT 1 FROM theorems WHERE key = ?`, Key(name, conclusion))
	var one int
	switch err := row.Scan(&one); {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// Record marks name/conclusion as verified at unixSeconds, replacing any
// prior entry for the same key.
func (l *Ledger) Record(name, conclusion string, unixSeconds int64) error {
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO theorems(key, name, conclusion, verified_at) VALUES (?, ?, ?, ?)`,
		Key(name, conclusion), name, conclusion, unixSeconds,
	)
	return err
}
