// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records which documents have been fully processed so that
// later runs can skip them.
package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// Ledger file names under the output path, per backend.
const (
	FileName   = "processed_files.txt"
	SQLiteName = "processed_files.db"
)

// Store persists ledger entries.
type Store interface {
	// Load returns every persisted document ID.
	Load(ctx context.Context) ([]string, error)

	// Append persists one document ID.
	Append(ctx context.Context, id string) error

	Close() error
}

// OpenStore opens the store for backend under outputPath. An unusable
// SQLite database is moved aside with a warning and replaced by an empty one.
func OpenStore(backend types.LedgerBackend, outputPath string, log zerolog.Logger) (Store, error) {
	switch backend {
	case types.LedgerFile, "":
		return NewFileStore(filepath.Join(outputPath, FileName)), nil
	case types.LedgerSQLite:
		return openSQLiteStore(filepath.Join(outputPath, SQLiteName), log)
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q: use file or sqlite", backend)
	}
}

// Ledger is the in-memory view of processed documents, backed by a Store.
// MarkDone is safe for concurrent use; appends are serialized.
type Ledger struct {
	mu    sync.Mutex
	done  map[string]struct{}
	store Store
	force bool
}

// Open loads the ledger from store. A store that cannot be read is treated
// as empty and a warning is logged. When force is set, Contains always
// reports false, but MarkDone still persists entries.
func Open(ctx context.Context, store Store, force bool, log zerolog.Logger) *Ledger {
	l := &Ledger{
		done:  make(map[string]struct{}),
		store: store,
		force: force,
	}

	ids, err := store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("ledger unreadable, starting fresh")
		return l
	}
	for _, id := range ids {
		l.done[id] = struct{}{}
	}
	log.Debug().Int("entries", len(l.done)).Bool("force", force).Msg("ledger loaded")
	return l
}

// Contains reports whether id has already been processed.
func (l *Ledger) Contains(id string) bool {
	if l.force {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.done[id]
	return ok
}

// MarkDone records id as processed. An id already present is not persisted
// a second time.
func (l *Ledger) MarkDone(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.done[id]; ok {
		return nil
	}
	if err := l.store.Append(ctx, id); err != nil {
		return fmt.Errorf("recording %s in ledger: %w", id, err)
	}
	l.done[id] = struct{}{}
	return nil
}

// Entries returns the processed document IDs in sorted order.
func (l *Ledger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.done))
	for id := range l.done {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
