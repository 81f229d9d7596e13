// Package decisions persists per-cycle decision events in a write-ahead log.
package decisions

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"bandrev/internal/domain"
)

const (
	// DefaultDir is the default WAL location.
	DefaultDir = "./wal/decisions"

	segmentThreshold  = 1000
	maxSegments       = 100
	walDirPermissions = 0o755

	decisionKeyPrefix = "decision_"
)

// WALStore is a WAL-backed journal of decision events. The core pipeline
// never persists anything; this store belongs to the bot layer, which owns
// decision history.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewWALStore opens (or creates) the decision WAL.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, walDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure WAL directory %s", dir)
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "log_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init decision WAL")
	}
	return &WALStore{wal: wal}, nil
}

// Save appends one decision event.
func (s *WALStore) Save(event domain.DecisionEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}
	if event.Instrument == "" {
		return errors.New("decision event instrument is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal decision event")
	}

	key := fmt.Sprintf("%s%s", decisionKeyPrefix, event.Instrument)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// Events returns all recorded decision events for an instrument, oldest
// first. An empty instrument returns everything.
func (s *WALStore) Events(instrument string) ([]domain.DecisionEvent, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("decision store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var events []domain.DecisionEvent
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, decisionKeyPrefix) {
			continue
		}
		if instrument != "" && msg.Key != decisionKeyPrefix+instrument {
			continue
		}
		var event domain.DecisionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal decision event at key %s", msg.Key)
		}
		events = append(events, event)
	}
	return events, nil
}

// Close releases the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}
	return s.wal.Close()
}
