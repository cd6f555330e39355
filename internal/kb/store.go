// ABOUTME: Knowledge-base store holding known-vulnerable contract examples with embeddings.
// ABOUTME: Loads entries from a JSON file and serves read-only snapshots to the retriever.

package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vulnhunt/vulnhunt/internal/types"
)

// Store holds the in-memory knowledge base. Entries are replaced wholesale
// on reload; readers always see a consistent snapshot.
type Store struct {
	path   string
	logger *logrus.Logger

	mutex   sync.RWMutex
	entries []types.KBEntry
}

// NewStore creates a store bound to the given knowledge-base file and
// performs the initial load.
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the knowledge-base file and swaps in the new entries.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read knowledge base: %w", err)
	}

	var entries []types.KBEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse knowledge base: %w", err)
	}

	s.mutex.Lock()
	s.entries = entries
	s.mutex.Unlock()

	s.logger.WithFields(logrus.Fields{
		"path":    s.path,
		"entries": len(entries),
	}).Info("Knowledge base loaded")

	return nil
}

// Entries returns a snapshot of the current knowledge base.
func (s *Store) Entries() []types.KBEntry {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snapshot := make([]types.KBEntry, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}

// Len returns the number of loaded entries.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

// Path returns the knowledge-base file path backing this store.
func (s *Store) Path() string {
	return s.path
}
