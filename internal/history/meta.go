package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

const (
	metaFileName = "meta.json"
	metaVersion  = 1
)

// HistoryMeta stores per-conversation flags that live outside the
// conversation files
type HistoryMeta struct {
	Version   int             `json:"version"`
	Favorites map[string]bool `json:"favorites"`
}

func newHistoryMeta() *HistoryMeta {
	return &HistoryMeta{
		Version:   metaVersion,
		Favorites: make(map[string]bool),
	}
}

func (s *Store) metaPath() string {
	return filepath.Join(s.baseDir, metaFileName)
}

// loadMeta returns an empty HistoryMeta when meta.json does not exist yet
func (s *Store) loadMeta() (*HistoryMeta, error) {
	data, err := os.ReadFile(s.metaPath())
	if err != nil {
		if os.IsNotExist(err) {
			return newHistoryMeta(), nil
		}
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}

	var meta HistoryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta file: %w", err)
	}
	if meta.Favorites == nil {
		meta.Favorites = make(map[string]bool)
	}

	return &meta, nil
}

func (s *Store) saveMeta(meta *HistoryMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	if err := os.WriteFile(s.metaPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write meta file: %w", err)
	}

	return nil
}

func (s *Store) removeFromMeta(id string) error {
	meta, err := s.loadMeta()
	if err != nil {
		return err
	}
	if !meta.Favorites[id] {
		return nil
	}

	delete(meta.Favorites, id)
	return s.saveMeta(meta)
}

// IsFavorite returns whether a conversation is marked as favorite
func (s *Store) IsFavorite(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta()
	if err != nil {
		return false, err
	}

	return meta.Favorites[id], nil
}

// ToggleFavorite toggles the favorite status of a conversation and
// returns the new status
func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadConversation(id); err != nil {
		return false, err
	}

	meta, err := s.loadMeta()
	if err != nil {
		return false, err
	}

	status := !meta.Favorites[id]
	if status {
		meta.Favorites[id] = true
	} else {
		delete(meta.Favorites, id)
	}

	if err := s.saveMeta(meta); err != nil {
		return false, err
	}

	return status, nil
}

// Favorites returns the IDs of favorite conversations that still exist
func (s *Store) Favorites() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta()
	if err != nil {
		return nil, err
	}

	ids := lo.Filter(lo.Keys(meta.Favorites), func(id string, _ int) bool {
		_, err := os.Stat(s.conversationPath(id))
		return err == nil
	})
	sort.Strings(ids)
	return ids, nil
}
