package prefs

import (
	"context"
	"encoding/json"
	"log"

	"qcm-runner/internal/domain"
)

// KV is the flat key-value store backing user preferences (in-memory, Redis, etc).
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

const (
	settingsKey  = "settings"
	selectionKey = "selection"
)

// Store reads and writes settings and the source selection under a profile namespace.
type Store struct {
	kv       KV
	profile  string
	defaults domain.Settings
}

func NewStore(kv KV, profile string, defaults domain.Settings) *Store {
	if profile == "" {
		profile = "default"
	}
	return &Store{kv: kv, profile: profile, defaults: defaults}
}

func (s *Store) key(name string) string {
	return "qcm:" + s.profile + ":" + name
}

// Settings returns the stored settings merged over the defaults. Missing,
// unreadable or corrupt data yields the defaults.
func (s *Store) Settings(ctx context.Context) domain.Settings {
	raw, ok, err := s.kv.Get(ctx, s.key(settingsKey))
	if err != nil {
		log.Printf("settings read failed, using defaults: %v", err)
		return s.defaults
	}
	if !ok || raw == "" {
		return s.defaults
	}
	settings := s.defaults
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return s.defaults
	}
	return settings
}

// SaveSettings persists settings.
func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(settingsKey), string(data))
}

// Selection returns the stored source selection, or nil when nothing usable is
// stored. Callers resolve nil to every known source.
func (s *Store) Selection(ctx context.Context) []string {
	raw, ok, err := s.kv.Get(ctx, s.key(selectionKey))
	if err != nil {
		log.Printf("selection read failed, using all sources: %v", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil || len(ids) == 0 {
		return nil
	}
	return ids
}

// SaveSelection persists the source selection.
func (s *Store) SaveSelection(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(selectionKey), string(data))
}
