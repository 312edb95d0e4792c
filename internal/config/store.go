package config

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Setting keys held by the Store.
const (
	KeyMapboxToken     = "mapbox_token"
	KeyWeatherAPIKey   = "weather_api_key"
	KeyFuelPriceAPIKey = "fuel_price_api_key"
)

// MapboxTokenPrefix is required on public mapping tokens; secret tokens are
// rejected.
const MapboxTokenPrefix = "pk."

var (
	ErrInvalidMapToken = errors.New("map token must be a public token starting with " + MapboxTokenPrefix)
	ErrUnknownSetting  = errors.New("unknown setting")
)

// Persister stores settings durably.
type Persister interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
	SaveSetting(ctx context.Context, key, value string) error
}

// Store holds runtime-editable settings and notifies subscribers on change.
type Store struct {
	mu        sync.RWMutex
	values    map[string]string
	subs      map[int]func(key, value string)
	nextSubID int
	persister Persister
}

// NewStore creates a store seeded from cfg. Invalid seed values are dropped
// and reported in the returned error; the store is usable either way.
func NewStore(cfg Config, persister Persister) (*Store, error) {
	s := &Store{
		values:    make(map[string]string),
		subs:      make(map[int]func(key, value string)),
		persister: persister,
	}
	var errs []error
	seed := map[string]string{
		KeyMapboxToken:     cfg.MapboxToken,
		KeyWeatherAPIKey:   cfg.WeatherAPIKey,
		KeyFuelPriceAPIKey: cfg.FuelPriceAPIKey,
	}
	for k, v := range seed {
		if v == "" {
			continue
		}
		if err := validate(k, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		s.values[k] = v
	}
	return s, errors.Join(errs...)
}

// Restore overlays persisted values on top of the environment seed.
// Subscribers are told about every key whose value changed; a persisted
// empty value clears the key.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	stored, err := s.persister.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	keys := make([]string, 0, len(stored))
	for k := range stored {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changed []string
	s.mu.Lock()
	for _, k := range keys {
		v := strings.TrimSpace(stored[k])
		if validate(k, v) != nil {
			continue
		}
		if s.apply(k, v) {
			changed = append(changed, k)
		}
	}
	subs := s.subscribers()
	values := make([]string, len(changed))
	for i, k := range changed {
		values[i] = s.values[k]
	}
	s.mu.Unlock()

	for i, k := range changed {
		for _, fn := range subs {
			fn(k, values[i])
		}
	}
	return nil
}

// apply stores value under key, or removes key when value is empty, and
// reports whether anything changed. Callers hold s.mu.
func (s *Store) apply(key, value string) bool {
	old, ok := s.values[key]
	if value == "" {
		delete(s.values, key)
		return ok
	}
	s.values[key] = value
	return !ok || old != value
}

func (s *Store) subscribers() []func(string, string) {
	subs := make([]func(string, string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// Get returns the value of key and whether it is set.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Snapshot returns a copy of every setting.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Set validates, persists and publishes a setting. An empty value clears it.
func (s *Store) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	if err := validate(key, value); err != nil {
		return err
	}
	if s.persister != nil {
		if err := s.persister.SaveSetting(ctx, key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}

	s.mu.Lock()
	s.apply(key, value)
	subs := s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(key, value)
	}
	return nil
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(key, value string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func validate(key, value string) error {
	switch key {
	case KeyMapboxToken:
		if value != "" && !strings.HasPrefix(value, MapboxTokenPrefix) {
			return ErrInvalidMapToken
		}
	case KeyWeatherAPIKey, KeyFuelPriceAPIKey:
	default:
		return ErrUnknownSetting
	}
	return nil
}
