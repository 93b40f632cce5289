package selection

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/teamstore/internal/errors"
	"github.com/vango-dev/teamstore/pkg/storage"
)

// SelectedTeamKey is the storage key of the selected team.
const SelectedTeamKey = "selectedTeam"

var (
	// ErrRead is matched (errors.Is) by construction failures caused by
	// the store's Get.
	ErrRead = errors.New("E201")

	// ErrMalformed is matched by construction failures caused by stored
	// text that does not decode, in Strict mode.
	ErrMalformed = errors.New("E202")

	// ErrPersist is matched by failed storage writes.
	ErrPersist = errors.New("E203")

	// ErrEncode is matched by values that cannot be serialized.
	ErrEncode = errors.New("E204")
)

// Selection is an observable value cell mirrored into a storage.Store.
// It is safe for concurrent use.
type Selection[T any] struct {
	key   string
	store storage.Store // nil when storage was unavailable at construction

	defaultValue T
	equal        func(a, b T) bool
	alwaysNotify bool
	logger       *slog.Logger
	onPersist    func(key string, err error)

	// writeMu serializes mutations so notify and persist run in mutation order.
	writeMu sync.Mutex

	// mu protects value.
	mu    sync.RWMutex
	value T

	subs subscriberList[T]
}

// NewSelectedTeam creates the selected-team cell, keyed "selectedTeam".
// The value is opaque JSON: strings, numbers, objects and null all
// round-trip.
func NewSelectedTeam(ctx context.Context, store storage.Store, opts ...Option) (*Selection[any], error) {
	return New[any](ctx, store, SelectedTeamKey, opts...)
}

// New creates a Selection for key.
//
// If store is available, the stored text is read and decoded into the
// initial value; a missing key yields the default (JSON null unless
// WithDefault is given). The initial value is then written back, so storage
// always holds the current value once New returns. If store is unavailable,
// nothing is read or ever written.
func New[T any](ctx context.Context, store storage.Store, key string, opts ...Option) (*Selection[T], error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Selection[T]{
		key:          key,
		alwaysNotify: cfg.alwaysNotify,
		logger:       cfg.logger,
		onPersist:    cfg.onPersist,
		equal:        defaultEquals[T],
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if cfg.hasDefault {
		v, ok := cfg.defaultValue.(T)
		if !ok && cfg.defaultValue != nil {
			return nil, fmt.Errorf("selection %q: default value has type %T, want %T", key, cfg.defaultValue, s.defaultValue)
		}
		s.defaultValue = v
	}
	if cfg.equal != nil {
		fn, ok := cfg.equal.(func(a, b T) bool)
		if !ok {
			return nil, fmt.Errorf("selection %q: equality function has type %T", key, cfg.equal)
		}
		s.equal = fn
	}
	s.value = s.defaultValue

	if !storage.IsAvailable(store) {
		s.logger.Debug("selection storage unavailable; keeping value in memory", "key", key)
		return s, nil
	}
	s.store = store

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, errors.New("E201").Wrap(err)
	}

	initial := s.defaultValue
	if ok {
		initial, err = decode[T](raw)
		if err != nil {
			if cfg.strict {
				return nil, errors.New("E202").
					Wrap(err).
					WithSuggestion(fmt.Sprintf("Delete or overwrite the %q key in storage", key))
			}
			s.logger.Warn("stored selection is malformed; using default",
				"key", key,
				"error", err,
			)
			if cfg.onDecodeError != nil {
				cfg.onDecodeError(key, raw, err)
			}
			initial = s.defaultValue
		}
	}
	s.value = initial

	if err := s.persist(ctx, initial); err != nil {
		return nil, err
	}
	return s, nil
}

// decode parses stored JSON text into a fresh value, so a stored null
// yields the zero value. Numbers landing in interface values stay
// json.Number, so writing the value back reproduces the stored digits.
func decode[T any](raw string) (T, error) {
	var v, zero T

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return zero, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return zero, stderrors.New("unexpected data after JSON value")
	}
	return v, nil
}

// Key returns the storage key.
func (s *Selection[T]) Key() string {
	return s.key
}

// Persistent reports whether changes are written to storage.
func (s *Selection[T]) Persistent() bool {
	return s.store != nil
}

// Get returns the current value.
func (s *Selection[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Subscribe calls fn with the current value, then again after every
// change, until the returned function is called. Subscribers are called in
// subscription order. The returned function is idempotent; fn is not called
// for changes made after it returns.
func (s *Selection[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.RLock()
	sub := s.subs.add(fn)
	// Hold the subscription's delivery lock before releasing mu so the
	// first change after this point is delivered after the current value.
	sub.mu.Lock()
	current := s.value
	s.mu.RUnlock()

	func() {
		defer sub.mu.Unlock()
		fn(current)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subs.remove(sub)
		})
	}
}

// SubscriberCount returns the number of active subscribers.
func (s *Selection[T]) SubscriberCount() int {
	return s.subs.len()
}

// Set replaces the value, notifies subscribers, then persists it.
// A persistence failure is returned but not rolled back: the new value
// stays visible and subscribers have already seen it.
func (s *Selection[T]) Set(v T) error {
	return s.SetContext(context.Background(), v)
}

// SetContext is Set with a context for the storage write.
func (s *Selection[T]) SetContext(ctx context.Context, v T) error {
	return s.UpdateContext(ctx, func(T) T { return v })
}

// Update replaces the value with fn(current), notifies subscribers, then
// persists it.
func (s *Selection[T]) Update(fn func(T) T) error {
	return s.UpdateContext(context.Background(), fn)
}

// UpdateContext is Update with a context for the storage write.
func (s *Selection[T]) UpdateContext(ctx context.Context, fn func(T) T) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Only mutations change value and they hold writeMu, so fn can run
	// without mu (and may call Get).
	old := s.Get()
	next := fn(old)
	if !s.alwaysNotify && s.equal(old, next) {
		return nil
	}

	s.mu.Lock()
	s.value = next
	subs := s.subs.snapshot()
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(next)
	}

	return s.persist(ctx, next)
}

// Reset sets the value back to the default.
func (s *Selection[T]) Reset() error {
	return s.Set(s.defaultValue)
}

// persist writes v under the key. It is a no-op without storage.
func (s *Selection[T]) persist(ctx context.Context, v T) error {
	if s.store == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		err = errors.New("E204").Wrap(err)
		s.reportPersist(err)
		return err
	}

	if err := s.store.Set(ctx, s.key, string(data)); err != nil {
		werr := errors.New("E203").Wrap(err)
		s.logger.Error("failed to persist selection", "key", s.key, "error", err)
		s.reportPersist(werr)
		return werr
	}

	s.logger.Debug("selection persisted", "key", s.key, "bytes", len(data))
	s.reportPersist(nil)
	return nil
}

func (s *Selection[T]) reportPersist(err error) {
	if s.onPersist != nil {
		s.onPersist(s.key, err)
	}
}
