package selection

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/teamstore/pkg/storage"
)

var ctx = context.Background()

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingStore wraps a MemoryStore and records writes, optionally failing
// them.
type recordingStore struct {
	*storage.MemoryStore

	mu       sync.Mutex
	writes   []string
	setErr   error
	getErr   error
	onSet    func(key, value string)
	disabled bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: storage.NewMemoryStore()}
}

func (r *recordingStore) Available() bool { return !r.disabled }

func (r *recordingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if r.getErr != nil {
		return "", false, r.getErr
	}
	return r.MemoryStore.Get(ctx, key)
}

func (r *recordingStore) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.writes = append(r.writes, value)
	hook, err := r.onSet, r.setErr
	r.mu.Unlock()

	if hook != nil {
		hook(key, value)
	}
	if err != nil {
		return err
	}
	return r.MemoryStore.Set(ctx, key, value)
}

func (r *recordingStore) Writes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

func stored(t *testing.T, store storage.Store) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(ctx, SelectedTeamKey)
	require.NoError(t, err)
	return v, ok
}

func TestInitFromEmptyStorage(t *testing.T) {
	store := storage.NewMemoryStore()

	team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Nil(t, team.Get())
	assert.True(t, team.Persistent())
	assert.Equal(t, SelectedTeamKey, team.Key())

	// The initial value is mirrored on construction.
	v, ok := stored(t, store)
	assert.True(t, ok)
	assert.Equal(t, "null", v)
}

func TestInitFromExistingStorage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{name: "string", raw: `"teamA"`, want: "teamA"},
		{name: "number", raw: `42`, want: json.Number("42")},
		{name: "object", raw: `{"id":7,"name":"Blue"}`, want: map[string]any{"id": json.Number("7"), "name": "Blue"}},
		{name: "null", raw: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Set(ctx, SelectedTeamKey, tt.raw))

			team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, team.Get())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	type Team struct {
		ID      int      `json:"id"`
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}

	values := []Team{
		{},
		{ID: 1, Name: "Red"},
		{ID: 2, Name: "Blue", Members: []string{"ana", "bo"}},
	}

	for _, v := range values {
		store := storage.NewMemoryStore()

		first, err := New[Team](ctx, store, SelectedTeamKey, WithLogger(quietLogger()))
		require.NoError(t, err)
		require.NoError(t, first.Set(v))

		second, err := New[Team](ctx, store, SelectedTeamKey, WithLogger(quietLogger()))
		require.NoError(t, err)
		assert.Equal(t, v, second.Get())
	}
}

func TestWriteOnChange(t *testing.T) {
	store := storage.NewMemoryStore()
	team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)

	var seen []any
	unsubscribe := team.Subscribe(func(v any) { seen = append(seen, v) })
	defer unsubscribe()

	require.NoError(t, team.Set("teamA"))
	v, _ := stored(t, store)
	assert.Equal(t, `"teamA"`, v)

	require.NoError(t, team.Set("teamB"))
	v, _ = stored(t, store)
	assert.Equal(t, `"teamB"`, v)

	assert.Equal(t, []any{nil, "teamA", "teamB"}, seen)
}

func TestNoPersistenceWithoutAvailability(t *testing.T) {
	store := newRecordingStore()
	store.disabled = true

	team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.False(t, team.Persistent())

	var seen []any
	team.Subscribe(func(v any) { seen = append(seen, v) })

	// Storage becoming reachable later does not matter.
	store.disabled = false

	require.NoError(t, team.Set("teamA"))
	assert.Equal(t, "teamA", team.Get())
	assert.Equal(t, []any{nil, "teamA"}, seen)
	assert.Empty(t, store.Writes())

	_, ok := stored(t, store)
	assert.False(t, ok)
}

func TestUnavailableAndNilStores(t *testing.T) {
	for name, store := range map[string]storage.Store{
		"unavailable": storage.Unavailable{},
		"nil":         nil,
	} {
		t.Run(name, func(t *testing.T) {
			team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
			require.NoError(t, err)
			assert.Nil(t, team.Get())
			assert.False(t, team.Persistent())
			assert.NoError(t, team.Set("teamA"))
			assert.Equal(t, "teamA", team.Get())
		})
	}
}

func TestUnsubscribeStopsNotification(t *testing.T) {
	team, err := NewSelectedTeam(ctx, storage.NewMemoryStore(), WithLogger(quietLogger()))
	require.NoError(t, err)

	var seen []any
	unsubscribe := team.Subscribe(func(v any) { seen = append(seen, v) })
	require.NoError(t, team.Set("teamA"))

	unsubscribe()
	unsubscribe()
	require.NoError(t, team.Set("teamB"))

	assert.Equal(t, []any{nil, "teamA"}, seen)
	assert.Equal(t, 0, team.SubscriberCount())
}

func TestTeamSwitchSequence(t *testing.T) {
	store := storage.NewMemoryStore()
	team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)

	var seen []any
	team.Subscribe(func(v any) { seen = append(seen, v) })

	require.NoError(t, team.Set("teamA"))
	assert.Equal(t, []any{nil, "teamA"}, seen)
	v, _ := stored(t, store)
	assert.Equal(t, "\"teamA\"", v)

	require.NoError(t, team.Set("teamB"))
	v, _ = stored(t, store)
	assert.Equal(t, "\"teamB\"", v)
}

func TestSubscribersNotifiedInOrderBeforePersist(t *testing.T) {
	store := newRecordingStore()
	team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)

	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	for _, name := range []string{"first", "second", "third"} {
		name := name
		team.Subscribe(func(v any) {
			if v != nil {
				record(name)
			}
		})
	}
	store.onSet = func(key, value string) { record("persist " + value) }

	require.NoError(t, team.Set("teamA"))
	assert.Equal(t, []string{"first", "second", "third", `persist "teamA"`}, events)
}

func TestUnsubscribeKeepsOrder(t *testing.T) {
	team, err := NewSelectedTeam(ctx, nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	var order []string
	subscribe := func(name string) func() {
		return team.Subscribe(func(v any) {
			if v != nil {
				order = append(order, name)
			}
		})
	}
	subscribe("a")
	unsubB := subscribe("b")
	subscribe("c")
	subscribe("d")
	unsubB()

	require.NoError(t, team.Set("x"))
	assert.Equal(t, []string{"a", "c", "d"}, order)
}

func TestUpdate(t *testing.T) {
	counter, err := New[int](ctx, storage.NewMemoryStore(), "counter", WithLogger(quietLogger()))
	require.NoError(t, err)

	require.NoError(t, counter.Update(func(n int) int { return n + 1 }))
	require.NoError(t, counter.Update(func(n int) int { return n + 1 }))
	assert.Equal(t, 2, counter.Get())
}

func TestUpdateMayReadCurrentValue(t *testing.T) {
	team, err := NewSelectedTeam(ctx, nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	require.NoError(t, team.Update(func(old any) any {
		assert.Equal(t, old, team.Get())
		return "teamA"
	}))
	assert.Equal(t, "teamA", team.Get())
}

func TestEqualValueIsNoop(t *testing.T) {
	store := newRecordingStore()
	team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)

	calls := 0
	team.Subscribe(func(any) { calls++ })

	require.NoError(t, team.Set("teamA"))
	require.NoError(t, team.Set("teamA"))
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"null", `"teamA"`}, store.Writes())
}

func TestUpdateInPlacePersists(t *testing.T) {
	store := newRecordingStore()
	team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)

	var seen []string
	team.Subscribe(func(v any) {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		seen = append(seen, string(data))
	})

	require.NoError(t, team.Set(map[string]any{"id": "a"}))
	require.NoError(t, team.Update(func(v any) any {
		m := v.(map[string]any)
		m["id"] = "b"
		return m
	}))

	assert.Equal(t, []string{"null", `{"id":"a"}`, `{"id":"b"}`}, seen)
	raw, ok := stored(t, store)
	require.True(t, ok)
	assert.Equal(t, `{"id":"b"}`, raw)
}

func TestSameObjectSetAgainPersists(t *testing.T) {
	store := newRecordingStore()
	team, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)

	m := map[string]any{"id": "a"}
	require.NoError(t, team.Set(m))
	m["id"] = "c"
	require.NoError(t, team.Set(m))

	assert.Equal(t, []string{"null", `{"id":"a"}`, `{"id":"c"}`}, store.Writes())
}

func TestLargeIntegersSurviveReopen(t *testing.T) {
	store := storage.NewMemoryStore()

	first, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, first.Set(map[string]any{"id": json.Number("9007199254740993")}))

	second, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": json.Number("9007199254740993")}, second.Get())

	raw, ok := stored(t, store)
	require.True(t, ok)
	assert.Equal(t, `{"id":9007199254740993}`, raw)

	require.NoError(t, store.Set(ctx, SelectedTeamKey, `9007199254740993`))
	third, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), third.Get())
	raw, _ = stored(t, store)
	assert.Equal(t, `9007199254740993`, raw)
}

func TestTrailingDataIsMalformed(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, SelectedTeamKey, `"a" "b"`))

	_, err := NewSelectedTeam(ctx, store, Strict(), WithLogger(quietLogger()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAlwaysNotify(t *testing.T) {
	store := newRecordingStore()
	team, err := NewSelectedTeam(ctx, store, AlwaysNotify(), WithLogger(quietLogger()))
	require.NoError(t, err)

	calls := 0
	team.Subscribe(func(any) { calls++ })

	require.NoError(t, team.Set("teamA"))
	require.NoError(t, team.Set("teamA"))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"null", `"teamA"`, `"teamA"`}, store.Writes())
}

func TestWithEquals(t *testing.T) {
	type Team struct {
		ID      int
		Updated int
	}
	byID := func(a, b Team) bool { return a.ID == b.ID }

	team, err := New[Team](ctx, nil, SelectedTeamKey, WithEquals(byID), WithLogger(quietLogger()))
	require.NoError(t, err)

	calls := 0
	team.Subscribe(func(Team) { calls++ })
	require.NoError(t, team.Set(Team{ID: 0, Updated: 5}))
	assert.Equal(t, 1, calls)
	require.NoError(t, team.Set(Team{ID: 1}))
	assert.Equal(t, 2, calls)
}

func TestWithEqualsWrongType(t *testing.T) {
	_, err := New[string](ctx, nil, "k", WithEquals(func(a, b int) bool { return a == b }))
	assert.Error(t, err)
}

func TestWithDefault(t *testing.T) {
	store := storage.NewMemoryStore()
	team, err := New[string](ctx, store, SelectedTeamKey, WithDefault("lobby"), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, "lobby", team.Get())

	require.NoError(t, team.Set("teamA"))
	require.NoError(t, team.Reset())
	assert.Equal(t, "lobby", team.Get())

	v, _ := stored(t, store)
	assert.Equal(t, `"lobby"`, v)
}

func TestWithDefaultWrongType(t *testing.T) {
	_, err := New[string](ctx, nil, "k", WithDefault(3))
	assert.Error(t, err)
}

func TestMalformedStorageFallsBack(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, SelectedTeamKey, `{"id":`))

	var hookKey, hookRaw string
	var hookErr error
	team, err := NewSelectedTeam(ctx, store,
		WithLogger(quietLogger()),
		OnDecodeError(func(key, raw string, err error) {
			hookKey, hookRaw, hookErr = key, raw, err
		}),
	)
	require.NoError(t, err)

	assert.Nil(t, team.Get())
	assert.Equal(t, SelectedTeamKey, hookKey)
	assert.Equal(t, `{"id":`, hookRaw)
	assert.Error(t, hookErr)

	// The fallback value overwrites the corrupt text.
	v, _ := stored(t, store)
	assert.Equal(t, "null", v)
}

func TestMalformedStorageStrict(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, SelectedTeamKey, `not json`))

	_, err := NewSelectedTeam(ctx, store, Strict(), WithLogger(quietLogger()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestReadFailure(t *testing.T) {
	store := newRecordingStore()
	store.getErr = stderrors.New("connection refused")

	_, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorContains(t, err, "connection refused")
}

func TestInitialWriteFailure(t *testing.T) {
	store := newRecordingStore()
	store.setErr = stderrors.New("quota exceeded")

	_, err := NewSelectedTeam(ctx, store, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrPersist)
}

func TestWriteFailureIsReturnedNotRolledBack(t *testing.T) {
	store := newRecordingStore()

	var persistErrs []error
	team, err := NewSelectedTeam(ctx, store,
		WithLogger(quietLogger()),
		OnPersist(func(key string, err error) { persistErrs = append(persistErrs, err) }),
	)
	require.NoError(t, err)

	var seen []any
	team.Subscribe(func(v any) { seen = append(seen, v) })

	quota := stderrors.New("quota exceeded")
	store.setErr = quota

	err = team.Set("teamA")
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, quota)

	assert.Equal(t, "teamA", team.Get())
	assert.Equal(t, []any{nil, "teamA"}, seen)

	require.Len(t, persistErrs, 2)
	assert.NoError(t, persistErrs[0])
	assert.ErrorIs(t, persistErrs[1], ErrPersist)
}

func TestEncodeFailure(t *testing.T) {
	team, err := NewSelectedTeam(ctx, storage.NewMemoryStore(), WithLogger(quietLogger()))
	require.NoError(t, err)

	err = team.Set(func() {})
	assert.ErrorIs(t, err, ErrEncode)
}

func TestSubscribeFromCallback(t *testing.T) {
	team, err := NewSelectedTeam(ctx, nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	var inner []any
	team.Subscribe(func(v any) {
		if v == "teamA" {
			team.Subscribe(func(v any) { inner = append(inner, v) })
		}
	})

	require.NoError(t, team.Set("teamA"))
	require.NoError(t, team.Set("teamB"))
	assert.Equal(t, []any{"teamA", "teamB"}, inner)
}

func TestUnsubscribeFromOwnCallback(t *testing.T) {
	team, err := NewSelectedTeam(ctx, nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	calls := 0
	var unsubscribe func()
	unsubscribe = team.Subscribe(func(v any) {
		calls++
		if v == "teamA" {
			unsubscribe()
		}
	})

	require.NoError(t, team.Set("teamA"))
	require.NoError(t, team.Set("teamB"))
	assert.Equal(t, 2, calls)
}

func TestConcurrentSetters(t *testing.T) {
	store := storage.NewMemoryStore()
	counter, err := New[int](ctx, store, "counter", WithLogger(quietLogger()))
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int
	counter.Subscribe(func(n int) {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, counter.Update(func(n int) int { return n + 1 }))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter.Get())
	v, ok, err := store.Get(ctx, "counter")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "50", v)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 51)
	for i, n := range seen {
		assert.Equal(t, i, n)
	}
}
