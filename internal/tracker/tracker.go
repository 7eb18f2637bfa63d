package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mateusmanuel/roteirizador/internal/store"
)

// DefaultSessionKey is the fixed key the delivered set is persisted under.
const DefaultSessionKey = "roteirizador:delivered"

// NoPending is returned by NextPending when every position is delivered.
const NoPending = -1

// ErrPositionOutOfRange is returned by Toggle when the position does not
// address a stop of the current route.
var ErrPositionOutOfRange = errors.New("position out of range")

// Tracker maintains the delivered/pending flag per position of the current
// route. State is position-indexed, not identity-indexed: recomputing the
// route invalidates it, which is why the pipeline resets the tracker on
// every new route.
//
// Every change serializes the full delivered set through the injected
// SessionStore, so the session survives a process restart as long as the
// route does not change. Safe for concurrent use.
type Tracker struct {
	log   *slog.Logger
	store store.SessionStore
	key   string

	mu        sync.Mutex
	size      int
	delivered map[int]bool
}

// New creates a Tracker persisting under the given session key. Call Load
// once at startup to rehydrate a previous session.
func New(log *slog.Logger, sessionStore store.SessionStore, key string) *Tracker {
	if key == "" {
		key = DefaultSessionKey
	}
	return &Tracker{
		log:       log,
		store:     sessionStore,
		key:       key,
		delivered: make(map[int]bool),
	}
}

// Load rehydrates the delivered set from the session store. A missing key
// leaves the tracker empty.
func (t *Tracker) Load(ctx context.Context) error {
	raw, found, err := t.store.Get(ctx, t.key)
	if err != nil {
		return fmt.Errorf("failed to load delivered set: %w", err)
	}
	if !found {
		return nil
	}

	var positions []int
	if err = json.Unmarshal([]byte(raw), &positions); err != nil {
		return fmt.Errorf("failed to decode delivered set: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.delivered = make(map[int]bool, len(positions))
	for _, p := range positions {
		t.delivered[p] = true
		// Grow the tracked range so a rehydrated session is usable
		// before the next route computation replaces it.
		if p >= t.size {
			t.size = p + 1
		}
	}

	t.log.DebugContext(ctx, "Rehydrated delivery session", "delivered", len(positions))

	return nil
}

// Reset clears all positions back to pending for a route of the given size
// and persists the empty set. Invoked whenever a new route is computed or
// new source data is loaded.
func (t *Tracker) Reset(ctx context.Context, size int) error {
	t.mu.Lock()
	t.size = size
	t.delivered = make(map[int]bool)
	t.mu.Unlock()

	return t.persist(ctx)
}

// Toggle flips the pending/delivered state of position i and persists the
// change. Toggling twice restores the original state. It returns the new
// delivered state.
func (t *Tracker) Toggle(ctx context.Context, i int) (bool, error) {
	t.mu.Lock()
	if i < 0 || i >= t.size {
		t.mu.Unlock()
		return false, fmt.Errorf("%w: %d with size %d", ErrPositionOutOfRange, i, t.size)
	}

	if t.delivered[i] {
		delete(t.delivered, i)
	} else {
		t.delivered[i] = true
	}
	state := t.delivered[i]
	t.mu.Unlock()

	if err := t.persist(ctx); err != nil {
		return state, err
	}

	return state, nil
}

// Delivered reports whether position i is marked delivered.
func (t *Tracker) Delivered(i int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delivered[i]
}

// DeliveredCount returns how many positions are marked delivered.
func (t *Tracker) DeliveredCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.delivered)
}

// NextPending returns the lowest position still pending, or NoPending when
// every position is delivered.
func (t *Tracker) NextPending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.size {
		if !t.delivered[i] {
			return i
		}
	}

	return NoPending
}

// persist serializes the delivered set as a sorted JSON int list.
func (t *Tracker) persist(ctx context.Context) error {
	t.mu.Lock()
	positions := make([]int, 0, len(t.delivered))
	for p := range t.delivered {
		positions = append(positions, p)
	}
	t.mu.Unlock()
	sort.Ints(positions)

	raw, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("failed to encode delivered set: %w", err)
	}

	if err = t.store.Set(ctx, t.key, string(raw)); err != nil {
		return fmt.Errorf("failed to persist delivered set: %w", err)
	}

	return nil
}
