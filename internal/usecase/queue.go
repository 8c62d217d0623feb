package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/totegamma/carelog/internal/domain"
)

type queueState struct {
	entries []domain.Entry
	// loaded is set once the stored list has been read (or fully replaced) this session.
	loaded bool
	dirty  bool
}

// Queue is the durable, most-recent-first list of entries for each log type.
// The in-memory list is authoritative for the session; the store is written through
// on every change and failures are reported as domain.StorageError.
type Queue struct {
	store QueueStore
	mu    sync.Mutex
	state map[string]*queueState
}

func NewQueue(store QueueStore) *Queue {
	return &Queue{
		store: store,
		state: make(map[string]*queueState),
	}
}

// Load returns the entries under key. An absent key is an empty list.
func (q *Queue) Load(ctx context.Context, key string) ([]domain.Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	st, err := q.ensureLoaded(ctx, key)
	if err == nil && st.dirty {
		err = q.flush(ctx, key, st)
	}
	return cloneEntries(st.entries), err
}

// SaveAll replaces the list under key.
func (q *Queue) SaveAll(ctx context.Context, key string, entries []domain.Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	st := q.stateFor(key)
	st.entries = cloneEntries(entries)
	st.loaded = true
	return q.flush(ctx, key, st)
}

// AppendFront prepends entry and persists the list.
func (q *Queue) AppendFront(ctx context.Context, key string, entry domain.Entry) ([]domain.Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	st, loadErr := q.ensureLoaded(ctx, key)
	st.entries = append([]domain.Entry{entry}, st.entries...)
	err := q.flush(ctx, key, st)
	if loadErr != nil {
		err = loadErr
	}
	return cloneEntries(st.entries), err
}

// Advance stores entry over the queued entry with the same id when its status is a legal
// step forward from the queued one, and returns whichever version is queued afterwards.
// A writer holding an older copy can therefore never move an entry backwards.
func (q *Queue) Advance(ctx context.Context, key string, entry domain.Entry) (domain.Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	st, loadErr := q.ensureLoaded(ctx, key)
	idx := slices.IndexFunc(st.entries, func(e domain.Entry) bool { return e.ID == entry.ID })
	if idx < 0 {
		if loadErr != nil {
			return entry, loadErr
		}
		return entry, domain.NotFoundError{Resource: "entry " + entry.ID}
	}

	current := st.entries[idx]
	if current.Status != entry.Status && !current.Status.CanTransition(entry.Status) {
		return current, loadErr
	}
	st.entries[idx] = entry

	err := q.flush(ctx, key, st)
	if loadErr != nil {
		err = loadErr
	}
	return entry, err
}

func (q *Queue) stateFor(key string) *queueState {
	st, ok := q.state[key]
	if !ok {
		st = &queueState{}
		q.state[key] = st
	}
	return st
}

// ensureLoaded reads the stored list the first time key is touched. Entries created
// while the store was unreadable stay in front of whatever is read later.
func (q *Queue) ensureLoaded(ctx context.Context, key string) (*queueState, error) {
	st := q.stateFor(key)
	if st.loaded {
		return st, nil
	}

	raw, err := q.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			st.loaded = true
			return st, nil
		}
		return st, q.warn(ctx, "load", key, err)
	}

	var stored []domain.Entry
	if err := json.Unmarshal(raw, &stored); err != nil {
		return st, q.warn(ctx, "decode", key, err)
	}

	if len(st.entries) > 0 {
		st.entries = mergeFront(st.entries, stored)
		st.dirty = true
	} else {
		st.entries = stored
	}
	st.loaded = true
	return st, nil
}

// flush writes the list. It refuses to overwrite a list it never managed to read.
func (q *Queue) flush(ctx context.Context, key string, st *queueState) error {
	if !st.loaded {
		st.dirty = true
		return q.warn(ctx, "save", key, errors.New("stored list not yet readable, keeping entries in memory"))
	}

	raw, err := json.Marshal(st.entries)
	if err != nil {
		st.dirty = true
		return q.warn(ctx, "encode", key, err)
	}

	if err := q.store.Put(ctx, key, raw); err != nil {
		st.dirty = true
		return q.warn(ctx, "save", key, err)
	}
	st.dirty = false
	return nil
}

func (q *Queue) warn(ctx context.Context, op, key string, err error) error {
	slog.WarnContext(
		ctx, "queue storage failure, continuing with in-memory state",
		slog.String("module", "queue"),
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	return domain.StorageError{Op: op, Key: key, Err: err}
}

func mergeFront(session, stored []domain.Entry) []domain.Entry {
	current := make(map[string]domain.Entry, len(session))
	for _, e := range session {
		current[e.ID] = e
	}
	inStore := make(map[string]struct{}, len(stored))
	for _, e := range stored {
		inStore[e.ID] = struct{}{}
	}

	merged := make([]domain.Entry, 0, len(session)+len(stored))
	for _, e := range session {
		if _, ok := inStore[e.ID]; !ok {
			merged = append(merged, e)
		}
	}
	for _, e := range stored {
		if newer, ok := current[e.ID]; ok {
			e = newer
		}
		merged = append(merged, e)
	}
	return merged
}

func cloneEntries(entries []domain.Entry) []domain.Entry {
	if entries == nil {
		return []domain.Entry{}
	}
	out := make([]domain.Entry, len(entries))
	copy(out, entries)
	return out
}
