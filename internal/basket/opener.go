package basket

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cakehouse/storefront/pkg/logger"
)

// DefaultSessionIdle is how long an unused session Store stays cached.
const DefaultSessionIdle = 30 * time.Minute

type sessionEntry struct {
	store    *Store
	lastUsed time.Time
}

// Opener hands out one Store per session over a shared Storage. Requests on
// the same session share that Store, so its lock orders their mutations.
type Opener struct {
	storage   Storage
	logg      *logger.Logger
	now       func() time.Time
	idle      time.Duration
	listeners []Listener

	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	lastSweep time.Time
}

func NewOpener(storage Storage, logg *logger.Logger, listeners ...Listener) *Opener {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Opener{
		storage:   storage,
		logg:      logg,
		now:       time.Now,
		idle:      DefaultSessionIdle,
		listeners: listeners,
		sessions:  make(map[string]*sessionEntry),
	}
}

// Open returns the Store for sessionID, reloaded from storage so writes made by
// other processes are visible. The reload waits for in-flight mutations on the
// same session.
func (o *Opener) Open(ctx context.Context, sessionID string) *Store {
	sessionID = strings.TrimSpace(sessionID)
	store := o.session(sessionID)
	store.Initialize(o.logg.WithSessionID(ctx, sessionID))
	return store
}

func (o *Opener) session(sessionID string) *Store {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	o.sweepLocked(now)
	if entry, ok := o.sessions[sessionID]; ok {
		entry.lastUsed = now
		return entry.store
	}

	opts := []Option{
		WithLogger(o.logg),
		WithClock(o.now),
	}
	for _, fn := range o.listeners {
		opts = append(opts, WithListener(fn))
	}
	store := NewStore(Namespaced(o.storage, sessionID), opts...)
	o.sessions[sessionID] = &sessionEntry{store: store, lastUsed: now}
	return store
}

// sweepLocked evicts idle sessions at most once per idle period. The data
// stays in storage; only the cached Store goes.
func (o *Opener) sweepLocked(now time.Time) {
	if now.Sub(o.lastSweep) < o.idle {
		return
	}
	o.lastSweep = now
	for id, entry := range o.sessions {
		if now.Sub(entry.lastUsed) >= o.idle {
			delete(o.sessions, id)
		}
	}
}

// Sessions reports how many session Stores are cached.
func (o *Opener) Sessions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}
