package memory

// Store keeps the ordered turn history for every active conversation.
// It is intentionally minimal: bounded retention with oldest-first
// eviction, an optional synthetic summary so long conversations keep
// their long-range context, and nothing else. The built-in
// implementation is an in-memory map safe for concurrent use, which is
// sufficient for a single-process agent. Production deployments can
// swap in a persistent implementation (redis, sql, ...).

import (
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSummary   Role = "summary"
)

type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now()}
}

// Stats summarizes what the store currently retains for a conversation.
type Stats struct {
	Turns      int      `json:"turns"`
	Summarized bool     `json:"summarized"`
	Intents    []string `json:"intents,omitempty"`
	OrderIDs   []string `json:"order_ids,omitempty"`
}

type Store interface {
	Append(conversationID string, turns ...Turn)
	History(conversationID string, maxTurns int) []Turn
	Clear(conversationID string)
	Stats(conversationID string) Stats
}

// conversation carries its own lock so independent conversations never
// contend with each other.
type conversation struct {
	mu       sync.Mutex
	turns    []Turn
	lastSeen time.Time
}

type InMemoryStore struct {
	mu               sync.RWMutex
	conversations    map[string]*conversation
	maxHistory       int
	summaryThreshold int
	summarize        bool
	expiration       time.Duration
}

type StoreOption func(*InMemoryStore)

func NewInMemoryStore(options ...StoreOption) *InMemoryStore {
	store := &InMemoryStore{
		conversations:    make(map[string]*conversation),
		maxHistory:       8,
		summaryThreshold: 4,
		summarize:        true,
		expiration:       24 * time.Hour,
	}

	for _, option := range options {
		option(store)
	}

	go store.cleanupIdle()

	return store
}

// WithMaxHistory caps the retained turns per conversation.
func WithMaxHistory(n int) StoreOption {
	return func(store *InMemoryStore) {
		if n > 0 {
			store.maxHistory = n
		}
	}
}

// WithSummaryThreshold sets how many turns must accumulate before
// evicted turns are folded into a summary instead of dropped.
func WithSummaryThreshold(n int) StoreOption {
	return func(store *InMemoryStore) {
		if n > 0 {
			store.summaryThreshold = n
		}
	}
}

// WithSummary toggles the synthetic summary turn. Disabled, eviction
// is plain FIFO.
func WithSummary(enabled bool) StoreOption {
	return func(store *InMemoryStore) {
		store.summarize = enabled
	}
}

// WithExpiration sets how long an idle conversation is retained.
func WithExpiration(d time.Duration) StoreOption {
	return func(store *InMemoryStore) {
		if d > 0 {
			store.expiration = d
		}
	}
}

/*
Append adds turns to a conversation, creating it on first use. Passing
both sides of an exchange in one call makes the exchange atomic:
readers observe the conversation before or after it, never between.
*/
func (store *InMemoryStore) Append(conversationID string, turns ...Turn) {
	if len(turns) == 0 {
		return
	}

	conv := store.conversation(conversationID)

	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.lastSeen = time.Now()
	conv.turns = append(conv.turns, turns...)
	store.prune(conv)
}

/*
History returns the most recent maxTurns turns in chronological order.
maxTurns <= 0 returns everything retained. The result is a copy; the
caller can hold it as long as it likes.
*/
func (store *InMemoryStore) History(conversationID string, maxTurns int) []Turn {
	store.mu.RLock()
	conv, ok := store.conversations[conversationID]
	store.mu.RUnlock()

	if !ok {
		return []Turn{}
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	turns := conv.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	out := make([]Turn, len(turns))
	copy(out, turns)

	return out
}

func (store *InMemoryStore) Clear(conversationID string) {
	store.mu.Lock()
	delete(store.conversations, conversationID)
	store.mu.Unlock()
}

func (store *InMemoryStore) Stats(conversationID string) Stats {
	store.mu.RLock()
	conv, ok := store.conversations[conversationID]
	store.mu.RUnlock()

	if !ok {
		return Stats{}
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	stats := Stats{
		Turns:    len(conv.turns),
		Intents:  detectIntents(conv.turns),
		OrderIDs: extractOrderIDs(conv.turns),
	}

	if len(conv.turns) > 0 && conv.turns[0].Role == RoleSummary {
		stats.Summarized = true
	}

	return stats
}

// conversation returns the record for id, creating it lazily.
func (store *InMemoryStore) conversation(id string) *conversation {
	store.mu.RLock()
	conv, ok := store.conversations[id]
	store.mu.RUnlock()

	if ok {
		return conv
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if conv, ok := store.conversations[id]; ok {
		return conv
	}

	conv = &conversation{lastSeen: time.Now()}
	store.conversations[id] = conv

	return conv
}

// prune enforces the retention cap. Called with conv.mu held.
func (store *InMemoryStore) prune(conv *conversation) {
	if len(conv.turns) <= store.maxHistory {
		return
	}

	if !store.summarize || len(conv.turns) < store.summaryThreshold {
		fresh := make([]Turn, store.maxHistory)
		copy(fresh, conv.turns[len(conv.turns)-store.maxHistory:])
		conv.turns = fresh

		return
	}

	rest := conv.turns
	var prior Turn
	hasPrior := false

	if rest[0].Role == RoleSummary {
		prior = rest[0]
		hasPrior = true
		rest = rest[1:]
	}

	// The summary occupies one retained slot.
	keep := store.maxHistory - 1
	if keep < 0 {
		keep = 0
	}

	if len(rest) <= keep {
		return
	}

	evicted := rest[:len(rest)-keep]
	kept := rest[len(rest)-keep:]

	fresh := make([]Turn, 0, keep+1)
	fresh = append(fresh, foldSummary(prior, hasPrior, evicted))
	fresh = append(fresh, kept...)
	conv.turns = fresh
}

// cleanupIdle periodically drops conversations nobody has touched
// within the expiration window.
func (store *InMemoryStore) cleanupIdle() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-store.expiration)

		store.mu.Lock()
		for id, conv := range store.conversations {
			if conv.lastSeen.Before(cutoff) {
				delete(store.conversations, id)
			}
		}
		store.mu.Unlock()
	}
}
