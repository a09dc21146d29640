package challenge

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Subscribers receive updates through
// buffered channels; a slow subscriber only ever misses stale snapshots.
type MemoryStore struct {
	mu          sync.Mutex
	challenges  map[string]Challenge
	subscribers map[string]map[chan Challenge]struct{}
}

// NewMemoryStore returns an empty in-process challenge store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges:  make(map[string]Challenge),
		subscribers: make(map[string]map[chan Challenge]struct{}),
	}
}

// CreateChallenge stores c, failing with ErrCodeTaken if its code exists.
func (m *MemoryStore) CreateChallenge(_ context.Context, c Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challenges[c.Code]; ok {
		return ErrCodeTaken
	}
	m.challenges[c.Code] = c.Clone()
	return nil
}

// GetChallenge returns a copy of the challenge with the given code.
func (m *MemoryStore) GetChallenge(_ context.Context, code string) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[code]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	return c.Clone(), nil
}

// JoinChallenge claims a waiting challenge for opponentID and activates it.
func (m *MemoryStore) JoinChallenge(_ context.Context, code, opponentID string, at time.Time) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[code]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	if err := CheckJoin(c, opponentID); err != nil {
		return Challenge{}, err
	}
	c.OpponentID = opponentID
	c.Status = StatusActive
	c.UpdatedAt = at
	return m.saveLocked(c), nil
}

// AppendAnswer adds a to role's answers. Its index must be the next one.
func (m *MemoryStore) AppendAnswer(_ context.Context, code string, role Role, a Answer) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[code]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	if err := CheckAppend(c, role, a); err != nil {
		return Challenge{}, err
	}
	c = c.Clone()
	if role == RoleCreator {
		c.CreatorAnswers = append(c.CreatorAnswers, a)
	} else {
		c.OpponentAnswers = append(c.OpponentAnswers, a)
	}
	c.UpdatedAt = a.AnsweredAt
	return m.saveLocked(c), nil
}

// CompleteChallenge completes an active challenge once both players have
// finished. The bool reports whether this call made the transition.
func (m *MemoryStore) CompleteChallenge(_ context.Context, code string, at time.Time) (Challenge, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[code]
	if !ok {
		return Challenge{}, false, ErrNotFound
	}
	if c.Status != StatusActive || !c.BothFinished() {
		return c.Clone(), false, nil
	}
	c.Status = StatusCompleted
	c.UpdatedAt = at
	return m.saveLocked(c), true, nil
}

// SubscribeChallenge streams the challenge after every change until ctx ends.
func (m *MemoryStore) SubscribeChallenge(ctx context.Context, code string) (<-chan Challenge, func(), error) {
	ch := make(chan Challenge, 8)

	m.mu.Lock()
	c, ok := m.challenges[code]
	if !ok {
		m.mu.Unlock()
		return nil, nil, ErrNotFound
	}
	subs := m.subscribers[code]
	if subs == nil {
		subs = make(map[chan Challenge]struct{})
		m.subscribers[code] = subs
	}
	subs[ch] = struct{}{}
	ch <- c.Clone()
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subscribers[code], ch)
			if len(m.subscribers[code]) == 0 {
				delete(m.subscribers, code)
			}
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// saveLocked stores c and fans it out to subscribers.
func (m *MemoryStore) saveLocked(c Challenge) Challenge {
	m.challenges[c.Code] = c
	for ch := range m.subscribers[c.Code] {
		snapshot := c.Clone()
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return c.Clone()
}
