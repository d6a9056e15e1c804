package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
)

// Mock implementations

type mockMessageRepo struct {
	mu      sync.Mutex
	sources []domain.Message
	pool    []domain.Message
	used    map[int]struct{}
}

func (m *mockMessageRepo) LoadPool() ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pool) == 0 {
		m.pool = m.sources
	}
	return m.pool, nil
}

func (m *mockMessageRepo) LoadSources() ([]domain.Message, error) {
	return m.sources, nil
}

func (m *mockMessageRepo) SavePool(msgs []domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = msgs
	return nil
}

func (m *mockMessageRepo) LoadUsed() (map[int]struct{}, error) {
	return map[int]struct{}{}, nil
}

func (m *mockMessageRepo) SaveUsed(used map[int]struct{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used = make(map[int]struct{}, len(used))
	for id := range used {
		m.used[id] = struct{}{}
	}
	return nil
}

func (m *mockMessageRepo) DeleteCache() error {
	return nil
}

func (m *mockMessageRepo) usedIDs() map[int]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]struct{}, len(m.used))
	for id := range m.used {
		out[id] = struct{}{}
	}
	return out
}

type mockStateRepo struct {
	mu    sync.Mutex
	state domain.BotState
}

func (m *mockStateRepo) Load() (*domain.BotState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	return &s, nil
}

func (m *mockStateRepo) Save(state *domain.BotState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = *state
	return nil
}

type mockChatRepo struct {
	mu       sync.Mutex
	status   domain.RichStatus
	admins   map[string]bool
	sent     []string
	deleted  []string
	edited   []string
	history  []repo.ChatMessage
	nextID   int
	channels []repo.Channel
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{
		status:   domain.StatusOffline,
		admins:   map[string]bool{},
		channels: []repo.Channel{{ID: "general-id", GuildID: "g1", Name: "general"}},
	}
}

func (m *mockChatRepo) BotUserID() string { return "bot" }

func (m *mockChatRepo) MemberStatus(ctx context.Context, userID string) (domain.RichStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, nil
}

func (m *mockChatRepo) LookupUser(ctx context.Context, userID string) (*domain.Member, error) {
	if userID == "missing" {
		return nil, repo.ErrNotFound
	}
	return &domain.Member{UserID: userID, Name: "user" + userID}, nil
}

func (m *mockChatRepo) FindTextChannel(ctx context.Context, name string) (*repo.Channel, bool) {
	for i := range m.channels {
		if m.channels[i].Name == name {
			ch := m.channels[i]
			return &ch, true
		}
	}
	return nil, false
}

func (m *mockChatRepo) SendText(ctx context.Context, channelID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	m.nextID++
	return "sent-" + strconv.Itoa(m.nextID), nil
}

func (m *mockChatRepo) EditText(ctx context.Context, channelID, msgID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, text)
	return nil
}

func (m *mockChatRepo) DeleteMessage(ctx context.Context, channelID, msgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, msgID)
	return nil
}

func (m *mockChatRepo) AddReaction(ctx context.Context, channelID, msgID, emoji string) error {
	return nil
}

func (m *mockChatRepo) History(ctx context.Context, channelID string, limit int) ([]repo.ChatMessage, error) {
	return m.history, nil
}

func (m *mockChatRepo) IsAdmin(ctx context.Context, userID, channelID string) (bool, error) {
	return m.admins[userID], nil
}

func (m *mockChatRepo) setStatus(s domain.RichStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *mockChatRepo) sentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// fakeClock hands every Sleep to the test, which releases it explicitly
type fakeClock struct {
	mu       sync.Mutex
	now      time.Time
	inflight int

	sleeps chan time.Duration
	wake   chan struct{}
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{
		now:    now,
		sleeps: make(chan time.Duration),
		wake:   make(chan struct{}),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inflight--
		c.mu.Unlock()
	}()

	select {
	case c.sleeps <- d:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.wake:
		c.mu.Lock()
		c.now = c.now.Add(d)
		c.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *fakeClock) sleeping() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

// expectSleep waits for the next Sleep call and checks its duration
func (c *fakeClock) expectSleep(t *testing.T, want time.Duration) {
	t.Helper()
	select {
	case d := <-c.sleeps:
		if d != want {
			t.Fatalf("Expected sleep of %v, got %v", want, d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for a sleep of %v", want)
	}
}

// release ends the pending Sleep, advancing the clock by its duration
func (c *fakeClock) release(t *testing.T) {
	t.Helper()
	select {
	case c.wake <- struct{}{}:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out releasing sleep")
	}
}

// expectNoSleep checks that no Sleep call arrives for a short while
func (c *fakeClock) expectNoSleep(t *testing.T) {
	t.Helper()
	select {
	case d := <-c.sleeps:
		t.Fatalf("Unexpected sleep of %v", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
