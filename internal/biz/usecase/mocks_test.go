package usecase

import (
	"context"
	"strconv"
	"sync"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"
)

// Mock implementations

type mockMessageRepo struct {
	pool         []domain.Message
	sources      []domain.Message
	used         map[int]struct{}
	saveUsedN    int
	cacheCleared bool
}

func (m *mockMessageRepo) LoadPool() ([]domain.Message, error) {
	if len(m.pool) == 0 {
		m.pool = m.sources
	}
	return m.pool, nil
}

func (m *mockMessageRepo) LoadSources() ([]domain.Message, error) {
	return m.sources, nil
}

func (m *mockMessageRepo) SavePool(msgs []domain.Message) error {
	m.pool = msgs
	return nil
}

func (m *mockMessageRepo) LoadUsed() (map[int]struct{}, error) {
	out := make(map[int]struct{}, len(m.used))
	for id := range m.used {
		out[id] = struct{}{}
	}
	return out, nil
}

func (m *mockMessageRepo) SaveUsed(used map[int]struct{}) error {
	m.saveUsedN++
	m.used = make(map[int]struct{}, len(used))
	for id := range used {
		m.used[id] = struct{}{}
	}
	return nil
}

func (m *mockMessageRepo) DeleteCache() error {
	m.cacheCleared = true
	m.pool = nil
	m.used = nil
	return nil
}

type mockStateRepo struct {
	state *domain.BotState
	saves int
}

func (m *mockStateRepo) Load() (*domain.BotState, error) {
	if m.state == nil {
		return &domain.BotState{}, nil
	}
	s := *m.state
	return &s, nil
}

func (m *mockStateRepo) Save(state *domain.BotState) error {
	s := *state
	m.state = &s
	m.saves++
	return nil
}

type mockHistoryRepo struct {
	records []*domain.SummonRecord
}

func (m *mockHistoryRepo) Record(ctx context.Context, rec *domain.SummonRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockHistoryRepo) Counts(ctx context.Context) (domain.SummonCounts, error) {
	var c domain.SummonCounts
	for _, r := range m.records {
		if r.Manual {
			c.Manual++
		} else {
			c.Auto++
		}
		c.LastAt = r.SentAt
	}
	return c, nil
}

func (m *mockHistoryRepo) Recent(ctx context.Context, limit int) ([]*domain.SummonRecord, error) {
	return m.records, nil
}

func (m *mockHistoryRepo) Close() error {
	return nil
}

type sentMessage struct {
	ChannelID string
	Text      string
}

type mockChatRepo struct {
	mu        sync.Mutex
	botID     string
	status    domain.RichStatus
	channels  []repo.Channel
	users     map[string]*domain.Member
	sent      []sentMessage
	sendErr   error
	history   []repo.ChatMessage
	deleted   []string
	deleteErr map[string]error
	nextID    int
}

func (m *mockChatRepo) BotUserID() string { return m.botID }

func (m *mockChatRepo) MemberStatus(ctx context.Context, userID string) (domain.RichStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, nil
}

func (m *mockChatRepo) LookupUser(ctx context.Context, userID string) (*domain.Member, error) {
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
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
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, Text: text})
	m.nextID++
	return "msg-" + strconv.Itoa(m.nextID), nil
}

func (m *mockChatRepo) EditText(ctx context.Context, channelID, msgID, text string) error {
	return nil
}

func (m *mockChatRepo) DeleteMessage(ctx context.Context, channelID, msgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[msgID]; err != nil {
		return err
	}
	m.deleted = append(m.deleted, msgID)
	return nil
}

func (m *mockChatRepo) AddReaction(ctx context.Context, channelID, msgID, emoji string) error {
	return nil
}

func (m *mockChatRepo) History(ctx context.Context, channelID string, limit int) ([]repo.ChatMessage, error) {
	if limit > 0 && limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

func (m *mockChatRepo) IsAdmin(ctx context.Context, userID, channelID string) (bool, error) {
	return false, nil
}

func (m *mockChatRepo) setStatus(s domain.RichStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}
