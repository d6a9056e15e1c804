package domain

import "time"

// SummonRecord is one delivered summon in the history log
type SummonRecord struct {
	ID        int64
	MessageID string // platform message ID
	ChannelID string
	SummonID  int // Message.ID that was sent
	Kind      Kind
	Manual    bool
	SentAt    time.Time
}

// SummonCounts aggregates the history log
type SummonCounts struct {
	Auto   int
	Manual int
	LastAt time.Time // zero if nothing was ever sent
}

// Total returns auto + manual
func (c SummonCounts) Total() int {
	return c.Auto + c.Manual
}
