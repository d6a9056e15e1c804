package domain

// Kind is the kind of a summoning message
type Kind string

const (
	KindPhrase Kind = "phrase"
	KindHaiku  Kind = "haiku"
)

// Message represents a summoning message entity
// Immutable once loaded. IDs come from the source rows and are not checked for uniqueness.
type Message struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Kind Kind   `json:"type"`
}

// IsHaiku checks if the message renders as a haiku block
func (m *Message) IsHaiku() bool {
	return m.Kind == KindHaiku
}

// PoolStats summarizes a message pool
type PoolStats struct {
	Total   int
	Phrases int
	Haikus  int
	Used    int
}

// Remaining returns how many messages can be picked before the used set resets
func (s PoolStats) Remaining() int {
	return s.Total - s.Used
}

// CountKinds counts phrases and haikus in a message list
func CountKinds(msgs []Message) (phrases, haikus int) {
	for _, m := range msgs {
		switch m.Kind {
		case KindHaiku:
			haikus++
		default:
			phrases++
		}
	}
	return phrases, haikus
}
