package domain

// RichStatus is the platform presence status of a member
type RichStatus string

const (
	StatusOnline    RichStatus = "online"
	StatusIdle      RichStatus = "idle"
	StatusDND       RichStatus = "dnd"
	StatusInvisible RichStatus = "invisible"
	StatusOffline   RichStatus = "offline"
	StatusUnknown   RichStatus = "unknown"
)

// ParseRichStatus maps a raw status string to a RichStatus, unknown for anything unrecognized
func ParseRichStatus(s string) RichStatus {
	switch RichStatus(s) {
	case StatusOnline, StatusIdle, StatusDND, StatusInvisible, StatusOffline:
		return RichStatus(s)
	default:
		return StatusUnknown
	}
}

// Presence is the binary presence the scheduler reacts to
type Presence int

const (
	PresenceNotOffline Presence = iota
	PresenceOffline
)

// String returns the binary presence name
func (p Presence) String() string {
	if p == PresenceOffline {
		return "offline"
	}
	return "online"
}

// Collapse maps a rich status to the binary presence
// Invisible members are reported as offline by the platform, so they count as offline.
// Unknown (user not resolvable at all) counts as not-offline.
func (s RichStatus) Collapse() Presence {
	switch s {
	case StatusOffline, StatusInvisible:
		return PresenceOffline
	default:
		return PresenceNotOffline
	}
}

// IsOffline is shorthand for Collapse() == PresenceOffline
func (s RichStatus) IsOffline() bool {
	return s.Collapse() == PresenceOffline
}

// Emoji returns the status emoji used in status replies
func (s RichStatus) Emoji() string {
	switch s {
	case StatusOffline, StatusInvisible:
		return "💤"
	case StatusOnline:
		return "✅"
	case StatusIdle:
		return "🌙"
	case StatusDND:
		return "🔴"
	default:
		return "❓"
	}
}

// Describe returns the human readable status line used in status replies
func (s RichStatus) Describe() string {
	switch s {
	case StatusOffline, StatusInvisible:
		return "OFFLINE (prime summoning time!)"
	case StatusOnline:
		return "ONLINE (summoning successful!)"
	case StatusIdle:
		return "IDLE (maybe summoning will work?)"
	case StatusDND:
		return "DO NOT DISTURB (summoning may anger them)"
	default:
		return "UNKNOWN (Schrödinger's summon)"
	}
}
