package server

import (
	"context"
	"sync"

	"github.com/summonlabs/summoner/internal/infra/discord"
)

type reactionWaiter struct {
	userID string
	emoji  string
	done   chan struct{}
}

// ReactionWaiters matches incoming reactions against pending confirmations
type ReactionWaiters struct {
	mu      sync.Mutex
	pending map[string][]*reactionWaiter // message ID -> waiters
}

// NewReactionWaiters creates an empty waiter registry
func NewReactionWaiters() *ReactionWaiters {
	return &ReactionWaiters{pending: make(map[string][]*reactionWaiter)}
}

// WaitReaction blocks until userID reacts to messageID with emoji or ctx ends
func (r *ReactionWaiters) WaitReaction(ctx context.Context, channelID, messageID, userID, emoji string) error {
	w := &reactionWaiter{userID: userID, emoji: emoji, done: make(chan struct{})}

	r.mu.Lock()
	r.pending[messageID] = append(r.pending[messageID], w)
	r.mu.Unlock()
	defer r.remove(messageID, w)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch wakes the waiters matching a reaction
func (r *ReactionWaiters) Dispatch(ev *discord.ReactionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	waiters := r.pending[ev.MessageID]
	kept := waiters[:0]
	for _, w := range waiters {
		if w.userID == ev.UserID && w.emoji == ev.Emoji {
			close(w.done)
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		delete(r.pending, ev.MessageID)
		return
	}
	r.pending[ev.MessageID] = kept
}

// Pending returns the number of waiting confirmations
func (r *ReactionWaiters) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ws := range r.pending {
		n += len(ws)
	}
	return n
}

func (r *ReactionWaiters) remove(messageID string, w *reactionWaiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	waiters := r.pending[messageID]
	for i, other := range waiters {
		if other == w {
			waiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(waiters) == 0 {
		delete(r.pending, messageID)
		return
	}
	r.pending[messageID] = waiters
}
