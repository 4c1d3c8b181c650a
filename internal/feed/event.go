package feed

import "github.com/vovakirdan/wirechat-blackjack/internal/core"

// EventKind is a notification the feed emits to subscribed clients.
type EventKind int

const (
	// EventMessageCreated announces a new turn message in a channel.
	EventMessageCreated EventKind = iota
	// EventMessageUpdated carries the new content of a turn message.
	EventMessageUpdated
	// EventInputRevoked tells clients a turn message no longer takes reactions.
	EventInputRevoked
	// EventHistory replays recent turn messages to a client that subscribed.
	EventHistory
)

func (k EventKind) String() string {
	switch k {
	case EventMessageCreated:
		return "message_created"
	case EventMessageUpdated:
		return "message_updated"
	case EventInputRevoked:
		return "input_revoked"
	case EventHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Message is a turn message as stored by the feed.
type Message struct {
	ID      string
	Channel string
	View    core.View
	// Open is true while the message still accepts reactions.
	Open bool
}

// Event is sent to clients to describe what happened in a channel.
type Event struct {
	Kind     EventKind
	Channel  string
	Message  Message
	Messages []Message // For EventHistory
}
