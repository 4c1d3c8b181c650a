package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/core"
)

const (
	// historyLimit bounds the turn messages kept per channel for replay.
	historyLimit = 50
	// maxChannels bounds the channels with kept history. The least recently
	// used channel is dropped together with its messages.
	maxChannels = 1024
)

// ErrUnknownMessage is returned for handles the feed never issued or already evicted.
var ErrUnknownMessage = errors.New("unknown message")

// Feed is an in-memory message board for WebSocket clients. It implements
// core.Display: every rendered turn becomes a message broadcast to the
// clients subscribed to its channel.
type Feed struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	messages map[string]*Message
	history  *lru.Cache[string, []string]
	log      *zerolog.Logger
}

var _ core.Display = (*Feed)(nil)

// New creates an empty feed.
func New(logger *zerolog.Logger) *Feed {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	f := &Feed{
		rooms:    make(map[string]*Room),
		messages: make(map[string]*Message),
		log:      logger,
	}
	// Eviction runs inside cache calls made under f.mu.
	history, err := lru.NewWithEvict(maxChannels, f.dropChannel)
	if err != nil {
		panic(err) // only for a non-positive size
	}
	f.history = history
	return f
}

// Render posts a new open turn message to channel.
func (f *Feed) Render(_ context.Context, channel string, view core.View) (core.Handle, error) {
	msg := &Message{
		ID:      uuid.NewString(),
		Channel: channel,
		View:    view,
		Open:    true,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages[msg.ID] = msg
	f.appendHistory(channel, msg.ID)
	f.broadcast(channel, &Event{Kind: EventMessageCreated, Channel: channel, Message: *msg})

	return core.Handle{Channel: channel, MessageID: msg.ID}, nil
}

// Update replaces the view of an existing message.
func (f *Feed) Update(_ context.Context, handle core.Handle, view core.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.messages[handle.MessageID]
	if !ok {
		return ErrUnknownMessage
	}
	msg.View = view
	f.history.Get(msg.Channel)
	f.broadcast(msg.Channel, &Event{Kind: EventMessageUpdated, Channel: msg.Channel, Message: *msg})
	return nil
}

// RevokeInput closes a message for reactions.
func (f *Feed) RevokeInput(_ context.Context, handle core.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.messages[handle.MessageID]
	if !ok {
		return ErrUnknownMessage
	}
	if !msg.Open {
		return nil
	}
	msg.Open = false
	f.broadcast(msg.Channel, &Event{Kind: EventInputRevoked, Channel: msg.Channel, Message: *msg})
	return nil
}

// Message returns a copy of a stored message.
func (f *Feed) Message(id string) (Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return Message{}, false
	}
	return *msg, true
}

// Subscribe adds c to channel and replays its recent messages to c.
// It reports false when c was already subscribed.
func (f *Feed) Subscribe(c *Client, channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	room, ok := f.rooms[channel]
	if !ok {
		room = NewRoom(channel)
		f.rooms[channel] = room
	}
	if !room.AddClient(c) {
		return false
	}
	c.rooms[channel] = struct{}{}

	ids, _ := f.history.Get(channel)
	replay := make([]Message, 0, len(ids))
	for _, id := range ids {
		replay = append(replay, *f.messages[id])
	}
	select {
	case c.Events <- &Event{Kind: EventHistory, Channel: channel, Messages: replay}:
	default:
		f.log.Warn().Str("client_id", c.ID).Str("channel", channel).Msg("history dropped for slow client")
	}
	return true
}

// Unsubscribe removes c from channel. It reports false when c was not subscribed.
func (f *Feed) Unsubscribe(c *Client, channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leave(c, channel)
}

// RemoveClient drops c from every channel it subscribed to.
func (f *Feed) RemoveClient(c *Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for channel := range c.rooms {
		f.leave(c, channel)
	}
}

func (f *Feed) leave(c *Client, channel string) bool {
	room, ok := f.rooms[channel]
	if !ok || !room.RemoveClient(c) {
		return false
	}
	delete(c.rooms, channel)
	if room.Empty() {
		delete(f.rooms, channel)
	}
	return true
}

func (f *Feed) appendHistory(channel, id string) {
	ids, _ := f.history.Get(channel)
	ids = append(ids, id)
	if len(ids) > historyLimit {
		evicted := ids[:len(ids)-historyLimit]
		for _, old := range evicted {
			delete(f.messages, old)
		}
		ids = append([]string(nil), ids[len(ids)-historyLimit:]...)
	}
	f.history.Add(channel, ids)
}

func (f *Feed) dropChannel(channel string, ids []string) {
	for _, id := range ids {
		delete(f.messages, id)
	}
	f.log.Debug().Str("channel", channel).Int("messages", len(ids)).Msg("channel history evicted")
}

func (f *Feed) broadcast(channel string, ev *Event) {
	room, ok := f.rooms[channel]
	if !ok {
		return
	}
	if dropped := room.Broadcast(ev); dropped > 0 {
		f.log.Warn().Str("channel", channel).Stringer("event", ev.Kind).Int("dropped", dropped).Msg("slow clients skipped")
	}
}
