package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello       = "hello"
	InboundTypeSubscribe   = "subscribe"
	InboundTypeUnsubscribe = "unsubscribe"
	InboundTypePlay        = "play"
	InboundTypeReact       = "react"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventMessageCreated = "message_created"
	EventMessageUpdated = "message_updated"
	EventInputRevoked   = "input_revoked"
	EventHistory        = "history"
	EventJoined         = "joined"
)

// HelloData authenticates the connection with a token issued by /api/guest.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// ChannelData names a table channel for subscribe, unsubscribe and play.
type ChannelData struct {
	Channel string `json:"channel"`
}

// ReactData is a reaction on a turn message.
type ReactData struct {
	MessageID string `json:"message_id"`
	Action    string `json:"action"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Turn is the rendered state of one participant's turn message.
type Turn struct {
	MessageID    string   `json:"message_id"`
	Channel      string   `json:"channel"`
	User         string   `json:"user"`
	Title        string   `json:"title"`
	Bet          int64    `json:"bet"`
	Cards        []string `json:"cards"`
	Value        int      `json:"value"`
	Soft         bool     `json:"soft,omitempty"`
	Status       string   `json:"status"`
	Outcome      string   `json:"outcome,omitempty"`
	Waiting      bool     `json:"waiting,omitempty"`
	Dealer       []string `json:"dealer"`
	DealerValue  int      `json:"dealer_value"`
	DealerHidden bool     `json:"dealer_hidden,omitempty"`
	Open         bool     `json:"open"`
}

// InputRevoked tells clients a turn message no longer accepts reactions.
type InputRevoked struct {
	MessageID string `json:"message_id"`
	Channel   string `json:"channel"`
}

// History replays the recent turn messages of a channel on subscribe.
type History struct {
	Channel string `json:"channel"`
	Turns   []Turn `json:"turns"`
}

// Joined confirms a play request with the participant's turn message.
type Joined struct {
	Channel   string `json:"channel"`
	MessageID string `json:"message_id"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
