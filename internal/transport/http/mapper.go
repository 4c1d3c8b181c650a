package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/feed"
	"github.com/vovakirdan/wirechat-blackjack/internal/proto"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

const (
	errCodeInvalidMessage     = "invalid_message"
	errCodeUnsupportedVersion = "unsupported_version"
	errCodeRateLimited        = "rate_limited"
)

func decodeChannel(inbound proto.Inbound) (string, *proto.Error, error) {
	var data proto.ChannelData
	if err := json.Unmarshal(inbound.Data, &data); err != nil {
		return "", nil, err
	}
	if data.Channel == "" {
		return "", &proto.Error{Code: core.ErrCodeBadRequest, Msg: "channel is required"}, nil
	}
	return data.Channel, nil, nil
}

func decodeReact(inbound proto.Inbound, userID string) (core.ActionEvent, *proto.Error, error) {
	var data proto.ReactData
	if err := json.Unmarshal(inbound.Data, &data); err != nil {
		return core.ActionEvent{}, nil, err
	}
	if data.MessageID == "" {
		return core.ActionEvent{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message_id is required"}, nil
	}
	kind, err := core.ParseActionKind(data.Action)
	if err != nil {
		return core.ActionEvent{}, &proto.Error{Code: core.ErrCodeBadRequest, Msg: err.Error()}, nil
	}
	return core.ActionEvent{MessageID: data.MessageID, UserID: userID, Kind: kind}, nil, nil
}

func protoError(err error) *proto.Error {
	return &proto.Error{Code: core.CodeOf(err), Msg: err.Error()}
}

func turnFromMessage(msg feed.Message) proto.Turn {
	v := msg.View
	t := proto.Turn{
		MessageID:    msg.ID,
		Channel:      msg.Channel,
		User:         v.UserID,
		Title:        v.Title(),
		Bet:          v.Bet,
		Cards:        card.Codes(v.Cards),
		Value:        v.Value,
		Soft:         v.Soft,
		Status:       v.Status.String(),
		Waiting:      v.Waiting,
		Dealer:       card.Codes(v.DealerCards),
		DealerValue:  v.DealerValue,
		DealerHidden: v.DealerHidden,
		Open:         msg.Open,
	}
	if v.Outcome != rules.OutcomeNone {
		t.Outcome = v.Outcome.String()
	}
	return t
}

func outboundFromEvent(event *feed.Event) proto.Outbound {
	switch event.Kind {
	case feed.EventMessageCreated:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageCreated,
			Data:  turnFromMessage(event.Message),
		}
	case feed.EventMessageUpdated:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageUpdated,
			Data:  turnFromMessage(event.Message),
		}
	case feed.EventInputRevoked:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventInputRevoked,
			Data: proto.InputRevoked{
				MessageID: event.Message.ID,
				Channel:   event.Message.Channel,
			},
		}
	case feed.EventHistory:
		turns := make([]proto.Turn, 0, len(event.Messages))
		for _, msg := range event.Messages {
			turns = append(turns, turnFromMessage(msg))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventHistory,
			Data:  proto.History{Channel: event.Channel, Turns: turns},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

// httpStatus maps a domain error to an HTTP status code.
func httpStatus(err error) int {
	switch core.CodeOf(err) {
	case core.ErrCodeSessionFull, core.ErrCodeAlreadyJoined:
		return http.StatusConflict
	case core.ErrCodeBadRequest:
		return http.StatusBadRequest
	case core.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case core.ErrCodeSessionClosed:
		return http.StatusNotFound
	case core.ErrCodeStaleEvent:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// PlayerResponse is a participant in a live session.
type PlayerResponse struct {
	UserID    string   `json:"user_id"`
	Bet       int64    `json:"bet"`
	Cards     []string `json:"cards"`
	Value     int      `json:"value"`
	Status    string   `json:"status"`
	MessageID string   `json:"message_id"`
}

// SessionResponse is a live session snapshot.
type SessionResponse struct {
	Channel      string           `json:"channel"`
	RoundID      string           `json:"round_id"`
	DealerUpCard string           `json:"dealer_up_card"`
	Players      []PlayerResponse `json:"players"`
	StartedAt    string           `json:"started_at"`
}

// ResultResponse is one participant's settled hand.
type ResultResponse struct {
	UserID  string   `json:"user_id"`
	Bet     int64    `json:"bet"`
	Cards   []string `json:"cards"`
	Value   int      `json:"value"`
	Status  string   `json:"status"`
	Outcome string   `json:"outcome"`
	Doubled bool     `json:"doubled,omitempty"`
}

// RoundResponse is a finished round from history.
type RoundResponse struct {
	ID           string           `json:"id"`
	Channel      string           `json:"channel"`
	DealerCards  []string         `json:"dealer_cards"`
	DealerValue  int              `json:"dealer_value"`
	DealerPlayed bool             `json:"dealer_played"`
	Results      []ResultResponse `json:"results"`
	StartedAt    string           `json:"started_at"`
	EndedAt      string           `json:"ended_at"`
}

func sessionResponse(snap core.SessionSnapshot) SessionResponse {
	players := make([]PlayerResponse, 0, len(snap.Participants))
	for _, p := range snap.Participants {
		players = append(players, PlayerResponse{
			UserID:    p.UserID,
			Bet:       p.Bet,
			Cards:     card.Codes(p.Cards),
			Value:     p.Value,
			Status:    p.Status.String(),
			MessageID: p.MessageID,
		})
	}
	return SessionResponse{
		Channel:      snap.Channel,
		RoundID:      snap.RoundID,
		DealerUpCard: snap.DealerUpCard.Code(),
		Players:      players,
		StartedAt:    snap.StartedAt.Format(time.RFC3339),
	}
}

func roundResponse(r *core.Round) RoundResponse {
	results := make([]ResultResponse, 0, len(r.Results))
	for _, res := range r.Results {
		results = append(results, ResultResponse{
			UserID:  res.UserID,
			Bet:     res.Bet,
			Cards:   card.Codes(res.Cards),
			Value:   res.Value,
			Status:  res.Status.String(),
			Outcome: res.Outcome.String(),
			Doubled: res.Doubled,
		})
	}
	return RoundResponse{
		ID:           r.ID,
		Channel:      r.Channel,
		DealerCards:  card.Codes(r.DealerCards),
		DealerValue:  r.DealerValue,
		DealerPlayed: r.DealerPlayed,
		Results:      results,
		StartedAt:    r.StartedAt.Format(time.RFC3339),
		EndedAt:      r.EndedAt.Format(time.RFC3339),
	}
}
