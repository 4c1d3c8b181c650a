package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/auth"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/feed"
	"github.com/vovakirdan/wirechat-blackjack/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to the feed and hub.
// Clients receive turn messages of subscribed channels and react to them.
type WSHandler struct {
	hub       *core.Hub
	feed      *feed.Feed
	auth      *auth.Service
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, fd *feed.Feed, authService *auth.Service, rateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, feed: fd, auth: authService, rateLimit: rateLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := feed.NewClient(uuid.NewString(), "")
	defer h.feed.RemoveClient(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *feed.Client) error {
	limiter := newRateLimiter(h.rateLimit)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			if err := writeError(ctx, conn, &proto.Error{Code: errCodeRateLimited, Msg: "too many messages"}); err != nil {
				return err
			}
			continue
		}

		out, protoErr, err := h.handleInbound(ctx, client, inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if err := writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}
		if out != nil {
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return err
			}
		}
	}
}

// handleInbound applies one client message. A returned error closes the
// connection; a protocol error is reported to the client.
func (h *WSHandler) handleInbound(ctx context.Context, client *feed.Client, inbound proto.Inbound) (*proto.Outbound, *proto.Error, error) {
	if inbound.Type == proto.InboundTypeHello {
		return nil, h.hello(client, inbound), nil
	}
	if client.UserID == "" {
		return nil, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "hello required"}, nil
	}

	switch inbound.Type {
	case proto.InboundTypeSubscribe:
		channel, protoErr, err := decodeChannel(inbound)
		if err != nil || protoErr != nil {
			return nil, protoErr, err
		}
		if !h.feed.Subscribe(client, channel) {
			return nil, &proto.Error{Code: core.ErrCodeAlreadyJoined, Msg: "already subscribed"}, nil
		}
		return nil, nil, nil

	case proto.InboundTypeUnsubscribe:
		channel, protoErr, err := decodeChannel(inbound)
		if err != nil || protoErr != nil {
			return nil, protoErr, err
		}
		h.feed.Unsubscribe(client, channel)
		return nil, nil, nil

	case proto.InboundTypePlay:
		channel, protoErr, err := decodeChannel(inbound)
		if err != nil || protoErr != nil {
			return nil, protoErr, err
		}
		handle, err := h.hub.JoinDefault(ctx, channel, client.UserID)
		if err != nil {
			return nil, protoError(err), nil
		}
		return &proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventJoined,
			Data:  proto.Joined{Channel: handle.Channel, MessageID: handle.MessageID},
		}, nil, nil

	case proto.InboundTypeReact:
		ev, protoErr, err := decodeReact(inbound, client.UserID)
		if err != nil || protoErr != nil {
			return nil, protoErr, err
		}
		if err := h.hub.Dispatch(ctx, ev); err != nil && !errors.Is(err, core.ErrStaleEvent) {
			return nil, protoError(err), nil
		}
		return nil, nil, nil

	default:
		return nil, &proto.Error{Code: errCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

func (h *WSHandler) hello(client *feed.Client, inbound proto.Inbound) *proto.Error {
	var hello proto.HelloData
	if len(inbound.Data) > 0 {
		if err := json.Unmarshal(inbound.Data, &hello); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid hello"}
		}
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		return &proto.Error{Code: errCodeUnsupportedVersion, Msg: "unsupported protocol version"}
	}

	claims, err := h.auth.ValidateToken(hello.Token)
	if err != nil {
		h.log.Debug().Err(err).Str("client_id", client.ID).Msg("ws hello rejected")
		return &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "invalid token"}
	}
	client.UserID = claims.UserID
	h.log.Debug().Str("client_id", client.ID).Str("user_id", claims.UserID).Msg("ws client authenticated")
	return nil
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *feed.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, protoErr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr})
}
