package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/proto"
	transporthttp "github.com/vovakirdan/wirechat-blackjack/internal/transport/http"
)

type playOptions struct {
	server  string
	channel string
	name    string
	token   string
}

func newPlayCmd() *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join a table from the terminal over the WebSocket API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPlay(ctx, opts, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&opts.channel, "channel", "general", "table channel to join")
	cmd.Flags().StringVar(&opts.name, "name", "", "guest display name")
	cmd.Flags().StringVar(&opts.token, "token", "", "access token (a guest token is requested when empty)")
	return cmd
}

func runPlay(ctx context.Context, opts *playOptions, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	token := opts.token
	if token == "" {
		id, err := guestLogin(ctx, opts.server, opts.name)
		if err != nil {
			return err
		}
		token = id.Token
		pterm.Info.Printfln("Playing as %s", id.Name)
	}

	wsURL, err := websocketURL(opts.server)
	if err != nil {
		return err
	}
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	for _, msg := range []struct {
		typ  string
		data any
	}{
		{proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion}},
		{proto.InboundTypeSubscribe, proto.ChannelData{Channel: opts.channel}},
		{proto.InboundTypePlay, proto.ChannelData{Channel: opts.channel}},
	} {
		if err := sendInbound(ctx, conn, msg.typ, msg.data); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "h = hit, s = stay, d = double, q = quit")

	client := newPlayClient(out)
	go func() {
		defer cancel()
		readOutbound(ctx, conn, client)
	}()
	writeActions(ctx, conn, client, in)

	return conn.Close(websocket.StatusNormalClosure, "bye")
}

// wireOutbound mirrors proto.Outbound with the payload left undecoded.
type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// playClient tracks the caller's own turn message among channel events.
type playClient struct {
	mu    sync.Mutex
	mine  string
	turns map[string]proto.Turn
	out   io.Writer
}

func newPlayClient(out io.Writer) *playClient {
	return &playClient{turns: make(map[string]proto.Turn), out: out}
}

func (p *playClient) messageID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mine
}

// handle applies one server message and reports whether the caller's round
// is settled.
func (p *playClient) handle(msg wireOutbound) (bool, error) {
	if msg.Type == proto.OutboundTypeError && msg.Error != nil {
		fmt.Fprintln(p.out, pterm.Error.Sprintf("%s: %s", msg.Error.Code, msg.Error.Msg))
		return false, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch msg.Event {
	case proto.EventJoined:
		var joined proto.Joined
		if err := json.Unmarshal(msg.Data, &joined); err != nil {
			return false, fmt.Errorf("decode joined: %w", err)
		}
		p.mine = joined.MessageID
		if t, ok := p.turns[p.mine]; ok {
			return p.show(t), nil
		}
	case proto.EventMessageCreated, proto.EventMessageUpdated:
		var t proto.Turn
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			return false, fmt.Errorf("decode turn: %w", err)
		}
		p.turns[t.MessageID] = t
		if t.MessageID == p.mine {
			return p.show(t), nil
		}
	}
	return false, nil
}

func (p *playClient) show(t proto.Turn) bool {
	fmt.Fprintln(p.out, renderTurn(t))
	return t.Outcome != ""
}

func renderTurn(t proto.Turn) string {
	hand := fmt.Sprintf("%d", t.Value)
	if t.Soft {
		hand = "soft " + hand
	}
	dealer := displayCards(t.Dealer)
	if t.DealerHidden {
		dealer += " ??"
	}
	body := fmt.Sprintf("Bet:    %d\nHand:   %s (%s)\nDealer: %s (%d)",
		t.Bet, displayCards(t.Cards), hand, dealer, t.DealerValue)
	return pterm.DefaultBox.WithTitle(t.Title).WithTitleTopCenter().Sprint(body)
}

func displayCards(codes []string) string {
	cards, err := card.ParseCodes(codes)
	if err != nil {
		return strings.Join(codes, " ")
	}
	return strings.Join(card.Strings(cards), " ")
}

func readOutbound(ctx context.Context, conn *websocket.Conn, client *playClient) {
	for {
		var msg wireOutbound
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			pterm.Warning.Printfln("read error: %v", err)
			return
		}
		done, err := client.handle(msg)
		if err != nil {
			pterm.Warning.Println(err.Error())
			continue
		}
		if done {
			return
		}
	}
}

func writeActions(ctx context.Context, conn *websocket.Conn, client *playClient, in io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			action := strings.ToLower(strings.TrimSpace(line))
			switch action {
			case "":
				continue
			case "q", "quit":
				return
			}
			id := client.messageID()
			if id == "" {
				pterm.Warning.Println("not seated yet")
				continue
			}
			if err := sendInbound(ctx, conn, proto.InboundTypeReact, proto.ReactData{MessageID: id, Action: action}); err != nil {
				pterm.Warning.Printfln("send error: %v", err)
				return
			}
		}
	}
}

func sendInbound(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func guestLogin(ctx context.Context, server, name string) (transporthttp.AuthResponse, error) {
	var id transporthttp.AuthResponse
	body, err := json.Marshal(transporthttp.GuestRequest{Name: name})
	if err != nil {
		return id, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(server, "/")+"/api/guest", bytes.NewReader(body))
	if err != nil {
		return id, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return id, fmt.Errorf("guest login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return id, fmt.Errorf("guest login: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return id, fmt.Errorf("decode guest login: %w", err)
	}
	return id, nil
}

// websocketURL turns the server base URL into its /ws endpoint.
func websocketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
