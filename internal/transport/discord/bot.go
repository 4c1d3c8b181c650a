package discord

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/core"
)

const (
	handlerTimeout = 10 * time.Second

	intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent
)

var playCommands = []string{"blackjack", "b"}

// NewSession creates a bot session with the intents the adapter needs.
// The gateway is not opened until Bot.Open.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = intents
	return dg, nil
}

// Bot turns chat commands into joins and reactions into action events.
type Bot struct {
	dg      *discordgo.Session
	api     session
	hub     *core.Hub
	prefix  string
	actions map[string]core.ActionKind
	selfID  atomic.Value
	log     *zerolog.Logger
}

// NewBot binds hub to a discordgo session. Handlers are registered on Open.
func NewBot(dg *discordgo.Session, hub *core.Hub, prefix string, emojis Emojis, logger *zerolog.Logger) *Bot {
	b := newBot(dg, hub, prefix, emojis, logger)
	b.dg = dg
	return b
}

func newBot(api session, hub *core.Hub, prefix string, emojis Emojis, logger *zerolog.Logger) *Bot {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	b := &Bot{
		api:     api,
		hub:     hub,
		prefix:  prefix,
		actions: emojis.actions(),
		log:     logger,
	}
	b.selfID.Store("")
	return b
}

// Open registers the gateway handlers and connects.
func (b *Bot) Open() error {
	if b.dg == nil {
		return errors.New("discord session not configured")
	}
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onReactionAdd)
	return b.dg.Open()
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	if b.dg == nil {
		return nil
	}
	return b.dg.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		b.selfID.Store(r.User.ID)
		b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord ready")
	}
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	b.handleMessage(ctx, m.Message)
}

func (b *Bot) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	b.handleReaction(ctx, r.MessageReaction)
}

func (b *Bot) isSelf(userID string) bool {
	self, _ := b.selfID.Load().(string)
	return self != "" && self == userID
}

// handleMessage starts or joins the channel's round on a play command.
func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if !b.isPlayCommand(m.Content) {
		return
	}

	logger := b.log.With().Str("channel", m.ChannelID).Str("user_id", m.Author.ID).Logger()
	_, err := b.hub.JoinDefault(ctx, m.ChannelID, m.Author.ID)
	switch {
	case err == nil:
		logger.Debug().Msg("joined from chat command")
		return
	case errors.Is(err, core.ErrAlreadyJoined):
		b.notice(ctx, m.ChannelID, "Already joined", "You've already joined the game. You can try joining another lobby.")
	case errors.Is(err, core.ErrSessionFull):
		b.notice(ctx, m.ChannelID, "Lobby full", "This lobby is full. Try again in another channel.")
	default:
		logger.Error().Err(err).Msg("join from chat command")
		b.notice(ctx, m.ChannelID, "Something went wrong", "The table could not be opened.")
	}
}

func (b *Bot) isPlayCommand(content string) bool {
	fields := strings.Fields(content)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], b.prefix) {
		return false
	}
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], b.prefix))
	for _, c := range playCommands {
		if cmd == c {
			return true
		}
	}
	return false
}

// handleReaction forwards a reaction on a live turn message to the hub.
// Users' reactions are removed again so the same emoji can be pressed twice;
// the hub drops reactions from anyone but the turn's owner.
func (b *Bot) handleReaction(ctx context.Context, r *discordgo.MessageReaction) {
	if r == nil || b.isSelf(r.UserID) {
		return
	}
	if _, ok := b.hub.Owner(r.MessageID); !ok {
		return
	}

	emoji := r.Emoji.APIName()
	if err := b.api.MessageReactionRemove(r.ChannelID, r.MessageID, emoji, r.UserID, discordgo.WithContext(ctx)); err != nil {
		b.log.Debug().Err(err).Str("message_id", r.MessageID).Msg("remove user reaction")
	}

	kind, ok := b.actions[emoji]
	if !ok {
		return
	}
	err := b.hub.Dispatch(ctx, core.ActionEvent{MessageID: r.MessageID, UserID: r.UserID, Kind: kind})
	if err != nil && !errors.Is(err, core.ErrStaleEvent) {
		b.log.Warn().Err(err).Str("message_id", r.MessageID).Str("user_id", r.UserID).Msg("dispatch reaction")
	}
}

func (b *Bot) notice(ctx context.Context, channelID, title, text string) {
	if _, err := b.api.ChannelMessageSendEmbed(channelID, noticeEmbed(title, text), discordgo.WithContext(ctx)); err != nil {
		b.log.Warn().Err(err).Str("channel", channelID).Msg("send notice")
	}
}
