package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/core"
)

// session is the subset of *discordgo.Session the adapter calls.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
	MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error
}

var _ session = (*discordgo.Session)(nil)

// Emojis are the reactions offered on every turn message. Custom guild
// emojis use the "name:id" form.
type Emojis struct {
	Hit    string
	Stay   string
	Double string
}

func (e Emojis) list() []string {
	return []string{e.Hit, e.Stay, e.Double}
}

func (e Emojis) actions() map[string]core.ActionKind {
	return map[string]core.ActionKind{
		e.Hit:    core.ActionHit,
		e.Stay:   core.ActionStay,
		e.Double: core.ActionDouble,
	}
}

// Display posts turn messages as channel embeds with reaction controls.
type Display struct {
	api    session
	emojis Emojis
	log    *zerolog.Logger
}

var _ core.Display = (*Display)(nil)

// NewDisplay creates a display over a connected discordgo session.
func NewDisplay(dg *discordgo.Session, emojis Emojis, logger *zerolog.Logger) *Display {
	return newDisplay(dg, emojis, logger)
}

func newDisplay(api session, emojis Emojis, logger *zerolog.Logger) *Display {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Display{api: api, emojis: emojis, log: logger}
}

// Render sends the turn embed and attaches the action reactions. A failed
// reaction is logged; the message is still usable through the other ones.
func (d *Display) Render(ctx context.Context, channel string, view core.View) (core.Handle, error) {
	msg, err := d.api.ChannelMessageSendEmbed(channel, turnEmbed(view, d.emojis), discordgo.WithContext(ctx))
	if err != nil {
		return core.Handle{}, fmt.Errorf("send turn embed: %w", err)
	}
	handle := core.Handle{Channel: channel, MessageID: msg.ID}

	if view.Status != core.StatusActive {
		return handle, nil
	}
	for _, emoji := range d.emojis.list() {
		if err := d.api.MessageReactionAdd(channel, msg.ID, emoji, discordgo.WithContext(ctx)); err != nil {
			d.log.Warn().Err(err).Str("message_id", msg.ID).Str("emoji", emoji).Msg("add reaction")
		}
	}
	return handle, nil
}

// Update edits the turn embed in place.
func (d *Display) Update(ctx context.Context, handle core.Handle, view core.View) error {
	if _, err := d.api.ChannelMessageEditEmbed(handle.Channel, handle.MessageID, turnEmbed(view, d.emojis), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit turn embed: %w", err)
	}
	return nil
}

// RevokeInput clears every reaction from the message.
func (d *Display) RevokeInput(ctx context.Context, handle core.Handle) error {
	if err := d.api.MessageReactionsRemoveAll(handle.Channel, handle.MessageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("clear reactions: %w", err)
	}
	return nil
}
