package discord

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
)

var testEmojis = Emojis{Hit: "🃏", Stay: "✋", Double: "⏫"}

type call struct {
	method  string
	channel string
	message string
	emoji   string
	user    string
	embed   *discordgo.MessageEmbed
}

// fakeSession records the REST calls the adapter makes.
type fakeSession struct {
	mu      sync.Mutex
	calls   []call
	nextID  int
	failAdd bool
}

func (f *fakeSession) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("m%d", f.nextID)
	f.mu.Unlock()
	f.record(call{method: "send", channel: channelID, message: id, embed: embed})
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record(call{method: "edit", channel: channelID, message: messageID, embed: embed})
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.record(call{method: "react", channel: channelID, message: messageID, emoji: emojiID})
	if f.failAdd {
		return errors.New("missing permissions")
	}
	return nil
}

func (f *fakeSession) MessageReactionRemove(channelID, messageID, emojiID, userID string, _ ...discordgo.RequestOption) error {
	f.record(call{method: "unreact", channel: channelID, message: messageID, emoji: emojiID, user: userID})
	return nil
}

func (f *fakeSession) MessageReactionsRemoveAll(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.record(call{method: "clear", channel: channelID, message: messageID})
	return nil
}

func (f *fakeSession) byMethod(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeSession) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// stackedDeck deals a fixed script; the dealer takes the first two cards.
type stackedDeck struct {
	cards []card.Card
}

func (d *stackedDeck) Draw(n int) ([]card.Card, error) {
	if len(d.cards) < n {
		return nil, errors.New("stacked deck exhausted")
	}
	out := d.cards[:n:n]
	d.cards = d.cards[n:]
	return out, nil
}

func newTestBot(t *testing.T, script string) (*Bot, *fakeSession, *core.Hub) {
	t.Helper()
	cards, err := card.ParseCodes(strings.Fields(script))
	if err != nil {
		t.Fatalf("parse script: %v", err)
	}
	api := &fakeSession{}
	hub := core.NewHub(core.NewRegistry(), newDisplay(api, testEmojis, nil),
		core.WithDeckFactory(func() (card.Drawer, error) {
			return &stackedDeck{cards: cards}, nil
		}),
	)
	t.Cleanup(hub.Close)
	bot := newBot(api, hub, "!", testEmojis, nil)
	bot.selfID.Store("bot")
	return bot, api, hub
}

func userMessage(channel, user, content string) *discordgo.Message {
	return &discordgo.Message{ChannelID: channel, Content: content, Author: &discordgo.User{ID: user}}
}

func reaction(channel, message, user, emoji string) *discordgo.MessageReaction {
	return &discordgo.MessageReaction{
		ChannelID: channel,
		MessageID: message,
		UserID:    user,
		Emoji:     discordgo.Emoji{Name: emoji},
	}
}
