package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

const (
	colorPlaying = 0x3498db
	colorWin     = 0x2ecc71
	colorLose    = 0xe74c3c
	colorPush    = 0xf1c40f
)

func turnEmbed(v core.View, emojis Emojis) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       v.Title(),
		Description: fmt.Sprintf("<@%s>\n**Bet:** %d", v.UserID, v.Bet),
		Color:       embedColor(v),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Your hand", Value: handField(v.Cards, v.Value, v.Soft), Inline: true},
			{Name: "Dealer", Value: dealerField(v), Inline: true},
		},
	}
	if v.Status == core.StatusActive {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s hit · %s stay · %s double", emojis.Hit, emojis.Stay, emojis.Double),
		}
	}
	return embed
}

func embedColor(v core.View) int {
	switch {
	case v.Status == core.StatusBlackjack, v.Outcome == rules.OutcomeWin:
		return colorWin
	case v.Status == core.StatusBusted, v.Outcome == rules.OutcomeLose:
		return colorLose
	case v.Outcome == rules.OutcomeTie:
		return colorPush
	default:
		return colorPlaying
	}
}

func handField(cards []card.Card, value int, soft bool) string {
	total := fmt.Sprintf("%d", value)
	if soft {
		total = "soft " + total
	}
	return fmt.Sprintf("%s\nValue: **%s**", strings.Join(card.Strings(cards), " "), total)
}

func dealerField(v core.View) string {
	if !v.DealerHidden {
		return handField(v.DealerCards, v.DealerValue, false)
	}
	shown := append(card.Strings(v.DealerCards), "??")
	return fmt.Sprintf("%s\nValue: **%d**", strings.Join(shown, " "), v.DealerValue)
}

func noticeEmbed(title, text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: text,
		Color:       colorLose,
	}
}
