package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

// bustKey collects every dealer total over 21.
const bustKey = 0

func newSimCmd() *cobra.Command {
	defaults := core.DefaultConfig()
	var (
		rounds  int
		decks   int
		standOn int
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Simulate dealer hands and print the distribution of final totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if seed == 0 {
				s, err := card.NewSeed()
				if err != nil {
					return err
				}
				seed = s
			}
			totals, err := simulateDealer(rounds, decks, standOn, seed)
			if err != nil {
				return err
			}
			pterm.DefaultSection.Printfln("Dealer stands on %d, %d deck shoe, %d hands", standOn, decks, rounds)
			return pterm.DefaultTable.WithHasHeader().WithData(distributionTable(totals, rounds, standOn)).Render()
		},
	}
	cmd.Flags().IntVarP(&rounds, "rounds", "n", 10000, "number of dealer hands")
	cmd.Flags().IntVar(&decks, "decks", defaults.ShoeDecks, "decks in the shoe")
	cmd.Flags().IntVar(&standOn, "stand-on", defaults.DealerStandsOn, "total the dealer stands on")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "shoe seed (random when 0)")
	return cmd
}

// simulateDealer plays rounds dealer hands from one shoe and counts their
// final totals; busts are counted under bustKey.
func simulateDealer(rounds, decks, standOn int, seed uint64) (map[int]int, error) {
	if rounds <= 0 {
		return nil, errors.New("rounds must be positive")
	}
	shoe, err := card.NewShoe(decks, seed)
	if err != nil {
		return nil, err
	}

	totals := make(map[int]int)
	for range rounds {
		hand, err := shoe.Draw(2)
		if err != nil {
			return nil, err
		}
		hand, err = rules.DealerPlay(hand, shoe, standOn)
		if err != nil {
			return nil, err
		}
		v := rules.Value(hand)
		if rules.IsBust(v) {
			v = bustKey
		}
		totals[v]++
	}
	return totals, nil
}

func distributionTable(totals map[int]int, rounds, standOn int) pterm.TableData {
	data := pterm.TableData{{"Total", "Hands", "Share"}}
	row := func(label string, n int) {
		share := float64(n) / float64(rounds) * 100
		data = append(data, []string{label, strconv.Itoa(n), fmt.Sprintf("%.2f%%", share)})
	}
	for v := standOn; v <= rules.Blackjack; v++ {
		row(strconv.Itoa(v), totals[v])
	}
	row("Bust", totals[bustKey])
	return data
}
