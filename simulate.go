/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Seednode/tierclash/internal/rng"
	"github.com/Seednode/tierclash/internal/tierlist"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	turnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	judgeStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

type simulateOptions struct {
	seed    uint32
	packID  string
	players []string
}

func tierStyle(t tierlist.Tier) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Width(9).
		Align(lipgloss.Center).
		Foreground(lipgloss.Color("#111827")).
		Background(lipgloss.Color(t.Color()))
}

// simulate plays a whole game offline. Every placement is picked from a
// stream seeded like the deck, so the output only depends on opts.
func simulate(w io.Writer, opts simulateOptions) (tierlist.Session, error) {
	if len(opts.players) == 0 {
		return tierlist.Session{}, tierlist.ErrNoPlayers
	}

	seed := tierlist.Seed(opts.seed)

	players := make([]tierlist.Player, len(opts.players))
	for i, name := range opts.players {
		players[i] = tierlist.Player{ID: uuid.NewString(), Name: name}
	}

	s, err := tierlist.NewSession(players[0], seed)
	if err != nil {
		return tierlist.Session{}, err
	}

	for _, p := range players[1:] {
		s, err = tierlist.AddPlayer(s, p, len(players))
		if err != nil {
			return tierlist.Session{}, err
		}
	}

	if s, err = tierlist.Start(s); err != nil {
		return tierlist.Session{}, err
	}

	if s, err = tierlist.SelectPack(s, opts.packID, seed); err != nil {
		return tierlist.Session{}, err
	}

	pack, _ := s.Pack()
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s · seed %d · %d players", pack.Name, opts.seed, len(players))))
	fmt.Fprintln(w)

	picker := rng.New(opts.seed)
	tiers := tierlist.Tiers()

	for s.Phase == tierlist.PhaseActive {
		turn, err := s.Turn()
		if err != nil {
			return tierlist.Session{}, err
		}
		if turn.Card == nil {
			break
		}

		tier := tiers[picker.Int(0, len(tiers)-1)]

		fmt.Fprintf(w, "%s %s puts %s in %s\n",
			turnStyle.Render(fmt.Sprintf("turn %d", turn.Index+1)),
			judgeStyle.Render(turn.Judge.Name),
			turn.Card.Name,
			tier.Label(),
		)

		if s, err = tierlist.ConfirmPlacement(s, tier); err != nil {
			return tierlist.Session{}, err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, renderBoard(s))

	return s, nil
}

func renderBoard(s tierlist.Session) string {
	names := make(map[string]string, len(s.Players))
	for _, p := range s.Players {
		names[p.ID] = p.Name
	}

	rows := make([]string, 0, len(tierlist.Tiers()))
	for _, row := range s.Board() {
		items := make([]string, 0, len(row.Items))
		for _, p := range row.Items {
			items = append(items, p.Name+mutedStyle.Render(" ("+names[p.PlacedBy]+")"))
		}

		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			tierStyle(row.Tier).Render(row.Label),
			" "+strings.Join(items, ", "),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func newSimulateCmd(cfg *Config) *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a game offline and print the finished tier list.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := simulate(cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}

			logf(cfg, "SIMULATE: Finished %s after %d turns", s.PackID, s.TurnIndex)

			return nil
		},
	}

	fs := cmd.Flags()
	fs.Uint32Var(&opts.seed, "seed", 42, "game seed")
	fs.StringVar(&opts.packID, "pack", "mie-instan", "pack to play")
	fs.StringSliceVar(&opts.players, "players", []string{"Ana", "Budi", "Citra"}, "comma-separated player names, host first")

	return cmd
}
