package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"lb"},
		Short:   "Leaderboard operations",
	}

	cmd.AddCommand(newLeaderboardTopCmd())
	cmd.AddCommand(newLeaderboardAroundCmd())
	cmd.AddCommand(newLeaderboardResetCmd())

	return cmd
}

func newLeaderboardTopCmd() *cobra.Command {
	var limit, offset int64

	cmd := &cobra.Command{
		Use:   "top <name>",
		Short: "Show a leaderboard page (all_time, weekly, daily)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Page

			path := fmt.Sprintf("/api/v1/leaderboards/%s?limit=%d&offset=%d",
				args[0], limit, offset)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 10, "Page size")
	cmd.Flags().Int64Var(&offset, "offset", 0, "Page offset")

	return cmd
}

func newLeaderboardAroundCmd() *cobra.Command {
	var radius int64

	cmd := &cobra.Command{
		Use:   "around <name> <player-id>",
		Short: "Show a player's rank and the players around them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayerContext

			path := fmt.Sprintf("/api/v1/leaderboards/%s/players/%s/context?radius=%d",
				args[0], args[1], radius)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&radius, "radius", 2, "Players above and below to include")

	return cmd
}

func newLeaderboardResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <name>",
		Short: "Clear a leaderboard (admin rollover)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/leaderboards/%s/reset", args[0])
			if err := client.Post(path, nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Leaderboard %s reset", args[0]))
			return nil
		},
	}
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <player-id> <score>",
		Short: "Push a player's total score to all leaderboards",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid score: %s", args[1])
			}

			body := map[string]any{
				"player_id": args[0],
				"score":     score,
			}

			var result RankUpdate
			if err := client.Post("/api/v1/scores", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if result.PlayerID == "" {
				// 204: accepted but no board produced a rank
				out.PrintMessage("Score accepted (no rank available)")
				return nil
			}
			out.Print(result)
			return nil
		},
	}
}

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <player-id>",
		Short: "Remove a player from all leaderboards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/players/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Player %s removed", args[0]))
			return nil
		},
	})

	cmd.AddCommand(newPlayerReportCmd())
	cmd.AddCommand(newPlayerTapsCmd())

	return cmd
}

func newPlayerReportCmd() *cobra.Command {
	var windowHours int

	cmd := &cobra.Command{
		Use:   "report <player-id>",
		Short: "Run bot-behavior analysis over a player's recent sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BotReport

			path := fmt.Sprintf("/api/v1/players/%s/bot-report?window_hours=%d",
				args[0], windowHours)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&windowHours, "window-hours", 24, "Analysis window in hours")

	return cmd
}

func newPlayerTapsCmd() *cobra.Command {
	var windowSeconds int

	cmd := &cobra.Command{
		Use:   "taps <player-id>",
		Short: "List a player's taps in a recent window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []TapEvent

			path := fmt.Sprintf("/api/v1/players/%s/taps?window_seconds=%d",
				args[0], windowSeconds)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&windowSeconds, "window-seconds", 60, "Window in seconds")

	return cmd
}
