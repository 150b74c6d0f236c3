package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sproutplan/sproutplan-api/internal/database"
	"github.com/sproutplan/sproutplan-api/internal/models"
	"github.com/ulule/limiter/v3"
)

// NewRatelimitCmd groups the rate limit subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage the request rate limit",
		Long:  "Show or update the per-IP rate limit stored in the database, in limiter syntax (5-S, 100-M, 1000-H).",
	}
	cmd.AddCommand(newRatelimitListCmd(), newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stored rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := database.NewRatelimitConfigRepository(db).Get(context.Background())
			if err != nil {
				return fmt.Errorf("failed to read ratelimit config: %w", err)
			}
			if c == nil {
				fmt.Println("No rate limit stored. The server seeds its default on startup. Use 'ratelimit set' to override.")
				return nil
			}
			fmt.Printf("Rate: %s\n", c.Rate)
			return nil
		},
	}
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a new rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
			}
			// Reject typos before they reach the reload loop.
			if _, err := limiter.NewRateFromFormatted(rate); err != nil {
				return fmt.Errorf("invalid rate %q: %w", rate, err)
			}

			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			c := &models.RatelimitConfig{Rate: rate}
			if err := database.NewRatelimitConfigRepository(db).Set(context.Background(), c); err != nil {
				return fmt.Errorf("failed to store ratelimit config: %w", err)
			}
			fmt.Println("Rate limit updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate in limiter syntax, e.g. 5-S (required)")
	return cmd
}
