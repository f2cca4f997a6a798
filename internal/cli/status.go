package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and query/session stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := c.client()

			health, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("fetching health: %w", err)
			}
			stats, err := client.Stats(ctx)
			if err != nil {
				return fmt.Errorf("fetching stats: %w", err)
			}

			if c.jsonOutput {
				return c.outputJSON(map[string]interface{}{
					"health": health,
					"stats":  stats,
				})
			}

			c.printf("status:          %v\n", health["status"])
			c.printf("version:         %v\n", health["version"])
			c.printf("uptime:          %ds\n", stats.UptimeSeconds)
			c.printf("active sessions: %d\n", stats.ActiveSessions)
			c.printf("total queries:   %d (%d ok, %d failed)\n",
				stats.TotalQueries, stats.SuccessfulQueries, stats.FailedQueries)
			c.printf("avg duration:    %.1fms\n", stats.AverageQueryDuration)
			return nil
		},
	}
}

func (c *CLI) outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
