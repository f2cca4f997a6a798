package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) newLogsCmd() *cobra.Command {
	var level string
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent server log records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			records, err := c.client().Logs(ctx, level, limit)
			if err != nil {
				return fmt.Errorf("fetching logs: %w", err)
			}

			if c.jsonOutput {
				return c.outputJSON(records)
			}

			if len(records) == 0 {
				c.println("no log records")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Timestamp, r.Level, r.Module, r.Message)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "show only records of this level (debug, info, warn, error)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records to return (0 = server default)")
	return cmd
}
