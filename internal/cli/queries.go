package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) newQueriesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "queries",
		Short: "List recent query history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			records, err := c.client().Queries(ctx, limit)
			if err != nil {
				return fmt.Errorf("fetching queries: %w", err)
			}

			if c.jsonOutput {
				return c.outputJSON(records)
			}

			if len(records) == 0 {
				c.println("no query history")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUBMITTED\tDURATION\tOK\tROWS\tTEXT")
			for _, q := range records {
				text := q.Text
				if len(text) > 60 {
					text = text[:57] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%dms\t%v\t%d\t%s\n",
					q.ID, q.SubmitTime, q.DurationMs, q.Success, q.RowCount, text)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of records to return")
	return cmd
}
