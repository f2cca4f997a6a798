package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL statement ad-hoc, with no session required",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sql := strings.Join(args, " ")

			result, err := c.client().Execute(ctx, sql)
			if err != nil {
				return fmt.Errorf("executing query: %w", err)
			}

			if c.jsonOutput {
				return c.outputJSON(result)
			}

			if len(result.RowType) == 0 {
				c.printf("statement completed (rows affected: %d)\n", result.Total)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			names := make([]string, len(result.RowType))
			for i, col := range result.RowType {
				names[i] = col.Name
			}
			fmt.Fprintln(w, strings.Join(names, "\t"))

			for _, row := range result.RowSet {
				values := make([]string, len(row))
				for i, v := range row {
					values[i] = formatValue(v)
				}
				fmt.Fprintln(w, strings.Join(values, "\t"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			c.printf("(%d of %d rows)\n", result.Returned, result.Total)
			return nil
		},
	}
}

func formatValue(v *string) string {
	if v == nil {
		return "NULL"
	}
	return *v
}
