package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List active sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sessions, err := c.client().Sessions(ctx)
			if err != nil {
				return fmt.Errorf("fetching sessions: %w", err)
			}

			if c.jsonOutput {
				return c.outputJSON(sessions)
			}

			if len(sessions) == 0 {
				c.println("no active sessions")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION ID\tUSER\tDATABASE\tSCHEMA\tWAREHOUSE\tROLE\tTOKEN\tLAST TOUCH")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t...%s\t%s\n",
					s.SessionID, s.User, s.Database, s.Schema, s.Warehouse, s.Role, s.TokenSuffix, s.LastTouch)
			}
			return w.Flush()
		},
	}
}
