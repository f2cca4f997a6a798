package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newDatabasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "databases [database] [schema]",
		Short: "List databases, schemas, or objects",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := c.client()

			switch len(args) {
			case 0:
				dbs, err := client.Databases(ctx)
				if err != nil {
					return fmt.Errorf("fetching databases: %w", err)
				}
				if c.jsonOutput {
					return c.outputJSON(dbs)
				}
				for _, db := range dbs {
					c.println(db)
				}
				return nil

			case 1:
				schemas, err := client.Schemas(ctx, args[0])
				if err != nil {
					return fmt.Errorf("fetching schemas: %w", err)
				}
				if c.jsonOutput {
					return c.outputJSON(schemas)
				}
				for _, s := range schemas {
					c.println(s)
				}
				return nil

			default:
				objects, err := client.Objects(ctx, args[0], args[1])
				if err != nil {
					return fmt.Errorf("fetching objects: %w", err)
				}
				if c.jsonOutput {
					return c.outputJSON(objects)
				}
				for _, o := range objects {
					c.printf("%s\t%s\n", o.Kind, o.Name)
				}
				return nil
			}
		},
	}
}
