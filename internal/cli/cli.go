// Package cli implements snowglobectl, the operator CLI: a thin client
// over a running server's /api/... surface (see internal/adminclient).
// It never touches the Snowflake session/query wire protocol.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowglobe/snowglobe/internal/adminclient"
)

// Exit codes.
const (
	ExitSuccess  = 0
	ExitUsage    = 1
	ExitUnreach  = 2
	ExitInternal = 3
)

// Version is set at build time via -ldflags.
var Version = "dev"

// CLI holds snowglobectl's command-line state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *cliConfig

	configPath string
	endpoint   string
	jsonOutput bool
	quiet      bool
}

// New creates a snowglobectl CLI instance.
func New() *CLI {
	c := &CLI{}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI and returns a process exit code.
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		return ExitInternal
	}
	return ExitSuccess
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snowglobectl",
		Short: "Operator CLI for a snowglobe server",
		Long: `snowglobectl talks only to a snowglobe server's /api/... operator
surface - it never speaks the Snowflake session/query wire protocol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./snowglobectl.yaml)")
	cmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "server endpoint (overrides config)")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")

	cmd.AddCommand(c.newStatusCmd())
	cmd.AddCommand(c.newSessionsCmd())
	cmd.AddCommand(c.newQueriesCmd())
	cmd.AddCommand(c.newDatabasesCmd())
	cmd.AddCommand(c.newQueryCmd())
	cmd.AddCommand(c.newLogsCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if c.endpoint != "" {
		c.cfg.Endpoint = c.endpoint
	}
	return nil
}

func (c *CLI) client() *adminclient.Client {
	return adminclient.New(c.cfg.Endpoint)
}

func (c *CLI) printf(format string, args ...interface{}) {
	if !c.quiet {
		fmt.Printf(format, args...)
	}
}

func (c *CLI) println(args ...interface{}) {
	if !c.quiet {
		fmt.Println(args...)
	}
}

func (c *CLI) errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}
