// Command nestctl runs, validates and serves nesting scenarios.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.rootCmd().Execute(); err != nil {
		a.printError(err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) rootCmd() *cobra.Command {

	rootCmd := &cobra.Command{
		Use:   "nestctl",
		Short: "Run nested reactive cell scenarios",
		Long: `nestctl drives the nesting engine from YAML scenarios.

A scenario declares cells, a chain of steps from an outer cell to an
inner cell, an optional bound target and a script of writes. nestctl
runs the script and records which inner cell was published, what the
bound target held and which presence edges fired after every write.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configDir, "config", "C", ".", "Directory containing "+configFileName)
	flags.StringVar(&a.logLevel, "log-level", "", "Override the configured log level")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		runCmd(a),
		validateCmd(a),
		serveCmd(a),
		versionCmd(a),
	)
	return rootCmd
}

// success prints a success message.
func (a *app) success(format string, args ...any) {
	fmt.Fprintf(a.stdout, "%s %s\n", a.paint("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func (a *app) info(format string, args ...any) {
	fmt.Fprintf(a.stdout, "  %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func (a *app) errorMsg(format string, args ...any) {
	fmt.Fprintf(a.stdout, "%s %s\n", a.paint("\033[31m", "✗"), fmt.Sprintf(format, args...))
}

func (a *app) paint(code, text string) string {
	if a.noColor {
		return text
	}
	return code + text + "\033[0m"
}
