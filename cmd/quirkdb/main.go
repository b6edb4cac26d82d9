// Command quirkdb is a CLI front-end for the embeddable document store:
// run one statement per invocation against a schema-indexed quirkdb
// database.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"})
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"})
	headerStyle = lipgloss.NewStyle().Bold(true)
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "quirkdb",
	Short: "quirkdb - an embeddable, schema-indexed document store",
	Long: `quirkdb exposes a restricted SQL dialect (INSERT, UPDATE, DELETE, BATCH,
SELECT with JOIN/WHERE/GROUP BY/ORDER BY/SKIP/LIMIT) over a persistent
ordered key-value engine with secondary in-memory indexes.

Examples:
  quirkdb query "SELECT * FROM users WHERE name='Ada'"
  quirkdb exec "INSERT INTO users VALUES {\"id\":\"u1\",\"name\":\"Ada\"}"
  quirkdb schema load ./schema.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to quirkdb.toml (default: ./quirkdb.toml)")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
