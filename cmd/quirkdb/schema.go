package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quirkdb/quirkdb/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect or validate a table schema file",
}

var schemaLoadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load and validate a schema file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := schema.New()
		if err := reg.LoadFile(args[0]); err != nil {
			return err
		}
		tables := reg.Tables()
		fmt.Println(headerStyle.Render(fmt.Sprintf("loaded %d table(s)", len(tables))))
		for _, t := range tables {
			fmt.Println(accentStyle.Render("  " + t))
		}
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaLoadCmd)
}
