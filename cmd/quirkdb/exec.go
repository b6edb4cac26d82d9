package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quirkdb/quirkdb"
	"github.com/quirkdb/quirkdb/internal/config"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Run an INSERT, UPDATE, DELETE, or BATCH statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log := slog.New(slog.NewTextHandler(os.Stderr, nil))

		eng, err := quirkdb.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer eng.Close(context.Background())

		result, err := eng.Execute(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(accentStyle.Render(fmt.Sprintf("affected: %d", result.Affected())))
		return nil
	},
}
