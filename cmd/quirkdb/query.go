package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quirkdb/quirkdb"
	"github.com/quirkdb/quirkdb/internal/config"
)

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a SELECT statement and print its result rows",
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

		rows, err := eng.Query(ctx, args[0])
		if err != nil {
			return err
		}
		printRows(rows)
		return nil
	},
}

func printRows(rows []*quirkdb.Row) {
	if len(rows) == 0 {
		fmt.Println(accentStyle.Render("(0 rows)"))
		return
	}

	fields := rows[0].Fields()
	fmt.Println(headerStyle.Render(strings.Join(fields, "\t")))
	for _, r := range rows {
		vals := make([]string, len(fields))
		for i, f := range fields {
			vals[i] = r.GetOr(f)
		}
		fmt.Println(strings.Join(vals, "\t"))
	}
}
