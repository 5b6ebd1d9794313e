// Subcommands for the shelf CLI.
package main

import (
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/shelf/internal/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default shelf.yaml and verify the database opens",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := paths.ResolveConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		if err := writeDefaultConfig(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		conn, err := openConnection()
		if err != nil {
			return err
		}
		defer conn.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", path)
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Open the configured database and report the dialect",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openConnection()
		if err != nil {
			return err
		}
		defer conn.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "ok (%s, %s count)\n",
			conn.Dialect(), conn.CountStrategy())
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count <table>",
	Short: "Count rows in a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openConnection()
		if err != nil {
			return err
		}
		defer conn.Close()

		sqlText, sqlArgs, err := sq.Select("COUNT(*)").From(args[0]).ToSql()
		if err != nil {
			return fmt.Errorf("building count: %w", err)
		}
		row, err := conn.QueryRow(sqlText, sqlArgs...)
		if err != nil {
			return err
		}
		var n int64
		if err := row.Scan(&n); err != nil {
			return fmt.Errorf("counting %s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Run a statement and print result rows as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openConnection()
		if err != nil {
			return err
		}
		defer conn.Close()

		rows, err := conn.Query(args[0])
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("reading columns: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for rows.Next() {
			raws := make([]any, len(cols))
			holders := make([]any, len(cols))
			for i := range raws {
				holders[i] = &raws[i]
			}
			if err := rows.Scan(holders...); err != nil {
				return fmt.Errorf("scanning row: %w", err)
			}

			record := make(map[string]any, len(cols))
			for i, col := range cols {
				if b, ok := raws[i].([]byte); ok {
					record[col] = string(b)
				} else {
					record[col] = raws[i]
				}
			}
			if err := enc.Encode(record); err != nil {
				return err
			}
		}
		return rows.Err()
	},
}
