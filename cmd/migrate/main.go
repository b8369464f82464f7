package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"launchpad/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir, databaseURL string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the launchpad database migrations",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "path", "migrations", "directory with the SQL migrations")
	root.PersistentFlags().StringVar(&databaseURL, "database", "", "postgres URL (default: built from DB_* variables)")

	open := func() (*config.Migrator, error) {
		url := databaseURL
		if url == "" {
			url = config.MigrationURL()
		}
		return config.NewMigrator(dir, url)
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Up(); err != nil {
				return err
			}
			cmd.Println("Database migrations completed successfully")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid steps %q: %w", args[0], err)
				}
				steps = n
			}
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Down(steps); err != nil {
				return err
			}
			cmd.Printf("Rolled back %d migration(s)\n", steps)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return root
}
