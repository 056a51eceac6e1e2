package main

import (
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/mstanoev/agentcoord/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentcoord-migrate",
	Short: "Apply schema migrations for the Postgres state backend",
	Run: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		flagVal, _ := cmd.Flags().GetString("db")
		connStr := cli.DatabaseConnStr(flagVal)
		if connStr == "" {
			fmt.Fprintln(os.Stderr, "Error: set --db or the DB_USERNAME, DB_PASSWORD, DB_HOST, DB_PORT and DB_NAME environment variables")
			os.Exit(1)
		}

		m, err := migrate.New("file://migrations", connStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize migrations: %v\n", err)
			os.Exit(1)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			fmt.Fprintf(os.Stderr, "Failed to apply migrations: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied")
	},
}

func main() {
	rootCmd.Flags().String("db", "", "Postgres connection string (falls back to DB_* env vars)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
