package main

import (
	"os"

	"github.com/spf13/cobra"

	"products/cmd/migrate"
	"products/cmd/serve"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "products",
		Short: "Product catalogue service backed by the products table",
		Long: `Product catalogue service backed by the products table.

Configuration is read from the environment: APP_PORT, DB_DRIVER, DATABASE_DSN,
RABBITMQ_URL, RABBITMQ_QUEUE, JWT_SECRET, TOKEN_TTL, ADMIN_USERNAME,
ADMIN_PASSWORD_HASH, EVENT_RATE_LIMIT, EVENT_RATE_BURST, RABBITMQ_RETRY_DELAY
and PROXY_HEADER.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serve.NewServeCommand())
	rootCmd.AddCommand(migrate.NewMigrateCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
