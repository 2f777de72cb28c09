package serve

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"products/internal/config"
	"products/internal/database"
	"products/internal/repositories"
	"products/internal/server"
	"products/internal/services"
	"products/pkg/rabbitmq"
)

const addrFlag = "addr"

var serveFlags = map[string]cobraflags.Flag{
	addrFlag: &cobraflags.StringFlag{
		Name:  addrFlag,
		Value: "",
		Usage: "Listen address, overrides APP_PORT",
	},
}

func NewServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the products HTTP API",
		Long: `Run the products HTTP API.

The products table is migrated on startup. When RABBITMQ_URL is set, product update
events are published to RABBITMQ_QUEUE and consumed by this process; otherwise they
are applied as they arrive.`,
		RunE: serveCommand,
	}
	cobraflags.RegisterMap(serveCmd, serveFlags)
	return serveCmd
}

func serveCommand(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	if addr := serveFlags[addrFlag].GetString(); addr != "" {
		cfg.AppPort = addr
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	repo := repositories.NewGORMProductRepository(db)

	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:        cfg.RabbitMQURL,
			Queue:      cfg.RabbitMQQueue,
			RetryDelay: cfg.RabbitMQRetry,
		})
		if err != nil {
			return err
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Println("RABBITMQ_URL is empty, update events are applied inline")
	}

	app := server.New(cfg, repo, publisher)
	if !app.Auth.Enabled() {
		log.Println("JWT_SECRET or ADMIN_PASSWORD_HASH is empty, product writes are rejected")
	}

	if mqClient != nil {
		if err := mqClient.Consume(app.Products.HandleUpdateMessage); err != nil {
			return fmt.Errorf("failed to start update consumer: %w", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", cfg.AppPort)
		listenErr <- app.Fiber.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Println("Shutting down server...")
	if err := app.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}
