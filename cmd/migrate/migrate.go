package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"products/internal/config"
	"products/internal/database"
	"products/internal/models"
	"products/internal/repositories"
)

const seedFlag = "seed"

var migrateFlags = map[string]cobraflags.Flag{
	seedFlag: &cobraflags.StringFlag{
		Name:  seedFlag,
		Value: "",
		Usage: "JSON file with an array of products to insert after migrating",
	},
}

func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the products table",
		Long: `Create or update the products table in the database selected by DB_DRIVER and DATABASE_DSN.

With --seed, products from the given JSON file are inserted afterwards. Products whose
id already exists are skipped.`,
		RunE: migrateCommand,
	}
	cobraflags.RegisterMap(migrateCmd, migrateFlags)
	return migrateCmd
}

func migrateCommand(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	seedPath := migrateFlags[seedFlag].GetString()
	if seedPath == "" {
		return nil
	}
	seeded, err := SeedFile(repositories.NewGORMProductRepository(db), seedPath)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d products from %s", seeded, seedPath)
	return nil
}

// SeedFile inserts the products listed in the JSON file at path and returns how many were created.
func SeedFile(repo repositories.ProductRepository, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return seedProducts(repo, products)
}

func seedProducts(repo repositories.ProductRepository, products []models.Product) (int, error) {
	seeded := 0
	for i := range products {
		err := repo.Create(&products[i])
		switch {
		case err == nil:
			seeded++
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		case errors.Is(err, repositories.ErrDuplicateProduct):
			log.Printf("Skipping product %s: %v", products[i].ID, err)
		default:
			return seeded, fmt.Errorf("failed to seed product %q: %w", products[i].Name, err)
		}
	}
	return seeded, nil
}
