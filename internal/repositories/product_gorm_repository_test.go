package repositories_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"products/internal/database"
	"products/internal/models"
	"products/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSQLiteRepository returns a repository over a private in-memory database.
func newSQLiteRepository(t *testing.T) *repositories.GORMProductRepository {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return repositories.NewGORMProductRepository(db)
}

// repositoryContract runs the behaviour shared by every ProductRepository implementation.
func repositoryContract(t *testing.T, newRepo func(t *testing.T) repositories.ProductRepository) {
	t.Run("CreateAssignsID", func(t *testing.T) {
		repo := newRepo(t)
		p := &models.Product{Name: "Keyboard", Quantity: 25, Price: decimal.RequireFromString("75.00")}
		require.NoError(t, repo.Create(p))
		_, err := uuid.Parse(p.ID)
		assert.NoError(t, err)
	})

	t.Run("PriceRoundTripsExactly", func(t *testing.T) {
		repo := newRepo(t)
		p := &models.Product{ID: "prod-1", Name: "Mouse", Quantity: 50, Price: decimal.RequireFromString("19.99")}
		require.NoError(t, repo.Create(p))

		got, err := repo.GetByID("prod-1")
		require.NoError(t, err)
		assert.Equal(t, "Mouse", got.Name)
		assert.Equal(t, int32(50), got.Quantity)
		assert.True(t, decimal.RequireFromString("19.99").Equal(got.Price), "got price %s", got.Price)
		assert.Equal(t, "19.99", got.Price.StringFixed(2))
	})

	t.Run("DuplicateIDRejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(&models.Product{ID: "dup", Name: "First", Price: decimal.NewFromInt(1)}))
		err := repo.Create(&models.Product{ID: "dup", Name: "Second", Price: decimal.NewFromInt(2)})
		assert.ErrorIs(t, err, repositories.ErrDuplicateProduct)

		got, err := repo.GetByID("dup")
		require.NoError(t, err)
		assert.Equal(t, "First", got.Name)
	})

	t.Run("LongNameRejected", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Create(&models.Product{ID: "long", Name: strings.Repeat("x", 101), Price: decimal.NewFromInt(1)})
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs), "expected validation error, got %v", err)
		assert.Equal(t, "name", verrs[0].Field())

		_, err = repo.GetByID("long")
		assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	})

	t.Run("ExcessPricePrecisionRejected", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Create(&models.Product{ID: "p", Name: "Cable", Price: decimal.RequireFromString("1.005")})
		var verrs validator.ValidationErrors
		assert.True(t, errors.As(err, &verrs))
	})

	t.Run("GetAllOrdersByID", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, repo.Create(&models.Product{ID: id, Name: "Item " + id, Price: decimal.NewFromInt(1)}))
		}
		all, err := repo.GetAll()
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	})

	t.Run("UpdateOverwritesFields", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(&models.Product{ID: "u", Name: "Old", Quantity: 3, Price: decimal.RequireFromString("10.00")}))

		require.NoError(t, repo.Update(&models.Product{ID: "u", Name: "New", Quantity: 0, Price: decimal.RequireFromString("12.50")}))
		got, err := repo.GetByID("u")
		require.NoError(t, err)
		assert.Equal(t, "New", got.Name)
		assert.Equal(t, int32(0), got.Quantity)
		assert.True(t, decimal.RequireFromString("12.5").Equal(got.Price))
	})

	t.Run("UpdateMissingDoesNotInsert", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Update(&models.Product{ID: "ghost", Name: "Ghost", Price: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, repositories.ErrProductNotFound)

		_, err = repo.GetByID("ghost")
		assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	})

	t.Run("ApplyUpdateWritesOnlyCarriedFields", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(&models.Product{ID: "e", Name: "Widget", Quantity: 3, Price: decimal.RequireFromString("10.00")}))

		newPrice := decimal.RequireFromString("12.50")
		got, err := repo.ApplyUpdate(models.ProductUpdateEvent{ProductID: "e", Price: &newPrice})
		require.NoError(t, err)
		assert.True(t, newPrice.Equal(got.Price))
		assert.Equal(t, int32(3), got.Quantity)
		assert.Equal(t, "Widget", got.Name)

		stored, err := repo.GetByID("e")
		require.NoError(t, err)
		assert.True(t, newPrice.Equal(stored.Price))
		assert.Equal(t, int32(3), stored.Quantity)
	})

	t.Run("ApplyUpdateRejectsInvalidMerge", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(&models.Product{ID: "e", Name: "Widget", Quantity: 3, Price: decimal.RequireFromString("10.00")}))

		tooPrecise := decimal.RequireFromString("1.999")
		_, err := repo.ApplyUpdate(models.ProductUpdateEvent{ProductID: "e", Price: &tooPrecise})
		var verrs validator.ValidationErrors
		assert.True(t, errors.As(err, &verrs), "expected validation error, got %v", err)

		stored, err := repo.GetByID("e")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("10.00").Equal(stored.Price))
	})

	t.Run("ApplyUpdateMissingProduct", func(t *testing.T) {
		repo := newRepo(t)
		qty := int32(1)
		_, err := repo.ApplyUpdate(models.ProductUpdateEvent{ProductID: "ghost", Quantity: &qty})
		assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	})

	t.Run("ConcurrentEventsKeepEachOthersFields", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(&models.Product{ID: "c", Name: "Widget", Quantity: 1, Price: decimal.RequireFromString("1.00")}))

		for round := int32(1); round <= 20; round++ {
			newPrice := decimal.NewFromInt32(round).Add(decimal.RequireFromString("0.99"))
			newQty := round * 10

			start := make(chan struct{})
			errs := make(chan error, 2)
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				<-start
				_, err := repo.ApplyUpdate(models.ProductUpdateEvent{ProductID: "c", Price: &newPrice})
				errs <- err
			}()
			go func() {
				defer wg.Done()
				<-start
				_, err := repo.ApplyUpdate(models.ProductUpdateEvent{ProductID: "c", Quantity: &newQty})
				errs <- err
			}()
			close(start)
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			got, err := repo.GetByID("c")
			require.NoError(t, err)
			require.True(t, newPrice.Equal(got.Price), "round %d: price %s", round, got.Price)
			require.Equal(t, newQty, got.Quantity, "round %d", round)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(&models.Product{ID: "d", Name: "Doomed", Price: decimal.NewFromInt(1)}))
		require.NoError(t, repo.Delete("d"))
		assert.ErrorIs(t, repo.Delete("d"), repositories.ErrProductNotFound)

		_, err := repo.GetByID("d")
		assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	})
}

func TestGORMProductRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) repositories.ProductRepository {
		return newSQLiteRepository(t)
	})
}

func TestMockProductRepository(t *testing.T) {
	repositoryContract(t, func(t *testing.T) repositories.ProductRepository {
		return repositories.NewMockProductRepository()
	})
}

func TestMockProductRepository_ReturnsCopies(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	p := &models.Product{ID: "c", Name: "Original", Price: decimal.NewFromInt(1)}
	require.NoError(t, repo.Create(p))

	p.Name = "Mutated after create"
	got, err := repo.GetByID("c")
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Name)

	got.Name = "Mutated after get"
	again, err := repo.GetByID("c")
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
}
