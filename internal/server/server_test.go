package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"products/internal/config"
	"products/internal/repositories"
	"products/internal/server"

	"github.com/dgrijalva/jwt-go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(body []byte) error {
	args := m.Called(body)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestHealthReportsBroker(t *testing.T) {
	cfg := config.Load(viper.New())

	app := server.New(cfg, repositories.NewMockProductRepository(), nil)
	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disabled", body["broker"])

	app = server.New(cfg, repositories.NewMockProductRepository(), new(MockPublisher))
	resp, err = app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "enabled", body["broker"])
}

func TestProxyHeaderIsApplied(t *testing.T) {
	cfg := config.Load(viper.New())
	cfg.ProxyHeader = "X-Forwarded-For"

	app := server.New(cfg, repositories.NewMockProductRepository(), nil)
	assert.Equal(t, "X-Forwarded-For", app.Fiber.Config().ProxyHeader)
}

func TestReadsArePublicAndWritesAreNot(t *testing.T) {
	app := server.New(config.Load(viper.New()), repositories.NewMockProductRepository(), nil)

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/v1/products", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(`{"name":"X","price":"1.00"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Fiber.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/products/x/events", bytes.NewBufferString(`{"quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Fiber.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDefaultConfigRejectsSelfSignedTokens(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	app := server.New(config.Load(viper.New()), repo, nil)
	assert.False(t, app.Auth.Enabled())

	for _, secret := range []string{"", "change_me"} {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "attacker",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(secret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(`{"name":"X","price":"1.00"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signed)
		resp, err := app.Fiber.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "secret %q", secret)
	}

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}
