package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalmart/storefront/internal/stock/application"
	"github.com/coalmart/storefront/internal/stock/domain"
	"github.com/coalmart/storefront/internal/stock/infrastructure/memory"
)

func TestListProductsEndpoint(t *testing.T) {
	svc := application.NewService(memory.NewRepository())
	ctx := context.Background()

	id, err := svc.AddProduct(ctx, domain.Product{Name: "anthracite", PriceCents: 1500, InStock: 5})
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, domain.Product{Name: "lignite", PriceCents: 900, InStock: 0})
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(slog.Default(), svc).Routes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []productResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 1)
	assert.Equal(t, id, products[0].ID)
	assert.Equal(t, "anthracite", products[0].Name)
	assert.Equal(t, 5, products[0].InStock)
}
