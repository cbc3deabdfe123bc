package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalmart/storefront/internal/httpapi"
	"github.com/coalmart/storefront/internal/reservation/application"
	"github.com/coalmart/storefront/internal/reservation/infrastructure/memory"
	stockapp "github.com/coalmart/storefront/internal/stock/application"
	stockdomain "github.com/coalmart/storefront/internal/stock/domain"
	stockmemory "github.com/coalmart/storefront/internal/stock/infrastructure/memory"
)

func newTestServer(t *testing.T, stock int) (*httptest.Server, int64) {
	t.Helper()
	stockSvc := stockapp.NewService(stockmemory.NewRepository())
	id, err := stockSvc.AddProduct(context.Background(), stockdomain.Product{
		Name:       "anthracite",
		PriceCents: 1500,
		InStock:    stock,
	})
	require.NoError(t, err)

	svc := application.NewService(memory.NewStore(stockSvc), stockSvc, 0)
	srv := httptest.NewServer(NewHandler(slog.Default(), svc).Routes())
	t.Cleanup(srv.Close)
	return srv, id
}

func doPost(t *testing.T, srv *httptest.Server, path string, shopper int64, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if shopper != 0 {
		req.AddCookie(&http.Cookie{Name: httpapi.ShopperCookie, Value: strconv.FormatInt(shopper, 10)})
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func doGet(t *testing.T, srv *httptest.Server, path string, shopper int64) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if shopper != 0 {
		req.AddCookie(&http.Cookie{Name: httpapi.ShopperCookie, Value: strconv.FormatInt(shopper, 10)})
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAddToCartEndpoint(t *testing.T) {
	srv, id := newTestServer(t, 5)
	path := "/add/" + strconv.FormatInt(id, 10)

	resp := doPost(t, srv, path, 7, url.Values{"quantity": {"3"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cart []cartItemResp
	resp = doGet(t, srv, "/", 7)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	require.Len(t, cart, 1)
	assert.Equal(t, id, cart[0].ProductID)
	assert.Equal(t, "anthracite", cart[0].Name)
	assert.Equal(t, 3, cart[0].Quantity)
}

func TestAddToCartEndpoint_DefaultsQuantityToOne(t *testing.T) {
	srv, id := newTestServer(t, 5)

	resp := doPost(t, srv, "/add/"+strconv.FormatInt(id, 10), 7, url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cart []cartItemResp
	resp = doGet(t, srv, "/", 7)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	require.Len(t, cart, 1)
	assert.Equal(t, 1, cart[0].Quantity)
}

func TestAddToCartEndpoint_Errors(t *testing.T) {
	srv, id := newTestServer(t, 2)
	path := "/add/" + strconv.FormatInt(id, 10)

	tests := []struct {
		name    string
		path    string
		shopper int64
		form    url.Values
		want    int
	}{
		{"missing shopper cookie", path, 0, url.Values{}, http.StatusBadRequest},
		{"zero quantity", path, 7, url.Values{"quantity": {"0"}}, http.StatusBadRequest},
		{"negative quantity", path, 7, url.Values{"quantity": {"-1"}}, http.StatusBadRequest},
		{"malformed quantity", path, 7, url.Values{"quantity": {"lots"}}, http.StatusBadRequest},
		{"over the cap", path, 7, url.Values{"quantity": {"100"}}, http.StatusBadRequest},
		{"more than in stock", path, 7, url.Values{"quantity": {"3"}}, http.StatusConflict},
		{"unknown product", "/add/999", 7, url.Values{}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doPost(t, srv, tc.path, tc.shopper, tc.form)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestRemoveFromCartEndpoint(t *testing.T) {
	srv, id := newTestServer(t, 5)
	path := strconv.FormatInt(id, 10)

	resp := doPost(t, srv, "/remove/"+path, 7, url.Values{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doPost(t, srv, "/add/"+path, 7, url.Values{"quantity": {"2"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doPost(t, srv, "/remove/"+path, 7, url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cart []cartItemResp
	resp = doGet(t, srv, "/", 7)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	assert.Empty(t, cart)
}

func TestViewCartEndpoint_EmptyCartIsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	resp := doGet(t, srv, "/", 7)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cart []cartItemResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cart))
	assert.Empty(t, cart)
}
