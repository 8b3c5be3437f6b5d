package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/rest"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/user"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/memory"
)

const (
	apiEmail   = "shopper@example.com"
	apiProduct = "prod-1"
)

func newAPI(t *testing.T) http.Handler {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	entry := logger.WithField("component", "test")

	users := memory.NewUserRepository()
	carts := memory.NewCartRepository()
	outbox := memory.NewOutboxRepository()
	catalog := memory.NewProductCatalog(
		domain.ProductSnapshot{ID: apiProduct, Name: "Ceramic Mug", Category: "Kitchen", CostMinor: 100},
		domain.ProductSnapshot{ID: "prod-2", Name: "Desk Lamp", Category: "Home", CostMinor: 250},
	)

	engine := cart.NewService(users, carts, catalog, memory.NewSettlementStore(users, carts, outbox), cart.Options{Logger: entry})
	userSvc := user.NewService(users, entry)
	resolver := user.NewEmailAuthResolver(users)

	return rest.NewRouter(engine, userSvc, resolver)
}

func doJSON(t *testing.T, api http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, api http.Handler) {
	t.Helper()
	rec := doJSON(t, api, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": apiEmail,
		"name":  "Shopper",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func setAddress(t *testing.T, api http.Handler) {
	t.Helper()
	rec := doJSON(t, api, http.MethodPut, "/api/v1/users/me/address", apiEmail, map[string]string{
		"address": "221B Baker Street, London NW1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRegister(t *testing.T) {
	api := newAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": apiEmail,
		"name":  "Shopper",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got struct {
		Email        string `json:"email"`
		BalanceMinor int64  `json:"balance_minor"`
		AddressSet   bool   `json:"address_set"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, apiEmail, got.Email)
	require.Equal(t, domain.DefaultBalanceMinor, got.BalanceMinor)
	require.False(t, got.AddressSet)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": apiEmail,
		"name":  "Another",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_InvalidEmail(t *testing.T) {
	api := newAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": "not-an-email",
		"name":  "Shopper",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnauthorizedWithoutBearer(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnauthorizedUnknownCredential(t *testing.T) {
	api := newAPI(t)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/cart", "ghost@example.com", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart_NotFound(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/cart", apiEmail, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddProduct(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, map[string]any{
		"product_id": apiProduct,
		"qty":        2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got struct {
		Lines      []json.RawMessage `json:"lines"`
		TotalMinor int64             `json:"total_minor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Lines, 1)
	require.EqualValues(t, 200, got.TotalMinor)
}

func TestAddProduct_DuplicateIsBadRequest(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	body := map[string]any{"product_id": apiProduct, "qty": 1}
	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddProduct_UnknownProduct(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, map[string]any{
		"product_id": "prod-unknown",
		"qty":        1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateQuantity(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, map[string]any{"product_id": apiProduct, "qty": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodPut, "/api/v1/cart", apiEmail, map[string]any{"product_id": apiProduct, "qty": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		TotalMinor int64 `json:"total_minor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.EqualValues(t, 500, got.TotalMinor)
}

func TestUpdateQuantity_NoCart(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPut, "/api/v1/cart", apiEmail, map[string]any{"product_id": apiProduct, "qty": 5})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveProduct(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, map[string]any{"product_id": apiProduct, "qty": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodDelete, "/api/v1/cart/"+apiProduct, apiEmail, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, api, http.MethodGet, "/api/v1/cart", apiEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Lines []json.RawMessage `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Empty(t, got.Lines)
}

func TestRemoveProduct_NotInCart(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, map[string]any{"product_id": apiProduct, "qty": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodDelete, "/api/v1/cart/prod-2", apiEmail, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetAddress_TooShort(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPut, "/api/v1/users/me/address", apiEmail, map[string]string{
		"address": "short st",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout(t *testing.T) {
	api := newAPI(t)
	register(t, api)
	setAddress(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, map[string]any{"product_id": apiProduct, "qty": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/api/v1/cart/checkout", apiEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var settled struct {
		Lines []json.RawMessage `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settled))
	require.Empty(t, settled.Lines)

	// Баланс после списания виден в профиле.
	rec = doJSON(t, api, http.MethodGet, "/api/v1/users/me", apiEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		BalanceMinor int64 `json:"balance_minor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, domain.DefaultBalanceMinor-200, me.BalanceMinor)
}

func TestCheckout_AddressNotSet(t *testing.T) {
	api := newAPI(t)
	register(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, map[string]any{"product_id": apiProduct, "qty": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/api/v1/cart/checkout", apiEmail, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_EmptyCartIsBadRequest(t *testing.T) {
	api := newAPI(t)
	register(t, api)
	setAddress(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/cart", apiEmail, map[string]any{"product_id": apiProduct, "qty": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, api, http.MethodDelete, "/api/v1/cart/"+apiProduct, apiEmail, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/api/v1/cart/checkout", apiEmail, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
