package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/sec"
	"github.com/brioso/stockroom/internal/storage"
	"github.com/brioso/stockroom/internal/storage/db"
)

func newTestAPI(t *testing.T) (*echo.Echo, storage.Store) {
	t.Helper()

	store, err := storage.NewDB(
		t.Context(),
		slog.New(slog.DiscardHandler),
		filepath.Join(t.TempDir(), "db.sqlite"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for name, role := range map[string]string{"boss": "admin", "clerk": "user"} {
		hash, err := sec.HashPassword("secret")
		require.NoError(t, err)
		require.NoError(t, store.UpsertUser(t.Context(), db.User{
			Name: name, PasswordHash: hash, Role: role,
		}))
	}

	svc := inventory.New(store, slog.New(slog.DiscardHandler))
	return New(slog.New(slog.DiscardHandler), store, svc), store
}

func doJSON(e *echo.Echo, method, path, user, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		req.SetBasicAuth(user, "secret")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodGet, "/v1/products", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductsPagination(t *testing.T) {
	t.Parallel()

	e, _ := newTestAPI(t)

	for _, name := range []string{"Almonds", "Butter", "Cocoa", "Dates"} {
		body := fmt.Sprintf(`{"barcode":%q,"name":%q}`, "800"+name, name)
		rec := doJSON(e, http.MethodPost, "/v1/products", "clerk", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(e, http.MethodGet, "/v1/products?page_size=3", "clerk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page1 := decode[productList](t, rec)
	require.Len(t, page1.Products, 3)
	assert.Equal(t, "Almonds", page1.Products[0].Name)
	require.NotEmpty(t, page1.NextPageToken)

	rec = doJSON(e, http.MethodGet, "/v1/products?page_size=3&page_token="+page1.NextPageToken, "clerk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page2 := decode[productList](t, rec)
	require.Len(t, page2.Products, 1)
	assert.Equal(t, "Dates", page2.Products[0].Name)
	assert.Empty(t, page2.NextPageToken)

	rec = doJSON(e, http.MethodGet, "/v1/products?page_token=garbage", "clerk", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScan(t *testing.T) {
	t.Parallel()

	e, store := newTestAPI(t)

	_, err := store.CreateProduct(t.Context(), db.Product{
		Barcode: "5901234123457", Name: "Honey",
	})
	require.NoError(t, err)

	t.Run("known code", func(t *testing.T) {
		t.Parallel()
		rec := doJSON(e, http.MethodPost, "/v1/scan", "clerk",
			`{"code":"5901234123457","mode":"out"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[scanResponse](t, rec)
		assert.True(t, res.Found)
		require.NotNil(t, res.Product)
		assert.Equal(t, "Honey", res.Product.Name)
	})

	t.Run("unknown code on receive", func(t *testing.T) {
		t.Parallel()
		rec := doJSON(e, http.MethodPost, "/v1/scan", "clerk",
			`{"code":"0000000000000","mode":"in"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[scanResponse](t, rec)
		assert.False(t, res.Found)
		assert.Nil(t, res.Product)
	})

	t.Run("unknown code on consume", func(t *testing.T) {
		t.Parallel()
		rec := doJSON(e, http.MethodPost, "/v1/scan", "clerk",
			`{"code":"0000000000000","mode":"out"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Parallel()
		rec := doJSON(e, http.MethodPost, "/v1/scan", "clerk",
			`{"code":"5901234123457","mode":"sideways"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBatchFlow(t *testing.T) {
	t.Parallel()

	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodPost, "/v1/products", "clerk",
		`{"barcode":"4006381333931","name":"Vanilla","unit_price":12.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[product](t, rec)

	rec = doJSON(e, http.MethodPost,
		fmt.Sprintf("/v1/products/%d/batches", created.ID), "clerk",
		`{"quantity":8,"expiry_date":"2027-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[batch](t, rec)
	assert.InDelta(t, 8.0, added.QuantityCurrent, 0.001)
	require.NotNil(t, added.ExpiryDate)
	assert.Equal(t, "clerk", added.CreatedBy)

	rec = doJSON(e, http.MethodPost,
		fmt.Sprintf("/v1/batches/%d/consume", added.ID), "clerk",
		`{"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 5.0, decode[consumeResponse](t, rec).Remaining, 0.001)

	rec = doJSON(e, http.MethodPost,
		fmt.Sprintf("/v1/batches/%d/consume", added.ID), "clerk",
		`{"quantity":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/v1/products/%d", created.ID), "clerk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[productDetail](t, rec)
	assert.InDelta(t, 5.0, detail.TotalQuantity, 0.001)
	require.Len(t, detail.Batches, 1)

	rec = doJSON(e, http.MethodGet, "/v1/movements", "clerk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	movements := decode[movementList](t, rec)
	require.Len(t, movements.Movements, 3)
	assert.Equal(t, inventory.ActionOut, movements.Movements[0].Action)
	assert.Equal(t, "clerk", movements.Movements[0].UserName)

	rec = doJSON(e, http.MethodGet, "/v1/export.csv", "clerk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "4006381333931,Vanilla")
}

func TestUsersAdminOnly(t *testing.T) {
	t.Parallel()

	e, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodGet, "/v1/users", "clerk", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/users", "boss", "")
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[userList](t, rec)
	require.Len(t, users.Users, 2)

	rec = doJSON(e, http.MethodPost, "/v1/users", "boss",
		`{"name":"trainee","password":"pw","role":"user"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[user](t, rec)
	assert.Equal(t, "trainee", created.Name)

	rec = doJSON(e, http.MethodPost, "/v1/users", "boss",
		`{"name":"trainee","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/v1/users/%d", created.ID), "boss", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
