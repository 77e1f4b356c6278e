package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brioso/stockroom/internal/config"
	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/sec"
	"github.com/brioso/stockroom/internal/storage"
	"github.com/brioso/stockroom/internal/storage/db"
)

func newTestApp(t *testing.T, devMode bool) (*echo.Echo, storage.Store) {
	t.Helper()

	store, err := storage.NewDB(
		t.Context(),
		slog.New(slog.DiscardHandler),
		filepath.Join(t.TempDir(), "db.sqlite"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	cfg.DevMode = devMode

	svc := inventory.New(store, slog.New(slog.DiscardHandler))
	return New(cfg, slog.New(slog.DiscardHandler), store, svc), store
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// csrfPair fetches the CSRF cookie from a GET request so a follow-up POST
// can present a matching cookie and form token.
func csrfPair(t *testing.T, e *echo.Echo) (*http.Cookie, string) {
	t.Helper()

	rec := do(e, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "_csrf" {
			return cookie, cookie.Value
		}
	}
	t.Fatal("no csrf cookie issued")
	return nil, ""
}

func postForm(t *testing.T, e *echo.Echo, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	cookie, token := csrfPair(t, e)
	form.Set("csrf", token)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(cookie)
	return do(e, req)
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestRootRedirectsToDashboard(t *testing.T) {
	t.Parallel()

	e, _ := newTestApp(t, true)
	rec := do(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))
}

func TestScanPageWarnsOnInsecureOrigin(t *testing.T) {
	t.Parallel()

	e, _ := newTestApp(t, true)

	t.Run("plain http on a lan address", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/scan/in", nil)
		req.Host = "192.168.1.40:9999"
		rec := do(e, req)
		require.Equal(t, http.StatusOK, rec.Code)

		doc := parseHTML(t, rec)
		assert.Contains(t,
			doc.Find(".flash-danger").Text(),
			"camera access requires HTTPS or localhost",
		)
	})

	t.Run("localhost is fine", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/scan/out", nil)
		req.Host = "localhost:9999"
		rec := do(e, req)
		require.Equal(t, http.StatusOK, rec.Code)

		doc := parseHTML(t, rec)
		assert.NotContains(t, doc.Text(), "camera access requires")
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Parallel()
		rec := do(e, httptest.NewRequest(http.MethodGet, "/scan/sideways", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProductLifecycle(t *testing.T) {
	t.Parallel()

	e, _ := newTestApp(t, true)

	rec := postForm(t, e, "/products/new", url.Values{
		"barcode":      {"8001234567890"},
		"name":         {"Spelt Flour"},
		"brand":        {"Molino"},
		"supplier":     {"Mill & Sons"},
		"unit_measure": {"kg"},
		"unit_price":   {"1.80"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get(echo.HeaderLocation)
	require.Contains(t, location, "/products/")

	detailPath := strings.SplitN(location, "?", 2)[0]

	rec = postForm(t, e, detailPath+"/batches", url.Values{
		"quantity":    {"25"},
		"expiry_date": {"2027-01-15"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = do(e, httptest.NewRequest(http.MethodGet, detailPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, "Spelt Flour", doc.Find("h1").Text())
	assert.Contains(t, doc.Find("dl").Text(), "25 kg")
	assert.Equal(t, 1, doc.Find("tbody tr").Length())
	assert.Contains(t, doc.Find("tbody tr").Text(), "2027-01-15")

	rec = do(e, httptest.NewRequest(http.MethodGet, "/inventory", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	doc = parseHTML(t, rec)
	row := doc.Find("tbody tr").First()
	assert.Contains(t, row.Text(), "8001234567890")
	assert.Contains(t, row.Text(), "45.00") // 25 * 1.80

	rec = do(e, httptest.NewRequest(http.MethodGet, "/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	assert.Contains(t, rec.Body.String(), "8001234567890,Spelt Flour")
}

func TestScanResolve(t *testing.T) {
	t.Parallel()

	e, store := newTestApp(t, true)

	_, err := store.CreateProduct(t.Context(),
		db.Product{ID: 100, Barcode: "4009876543210", Name: "Yeast"})
	require.NoError(t, err)

	t.Run("known barcode goes to the product", func(t *testing.T) {
		t.Parallel()
		rec := do(e, httptest.NewRequest(http.MethodGet, "/scan/resolve?mode=out&code=4009876543210", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/products/100", rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("unknown barcode on receive prompts registration", func(t *testing.T) {
		t.Parallel()
		rec := do(e, httptest.NewRequest(http.MethodGet, "/scan/resolve?mode=in&code=1112223334445", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/products/new?code=1112223334445", rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("unknown barcode on consume flashes a warning", func(t *testing.T) {
		t.Parallel()
		rec := do(e, httptest.NewRequest(http.MethodGet, "/scan/resolve?mode=out&code=1112223334445", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		location := rec.Header().Get(echo.HeaderLocation)
		assert.Contains(t, location, "/dashboard")
		assert.Contains(t, location, "level=warning")
	})

	t.Run("unknown mode redirects to the dashboard", func(t *testing.T) {
		t.Parallel()
		rec := do(e, httptest.NewRequest(http.MethodGet, "/scan/resolve?mode=sideways&code=4009876543210", nil))
		require.Equal(t, http.StatusFound, rec.Code)
		location := rec.Header().Get(echo.HeaderLocation)
		assert.Contains(t, location, "/dashboard")
		assert.Contains(t, location, "level=danger")
	})
}

func TestConsumeBatchGuards(t *testing.T) {
	t.Parallel()

	e, store := newTestApp(t, true)

	product, err := store.CreateProduct(t.Context(),
		db.Product{ID: 200, Barcode: "7770001112223", Name: "Butter"})
	require.NoError(t, err)
	batch, err := store.AddBatch(t.Context(), db.Batch{
		ID: 201, ProductID: product.ID,
		QuantityInitial: 10, QuantityCurrent: 10, CreatedBy: "tester",
	})
	require.NoError(t, err)

	rec := postForm(t, e, "/batches/201/consume", url.Values{"quantity": {"100"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "level=danger")

	rec = postForm(t, e, "/batches/201/consume", url.Values{"quantity": {"4"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "level=success")

	got, err := store.GetBatch(t.Context(), batch.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, got.QuantityCurrent, 0.001)
}

func TestAdminUsersRequiresAdminRole(t *testing.T) {
	t.Parallel()

	e, _ := newTestApp(t, true)
	rec := do(e, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBasicAuthFlow(t *testing.T) {
	t.Parallel()

	e, store := newTestApp(t, false)

	hash, err := sec.HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, store.UpsertUser(t.Context(), db.User{
		ID: 300, Name: "head_baker", PasswordHash: hash, Role: "admin",
	}))

	t.Run("no credentials rejected", func(t *testing.T) {
		t.Parallel()
		rec := do(e, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.SetBasicAuth("head_baker", "wrong")
		rec := do(e, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin sees the users page", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.SetBasicAuth("head_baker", "hunter2")
		rec := do(e, req)
		require.Equal(t, http.StatusOK, rec.Code)

		doc := parseHTML(t, rec)
		assert.Contains(t, doc.Find("tbody").Text(), "head_baker")
		assert.Contains(t, doc.Find("nav .whoami").Text(), "head_baker")
	})
}
