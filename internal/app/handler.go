package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/sec"
	"github.com/brioso/stockroom/internal/securectx"
	"github.com/brioso/stockroom/internal/storage"
	"github.com/brioso/stockroom/internal/storage/db"
)

type handler struct {
	store  storage.Store
	svc    *inventory.Service
	logger *slog.Logger
}

func (h handler) register(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/dashboard")
	})
	e.GET("/dashboard", h.dashboard)
	e.GET("/inventory", h.inventory)
	e.GET("/export.csv", h.exportCSV)

	e.GET("/scan/:mode", h.scan)
	e.GET("/scan/resolve", h.resolveScan)

	products := e.Group("/products")
	products.GET("/new", h.newProduct)
	products.POST("/new", h.createProduct)
	products.GET("/:id", h.productDetail)
	products.POST("/:id/batches", h.addBatch)

	e.POST("/batches/:id/consume", h.consumeBatch)

	e.GET("/admin/users", h.adminUsers)
	e.POST("/admin/users", h.adminUsersOp)
}

func (h handler) dashboard(c echo.Context) error {
	return c.Render(http.StatusOK, "dashboard.html", newPage(c, "Dashboard", nil))
}

func (h handler) inventory(c echo.Context) error {
	levels, err := h.store.StockLevels(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.Render(http.StatusOK, "inventory.html", newPage(c, "Inventory", levels))
}

type scanData struct {
	Mode inventory.ScanMode
}

func (h handler) scan(c echo.Context) error {
	mode := inventory.ScanMode(c.Param("mode"))
	if !mode.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid scan mode")
	}

	pg := newPage(c, "Scan", scanData{Mode: mode})
	pg.Insecure = !securectx.IsSecure(requestOrigin(c))
	return c.Render(http.StatusOK, "scan.html", pg)
}

func (h handler) resolveScan(c echo.Context) error {
	code := c.QueryParam("code")
	mode := inventory.ScanMode(c.QueryParam("mode"))

	res, err := h.svc.ResolveScan(c.Request().Context(), code, mode)
	switch {
	case err == nil && res.Found:
		return c.Redirect(http.StatusFound, fmt.Sprintf("/products/%d", res.Product.ID))
	case err == nil:
		return c.Redirect(http.StatusFound, "/products/new?code="+url.QueryEscape(code))
	case errors.Is(err, storage.ErrNotFound):
		return flashRedirect(c, "/dashboard", "Product not in stock", "warning")
	case errors.Is(err, inventory.ErrInvalidScanMode):
		return flashRedirect(c, "/dashboard", "Unknown scan mode", "danger")
	default:
		return toHTTPError(err)
	}
}

type newProductData struct {
	Barcode string
}

func (h handler) newProduct(c echo.Context) error {
	data := newProductData{Barcode: c.QueryParam("code")}
	return c.Render(http.StatusOK, "product_new.html", newPage(c, "New Product", data))
}

func (h handler) createProduct(c echo.Context) error {
	price, _ := strconv.ParseFloat(c.FormValue("unit_price"), 64)
	product := db.Product{
		Barcode:     c.FormValue("barcode"),
		Name:        c.FormValue("name"),
		Brand:       c.FormValue("brand"),
		Supplier:    c.FormValue("supplier"),
		UnitMeasure: c.FormValue("unit_measure"),
		UnitPrice:   price,
	}

	product, err := h.svc.CreateProduct(c.Request().Context(), product, authedUser(c).Name)
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return flashRedirect(c, "/inventory", "Barcode already registered", "danger")
	case errors.Is(err, storage.ErrInvalidBarcode):
		return flashRedirect(c, "/products/new", "Invalid barcode", "danger")
	case err != nil:
		return toHTTPError(err)
	}
	return flashRedirect(c,
		fmt.Sprintf("/products/%d", product.ID),
		"Product created. Add the first batch.", "success",
	)
}

func (h handler) productDetail(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.ProductDetail(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Render(http.StatusOK, "product_detail.html", newPage(c, detail.Product.Name, detail))
}

func (h handler) addBatch(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	qty, err := strconv.ParseFloat(c.FormValue("quantity"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	expiry, err := parseExpiry(c.FormValue("expiry_date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid expiry date")
	}

	_, err = h.svc.AddBatch(c.Request().Context(), id, qty, expiry, authedUser(c).Name)
	switch {
	case errors.Is(err, inventory.ErrInvalidQuantity):
		return flashRedirect(c, fmt.Sprintf("/products/%d", id), "Quantity must be positive", "danger")
	case err != nil:
		return toHTTPError(err)
	}
	return flashRedirect(c, fmt.Sprintf("/products/%d", id), "Stock received", "success")
}

func (h handler) consumeBatch(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	qty, err := strconv.ParseFloat(c.FormValue("quantity"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	batch, err := h.store.GetBatch(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	detailURL := fmt.Sprintf("/products/%d", batch.ProductID)

	_, err = h.svc.ConsumeBatch(c.Request().Context(), id, qty, authedUser(c).Name)
	switch {
	case errors.Is(err, storage.ErrInsufficient):
		return flashRedirect(c, detailURL, "Insufficient quantity in selected batch", "danger")
	case errors.Is(err, inventory.ErrInvalidQuantity):
		return flashRedirect(c, detailURL, "Quantity must be positive", "danger")
	case err != nil:
		return toHTTPError(err)
	}
	return flashRedirect(c, detailURL, "Stock consumed", "success")
}

func (h handler) adminUsers(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	users, err := h.store.ListUsers(c.Request().Context(), "", 100)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Render(http.StatusOK, "users.html", newPage(c, "Users", users))
}

func (h handler) adminUsersOp(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	ctx := c.Request().Context()

	switch c.FormValue("action") {
	case "create":
		hash, err := sec.HashPassword(c.FormValue("password"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		err = h.store.UpsertUser(ctx, db.User{
			Name:         c.FormValue("username"),
			PasswordHash: hash,
			Role:         c.FormValue("role"),
		})
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			return flashRedirect(c, "/admin/users", "Username already in use", "danger")
		case errors.Is(err, storage.ErrInvalidUsername):
			return flashRedirect(c, "/admin/users", err.Error(), "danger")
		case err != nil:
			return toHTTPError(err)
		}
		return flashRedirect(c, "/admin/users", "User created", "success")

	case "delete":
		id, err := strconv.ParseUint(c.FormValue("user_id"), 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
		}
		if err := h.store.DeleteUser(ctx, id); err != nil {
			return toHTTPError(err)
		}
		return flashRedirect(c, "/admin/users", "User deleted", "warning")

	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid operation")
	}
}

func (h handler) exportCSV(c echo.Context) error {
	name := fmt.Sprintf("inventory_%s.csv", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", name))
	c.Response().WriteHeader(http.StatusOK)
	return h.svc.ExportCSV(c.Request().Context(), c.Response().Writer)
}

func authedUser(c echo.Context) db.User {
	return sec.GetAuthenticatedUser(c.Request().Context())
}

func requireAdmin(c echo.Context) error {
	if !authedUser(c).IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}
	return nil
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func parseExpiry(value string) (sql.NullTime, error) {
	if value == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Valid: true, Time: t}, nil
}

func flashRedirect(c echo.Context, target, message, level string) error {
	q := url.Values{}
	q.Set("flash", message)
	q.Set("level", level)
	return c.Redirect(http.StatusFound, target+"?"+q.Encode())
}

// requestOrigin derives the page origin a browser sees for this request,
// used to decide whether the camera-based scanner can work.
func requestOrigin(c echo.Context) securectx.Origin {
	host := c.Request().Host
	if hostname, _, err := net.SplitHostPort(host); err == nil {
		host = hostname
	}
	return securectx.Origin{
		Hostname: host,
		Protocol: c.Scheme() + ":",
	}
}

// toHTTPError converts storage errors to echo HTTP errors with the
// appropriate status code; other errors pass through for default handling.
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrInvalidUsername),
		errors.Is(err, storage.ErrInvalidBarcode),
		errors.Is(err, storage.ErrInsufficient),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidScanMode):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
