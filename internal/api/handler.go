package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/pagination"
	"github.com/brioso/stockroom/internal/sec"
	"github.com/brioso/stockroom/internal/storage"
	"github.com/brioso/stockroom/internal/storage/db"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type handler struct {
	store  storage.Store
	svc    *inventory.Service
	logger *slog.Logger
}

func (h handler) register(e *echo.Echo) {
	v1 := e.Group("/v1")

	v1.GET("/products", h.listProducts)
	v1.POST("/products", h.createProduct)
	v1.GET("/products/:id", h.getProduct)
	v1.POST("/products/:id/batches", h.addBatch)

	v1.POST("/scan", h.scan)
	v1.POST("/batches/:id/consume", h.consumeBatch)

	v1.GET("/movements", h.listMovements)
	v1.GET("/export.csv", h.exportCSV)

	v1.GET("/users", h.listUsers)
	v1.POST("/users", h.createUser)
	v1.DELETE("/users/:id", h.deleteUser)
}

type product struct {
	ID          uint64  `json:"id,string"`
	Barcode     string  `json:"barcode"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Supplier    string  `json:"supplier,omitempty"`
	UnitMeasure string  `json:"unit_measure,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
}

func toProduct(p db.Product) product {
	return product{
		ID:          p.ID,
		Barcode:     p.Barcode,
		Name:        p.Name,
		Brand:       p.Brand,
		Supplier:    p.Supplier,
		UnitMeasure: p.UnitMeasure,
		UnitPrice:   p.UnitPrice,
	}
}

type batch struct {
	ID              uint64     `json:"id,string"`
	ProductID       uint64     `json:"product_id,string"`
	QuantityInitial float64    `json:"quantity_initial"`
	QuantityCurrent float64    `json:"quantity_current"`
	EntryDate       time.Time  `json:"entry_date"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	CreatedBy       string     `json:"created_by"`
}

func toBatch(b db.Batch) batch {
	out := batch{
		ID:              b.ID,
		ProductID:       b.ProductID,
		QuantityInitial: b.QuantityInitial,
		QuantityCurrent: b.QuantityCurrent,
		EntryDate:       b.EntryDate,
		CreatedBy:       b.CreatedBy,
	}
	if b.ExpiryDate.Valid {
		expiry := b.ExpiryDate.Time
		out.ExpiryDate = &expiry
	}
	return out
}

type productsCursor struct {
	AfterName string `json:"after_name"`
}

type productList struct {
	Products      []product `json:"products"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

func (h handler) listProducts(c echo.Context) error {
	var cursor productsCursor
	size, err := listParams(c, &cursor)
	if err != nil {
		return err
	}

	products, err := h.store.ListProducts(c.Request().Context(), cursor.AfterName, size)
	if err != nil {
		return httpError(err)
	}

	out := productList{Products: make([]product, 0, len(products))}
	for _, p := range products {
		out.Products = append(out.Products, toProduct(p))
	}
	if len(products) == int(size) {
		out.NextPageToken, err = pagination.ToToken(productsCursor{
			AfterName: products[len(products)-1].Name,
		})
		if err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, out)
}

type createProductRequest struct {
	Barcode     string  `json:"barcode"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Supplier    string  `json:"supplier"`
	UnitMeasure string  `json:"unit_measure"`
	UnitPrice   float64 `json:"unit_price"`
}

func (h handler) createProduct(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	created, err := h.svc.CreateProduct(c.Request().Context(), db.Product{
		Barcode:     req.Barcode,
		Name:        req.Name,
		Brand:       req.Brand,
		Supplier:    req.Supplier,
		UnitMeasure: req.UnitMeasure,
		UnitPrice:   req.UnitPrice,
	}, actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toProduct(created))
}

type productDetail struct {
	Product       product `json:"product"`
	TotalQuantity float64 `json:"total_quantity"`
	Batches       []batch `json:"batches"`
}

func (h handler) getProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.ProductDetail(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	out := productDetail{
		Product:       toProduct(detail.Product),
		TotalQuantity: detail.Total,
		Batches:       make([]batch, 0, len(detail.Batches)),
	}
	for _, b := range detail.Batches {
		out.Batches = append(out.Batches, toBatch(b))
	}
	return c.JSON(http.StatusOK, out)
}

type scanRequest struct {
	Code string `json:"code"`
	Mode string `json:"mode"`
}

type scanResponse struct {
	Found   bool     `json:"found"`
	Product *product `json:"product,omitempty"`
}

func (h handler) scan(c echo.Context) error {
	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	res, err := h.svc.ResolveScan(c.Request().Context(), req.Code, inventory.ScanMode(req.Mode))
	if err != nil {
		return httpError(err)
	}
	out := scanResponse{Found: res.Found}
	if res.Found {
		p := toProduct(res.Product)
		out.Product = &p
	}
	return c.JSON(http.StatusOK, out)
}

type addBatchRequest struct {
	Quantity   float64 `json:"quantity"`
	ExpiryDate string  `json:"expiry_date"`
}

func (h handler) addBatch(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req addBatchRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	var expiry sql.NullTime
	if req.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid expiry date")
		}
		expiry = sql.NullTime{Valid: true, Time: t}
	}

	created, err := h.svc.AddBatch(c.Request().Context(), id, req.Quantity, expiry, actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toBatch(created))
}

type consumeRequest struct {
	Quantity float64 `json:"quantity"`
}

type consumeResponse struct {
	Remaining float64 `json:"remaining"`
}

func (h handler) consumeBatch(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req consumeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	remaining, err := h.svc.ConsumeBatch(c.Request().Context(), id, req.Quantity, actor(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, consumeResponse{Remaining: remaining})
}

type movement struct {
	ID             uint64    `json:"id,string"`
	UserName       string    `json:"user_name"`
	ProductName    string    `json:"product_name"`
	Action         string    `json:"action"`
	QuantityChange float64   `json:"quantity_change"`
	RecordedAt     time.Time `json:"recorded_at"`
}

type movementsCursor struct {
	BeforeID uint64 `json:"before_id"`
}

type movementList struct {
	Movements     []movement `json:"movements"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

func (h handler) listMovements(c echo.Context) error {
	var cursor movementsCursor
	size, err := listParams(c, &cursor)
	if err != nil {
		return err
	}

	movements, err := h.store.ListMovements(c.Request().Context(), cursor.BeforeID, size)
	if err != nil {
		return httpError(err)
	}

	out := movementList{Movements: make([]movement, 0, len(movements))}
	for _, m := range movements {
		out.Movements = append(out.Movements, movement{
			ID:             m.ID,
			UserName:       m.UserName,
			ProductName:    m.ProductName,
			Action:         m.Action,
			QuantityChange: m.QuantityChange,
			RecordedAt:     m.RecordedAt,
		})
	}
	if len(movements) == int(size) {
		out.NextPageToken, err = pagination.ToToken(movementsCursor{
			BeforeID: movements[len(movements)-1].ID,
		})
		if err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, out)
}

type user struct {
	ID   uint64 `json:"id,string"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type usersCursor struct {
	AfterName string `json:"after_name"`
}

type userList struct {
	Users         []user `json:"users"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

func (h handler) listUsers(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var cursor usersCursor
	size, err := listParams(c, &cursor)
	if err != nil {
		return err
	}

	users, err := h.store.ListUsers(c.Request().Context(), cursor.AfterName, size)
	if err != nil {
		return httpError(err)
	}

	out := userList{Users: make([]user, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, user{ID: u.ID, Name: u.Name, Role: u.Role})
	}
	if len(users) == int(size) {
		out.NextPageToken, err = pagination.ToToken(usersCursor{
			AfterName: users[len(users)-1].Name,
		})
		if err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, out)
}

type createUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h handler) createUser(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	hash, err := sec.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err = h.store.UpsertUser(c.Request().Context(), db.User{
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		return httpError(err)
	}

	created, err := h.store.GetUserByName(c.Request().Context(), req.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user{ID: created.ID, Name: created.Name, Role: created.Role})
}

func (h handler) deleteUser(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteUser(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h handler) exportCSV(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)
	return h.svc.ExportCSV(c.Request().Context(), c.Response().Writer)
}

func actor(c echo.Context) string {
	return sec.GetAuthenticatedUser(c.Request().Context()).Name
}

func requireAdmin(c echo.Context) error {
	if !sec.GetAuthenticatedUser(c.Request().Context()).IsAdmin() {
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

// listParams reads the page size and, when a token is present, decodes the
// cursor for a list endpoint.
func listParams(c echo.Context, cursor any) (int32, error) {
	size := int32(defaultPageSize)
	if raw := c.QueryParam("page_size"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 {
			return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid page size")
		}
		size = min(int32(parsed), maxPageSize)
	}
	if tkn := c.QueryParam("page_token"); tkn != "" {
		if err := pagination.FromToken(tkn, cursor); err != nil {
			return 0, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return size, nil
}

// httpError converts domain errors to echo HTTP errors.
func httpError(err error) error {
	switch {
	case err == nil:
		return nil
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
