package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/crm/internal/clock"
	customerrepo "github.com/smallbiznis/crm/internal/customer/repository"
	customerservice "github.com/smallbiznis/crm/internal/customer/service"
	crmgraphql "github.com/smallbiznis/crm/internal/graphql"
	"github.com/smallbiznis/crm/internal/observability"
	obsmetrics "github.com/smallbiznis/crm/internal/observability/metrics"
	orderrepo "github.com/smallbiznis/crm/internal/order/repository"
	orderservice "github.com/smallbiznis/crm/internal/order/service"
	productrepo "github.com/smallbiznis/crm/internal/product/repository"
	productservice "github.com/smallbiznis/crm/internal/product/service"
	reportrepo "github.com/smallbiznis/crm/internal/report/repository"
	reportservice "github.com/smallbiznis/crm/internal/report/service"
	"github.com/smallbiznis/crm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	engine *gin.Engine
	seed   *testutil.Seeder
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(testNow)

	customers := customerservice.New(customerservice.Params{DB: db, Log: log, GenID: node, Repo: customerrepo.Provide(), Clock: clk})
	products := productservice.New(productservice.Params{DB: db, Log: log, GenID: node, Repo: productrepo.Provide(), Clock: clk})
	orders := orderservice.New(orderservice.Params{
		DB: db, Log: log, GenID: node,
		Repo:         orderrepo.Provide(),
		CustomerRepo: customerrepo.Provide(),
		ProductRepo:  productrepo.Provide(),
		Clock:        clk,
	})
	reports := reportservice.New(reportservice.Params{DB: db, Log: log, GenID: node, Repo: reportrepo.Provide(), Clock: clk})

	schema, err := crmgraphql.NewSchema(crmgraphql.Params{Log: log, CustomerSvc: customers, ProductSvc: products, OrderSvc: orders})
	require.NoError(t, err)

	httpMetrics := obsmetrics.NewHTTPMetricsWithRegisterer(prometheus.NewRegistry(), obsmetrics.Config{ServiceName: "crm-test"})
	engine := NewEngine(observability.Config{Environment: "test"}, httpMetrics)
	NewServer(ServerParams{
		Gin:         engine,
		CustomerSvc: customers,
		ProductSvc:  products,
		OrderSvc:    orders,
		ReportSvc:   reports,
		GraphQL:     crmgraphql.NewHandler(schema, log),
	})

	return testServer{
		engine: engine,
		seed:   testutil.NewSeeder(db, node).WithClock(func() time.Time { return testNow }),
	}
}

func (s testServer) request(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	}
	return rec, payload
}

func errorOf(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	e, ok := payload["error"].(map[string]interface{})
	require.True(t, ok, "missing error payload")
	return e
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, payload := s.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", payload["status"])
}

func TestCreateCustomerLowercasesEmailAndRejectsDuplicate(t *testing.T) {
	s := newTestServer(t)

	rec, payload := s.request(t, http.MethodPost, "/api/customers", gin.H{"name": "Alice", "email": "A@B.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "a@b.com", data["email"])
	assert.Equal(t, "Customer created successfully", payload["message"])

	rec, payload = s.request(t, http.MethodPost, "/api/customers", gin.H{"name": "Alice", "email": "a@b.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	e := errorOf(t, payload)
	assert.Equal(t, "duplicate_email", e["type"])
	assert.Equal(t, "Email 'a@b.com' already exists", e["message"])
}

func TestCreateCustomerValidationPayload(t *testing.T) {
	s := newTestServer(t)

	rec, payload := s.request(t, http.MethodPost, "/api/customers", gin.H{"name": "Alice", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := errorOf(t, payload)
	assert.Equal(t, "validation_error", e["type"])
	errs := e["errors"].([]interface{})
	require.Len(t, errs, 1)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "email", first["field"])
	assert.Equal(t, "invalid_email", first["code"])
	assert.Equal(t, "Enter a valid email address", first["message"])
}

func TestBulkCreateCustomers(t *testing.T) {
	s := newTestServer(t)
	rec, payload := s.request(t, http.MethodPost, "/api/customers/bulk", gin.H{"customers": []gin.H{
		{"name": "Alice", "email": "alice@example.com"},
		{"name": "Alice Twin", "email": "ALICE@example.com"},
		{"name": "Bob", "email": "bob@example.com", "phone": "123-456-7890"},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["success_count"])
	assert.Equal(t, float64(1), data["error_count"])
	errs := data["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Row 2")
}

func TestGetMissingResources(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.request(t, http.MethodGet, "/api/customers/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.request(t, http.MethodGet, "/api/products/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, payload := s.request(t, http.MethodGet, "/api/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorOf(t, payload)["type"])
}

func TestCreateProductRejectsZeroPrice(t *testing.T) {
	s := newTestServer(t)

	rec, payload := s.request(t, http.MethodPost, "/api/products", gin.H{"name": "Free", "price": "0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := errorOf(t, payload)["errors"].([]interface{})
	assert.Equal(t, "Price must be positive and at most 99999999.99", errs[0].(map[string]interface{})["message"])

	rec, payload = s.request(t, http.MethodPost, "/api/products", gin.H{"name": "Sticker", "price": "0.01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["stock"])
}

func TestCreateOrderFlow(t *testing.T) {
	s := newTestServer(t)
	customerID := s.seed.Customer(t, "Alice", "alice@example.com")
	laptop := s.seed.Product(t, "Laptop", "999.99", 5)
	mouse := s.seed.Product(t, "Mouse", "25.50", 5)

	rec, payload := s.request(t, http.MethodPost, "/api/orders", gin.H{
		"customer_id": "123",
		"product_ids": []string{laptop.String()},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Customer with ID '123' not found", errorOf(t, payload)["message"])

	rec, payload = s.request(t, http.MethodPost, "/api/orders", gin.H{
		"customer_id": customerID.String(),
		"product_ids": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload = s.request(t, http.MethodPost, "/api/orders", gin.H{
		"customer_id": customerID.String(),
		"product_ids": []string{laptop.String(), mouse.String()},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "1025.49", decimal.RequireFromString(data["total_amount"].(string)).StringFixed(2))
	id := data["id"].(string)

	rec, payload = s.request(t, http.MethodGet, "/api/orders/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["data"].(map[string]interface{})["items"], 2)

	rec, payload = s.request(t, http.MethodGet, "/api/orders?high_value=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["data"].(map[string]interface{})["orders"], 1)
}

func TestCreateOrderRejectsTotalAboveLimit(t *testing.T) {
	s := newTestServer(t)
	customerID := s.seed.Customer(t, "Alice", "alice@example.com")
	first := s.seed.Product(t, "Island", "60000000.00", 1)
	second := s.seed.Product(t, "Jet", "60000000.00", 1)

	rec, payload := s.request(t, http.MethodPost, "/api/orders", gin.H{
		"customer_id": customerID.String(),
		"product_ids": []string{first.String(), second.String()},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := errorOf(t, payload)["errors"].([]interface{})
	assert.Equal(t, "total_too_large", errs[0].(map[string]interface{})["code"])

	rec, _ = s.request(t, http.MethodPost, "/api/products", gin.H{"name": "Yacht", "price": "100000000"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProductsRejectsBadFilter(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.request(t, http.MethodGet, "/api/products?low_stock=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload := s.request(t, http.MethodGet, "/api/products?price_category=luxury", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := errorOf(t, payload)["errors"].([]interface{})
	assert.Equal(t, "invalid_price_category", errs[0].(map[string]interface{})["code"])
}

func TestReportSummary(t *testing.T) {
	s := newTestServer(t)
	alice := s.seed.Customer(t, "Alice", "alice@example.com")
	desk := s.seed.Product(t, "Desk", "150.00", 5)
	s.seed.Order(t, alice, testNow.Add(-24*time.Hour), desk)

	rec, payload := s.request(t, http.MethodGet, "/api/reports/summary?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_orders"])
	assert.Equal(t, "150.00", decimal.RequireFromString(data["total_revenue"].(string)).StringFixed(2))

	rec, _ = s.request(t, http.MethodGet, "/api/reports/summary?days=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphQLRouteIsMounted(t *testing.T) {
	s := newTestServer(t)
	rec, payload := s.request(t, http.MethodPost, "/graphql", gin.H{"query": "{ hello }"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, GraphQL!", payload["data"].(map[string]interface{})["hello"])
}

func TestClassifyErrorForLog(t *testing.T) {
	errorType, code := classifyErrorForLog(newValidationError("name", "invalid_name", "Name is required"))
	assert.Equal(t, "validation_error", errorType)
	assert.Equal(t, "invalid_name", code)
}
