package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/crm/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedEngine(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	r := gin.New()
	r.Use(GinMiddleware())
	r.POST("/graphql", func(c *gin.Context) {
		c.Set(obscontext.GraphQLOperationKey, "CreateOrder")
		c.Status(http.StatusOK)
	})
	r.GET("/api/customers/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, recorder
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestGinMiddlewareNamesGraphQLSpans(t *testing.T) {
	r, recorder := newTracedEngine(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/graphql", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GraphQL CreateOrder", spans[0].Name())
	op, ok := attrValue(spans[0].Attributes(), "graphql.operation.name")
	require.True(t, ok)
	assert.Equal(t, "CreateOrder", op.AsString())
}

func TestGinMiddlewareTagsRESTResource(t *testing.T) {
	r, recorder := newTracedEngine(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/customers/42", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /api/customers/:id", spans[0].Name())
	resource, ok := attrValue(spans[0].Attributes(), "crm.resource")
	require.True(t, ok)
	assert.Equal(t, "customers", resource.AsString())
	clientErr, ok := attrValue(spans[0].Attributes(), "crm.client_error")
	require.True(t, ok)
	assert.True(t, clientErr.AsBool())
}

func TestGinMiddlewareSkipsHealth(t *testing.T) {
	r, recorder := newTracedEngine(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Empty(t, recorder.Ended())
}

func TestResourceFromRoute(t *testing.T) {
	assert.Equal(t, "orders", resourceFromRoute("/api/orders"))
	assert.Equal(t, "reports", resourceFromRoute("/api/reports/summary"))
	assert.Equal(t, "", resourceFromRoute("/graphql"))
}
