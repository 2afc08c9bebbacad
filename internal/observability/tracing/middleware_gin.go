package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/crm/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const apiPrefix = "/api/"

// GinMiddleware starts a server span per request. GraphQL requests are named
// after their operation; REST requests carry the CRM resource they touch.
// Health and metrics probes are not traced.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("crm/http")
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/health", "/metrics":
			c.Next()
			return
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}

		if operation := strings.TrimSpace(c.GetString(obscontext.GraphQLOperationKey)); operation != "" {
			span.SetName("GraphQL " + operation)
			attrs = append(attrs, attribute.String("graphql.operation.name", operation))
		} else {
			span.SetName("HTTP " + c.Request.Method + " " + route)
			if resource := resourceFromRoute(route); resource != "" {
				attrs = append(attrs, attribute.String("crm.resource", resource))
			}
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		switch {
		case status >= http.StatusInternalServerError:
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		case status >= http.StatusBadRequest:
			// client errors leave the span status unset
			span.SetAttributes(attribute.Bool("crm.client_error", true))
		}
	}
}

// resourceFromRoute returns "customers" for "/api/customers/:id".
func resourceFromRoute(route string) string {
	rest, ok := strings.CutPrefix(route, apiPrefix)
	if !ok {
		return ""
	}
	resource, _, _ := strings.Cut(rest, "/")
	return resource
}
