package graphql

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	obscontext "github.com/smallbiznis/crm/internal/observability/context"
	obslogger "github.com/smallbiznis/crm/internal/observability/logger"
	"go.uber.org/zap"
)

type request struct {
	Query         string                 `json:"query" form:"query"`
	OperationName string                 `json:"operationName" form:"operationName"`
	Variables     map[string]interface{} `json:"variables" form:"-"`
}

// Handler executes GraphQL requests against the CRM schema.
type Handler struct {
	schema graphql.Schema
	log    *zap.Logger
}

func NewHandler(schema graphql.Schema, log *zap.Logger) *Handler {
	return &Handler{schema: schema, log: log.Named("graphql.handler")}
}

// Serve accepts POST bodies in the standard {query, variables,
// operationName} shape and GET requests with a query parameter.
func (h *Handler) Serve(c *gin.Context) {
	var req request
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": []gin.H{{"message": "query is required", "extensions": gin.H{"code": CodeValidation}}},
		})
		return
	}

	operation := strings.TrimSpace(req.OperationName)
	if operation == "" {
		operation = "anonymous"
	}
	c.Set(obscontext.GraphQLOperationKey, operation)

	ctx := c.Request.Context()
	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	if result.HasErrors() {
		obslogger.WithContext(ctx, h.log).Debug("graphql request returned errors",
			zap.String("operation", operation),
			zap.Int("error_count", len(result.Errors)),
		)
	}

	c.JSON(http.StatusOK, result)
}
