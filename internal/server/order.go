package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/crm/internal/order/domain"
	"github.com/smallbiznis/crm/pkg/db/pagination"
)

type createOrderRequest struct {
	CustomerID string     `json:"customer_id"`
	ProductIDs []string   `json:"product_ids"`
	OrderDate  *time.Time `json:"order_date"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		ProductIDs: req.ProductIDs,
		OrderDate:  req.OrderDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		TotalMin      string `form:"total_min"`
		TotalMax      string `form:"total_max"`
		OrderDateFrom string `form:"order_date_from"`
		OrderDateTo   string `form:"order_date_to"`
		CustomerName  string `form:"customer_name"`
		CustomerEmail string `form:"customer_email"`
		ProductName   string `form:"product_name"`
		ProductID     string `form:"product_id"`
		HighValue     string `form:"high_value"`
		Recent        string `form:"recent"`
		Search        string `form:"search"`
		SortBy        string `form:"sort_by"`
		OrderBy       string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	totalMin, err := parseOptionalDecimal(query.TotalMin)
	if err != nil {
		AbortWithError(c, newValidationError("total_min", "invalid_total_min", "invalid total_min"))
		return
	}
	totalMax, err := parseOptionalDecimal(query.TotalMax)
	if err != nil {
		AbortWithError(c, newValidationError("total_max", "invalid_total_max", "invalid total_max"))
		return
	}
	from, err := parseOptionalTime(query.OrderDateFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("order_date_from", "invalid_order_date_from", "invalid order_date_from"))
		return
	}
	to, err := parseOptionalTime(query.OrderDateTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("order_date_to", "invalid_order_date_to", "invalid order_date_to"))
		return
	}
	highValue, err := parseOptionalBool(query.HighValue)
	if err != nil {
		AbortWithError(c, newValidationError("high_value", "invalid_high_value", "invalid high_value"))
		return
	}
	recent, err := parseOptionalBool(query.Recent)
	if err != nil {
		AbortWithError(c, newValidationError("recent", "invalid_recent", "invalid recent"))
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrderRequest{
		PageToken:     query.PageToken,
		PageSize:      int32(query.PageSize),
		TotalMin:      totalMin,
		TotalMax:      totalMax,
		OrderDateFrom: from,
		OrderDateTo:   to,
		CustomerName:  strings.TrimSpace(query.CustomerName),
		CustomerEmail: strings.TrimSpace(query.CustomerEmail),
		ProductName:   strings.TrimSpace(query.ProductName),
		ProductID:     strings.TrimSpace(query.ProductID),
		HighValue:     highValue,
		Recent:        recent,
		Search:        strings.TrimSpace(query.Search),
		SortBy:        strings.TrimSpace(query.SortBy),
		OrderBy:       strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.orderSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
