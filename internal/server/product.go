package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	productdomain "github.com/smallbiznis/crm/internal/product/domain"
	"github.com/smallbiznis/crm/pkg/db/pagination"
)

type createProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock *int            `json:"stock"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.Create(c.Request.Context(), productdomain.CreateRequest{
		Name:  strings.TrimSpace(req.Name),
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListProducts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name          string `form:"name"`
		PriceMin      string `form:"price_min"`
		PriceMax      string `form:"price_max"`
		StockMin      string `form:"stock_min"`
		StockMax      string `form:"stock_max"`
		LowStock      string `form:"low_stock"`
		OutOfStock    string `form:"out_of_stock"`
		PriceCategory string `form:"price_category"`
		Search        string `form:"search"`
		SortBy        string `form:"sort_by"`
		OrderBy       string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	priceMin, err := parseOptionalDecimal(query.PriceMin)
	if err != nil {
		AbortWithError(c, newValidationError("price_min", "invalid_price_min", "invalid price_min"))
		return
	}
	priceMax, err := parseOptionalDecimal(query.PriceMax)
	if err != nil {
		AbortWithError(c, newValidationError("price_max", "invalid_price_max", "invalid price_max"))
		return
	}
	stockMin, err := parseOptionalInt(query.StockMin)
	if err != nil {
		AbortWithError(c, newValidationError("stock_min", "invalid_stock_min", "invalid stock_min"))
		return
	}
	stockMax, err := parseOptionalInt(query.StockMax)
	if err != nil {
		AbortWithError(c, newValidationError("stock_max", "invalid_stock_max", "invalid stock_max"))
		return
	}
	lowStock, err := parseOptionalBool(query.LowStock)
	if err != nil {
		AbortWithError(c, newValidationError("low_stock", "invalid_low_stock", "invalid low_stock"))
		return
	}
	outOfStock, err := parseOptionalBool(query.OutOfStock)
	if err != nil {
		AbortWithError(c, newValidationError("out_of_stock", "invalid_out_of_stock", "invalid out_of_stock"))
		return
	}

	resp, err := s.productSvc.List(c.Request.Context(), productdomain.ListRequest{
		PageToken:     query.PageToken,
		PageSize:      int32(query.PageSize),
		Name:          strings.TrimSpace(query.Name),
		PriceMin:      priceMin,
		PriceMax:      priceMax,
		StockMin:      stockMin,
		StockMax:      stockMax,
		LowStock:      lowStock,
		OutOfStock:    outOfStock,
		PriceCategory: strings.TrimSpace(query.PriceCategory),
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

func (s *Server) GetProductByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.productSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
