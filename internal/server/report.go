package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/crm/internal/report/domain"
)

func (s *Server) GetReportSummary(c *gin.Context) {
	var query struct {
		Days int `form:"days"`
		Top  int `form:"top"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	summary, err := s.reportSvc.Summarize(c.Request.Context(), reportdomain.SummaryRequest{
		WindowDays:   query.Days,
		TopCustomers: query.Top,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
