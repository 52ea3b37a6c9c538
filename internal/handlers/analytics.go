package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/response"
	"github.com/yungbote/filatrack-backend/internal/services"
)

const dateLayout = "2006-01-02"

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (ah *AnalyticsHandler) GetEntry(c *gin.Context) {
	at := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.Err(c, apierr.InvalidField("Invalid date, expected YYYY-MM-DD"))
			return
		}
		at = parsed
	}
	entry, err := ah.analyticsService.GetEntry(c.Request.Context(), at)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, entry)
}

func (ah *AnalyticsHandler) GetRange(c *gin.Context) {
	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid start date, expected YYYY-MM-DD"))
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		response.Err(c, apierr.InvalidField("Invalid end date, expected YYYY-MM-DD"))
		return
	}
	entries, err := ah.analyticsService.GetRange(c.Request.Context(), start, end)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, entries)
}

func (ah *AnalyticsHandler) GetTotals(c *gin.Context) {
	totals, err := ah.analyticsService.GetTotals(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, totals)
}

func (ah *AnalyticsHandler) GetAuthMethodStats(c *gin.Context) {
	stats, err := ah.analyticsService.GetAuthMethodStats(c.Request.Context())
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Data(c, stats)
}
