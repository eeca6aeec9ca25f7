package api

import (
	"context"
	"net/http"
	"strings"

	apperrors "city-insights/internal/common/errors"
	"city-insights/internal/insights"
	analysis "city-insights/internal/workers/insights/analyze-business-environment"
	visualizations "city-insights/internal/workers/insights/generate-visualizations"

	"github.com/gin-gonic/gin"
)

const (
	defaultVisualizationLimit = 20
	defaultAnalysisLimit      = 30
)

type VisualizationService interface {
	Execute(ctx context.Context, input *visualizations.Input) (*visualizations.Output, error)
	Compare(ctx context.Context, cities []visualizations.CityRef) (*insights.ComparisonDataset, error)
}

type AnalysisService interface {
	Execute(ctx context.Context, input *analysis.Input) (*analysis.Output, error)
}

// Controller holds only stateless services; every request runs its own
// pipeline.
type Controller struct {
	visualizations VisualizationService
	analysis       AnalysisService
}

func NewController(viz VisualizationService, an AnalysisService) *Controller {
	return &Controller{visualizations: viz, analysis: an}
}

type cityRequest struct {
	City    string `json:"city" binding:"required"`
	Country string `json:"country"`
	Limit   int    `json:"limit" binding:"omitempty,min=1,max=200"`
}

type comparisonRequest struct {
	Cities []cityRequest `json:"cities" binding:"required,min=1,dive"`
}

type chatRequest struct {
	City    string `json:"city" binding:"required"`
	Country string `json:"country"`
	Message string `json:"message"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Analysis string `json:"analysis"`
}

func bindError(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusBadRequest, string(apperrors.ErrCodeInvalidRequest), err.Error())
}

func (ctrl *Controller) Visualizations(c *gin.Context) {
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultVisualizationLimit
	}

	out, err := ctrl.visualizations.Execute(c.Request.Context(), &visualizations.Input{
		City:    req.City,
		Country: req.Country,
		Limit:   req.Limit,
	})
	if err != nil {
		FailureResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Visualizations)
}

func (ctrl *Controller) Comparison(c *gin.Context) {
	var req comparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cities := make([]visualizations.CityRef, 0, len(req.Cities))
	for _, city := range req.Cities {
		limit := city.Limit
		if limit == 0 {
			limit = defaultVisualizationLimit
		}
		cities = append(cities, visualizations.CityRef{City: city.City, Country: city.Country, Limit: limit})
	}

	ds, err := ctrl.visualizations.Compare(c.Request.Context(), cities)
	if err != nil {
		FailureResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (ctrl *Controller) Analysis(c *gin.Context) {
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultAnalysisLimit
	}

	out, err := ctrl.analysis.Execute(c.Request.Context(), &analysis.Input{
		City:    req.City,
		Country: req.Country,
		Limit:   req.Limit,
	})
	if err != nil {
		FailureResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (ctrl *Controller) ChatResponse(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		ErrorResponse(c, http.StatusBadRequest, "", "Message is required")
		return
	}

	out, err := ctrl.analysis.Execute(c.Request.Context(), &analysis.Input{
		City:    req.City,
		Country: req.Country,
		Message: req.Message,
	})
	if err != nil {
		FailureResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Success: true, Response: out.Response, Analysis: out.Analysis})
}

func (ctrl *Controller) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
