package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	appfacture "github.com/facture/backend/internal/application/facture"
	"github.com/facture/backend/internal/interfaces/http/dto"
)

// FactureHandler exposes facture generation over HTTP
type FactureHandler struct {
	BaseHandler
	service *appfacture.Service
}

// NewFactureHandler creates a new FactureHandler
func NewFactureHandler(service *appfacture.Service) *FactureHandler {
	return &FactureHandler{service: service}
}

// RegisterRoutes registers facture routes
func (h *FactureHandler) RegisterRoutes(rg *gin.RouterGroup) {
	factures := rg.Group("/factures")
	{
		factures.POST("/generate", h.Generate)
		factures.GET("/generate-batch", h.GenerateBatchAll)
		factures.GET("/generate-batch/:id", h.GenerateBatch)
		factures.GET("/status", h.Status)
		factures.GET("/:id", h.Details)
	}
	rg.GET("/statistics", h.Statistics)
}

// Generate renders a single facture PDF from the request payload and
// streams it back as an attachment. The scratch file is removed after the
// response is written.
func (h *FactureHandler) Generate(c *gin.Context) {
	var req appfacture.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, "Invalid JSON payload")
		return
	}

	if missing := missingGenerateFields(&req); len(missing) > 0 {
		h.BadRequest(c, fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")))
		return
	}

	doc, err := h.service.GenerateFromRequest(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer h.service.Cleanup(doc)

	c.FileAttachment(doc.Path, fmt.Sprintf("facture_%s.pdf", req.FactureID))
}

// GenerateBatchAll processes every facture awaiting payment
func (h *FactureHandler) GenerateBatchAll(c *gin.Context) {
	stats := h.service.ProcessFactures(c.Request.Context(), "")
	h.Success(c, stats)
}

// GenerateBatch processes a single facture by id through the full pipeline
func (h *FactureHandler) GenerateBatch(c *gin.Context) {
	stats := h.service.ProcessFactures(c.Request.Context(), c.Param("id"))
	h.Success(c, stats)
}

// Status lists the factures currently awaiting payment
func (h *FactureHandler) Status(c *gin.Context) {
	report, err := h.service.StatusReport(c.Request.Context())
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeUnavailable), dto.ErrCodeUnavailable, "Failed to retrieve factures")
		return
	}
	h.Success(c, report)
}

// Details returns one facture record
func (h *FactureHandler) Details(c *gin.Context) {
	f, err := h.service.FindFacture(c.Request.Context(), c.Param("id"))
	if err != nil {
		if appfacture.IsNotFound(err) {
			h.NotFound(c, "Facture not found")
			return
		}
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeUnavailable), dto.ErrCodeUnavailable, "Failed to retrieve facture")
		return
	}
	h.Success(c, f)
}

// Statistics aggregates the current facture population
func (h *FactureHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeUnavailable), dto.ErrCodeUnavailable, "Failed to compute statistics")
		return
	}
	h.Success(c, stats)
}

// missingGenerateFields returns the names of absent required fields
func missingGenerateFields(req *appfacture.GenerateRequest) []string {
	var missing []string
	if req.FactureID == "" {
		missing = append(missing, "facture_id")
	}
	if req.Client == nil {
		missing = append(missing, "client")
	}
	if req.Items == nil {
		missing = append(missing, "items")
	}
	if req.DateIssued == "" {
		missing = append(missing, "date_emission")
	}
	if req.DateValid == "" {
		missing = append(missing, "date_validite")
	}
	if req.Status == "" {
		missing = append(missing, "status")
	}
	return missing
}
