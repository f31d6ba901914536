package handler

import (
	"net/http"

	"procurehub/internal/repository"
	"procurehub/pkg/pagination"
	"procurehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoices repository.InvoiceRepository
	archives repository.ArchiveRepository
}

func NewInvoiceHandler(invoices repository.InvoiceRepository, archives repository.ArchiveRepository) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, archives: archives}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
	}
	router.GET("/api/archives", h.ListArchives)
}

// ListInvoices returns invoices, optionally by status
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        status  query  string  false  "Invoice status filter"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)

	invoices, total, err := h.invoices.List(c.Request.Context(), repository.InvoiceFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(invoices, total, params.Page, params.Limit))
}

// GetInvoice returns one invoice
// @Summary      Get invoice
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	invoice, err := h.invoices.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "invoice not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ListArchives returns snapshots of shipped requests that were deleted
// @Summary      List archived requests
// @Tags         archives
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/archives [get]
func (h *InvoiceHandler) ListArchives(c *gin.Context) {
	params := pagination.Parse(c)

	archives, total, err := h.archives.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(archives, total, params.Page, params.Limit))
}
