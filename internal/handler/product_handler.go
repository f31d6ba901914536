package handler

import (
	"net/http"

	"procurehub/internal/service"
	"procurehub/pkg/pagination"
	"procurehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	catalog   service.CatalogService
	lifecycle service.LifecycleService
}

func NewProductHandler(catalog service.CatalogService, lifecycle service.LifecycleService) *ProductHandler {
	return &ProductHandler{catalog: catalog, lifecycle: lifecycle}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.GET("/:id/deletable", h.CheckDeletable)
		products.PUT("/:id/deactivate", h.DeactivateProduct)
		products.PUT("/:id/activate", h.ActivateProduct)
		products.POST("/:id/cleanup", h.Cleanup)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

// CreateProduct adds a product to the catalog
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductDTO  true  "Create Product Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var dto service.CreateProductDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), dto)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// ListProducts returns catalog products
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        search  query  string  false  "Name or SKU search"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)

	products, total, err := h.catalog.ListProducts(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(products, total, params.Page, params.Limit))
}

// GetProduct returns one product
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CheckDeletable reports whether the product can be safely deleted
// @Summary      Check product deletability
// @Description  True when no open request still holds an obligation against the product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Router       /api/products/{id}/deletable [get]
func (h *ProductHandler) CheckDeletable(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deletable, err := h.lifecycle.VerifyProductDeletion(c.Request.Context(), id)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	active, err := h.lifecycle.ActiveRequestCount(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"product_id":      id,
		"deletable":       deletable,
		"active_requests": active,
	}))
}

// DeactivateProduct marks a product unavailable and opens resolution on its requests
// @Summary      Deactivate product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id}/deactivate [put]
func (h *ProductHandler) DeactivateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeactivateProduct(c.Request.Context(), id); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "status": "INACTIVE"}))
}

// ActivateProduct puts a product back on sale
// @Summary      Activate product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Router       /api/products/{id}/activate [put]
func (h *ProductHandler) ActivateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.catalog.ActivateProduct(c.Request.Context(), id); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "status": "ACTIVE"}))
}

// Cleanup settles the product's unpaid-but-notified requests in bulk
// @Summary      Bulk cleanup product requests
// @Description  Marks every unpaid, already-notified request unavailable and reports whether the product is now deletable
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.CleanupResult}
// @Router       /api/products/{id}/cleanup [post]
func (h *ProductHandler) Cleanup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.lifecycle.BulkCleanup(c.Request.Context(), id)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteProduct removes a product once it is safe to do so
// @Summary      Delete product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "deleted": true}))
}
