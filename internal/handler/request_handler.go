package handler

import (
	"net/http"

	"procurehub/internal/repository"
	"procurehub/internal/service"
	"procurehub/pkg/pagination"
	"procurehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	lifecycle service.LifecycleService
	requests  repository.RequestRepository
	history   repository.StatusHistoryRepository
}

func NewRequestHandler(
	lifecycle service.LifecycleService,
	requests repository.RequestRepository,
	history repository.StatusHistoryRepository,
) *RequestHandler {
	return &RequestHandler{lifecycle: lifecycle, requests: requests, history: history}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		requests.POST("", h.CreateRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.GET("/:id/history", h.GetHistory)
		requests.PUT("/:id/status", h.Transition)
		requests.PUT("/:id/processing", h.SetProcessing)
		requests.POST("/:id/notifications", h.SendNotifications)
		requests.POST("/:id/payment", h.SettlePayment)
		requests.DELETE("/:id", h.DeleteRequest)
		requests.POST("/notify", h.NotifySelected)
	}
}

type transitionDTO struct {
	Axis   string `json:"axis" binding:"required,oneof=request resolution"`
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
	Notes  string `json:"notes"`
}

type sendNotificationsDTO struct {
	Kind string `json:"kind" binding:"required"`
}

type settlePaymentDTO struct {
	Result string `json:"result" binding:"required,oneof=paid unpaid"`
}

type processingDTO struct {
	Processing *bool `json:"processing" binding:"required"`
}

type notifySelectedDTO struct {
	RequestIDs []string `json:"request_ids" binding:"required,min=1"`
}

// CreateRequest files a new product request for a customer
// @Summary      Create request
// @Description  Files a new request for a quantity of a product at a budget
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRequestDTO  true  "Create Request Payload"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var dto service.CreateRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	req, err := h.lifecycle.CreateRequest(c.Request.Context(), dto)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, req))
}

// ListRequests returns requests, optionally filtered
// @Summary      List requests
// @Tags         requests
// @Produce      json
// @Param        status             query  string  false  "Fulfillment status filter"
// @Param        resolution_status  query  string  false  "Resolution status filter"
// @Param        product_id         query  string  false  "Product filter"
// @Param        page               query  int     false  "Page number (default 1)"
// @Param        limit              query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.RequestFilter{
		Status:           c.Query("status"),
		ResolutionStatus: c.Query("resolution_status"),
		Page:             params.Page,
		Limit:            params.Limit,
	}
	if raw := c.Query("product_id"); raw != "" {
		productID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid product_id"))
			return
		}
		filter.ProductID = &productID
	}

	requests, total, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(requests, total, params.Page, params.Limit))
}

// GetRequest returns one request with its product, customer and invoice
// @Summary      Get request
// @Tags         requests
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, err := h.requests.FindByIDWithProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "request not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// GetHistory returns the append-only status trail of a request
// @Summary      Get request status history
// @Tags         requests
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Router       /api/requests/{id}/history [get]
func (h *RequestHandler) GetHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	entries, err := h.history.ListByRequest(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}

// Transition moves a request to a new status on one of the two axes
// @Summary      Transition request status
// @Description  Applies a status transition and fires the implied side effects
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Request ID"
// @Param        payload  body      transitionDTO  true  "Transition Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/requests/{id}/status [put]
func (h *RequestHandler) Transition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var dto transitionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	err := h.lifecycle.Transition(c.Request.Context(), id, service.Axis(dto.Axis), dto.Status, dto.Actor, dto.Notes)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "status": dto.Status}))
}

// SetProcessing toggles the advisory in-flight marker
// @Summary      Set admin-processing marker
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Request ID"
// @Param        payload  body      processingDTO  true  "Processing Payload"
// @Success      200      {object}  response.Response
// @Router       /api/requests/{id}/processing [put]
func (h *RequestHandler) SetProcessing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var dto processingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.lifecycle.SetAdminProcessing(c.Request.Context(), id, *dto.Processing); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "processing": *dto.Processing}))
}

// SendNotifications pushes a notification of the given kind and applies the
// status it implies
// @Summary      Send request notification
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Request ID"
// @Param        payload  body      sendNotificationsDTO  true  "Notification Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/requests/{id}/notifications [post]
func (h *RequestHandler) SendNotifications(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var dto sendNotificationsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.lifecycle.SendNotifications(c.Request.Context(), id, dto.Kind); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "kind": dto.Kind}))
}

// SettlePayment records a payment result reported by the payment provider
// @Summary      Settle request payment
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Request ID"
// @Param        payload  body      settlePaymentDTO  true  "Payment Result Payload"
// @Success      200      {object}  response.Response
// @Router       /api/requests/{id}/payment [post]
func (h *RequestHandler) SettlePayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var dto settlePaymentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	var err error
	if dto.Result == "paid" {
		err = h.lifecycle.ProcessPaidRequest(c.Request.Context(), id)
	} else {
		err = h.lifecycle.ProcessUnpaidRequest(c.Request.Context(), id)
	}
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "result": dto.Result}))
}

// DeleteRequest deletes a request, archiving shipped ones first
// @Summary      Delete request
// @Description  Deletes a request when the safety rules allow it; shipped requests are archived first
// @Tags         requests
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id} [delete]
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	actor := c.DefaultQuery("actor", "admin")
	if err := h.lifecycle.ProcessRequestDeletion(c.Request.Context(), id, actor); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id, "deleted": true}))
}

// NotifySelected sends unavailable notifications to a set of requests
// @Summary      Notify selected requests
// @Description  Marks each request notified about its product going away; failures do not halt the batch
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        payload  body      notifySelectedDTO  true  "Request IDs Payload"
// @Success      200      {object}  response.Response{data=service.BulkResult}
// @Router       /api/requests/notify [post]
func (h *RequestHandler) NotifySelected(c *gin.Context) {
	var dto notifySelectedDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ids := make([]uuid.UUID, 0, len(dto.RequestIDs))
	for _, raw := range dto.RequestIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request id: "+raw))
			return
		}
		ids = append(ids, id)
	}

	result := h.lifecycle.NotifySelected(c.Request.Context(), ids)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// parseID pulls the :id path param as a uuid, writing the 400 itself.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
