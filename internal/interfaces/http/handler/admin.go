package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SyncTrigger exposes the scheduler operations the admin API needs
type SyncTrigger interface {
	RunOnce(ctx context.Context) (*appsync.SyncReport, error)
	Status() scheduler.SyncStatus
}

// AdminHandler serves the operational API: status summary, manual sync,
// customer and order listings, order status progression.
type AdminHandler struct {
	BaseHandler
	customers partner.CustomerRepository
	products  catalog.ProductRepository
	orders    trade.OrderRepository
	sync      SyncTrigger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	customers partner.CustomerRepository,
	products catalog.ProductRepository,
	orders trade.OrderRepository,
	sync SyncTrigger,
) *AdminHandler {
	return &AdminHandler{
		customers: customers,
		products:  products,
		orders:    orders,
		sync:      sync,
	}
}

// StatusResponse summarizes the storefront for the status endpoint
type StatusResponse struct {
	Customers int64              `json:"customers"`
	Products  int64              `json:"products"`
	Orders    int64              `json:"orders"`
	Sync      SyncStatusResponse `json:"sync"`
}

// SyncStatusResponse reports the last reconciliation run
type SyncStatusResponse struct {
	Running    bool                `json:"running"`
	LastRun    *time.Time          `json:"last_run,omitempty"`
	LastError  string              `json:"last_error,omitempty"`
	LastReport *appsync.SyncReport `json:"last_report,omitempty"`
}

// Status returns entity counts and the last sync outcome
func (h *AdminHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	customerCount, err := h.customers.Count(ctx, shared.Filter{})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	productCount, err := h.products.Count(ctx, shared.Filter{})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	orderCount, err := h.orders.Count(ctx, shared.Filter{})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := StatusResponse{
		Customers: customerCount,
		Products:  productCount,
		Orders:    orderCount,
	}
	if h.sync != nil {
		status := h.sync.Status()
		resp.Sync = SyncStatusResponse{
			Running:    status.Running,
			LastError:  status.LastError,
			LastReport: status.LastReport,
		}
		if !status.LastRun.IsZero() {
			lastRun := status.LastRun
			resp.Sync.LastRun = &lastRun
		}
	}

	h.Success(c, resp)
}

// TriggerSync runs a full reconciliation pass immediately
func (h *AdminHandler) TriggerSync(c *gin.Context) {
	if h.sync == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Sync is not configured")
		return
	}

	report, err := h.sync.RunOnce(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// CustomerResponse is the admin view of a customer
type CustomerResponse struct {
	ID                string  `json:"id"`
	Phone             string  `json:"phone"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Address           string  `json:"address"`
	BrainsAccountCode *string `json:"brains_account_code,omitempty"`
	Balance           string  `json:"balance"`
	CreditLimit       string  `json:"credit_limit"`
}

func toCustomerResponse(customer *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                customer.ID.String(),
		Phone:             customer.Phone,
		Name:              customer.Name,
		Email:             customer.Email,
		Address:           customer.Address,
		BrainsAccountCode: customer.BrainsAccountCode,
		Balance:           customer.Balance.String(),
		CreditLimit:       customer.CreditLimit.String(),
	}
}

// ListCustomers returns a paginated customer listing
func (h *AdminHandler) ListCustomers(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid list parameters")
		return
	}
	filter := listFilter(req)

	ctx := c.Request.Context()
	customers, err := h.customers.FindAll(ctx, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.customers.Count(ctx, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]CustomerResponse, len(customers))
	for i := range customers {
		resp[i] = toCustomerResponse(&customers[i])
	}
	h.SuccessWithMeta(c, resp, total, filter.Page, filter.PageSize)
}

// OrderItemResponse is one snapshotted line of an order
type OrderItemResponse struct {
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// OrderResponse is the admin view of an order
type OrderResponse struct {
	ID            string              `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    string              `json:"customer_id"`
	Status        string              `json:"status"`
	TotalAmount   string              `json:"total_amount"`
	Notes         string              `json:"notes,omitempty"`
	BrainsInvoice string              `json:"brains_invoice,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []OrderItemResponse `json:"items"`
}

func toOrderResponse(order *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			LineTotal:   item.LineTotal.String(),
		}
	}
	return OrderResponse{
		ID:            order.ID.String(),
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID.String(),
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount.String(),
		Notes:         order.Notes,
		BrainsInvoice: order.BrainsInvoice,
		CreatedAt:     order.CreatedAt,
		Items:         items,
	}
}

// ListOrders returns a paginated order listing, optionally filtered by status
func (h *AdminHandler) ListOrders(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid list parameters")
		return
	}
	filter := listFilter(req)
	if status := c.Query("status"); status != "" {
		filter.Filters = map[string]any{"status": status}
	}

	ctx := c.Request.Context()
	orders, err := h.orders.FindAll(ctx, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.orders.Count(ctx, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	h.SuccessWithMeta(c, resp, total, filter.Page, filter.PageSize)
}

// GetOrder returns a single order with its items
func (h *AdminHandler) GetOrder(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid order id")
		return
	}
	id, _ := uuid.Parse(req.ID)

	order, err := h.orders.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}

// UpdateOrderStatusRequest is the body for the status progression endpoint
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus advances an order along its status progression. Invalid
// transitions are rejected by the domain, not silently applied.
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "invalid order id")
		return
	}
	id, _ := uuid.Parse(uriReq.ID)

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "status is required")
		return
	}

	ctx := c.Request.Context()
	order, err := h.orders.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := order.TransitionTo(trade.OrderStatus(req.Status)); err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.orders.Save(ctx, order); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOrderResponse(order))
}

func listFilter(req dto.ListRequest) shared.Filter {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
}
