package handlers

import (
	"invoice-scanner/internal/dto"
	"invoice-scanner/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Summary godoc
// @Summary Spending summary
// @Description Document count, total and average spend, spend this month, average confidence
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.DashboardSummary
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.dashboardService.Summary(c.Context())
	if err != nil {
		return h.fail(c, "Failed to load summary", err)
	}
	return c.JSON(summary)
}

// ByCategory godoc
// @Summary Spend by category
// @Tags dashboard
// @Produce json
// @Success 200 {array} models.CategorySpend
// @Router /dashboard/by-category [get]
func (h *DashboardHandler) ByCategory(c *fiber.Ctx) error {
	spend, err := h.dashboardService.ByCategory(c.Context())
	if err != nil {
		return h.fail(c, "Failed to load category breakdown", err)
	}
	return c.JSON(spend)
}

// ByMonth godoc
// @Summary Spend per month over the last year
// @Tags dashboard
// @Produce json
// @Success 200 {array} models.MonthlySpend
// @Router /dashboard/by-month [get]
func (h *DashboardHandler) ByMonth(c *fiber.Ctx) error {
	spend, err := h.dashboardService.ByMonth(c.Context())
	if err != nil {
		return h.fail(c, "Failed to load monthly trend", err)
	}
	return c.JSON(spend)
}

// TopVendors godoc
// @Summary Top vendors by spend
// @Tags dashboard
// @Produce json
// @Success 200 {array} models.VendorSpend
// @Router /dashboard/top-vendors [get]
func (h *DashboardHandler) TopVendors(c *fiber.Ctx) error {
	vendors, err := h.dashboardService.TopVendors(c.Context())
	if err != nil {
		return h.fail(c, "Failed to load top vendors", err)
	}
	return c.JSON(vendors)
}

// Recent godoc
// @Summary Most recent scans
// @Tags dashboard
// @Produce json
// @Success 200 {array} dto.DocumentResponse
// @Router /dashboard/recent [get]
func (h *DashboardHandler) Recent(c *fiber.Ctx) error {
	docs, err := h.dashboardService.Recent(c.Context())
	if err != nil {
		return h.fail(c, "Failed to load recent documents", err)
	}
	return c.JSON(docs)
}

func (h *DashboardHandler) fail(c *fiber.Ctx, msg string, err error) error {
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: msg})
}
