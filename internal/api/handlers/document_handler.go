package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"invoice-scanner/internal/dto"
	"invoice-scanner/internal/models"
	"invoice-scanner/internal/repository"
	"invoice-scanner/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DocumentHandler struct {
	docService    *service.DocumentService
	exportService *service.ExportService
	validate      *validator.Validate
	logger        *zap.Logger
}

func NewDocumentHandler(docService *service.DocumentService, exportService *service.ExportService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService:    docService,
		exportService: exportService,
		validate:      validator.New(),
		logger:        logger,
	}
}

// ListDocuments godoc
// @Summary List scanned documents
// @Description Newest first, with category and line item count
// @Tags documents
// @Produce json
// @Param category query int false "Category ID"
// @Param startDate query string false "Earliest invoice date (YYYY-MM-DD)"
// @Param endDate query string false "Latest invoice date (YYYY-MM-DD)"
// @Param search query string false "Matches vendor or file name"
// @Param limit query int false "Limit" default(50)
// @Success 200 {array} dto.DocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	filter, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid category"})
		}
		filter.CategoryID = &id
	}
	filter.Search = c.Query("search")
	if limit := c.QueryInt("limit", 0); limit > 0 {
		filter.Limit = uint64(limit)
	}

	docs, err := h.docService.ListDocuments(c.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to list documents"})
	}

	return c.JSON(docs)
}

// GetDocument godoc
// @Summary Get a document with its line items
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} dto.DocumentDetailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid document ID"})
	}

	doc, err := h.docService.GetDocument(c.Context(), id)
	if err != nil {
		return h.documentError(c, "Failed to get document", err)
	}

	return c.JSON(doc)
}

// UpdateDocument godoc
// @Summary Assign or clear a document category
// @Tags documents
// @Accept json
// @Produce json
// @Param id path int true "Document ID"
// @Param request body dto.UpdateCategoryRequest true "Category; null clears it"
// @Security Bearer
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid document ID"})
	}

	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid category"})
	}

	if err := h.docService.UpdateCategory(c.Context(), id, req.CategoryID); err != nil {
		if errors.Is(err, repository.ErrUnknownCategory) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Unknown category"})
		}
		return h.documentError(c, "Failed to update document", err)
	}

	return c.JSON(dto.SuccessResponse{Success: true})
}

// DeleteDocument godoc
// @Summary Delete a document and its line items
// @Tags documents
// @Produce json
// @Param id path int true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	id, err := documentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid document ID"})
	}

	if err := h.docService.DeleteDocument(c.Context(), id); err != nil {
		return h.documentError(c, "Failed to delete document", err)
	}

	return c.JSON(dto.SuccessResponse{Success: true})
}

// ListCategories godoc
// @Summary List categories
// @Tags documents
// @Produce json
// @Success 200 {array} dto.CategoryResponse
// @Router /documents/categories [get]
func (h *DocumentHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.docService.ListCategories(c.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to list categories"})
	}
	return c.JSON(categories)
}

// ExportDocuments godoc
// @Summary Export documents as an Excel workbook
// @Tags documents
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param startDate query string false "Earliest invoice date (YYYY-MM-DD)"
// @Param endDate query string false "Latest invoice date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} dto.ErrorResponse
// @Router /documents/export [get]
func (h *DocumentHandler) ExportDocuments(c *fiber.Ctx) error {
	filter, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	data, err := h.exportService.ExportXLSX(c.Context(), filter.StartDate, filter.EndDate)
	if err != nil {
		h.logger.Error("Failed to export documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to export documents"})
	}

	c.Attachment(fmt.Sprintf("documents-%s.xlsx", time.Now().UTC().Format("20060102")))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(data)
}

func (h *DocumentHandler) documentError(c *fiber.Ctx, msg string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Document not found"})
	}
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: msg})
}

func documentID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}

func parseDateRange(c *fiber.Ctx) (models.DocumentFilter, error) {
	var filter models.DocumentFilter
	for _, p := range []struct {
		param string
		dest  **time.Time
	}{
		{"startDate", &filter.StartDate},
		{"endDate", &filter.EndDate},
	} {
		raw := c.Query(p.param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid %s: expected YYYY-MM-DD", p.param))
		}
		*p.dest = &t
	}
	return filter, nil
}
