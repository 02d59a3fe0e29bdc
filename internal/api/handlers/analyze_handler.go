package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"invoice-scanner/internal/dto"
	"invoice-scanner/internal/models"
	"invoice-scanner/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// uploadField is the multipart field carrying the document.
const uploadField = "document"

type AnalyzeHandler struct {
	ingestService *service.IngestService
	maxBytes      int64
	logger        *zap.Logger
}

func NewAnalyzeHandler(ingestService *service.IngestService, maxBytes int64, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		ingestService: ingestService,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

// AnalyzeInvoice godoc
// @Summary Analyze an invoice
// @Description Extract vendor, date, totals and line items from an invoice and store them
// @Tags analyze
// @Accept multipart/form-data
// @Produce json
// @Param document formData file true "Invoice (JPEG, PNG, BMP, TIFF or PDF, up to 4 MB)"
// @Security Bearer
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /analyze/invoice [post]
func (h *AnalyzeHandler) AnalyzeInvoice(c *fiber.Ctx) error {
	return h.analyze(c, models.DocumentKindInvoice)
}

// AnalyzeReceipt godoc
// @Summary Analyze a receipt
// @Description Extract merchant, date, totals and items from a receipt and store them
// @Tags analyze
// @Accept multipart/form-data
// @Produce json
// @Param document formData file true "Receipt (JPEG, PNG, BMP, TIFF or PDF, up to 4 MB)"
// @Security Bearer
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /analyze/receipt [post]
func (h *AnalyzeHandler) AnalyzeReceipt(c *fiber.Ctx) error {
	return h.analyze(c, models.DocumentKindReceipt)
}

// Analyze godoc
// @Summary Analyze a document of the given kind
// @Tags analyze
// @Accept multipart/form-data
// @Produce json
// @Param document formData file true "Document"
// @Param kind formData string false "invoice (default) or receipt"
// @Security Bearer
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /analyze [post]
func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	kind, err := models.ParseDocumentKind(c.FormValue("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return h.analyze(c, kind)
}

func (h *AnalyzeHandler) analyze(c *fiber.Ctx, kind models.DocumentKind) error {
	var upload *models.UploadedFile

	fh, err := c.FormFile(uploadField)
	if err == nil {
		upload, err = h.readUpload(fh)
		if err != nil {
			h.logger.Error("Failed to read upload", zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Failed to read uploaded file"})
		}
	}

	resp, err := h.ingestService.Ingest(c.Context(), upload, kind)
	if err != nil {
		var ierr *service.IngestError
		if errors.As(err, &ierr) {
			return c.Status(ierr.Status()).JSON(dto.ErrorResponse{Error: ierr.Message})
		}
		h.logger.Error("Ingestion failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to analyze document"})
	}

	return c.JSON(resp)
}

// readUpload reads at most one byte past the limit so oversize files are
// still reported as too large.
func (h *AnalyzeHandler) readUpload(fh *multipart.FileHeader) (*models.UploadedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		return nil, err
	}

	return &models.UploadedFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}
