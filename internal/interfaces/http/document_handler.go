package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/invosell/factura-api/internal/application/billing"
	"github.com/invosell/factura-api/internal/application/dto"
	"github.com/invosell/factura-api/internal/domain"
	domainbilling "github.com/invosell/factura-api/internal/domain/billing"
)

// DocumentHandler maneja las peticiones HTTP de comprobantes (protegido).
type DocumentHandler struct {
	docUC    *billing.CreateDocumentUseCase
	statusUC *billing.StatusUseCase
	pdfUC    *billing.PDFUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(
	docUC *billing.CreateDocumentUseCase,
	statusUC *billing.StatusUseCase,
	pdfUC *billing.PDFUseCase,
) *DocumentHandler {
	return &DocumentHandler{docUC: docUC, statusUC: statusUC, pdfUC: pdfUC}
}

// Create emite un comprobante (FE, TIQ, NC o ND) y dispara firma y envío.
// POST /api/documents
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.docUC.CreateDocument(c.Context(), companyID, in)
	if err != nil {
		return documentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// GetByID obtiene el detalle completo de un comprobante.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	doc, err := h.docUC.GetDocument(c.Context(), companyID, id)
	if err != nil {
		return documentError(c, err)
	}
	return c.JSON(doc)
}

// List lista comprobantes del emisor.
// GET /api/documents?limit=&offset=
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	docs, err := h.docUC.ListDocuments(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return documentError(c, err)
	}
	return c.JSON(docs)
}

// CheckStatus consulta el estado del comprobante ante Hacienda y lo persiste.
// POST /api/documents/:id/status
func (h *DocumentHandler) CheckStatus(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	status, err := h.statusUC.CheckStatus(c.Context(), companyID, id)
	if err != nil {
		return documentError(c, err)
	}
	return c.JSON(status)
}

// DownloadXML descarga el XML firmado del comprobante.
// GET /api/documents/:id/xml
func (h *DocumentHandler) DownloadXML(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	xmlBytes, filename, err := h.docUC.DownloadXML(c.Context(), companyID, id)
	if err != nil {
		return documentError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(xmlBytes)
}

// DownloadPDF descarga la representación gráfica del comprobante.
// GET /api/documents/:id/pdf
func (h *DocumentHandler) DownloadPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	pdfBytes, filename, err := h.pdfUC.DownloadDocumentPDF(c.Context(), companyID, id)
	if err != nil {
		return documentError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// documentError mapea errores de dominio a códigos HTTP.
func documentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domainbilling.ErrInvalidLine):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrIntegrity):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INTEGRITY", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
