package http

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/internal/application/usecase"
	"github.com/contablebot/portal-api/pkg/logger"
)

// uploadField campo multipart con las imágenes de facturas.
const uploadField = "images"

// InvoiceHandler maneja las peticiones HTTP de facturas (protegido).
type InvoiceHandler struct {
	uc  *usecase.InvoiceUseCase
	log *logger.Logger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *usecase.InvoiceUseCase, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Produce      json
// @Param        from       query  string  false  "Fecha desde (YYYY-MM-DD)"
// @Param        to         query  string  false  "Fecha hasta (YYYY-MM-DD)"
// @Param        client     query  string  false  "Nombre de cliente (parcial)"
// @Param        client_id  query  int     false  "ID de cliente"
// @Param        status     query  string  false  "Estados separados por coma"
// @Param        limit      query  int     false  "Límite"  default(100)
// @Success      200  {object}  dto.InvoicesResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var q dto.InvoiceQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.List(c.UserContext(), actorFrom(c), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.InvoicesResponse{Invoices: out})
}

// GetByID obtiene una factura.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update corrige campos extraídos.
// PATCH /api/invoices/:id
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	var patch dto.InvoicePatch
	if err := bindBody(c, &patch); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Update(c.UserContext(), actorFrom(c), id, patch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete elimina (soft delete) una factura.
// DELETE /api/invoices/:id
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.uc.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OKResponse{OK: true, Message: "Factura eliminada correctamente"})
}

// Pending cuenta las facturas en cola de procesamiento.
// GET /api/invoices/pending
func (h *InvoiceHandler) Pending(c *fiber.Ctx) error {
	n, err := h.uc.PendingCount(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.PendingResponse{Count: n})
}

// QA godoc
// @Summary      Control de calidad de facturas procesadas
// @Tags         invoices
// @Produce      json
// @Param        filter  query  string  false  "all | flagged"
// @Param        limit   query  int     false  "Límite"  default(100)
// @Success      200  {object}  dto.QAResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/invoices/qa [get]
func (h *InvoiceHandler) QA(c *fiber.Ctx) error {
	var q dto.QAQuery
	if err := bindQuery(c, &q); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.QA(c.UserContext(), actorFrom(c), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Upload godoc
// @Summary      Subir imágenes de facturas
// @Description  Cada archivo crea una factura pendiente para el cliente activo.
// @Tags         invoices
// @Accept       multipart/form-data
// @Produce      json
// @Param        images  formData  file  true  "Imágenes (JPG, PNG, WEBP, GIF)"
// @Success      200  {object}  dto.UploadResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/invoices/upload [post]
func (h *InvoiceHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "se esperaba multipart/form-data"})
	}
	headers := form.File[uploadField]

	files := make([]dto.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return respondError(c, h.log, err)
		}
		defer closeFile(f)
		files = append(files, dto.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
	}

	out, err := h.uc.Upload(c.UserContext(), actorFrom(c), files)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

func closeFile(f multipart.File) { _ = f.Close() }
