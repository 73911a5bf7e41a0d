package http

import (
	"github.com/gofiber/fiber/v2"

	appdte "github.com/inventasur/bodega-api/internal/application/dte"
	"github.com/inventasur/bodega-api/internal/application/dto"
)

// DTEHandler maneja la importación y conciliación de DTE de compra.
type DTEHandler struct {
	uc *appdte.UseCase
}

// NewDTEHandler construye el handler de DTE.
func NewDTEHandler(uc *appdte.UseCase) *DTEHandler {
	return &DTEHandler{uc: uc}
}

// Import godoc
// @Summary      Importar un DTE (XML) y conciliarlo contra el catálogo
// @Tags         dte
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ImportDTERequest  true  "warehouse_id, xml"
// @Success      201   {object}  dto.DTEDocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/dte/import [post]
func (h *DTEHandler) Import(c *fiber.Ctx) error {
	var in dto.ImportDTERequest
	if !parseBody(c, &in) {
		return nil
	}
	resp, err := h.uc.Import(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return replyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List godoc
// @Summary      Listar DTE importados
// @Tags         dte
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pendiente | conciliado | aplicado | descartado"
// @Success      200  {object}  dto.DTEListResponse
// @Router       /api/dte [get]
func (h *DTEHandler) List(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	resp, err := h.uc.List(c.Context(), GetCompanyID(c), c.Query("status"), limit, offset)
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Get godoc
// @Summary      Obtener un DTE con sus líneas
// @Tags         dte
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del documento"
// @Success      200  {object}  dto.DTEDocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dte/{id} [get]
func (h *DTEHandler) Get(c *fiber.Ctx) error {
	resp, err := h.uc.Get(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// ResolveLine godoc
// @Summary      Asignar manualmente un producto a una línea sin conciliar
// @Tags         dte
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string  true  "ID del documento"
// @Param        lineId  path  string  true  "ID de la línea"
// @Param        body    body  dto.ResolveLineRequest  true  "product_id"
// @Success      200     {object}  dto.DTEDocumentResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/dte/{id}/lines/{lineId}/resolve [post]
func (h *DTEHandler) ResolveLine(c *fiber.Ctx) error {
	var in dto.ResolveLineRequest
	if !parseBody(c, &in) {
		return nil
	}
	resp, err := h.uc.ResolveLine(c.Context(), GetCompanyID(c), c.Params("id"), c.Params("lineId"), in)
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Apply godoc
// @Summary      Aplicar un DTE conciliado: registra las entradas en inventario
// @Tags         dte
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del documento"
// @Success      200  {object}  dto.DTEDocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/dte/{id}/apply [post]
func (h *DTEHandler) Apply(c *fiber.Ctx) error {
	resp, err := h.uc.Apply(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Discard godoc
// @Summary      Descartar un DTE no aplicado (terminal)
// @Tags         dte
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del documento"
// @Success      200  {object}  dto.DTEDocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/dte/{id}/discard [post]
func (h *DTEHandler) Discard(c *fiber.Ctx) error {
	resp, err := h.uc.Discard(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}
