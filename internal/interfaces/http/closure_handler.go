package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/inventasur/bodega-api/internal/application/closure"
	"github.com/inventasur/bodega-api/internal/application/dto"
)

// ClosureHandler maneja el ciclo de vida de los cierres de inventario.
type ClosureHandler struct {
	uc *closure.UseCase
}

// NewClosureHandler construye el handler de cierres.
func NewClosureHandler(uc *closure.UseCase) *ClosureHandler {
	return &ClosureHandler{uc: uc}
}

// Create godoc
// @Summary      Crear cierre mensual (estado en_proceso)
// @Tags         closures
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateClosureRequest  true  "warehouse_id, year, month"
// @Success      201   {object}  dto.ClosureResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/closures [post]
func (h *ClosureHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClosureRequest
	if !parseBody(c, &in) {
		return nil
	}
	resp, err := h.uc.Create(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return replyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List godoc
// @Summary      Listar cierres (de una bodega o de toda la empresa)
// @Tags         closures
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Success      200  {object}  dto.ClosureListResponse
// @Router       /api/closures [get]
func (h *ClosureHandler) List(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	var (
		resp *dto.ClosureListResponse
		err  error
	)
	if warehouseID := c.Query("warehouse_id"); warehouseID != "" {
		resp, err = h.uc.ListByWarehouse(c.Context(), GetCompanyID(c), warehouseID, limit, offset)
	} else {
		resp, err = h.uc.ListByCompany(c.Context(), GetCompanyID(c), limit, offset)
	}
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Get godoc
// @Summary      Obtener cierre con sus detalles
// @Tags         closures
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del cierre"
// @Success      200  {object}  dto.ClosureWithDetailsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/closures/{id} [get]
func (h *ClosureHandler) Get(c *fiber.Ctx) error {
	resp, err := h.uc.GetWithDetails(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Process godoc
// @Summary      Procesar el cierre: deriva saldos desde el cierre anterior y los movimientos del período
// @Tags         closures
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del cierre"
// @Success      200  {object}  dto.ClosureResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/closures/{id}/process [post]
func (h *ClosureHandler) Process(c *fiber.Ctx) error {
	resp, err := h.uc.Process(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Approve godoc
// @Summary      Aprobar un cierre procesado
// @Tags         closures
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del cierre"
// @Success      200  {object}  dto.ClosureResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/closures/{id}/approve [post]
func (h *ClosureHandler) Approve(c *fiber.Ctx) error {
	resp, err := h.uc.Approve(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Close godoc
// @Summary      Cerrar un cierre aprobado (congela el período)
// @Tags         closures
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del cierre"
// @Success      200  {object}  dto.ClosureResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/closures/{id}/close [post]
func (h *ClosureHandler) Close(c *fiber.Ctx) error {
	resp, err := h.uc.Close(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Reopen godoc
// @Summary      Reabrir un cierre cerrado (requiere razón)
// @Tags         closures
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del cierre"
// @Param        body  body  dto.ReopenClosureRequest  true  "reason"
// @Success      200   {object}  dto.ClosureResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/closures/{id}/reopen [post]
func (h *ClosureHandler) Reopen(c *fiber.Ctx) error {
	var in dto.ReopenClosureRequest
	if !parseBody(c, &in) {
		return nil
	}
	resp, err := h.uc.Reopen(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in.Reason)
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Cancel godoc
// @Summary      Cancelar un cierre en proceso sin avances
// @Tags         closures
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del cierre"
// @Success      200  {object}  dto.ClosureResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/closures/{id}/cancel [post]
func (h *ClosureHandler) Cancel(c *fiber.Ctx) error {
	resp, err := h.uc.Cancel(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Delete godoc
// @Summary      Eliminar un cierre en proceso (cascada de detalles)
// @Tags         closures
// @Security     Bearer
// @Param        id  path  string  true  "ID del cierre"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/closures/{id} [delete]
func (h *ClosureHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), GetCompanyID(c), c.Params("id")); err != nil {
		return replyError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordCount godoc
// @Summary      Registrar conteo físico de un detalle
// @Tags         closures
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id        path  string  true  "ID del cierre"
// @Param        detailId  path  string  true  "ID del detalle"
// @Param        body      body  dto.RecordCountRequest  true  "quantity, unit_cost"
// @Success      200       {object}  dto.ClosureDetailResponse
// @Failure      409       {object}  dto.ErrorResponse
// @Router       /api/closures/{id}/details/{detailId}/count [post]
func (h *ClosureHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if !parseBody(c, &in) {
		return nil
	}
	resp, err := h.uc.RecordPhysicalCount(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), c.Params("detailId"), in)
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// ExportXLSX godoc
// @Summary      Exportar el cierre como planilla XLSX
// @Tags         closures
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id  path  string  true  "ID del cierre"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/closures/{id}/export/xlsx [get]
func (h *ClosureHandler) ExportXLSX(c *fiber.Ctx) error {
	data, err := h.uc.ExportXLSX(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=cierre-%s.xlsx", c.Params("id")))
	return c.Send(data)
}

// ExportPDF godoc
// @Summary      Exportar el cierre como acta PDF
// @Tags         closures
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID del cierre"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/closures/{id}/export/pdf [get]
func (h *ClosureHandler) ExportPDF(c *fiber.Ctx) error {
	data, err := h.uc.ExportPDF(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return replyError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=cierre-%s.pdf", c.Params("id")))
	return c.Send(data)
}
