package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/application/inventory"
)

// InventoryHandler maneja el registro y consulta de movimientos (protegido).
type InventoryHandler struct {
	register *inventory.RegisterMovementUseCase
	list     *inventory.ListMovementsUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(register *inventory.RegisterMovementUseCase, list *inventory.ListMovementsUseCase) *InventoryHandler {
	return &InventoryHandler{register: register, list: list}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, warehouse_id (o from/to para TRANSFER), type, quantity, unit_cost (entradas)"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if !parseBody(c, &in) {
		return nil
	}
	if err := h.register.RegisterMovementFromRequest(c.Context(), GetCompanyID(c), GetUserID(c), in); err != nil {
		return replyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "movimiento registrado"})
}

// ListMovements godoc
// @Summary      Listar movimientos por bodega o producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega (excluyente con product_id)"
// @Param        product_id    query  string  false  "Producto"
// @Param        from          query  string  false  "Fecha inicial (RFC 3339 o 2006-01-02)"
// @Param        to            query  string  false  "Fecha final"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return nil
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return nil
	}

	if productID := c.Query("product_id"); productID != "" {
		resp, err := h.list.ListByProduct(c.Context(), GetCompanyID(c), productID, from, to, limit, offset)
		if err != nil {
			return replyError(c, err)
		}
		return c.JSON(resp)
	}
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "warehouse_id o product_id requerido"})
	}
	resp, err := h.list.ListByWarehouse(c.Context(), GetCompanyID(c), warehouseID, from, to, limit, offset)
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// parseDateQuery lee un parámetro de fecha opcional. Devuelve false si ya
// respondió el error de formato.
func parseDateQuery(c *fiber.Ctx, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: name + ": fecha inválida"})
	return nil, false
}
