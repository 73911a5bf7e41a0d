package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/application/usecase"
)

// CompanyHandler maneja la empresa del tenant autenticado.
type CompanyHandler struct {
	uc *usecase.CompanyUseCase
}

// NewCompanyHandler construye el handler de empresas.
func NewCompanyHandler(uc *usecase.CompanyUseCase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// Get godoc
// @Summary      Datos de la empresa del token
// @Tags         companies
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CompanyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/company [get]
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	resp, err := h.uc.GetByID(GetCompanyID(c))
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}

// Update godoc
// @Summary      Actualizar datos de la empresa
// @Tags         companies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateCompanyRequest  true  "campos a actualizar"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/company [put]
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCompanyRequest
	if !parseBody(c, &in) {
		return nil
	}
	resp, err := h.uc.Update(GetCompanyID(c), in)
	if err != nil {
		return replyError(c, err)
	}
	return c.JSON(resp)
}
