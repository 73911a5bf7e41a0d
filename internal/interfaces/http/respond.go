package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/domain"
)

// validate instancia compartida; las reglas viven en los tags de los DTO.
var validate = validator.New()

// parseBody decodifica y valida el body. Devuelve false si ya respondió error.
func parseBody(c *fiber.Ctx, out any) bool {
	if err := c.BodyParser(out); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		return false
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		msg := "datos inválidos"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = "campo inválido: " + verrs[0].Field()
		}
		c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
		return false
	}
	return true
}

// parsePage extrae limit/offset de la query con valores por defecto.
func parsePage(c *fiber.Ctx) (int, int) {
	p := dto.PageRequest{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	p.DefaultPage()
	return p.Limit, p.Offset
}

// mapa de errores de dominio a status + código HTTP.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},

	{domain.ErrClosurePeriodExists, fiber.StatusConflict, "CLOSURE_PERIOD_EXISTS"},
	{domain.ErrClosureNotEditable, fiber.StatusConflict, "CLOSURE_NOT_EDITABLE"},
	{domain.ErrClosureNotApproved, fiber.StatusConflict, "CLOSURE_NOT_APPROVED"},
	{domain.ErrClosureAlreadyApproved, fiber.StatusConflict, "CLOSURE_ALREADY_APPROVED"},
	{domain.ErrClosureAlreadyClosed, fiber.StatusConflict, "CLOSURE_ALREADY_CLOSED"},
	{domain.ErrClosureNotClosed, fiber.StatusConflict, "CLOSURE_NOT_CLOSED"},
	{domain.ErrClosureProgressed, fiber.StatusConflict, "CLOSURE_PROGRESSED"},
	{domain.ErrClosureNotProcessed, fiber.StatusConflict, "CLOSURE_NOT_PROCESSED"},
	{domain.ErrDetailNotCounted, fiber.StatusConflict, "DETAIL_NOT_COUNTED"},

	{domain.ErrDTEAlreadyImported, fiber.StatusConflict, "DTE_ALREADY_IMPORTED"},
	{domain.ErrDTENotReconciled, fiber.StatusConflict, "DTE_NOT_RECONCILED"},
	{domain.ErrDTEAlreadyApplied, fiber.StatusConflict, "DTE_ALREADY_APPLIED"},
	{domain.ErrDTEDiscarded, fiber.StatusConflict, "DTE_DISCARDED"},
}

// replyError mapea un error de dominio a la respuesta HTTP. Los errores no
// reconocidos se reportan como 500 con su mensaje.
func replyError(c *fiber.Ctx, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: m.err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
