package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
)

// Errores del ciclo de vida de cierres de inventario. Las transiciones no
// lanzan pánicos: devuelven uno de estos errores y el llamador decide cómo
// reportarlo.
var (
	ErrClosureNotEditable     = errors.New("el cierre no es editable en su estado actual")
	ErrClosureNotApproved     = errors.New("el cierre no ha sido aprobado")
	ErrClosureAlreadyApproved = errors.New("el cierre ya fue aprobado")
	ErrClosureAlreadyClosed   = errors.New("el cierre ya está cerrado")
	ErrClosureNotClosed       = errors.New("el cierre no está cerrado")
	ErrClosureProgressed      = errors.New("el cierre ya avanzó y no puede cancelarse")
	ErrClosureNotProcessed    = errors.New("el cierre no ha sido procesado")
	ErrClosurePeriodExists    = errors.New("ya existe un cierre activo para ese período")
	ErrDetailNotCounted       = errors.New("el detalle no tiene conteo físico registrado")
)

// Errores de importación de DTE.
var (
	ErrDTEAlreadyImported = errors.New("el DTE ya fue importado")
	ErrDTENotReconciled   = errors.New("el DTE tiene líneas sin conciliar")
	ErrDTEAlreadyApplied  = errors.New("el DTE ya fue aplicado al inventario")
	ErrDTEDiscarded       = errors.New("el DTE fue descartado")
)
