package apperr

import (
	"errors"
	"fmt"

	"estoque-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code and message so wrapped copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Wrap returns a copy of base carrying err as its cause.
func Wrap(base *Error, err error) *Error {
	return &Error{Code: base.Code, Message: base.Message, Err: err}
}

// BadRequest builds a 400 with a specific validation message.
func BadRequest(message string) *Error {
	return New(fiber.StatusBadRequest, message, nil)
}

var (
	ErrBadRequest         = New(fiber.StatusBadRequest, "Requisição inválida", nil)
	ErrUnauthorized       = New(fiber.StatusUnauthorized, "Token inválido ou expirado", nil)
	ErrInvalidCredentials = New(fiber.StatusUnauthorized, "Credenciais inválidas", nil)
	ErrNotFound           = New(fiber.StatusNotFound, "Registro não encontrado", nil)
	ErrInternal           = New(fiber.StatusInternalServerError, "Falha interna do servidor", nil)
)

// Catalog
var (
	ErrProductNotFound   = New(fiber.StatusNotFound, "Produto não encontrado", nil)
	ErrDuplicateProduct  = New(fiber.StatusConflict, "Já existe um produto com este código", nil)
	ErrProductHasHistory = New(fiber.StatusConflict, "Produto possui recebimentos ou saídas registrados", nil)
	ErrImageNotFound     = New(fiber.StatusNotFound, "Produto sem imagem", nil)
)

// Stock
var (
	ErrInsufficientStock = New(fiber.StatusBadRequest, "Estoque insuficiente para o lote informado", nil)
	ErrStockBusy         = New(fiber.StatusServiceUnavailable, "Estoque ocupado, tente novamente", nil)
)

// Users
var (
	ErrEmailTaken = New(fiber.StatusConflict, "Email já registrado", nil)
)

// Handler is the fiber ErrorHandler: every error leaves as {"error": message}.
func Handler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *Error
		if errors.As(err, &appErr) {
			if appErr.Code >= fiber.StatusInternalServerError {
				logger.FromCtx(log, c).Error("request failed",
					zap.String("path", c.Path()),
					zap.Error(err),
				)
			}
			return c.Status(appErr.Code).JSON(fiber.Map{"error": appErr.Message})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		logger.FromCtx(log, c).Error("unexpected error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrInternal.Message})
	}
}
