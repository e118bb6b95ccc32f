package inventory

import (
	"strconv"
	"strings"
	"time"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/audit"
	"estoque-backend/internal/auth"
	"estoque-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// codigoParam reads the :codigo route parameter.
func codigoParam(c *fiber.Ctx) (int64, error) {
	codigo, err := strconv.ParseInt(c.Params("codigo"), 10, 64)
	if err != nil || codigo <= 0 {
		return 0, apperr.BadRequest("codigo deve ser um inteiro positivo")
	}
	return codigo, nil
}

// optionalCodigo reads :codigo when the route has it, otherwise the ?codigo= query.
func optionalCodigo(c *fiber.Ctx) (*int64, error) {
	raw := c.Params("codigo")
	if raw == "" {
		raw = c.Query("codigo")
	}
	if raw == "" {
		return nil, nil
	}
	codigo, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || codigo <= 0 {
		return nil, apperr.BadRequest("codigo deve ser um inteiro positivo")
	}
	return &codigo, nil
}

func parseRequestDate(field, value string) (time.Time, error) {
	t, err := models.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperr.BadRequest(field + " deve estar no formato YYYY-MM-DD")
	}
	return t, nil
}

// writeAudit records the change under the authenticated caller.
func writeAudit(c *fiber.Ctx, svc *audit.Service, opts audit.LogOptions) {
	if actor, ok := auth.CurrentActor(c); ok {
		opts.UserID = actor.ID
		opts.UserName = actor.Email
	}
	svc.WriteLog(c.UserContext(), opts)
}

// productSnapshot drops the image so audit rows stay small.
func productSnapshot(p *models.Product) models.Product {
	out := *p
	out.Imagem = nil
	return out
}

func dados(v any) fiber.Map {
	return fiber.Map{"dados": v}
}
