package audit

import (
	"estoque-backend/internal/apperr"
	"estoque-backend/internal/database"
	"estoque-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type AuditLogResponse struct {
	ID          int64              `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      int64              `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    int64              `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /audit-logs?limit=50&entity_type=produto&entity_id=1&user_id=2
func ListAuditLogsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultListLimit)
		if limit <= 0 {
			return apperr.BadRequest("limit deve ser maior que zero")
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}

		filter := database.AuditFilter{
			EntityType: c.Query("entity_type"),
			EntityID:   int64(c.QueryInt("entity_id", 0)),
			UserID:     int64(c.QueryInt("user_id", 0)),
			Limit:      limit,
		}

		logs, err := svc.List(c.UserContext(), filter)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}

		return c.JSON(fiber.Map{"dados": resp})
	}
}
