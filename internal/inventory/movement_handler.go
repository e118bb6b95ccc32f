package inventory

import (
	"fmt"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/audit"
	"estoque-backend/internal/models"
	"estoque-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateReceiptRequest struct {
	DataReceb        string          `json:"data_receb"` // "2025-01-31"
	Quant            int64           `json:"quant"`
	Codigo           int64           `json:"codigo"`
	Validade         string          `json:"validade"`
	PrecoDeAquisicao decimal.Decimal `json:"preco_de_aquisicao"`
	Lote             string          `json:"lote"`
	Fornecedor       string          `json:"fornecedor"`
}

type CreateIssueRequest struct {
	Fornecedor string `json:"fornecedor"`
	Codigo     int64  `json:"codigo"`
	Quantidade int64  `json:"quantidade"`
	NumbLote   string `json:"numbLote"`
	DataSaida  string `json:"data_saida"`
}

// POST /adicionar-recebimento
func CreateReceiptHandler(svc *stock.Service, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReceiptRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.ErrBadRequest
		}

		dataReceb, err := parseRequestDate("data_receb", body.DataReceb)
		if err != nil {
			return err
		}
		validade, err := parseRequestDate("validade", body.Validade)
		if err != nil {
			return err
		}

		r, err := svc.RecordReceipt(c.UserContext(), stock.ReceiptInput{
			Codigo:           body.Codigo,
			DataReceb:        dataReceb,
			Validade:         validade,
			Quant:            body.Quant,
			PrecoDeAquisicao: body.PrecoDeAquisicao,
			Lote:             body.Lote,
			Fornecedor:       body.Fornecedor,
		})
		if err != nil {
			return err
		}

		writeAudit(c, auditSvc, audit.LogOptions{
			EntityType:  models.AuditEntityReceipt,
			EntityID:    r.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Recebimento: produto %d, lote %s, %d unidades", r.Codigo, r.Lote, r.Quant),
			After:       r,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":       "Recebimento registrado com sucesso",
			"idrecebimento": r.ID,
		})
	}
}

// POST /adicionar-saida
func CreateIssueHandler(svc *stock.Service, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIssueRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.ErrBadRequest
		}

		dataSaida, err := parseRequestDate("data_saida", body.DataSaida)
		if err != nil {
			return err
		}

		issue, err := svc.RecordIssue(c.UserContext(), stock.IssueInput{
			Codigo:     body.Codigo,
			Lote:       body.NumbLote,
			Fornecedor: body.Fornecedor,
			Quantidade: body.Quantidade,
			DataSaida:  dataSaida,
		})
		if err != nil {
			return err
		}

		writeAudit(c, auditSvc, audit.LogOptions{
			EntityType:  models.AuditEntityIssue,
			EntityID:    issue.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Saída: produto %d, lote %s, %d unidades", issue.Codigo, issue.Lote, issue.Quant),
			After:       issue,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Saída registrada com sucesso",
			"idsaida": issue.ID,
		})
	}
}

// GET /recebimento, /recebimento/:codigo
func ListReceiptsHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := optionalCodigo(c)
		if err != nil {
			return err
		}
		views, err := svc.ListReceipts(c.UserContext(), codigo)
		if err != nil {
			return err
		}
		return c.JSON(dados(views))
	}
}

// GET /saidas, /saidas/:codigo
func ListIssuesHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := optionalCodigo(c)
		if err != nil {
			return err
		}
		views, err := svc.ListIssues(c.UserContext(), codigo)
		if err != nil {
			return err
		}
		return c.JSON(dados(views))
	}
}
