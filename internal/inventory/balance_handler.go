package inventory

import (
	"fmt"
	"strings"
	"time"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/models"
	"estoque-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var balanceHeader = []any{
	"Código", "Produto", "Lote", "Fornecedor", "Validade", "Recebido", "Saída", "Saldo",
}

// GET /saldos, /saldos/:codigo
func BalancesHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := optionalCodigo(c)
		if err != nil {
			return err
		}
		rows, err := svc.Balances(c.UserContext(), codigo)
		if err != nil {
			return err
		}
		return c.JSON(dados(rows))
	}
}

// GET /saldos/exportar?codigo=1
func ExportBalancesHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := optionalCodigo(c)
		if err != nil {
			return err
		}
		rows, err := svc.Balances(c.UserContext(), codigo)
		if err != nil {
			return err
		}

		f, err := BalanceWorkbook(rows)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}

		filename := fmt.Sprintf("saldos_%s.xlsx", time.Now().Format("20060102"))
		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(buf.Bytes())
	}
}

// BalanceWorkbook renders the saldo report on a single "Saldos" sheet.
func BalanceWorkbook(rows []models.BalanceRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Saldos"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, err
	}

	header := balanceHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := []any{r.Codigo, r.NomeBasico, r.Lote, r.Fornecedor, r.Validade, r.QuantRecebimento, r.QuantSaida, r.Saldo}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", 32); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// GET /fornecedores/:codigo
func SuppliersHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := codigoParam(c)
		if err != nil {
			return err
		}
		suppliers, err := svc.Suppliers(c.UserContext(), codigo)
		if err != nil {
			return err
		}
		return c.JSON(dados(suppliers))
	}
}

// GET /lotes/?codigo=1&fornecedor=ACME
func LotsHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := optionalCodigo(c)
		if err != nil {
			return err
		}
		if codigo == nil {
			return apperr.BadRequest("codigo é obrigatório")
		}

		lots, err := svc.Lots(c.UserContext(), *codigo, strings.TrimSpace(c.Query("fornecedor")))
		if err != nil {
			return err
		}
		return c.JSON(dados(lots))
	}
}

// GET /estoque
func StockSummaryHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.StockSummary(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

// GET /estoqueseguranca
func SafetyStockHandler(svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.SafetyStock(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}
