package stock

import (
	"sort"

	"estoque-backend/internal/models"
)

// ComputeBalances joins issue totals onto receipt groups and derives saldo.
//
// Keys without issues get quant_saida = 0. When one stock key spans several
// validity dates the issued quantity is allocated earliest expiry first, so an
// issue is never counted against two groups; whatever exceeds the receipts of
// the key lands on its last group and shows up as a negative saldo.
func ComputeBalances(receipts []models.ReceiptGroup, issues []models.IssueGroup) []models.BalanceRow {
	issued := make(map[models.StockKey]int64, len(issues))
	for _, ig := range issues {
		issued[models.StockKey{Codigo: ig.Codigo, Lote: ig.Lote, Fornecedor: ig.Fornecedor}] += ig.Quant
	}

	groups := make([]models.ReceiptGroup, len(receipts))
	copy(groups, receipts)
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Codigo != b.Codigo {
			return a.Codigo < b.Codigo
		}
		if a.Lote != b.Lote {
			return a.Lote < b.Lote
		}
		if a.Fornecedor != b.Fornecedor {
			return a.Fornecedor < b.Fornecedor
		}
		return a.Validade.Before(b.Validade)
	})

	rows := make([]models.BalanceRow, 0, len(groups))
	for i, g := range groups {
		key := models.StockKey{Codigo: g.Codigo, Lote: g.Lote, Fornecedor: g.Fornecedor}
		remaining := issued[key]

		lastOfKey := i == len(groups)-1 || keyOf(groups[i+1]) != key
		taken := remaining
		if !lastOfKey && taken > g.Quant {
			taken = g.Quant
		}
		issued[key] = remaining - taken

		rows = append(rows, models.BalanceRow{
			Codigo:           g.Codigo,
			NomeBasico:       g.NomeBasico,
			Lote:             g.Lote,
			Fornecedor:       g.Fornecedor,
			Imagem:           g.Imagem,
			Validade:         models.FormatDate(g.Validade),
			QuantRecebimento: g.Quant,
			QuantSaida:       taken,
			Saldo:            g.Quant - taken,
		})
	}
	return rows
}

func keyOf(g models.ReceiptGroup) models.StockKey {
	return models.StockKey{Codigo: g.Codigo, Lote: g.Lote, Fornecedor: g.Fornecedor}
}

// AvailableLots keeps the balance rows of one supplier that still hold stock.
func AvailableLots(rows []models.BalanceRow, fornecedor string) []models.LotAvailability {
	lots := make([]models.LotAvailability, 0)
	for _, r := range rows {
		if r.Fornecedor != fornecedor || r.Saldo <= 0 {
			continue
		}
		lots = append(lots, models.LotAvailability{
			Lote:       r.Lote,
			Validade:   r.Validade,
			Disponivel: r.Saldo,
		})
	}
	return lots
}

// Summarize folds balance rows into one total per product.
func Summarize(rows []models.BalanceRow, latest map[int64]int64) []models.StockSummary {
	out := make([]models.StockSummary, 0)
	index := make(map[int64]int)
	for _, r := range rows {
		i, ok := index[r.Codigo]
		if !ok {
			index[r.Codigo] = len(out)
			out = append(out, models.StockSummary{
				Codigo:       r.Codigo,
				NomeBasico:   r.NomeBasico,
				QuantRecente: latest[r.Codigo],
			})
			i = len(out) - 1
		}
		out[i].Quantidade += r.Saldo
	}
	return out
}
