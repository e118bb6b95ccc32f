package stock

import (
	"fmt"
	"testing"
	"time"

	"estoque-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeBalances_NoIssuesDefaultsToZero(t *testing.T) {
	rows := ComputeBalances([]models.ReceiptGroup{
		{Codigo: 1, NomeBasico: "Parafuso", Lote: "L1", Fornecedor: "ACME", Validade: date("2025-01-31"), Quant: 100},
	}, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].QuantSaida)
	assert.Equal(t, int64(100), rows[0].Saldo)
	assert.Equal(t, "31/01/2025", rows[0].Validade)
}

func TestComputeBalances_SubtractsIssuesOfSameKey(t *testing.T) {
	rows := ComputeBalances(
		[]models.ReceiptGroup{
			{Codigo: 1, Lote: "L1", Fornecedor: "ACME", Validade: date("2025-01-01"), Quant: 100},
			{Codigo: 1, Lote: "L2", Fornecedor: "ACME", Validade: date("2025-01-01"), Quant: 10},
		},
		[]models.IssueGroup{
			{Codigo: 1, Lote: "L1", Fornecedor: "ACME", Quant: 50},
			{Codigo: 1, Lote: "L1", Fornecedor: "Outro", Quant: 7},
		},
	)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(50), rows[0].QuantSaida)
	assert.Equal(t, int64(50), rows[0].Saldo)
	assert.Equal(t, int64(0), rows[1].QuantSaida)
	assert.Equal(t, int64(10), rows[1].Saldo)
}

func TestComputeBalances_SaldoIdentity(t *testing.T) {
	rows := ComputeBalances(
		[]models.ReceiptGroup{
			{Codigo: 2, Lote: "B", Validade: date("2025-03-01"), Quant: 4},
			{Codigo: 1, Lote: "A", Validade: date("2025-02-01"), Quant: 9},
		},
		[]models.IssueGroup{{Codigo: 2, Lote: "B", Quant: 3}},
	)

	for _, r := range rows {
		assert.Equal(t, r.QuantRecebimento-r.QuantSaida, r.Saldo)
	}
	assert.Equal(t, int64(1), rows[0].Codigo, "ordered by codigo")
}

func TestComputeBalances_MultipleValiditiesAllocateEarliestFirst(t *testing.T) {
	rows := ComputeBalances(
		[]models.ReceiptGroup{
			{Codigo: 1, Lote: "L1", Validade: date("2025-06-01"), Quant: 20},
			{Codigo: 1, Lote: "L1", Validade: date("2025-03-01"), Quant: 10},
		},
		[]models.IssueGroup{{Codigo: 1, Lote: "L1", Quant: 15}},
	)

	require.Len(t, rows, 2)
	assert.Equal(t, "01/03/2025", rows[0].Validade)
	assert.Equal(t, int64(10), rows[0].QuantSaida)
	assert.Equal(t, int64(0), rows[0].Saldo)
	assert.Equal(t, int64(5), rows[1].QuantSaida)
	assert.Equal(t, int64(15), rows[1].Saldo)

	var issued int64
	for _, r := range rows {
		issued += r.QuantSaida
	}
	assert.Equal(t, int64(15), issued, "issues counted once")
}

func TestComputeBalances_ExcessLandsOnLastGroup(t *testing.T) {
	rows := ComputeBalances(
		[]models.ReceiptGroup{
			{Codigo: 1, Lote: "L1", Validade: date("2025-03-01"), Quant: 10},
			{Codigo: 1, Lote: "L1", Validade: date("2025-06-01"), Quant: 10},
		},
		[]models.IssueGroup{{Codigo: 1, Lote: "L1", Quant: 25}},
	)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(0), rows[0].Saldo)
	assert.Equal(t, int64(-5), rows[1].Saldo)
}

func TestComputeBalances_OrderedByCodigoLoteFornecedorValidade(t *testing.T) {
	rows := ComputeBalances([]models.ReceiptGroup{
		{Codigo: 2, Lote: "A", Fornecedor: "ACME", Validade: date("2025-01-01"), Quant: 1},
		{Codigo: 1, Lote: "L1", Fornecedor: "Zeta", Validade: date("2025-01-01"), Quant: 1},
		{Codigo: 1, Lote: "L1", Fornecedor: "ACME", Validade: date("2025-06-01"), Quant: 1},
		{Codigo: 1, Lote: "L1", Fornecedor: "ACME", Validade: date("2025-03-01"), Quant: 1},
	}, nil)

	require.Len(t, rows, 4)
	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = fmt.Sprintf("%d/%s/%s/%s", r.Codigo, r.Lote, r.Fornecedor, r.Validade)
	}
	assert.Equal(t, []string{
		"1/L1/ACME/01/03/2025",
		"1/L1/ACME/01/06/2025",
		"1/L1/Zeta/01/01/2025",
		"2/A/ACME/01/01/2025",
	}, got)
}

func TestComputeBalances_IssuesWithoutReceiptsProduceNoRow(t *testing.T) {
	rows := ComputeBalances(nil, []models.IssueGroup{{Codigo: 1, Lote: "L1", Quant: 5}})
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestAvailableLots(t *testing.T) {
	rows := []models.BalanceRow{
		{Codigo: 1, Lote: "L1", Fornecedor: "ACME", Validade: "01/03/2025", Saldo: 4},
		{Codigo: 1, Lote: "L2", Fornecedor: "ACME", Validade: "01/04/2025", Saldo: 0},
		{Codigo: 1, Lote: "L3", Fornecedor: "Outro", Validade: "01/05/2025", Saldo: 9},
	}

	lots := AvailableLots(rows, "ACME")
	require.Len(t, lots, 1)
	assert.Equal(t, models.LotAvailability{Lote: "L1", Validade: "01/03/2025", Disponivel: 4}, lots[0])
}

func TestSummarize(t *testing.T) {
	rows := []models.BalanceRow{
		{Codigo: 1, NomeBasico: "Parafuso", Lote: "L1", Saldo: 4},
		{Codigo: 1, NomeBasico: "Parafuso", Lote: "L2", Saldo: 6},
		{Codigo: 2, NomeBasico: "Porca", Lote: "X", Saldo: 1},
	}

	out := Summarize(rows, map[int64]int64{1: 3})
	require.Len(t, out, 2)
	assert.Equal(t, models.StockSummary{Codigo: 1, NomeBasico: "Parafuso", Quantidade: 10, QuantRecente: 3}, out[0])
	assert.Equal(t, int64(0), out[1].QuantRecente)
}
