package stock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/database"
	"estoque-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	require.NoError(t, store.CreateProduct(context.Background(), &models.Product{
		Codigo:      1,
		NomeBasico:  "Parafuso",
		InseridoPor: "ana",
	}))
	return NewService(store, zap.NewNop()), store
}

func receive(t *testing.T, s *Service, lote, fornecedor string, quant int64) {
	t.Helper()
	_, err := s.RecordReceipt(context.Background(), ReceiptInput{
		Codigo:           1,
		DataReceb:        date("2024-01-10"),
		Validade:         date("2025-01-31"),
		Quant:            quant,
		PrecoDeAquisicao: decimal.RequireFromString("2.50"),
		Lote:             lote,
		Fornecedor:       fornecedor,
	})
	require.NoError(t, err)
}

func issueInput(lote, fornecedor string, quant int64) IssueInput {
	return IssueInput{Codigo: 1, Lote: lote, Fornecedor: fornecedor, Quantidade: quant, DataSaida: date("2024-02-01")}
}

func TestService_BalanceAfterReceiptsAndIssues(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	receive(t, s, "L1", "ACME", 100)

	_, err := s.RecordIssue(ctx, issueInput("L1", "ACME", 30))
	require.NoError(t, err)
	_, err = s.RecordIssue(ctx, issueInput("L1", "ACME", 20))
	require.NoError(t, err)

	codigo := int64(1)
	rows, err := s.Balances(ctx, &codigo)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(100), rows[0].QuantRecebimento)
	assert.Equal(t, int64(50), rows[0].QuantSaida)
	assert.Equal(t, int64(50), rows[0].Saldo)
	assert.Equal(t, "Parafuso", rows[0].NomeBasico)
}

func TestService_BalancesUnknownProductIsEmpty(t *testing.T) {
	s, _ := newTestService(t)
	codigo := int64(999)

	rows, err := s.Balances(context.Background(), &codigo)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_RecordIssue_Insufficient(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	receive(t, s, "L1", "ACME", 10)

	_, err := s.RecordIssue(ctx, issueInput("L1", "ACME", 11))
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	issues, err := store.ListIssues(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, issues, "refused issue leaves no row")
}

func TestService_RecordIssue_ExactStockAllowed(t *testing.T) {
	s, _ := newTestService(t)
	receive(t, s, "L1", "ACME", 10)

	issue, err := s.RecordIssue(context.Background(), issueInput("L1", "ACME", 10))
	require.NoError(t, err)
	assert.NotZero(t, issue.ID)
}

func TestService_RecordIssue_OtherSupplierStockDoesNotCount(t *testing.T) {
	s, _ := newTestService(t)
	receive(t, s, "L1", "ACME", 10)

	_, err := s.RecordIssue(context.Background(), issueInput("L1", "Outro", 1))
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
}

func TestService_RecordIssue_BlankSupplierMatchesNullReceipts(t *testing.T) {
	s, _ := newTestService(t)
	receive(t, s, "L1", "", 10)

	issue, err := s.RecordIssue(context.Background(), issueInput("L1", "  ", 4))
	require.NoError(t, err)
	assert.Nil(t, issue.Fornecedor)
}

func TestService_RecordIssue_UnknownProduct(t *testing.T) {
	s, _ := newTestService(t)
	in := issueInput("L1", "ACME", 1)
	in.Codigo = 42

	_, err := s.RecordIssue(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestService_RecordIssue_Validation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]IssueInput{
		"zero quantity": issueInput("L1", "ACME", 0),
		"negative":      issueInput("L1", "ACME", -3),
		"missing lote":  issueInput(" ", "ACME", 1),
		"lote too long": issueInput("0123456789012345678901234567890", "ACME", 1),
		"missing date":  {Codigo: 1, Lote: "L1", Quantidade: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.RecordIssue(ctx, in)
			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, 400, appErr.Code)
		})
	}
}

func TestService_RecordIssue_ConcurrentRequestsCannotOversell(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	receive(t, s, "L1", "ACME", 50)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.RecordIssue(ctx, issueInput("L1", "ACME", 40))
		}(i)
	}
	wg.Wait()

	succeeded, refused := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperr.ErrInsufficientStock):
			refused++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, refused)

	codigo := int64(1)
	rows, err := s.Balances(ctx, &codigo)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0].Saldo)

	issues, err := store.ListIssues(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, issues, 1)
}

func TestService_RecordIssue_TimeoutWaitingForKeyIsBusy(t *testing.T) {
	s, store := newTestService(t)
	receive(t, s, "L1", "ACME", 50)

	key := models.StockKey{Codigo: 1, Lote: "L1", Fornecedor: "ACME"}
	unlock, err := s.locks.Lock(context.Background(), key.String())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.RecordIssue(ctx, issueInput("L1", "ACME", 10))

	require.ErrorIs(t, err, apperr.ErrStockBusy)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 503, appErr.Code)

	issues, err := store.ListIssues(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestService_RecordReceipt(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	r, err := s.RecordReceipt(ctx, ReceiptInput{
		Codigo:    1,
		DataReceb: date("2024-01-10"),
		Validade:  date("2025-01-31"),
		Quant:     5,
		Lote:      " L9 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "L9", r.Lote)
	assert.Nil(t, r.Fornecedor)

	_, err = s.RecordReceipt(ctx, ReceiptInput{Codigo: 77, DataReceb: date("2024-01-10"), Validade: date("2025-01-31"), Quant: 5, Lote: "L9"})
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)

	_, err = s.RecordReceipt(ctx, ReceiptInput{Codigo: 1, DataReceb: date("2024-01-10"), Validade: date("2025-01-31"), Quant: 0, Lote: "L9"})
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Code)
}

func TestService_Lots(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	receive(t, s, "L1", "ACME", 10)
	receive(t, s, "L2", "ACME", 5)
	receive(t, s, "L3", "Outro", 7)
	_, err := s.RecordIssue(ctx, issueInput("L2", "ACME", 5))
	require.NoError(t, err)

	lots, err := s.Lots(ctx, 1, "ACME")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "L1", lots[0].Lote)
	assert.Equal(t, int64(10), lots[0].Disponivel)
	assert.Equal(t, "31/01/2025", lots[0].Validade)
}

func TestService_StockSummary(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	receive(t, s, "L1", "ACME", 10)
	receive(t, s, "L2", "ACME", 6)
	_, err := s.RecordIssue(ctx, issueInput("L1", "ACME", 4))
	require.NoError(t, err)

	out, err := s.StockSummary(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(12), out[0].Quantidade)
}

type failingStore struct {
	database.MovementStore
}

func (failingStore) ReceiptGroups(context.Context, *int64) ([]models.ReceiptGroup, error) {
	return nil, errors.New("connection reset")
}

func TestService_Balances_PersistenceFailureIsInternal(t *testing.T) {
	s := NewService(failingStore{MovementStore: database.NewMemoryStore()}, zap.NewNop())

	rows, err := s.Balances(context.Background(), nil)
	assert.Nil(t, rows)
	assert.ErrorIs(t, err, apperr.ErrInternal)
}
