package stock

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/database"
	"estoque-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxLoteLen = 30

type ReceiptInput struct {
	Codigo           int64
	DataReceb        time.Time
	Validade         time.Time
	Quant            int64
	PrecoDeAquisicao decimal.Decimal
	Lote             string
	Fornecedor       string
}

type IssueInput struct {
	Codigo     int64
	Lote       string
	Fornecedor string
	Quantidade int64
	DataSaida  time.Time
}

type Service struct {
	store database.MovementStore
	locks *KeyedMutex
	log   *zap.Logger
}

func NewService(store database.MovementStore, log *zap.Logger) *Service {
	return &Service{store: store, locks: NewKeyedMutex(), log: log}
}

// RecordReceipt stores a receipt for an existing product.
func (s *Service) RecordReceipt(ctx context.Context, in ReceiptInput) (*models.Receipt, error) {
	lote, err := validateLote(in.Lote)
	if err != nil {
		return nil, err
	}
	if in.Quant <= 0 {
		return nil, apperr.BadRequest("quant deve ser maior que zero")
	}
	if in.PrecoDeAquisicao.IsNegative() {
		return nil, apperr.BadRequest("preco_de_aquisicao não pode ser negativo")
	}
	if in.DataReceb.IsZero() || in.Validade.IsZero() {
		return nil, apperr.BadRequest("data_receb e validade são obrigatórias")
	}

	r := &models.Receipt{
		DataReceb:        in.DataReceb,
		Quant:            in.Quant,
		Codigo:           in.Codigo,
		Validade:         in.Validade,
		PrecoDeAquisicao: in.PrecoDeAquisicao,
		Lote:             lote,
		Fornecedor:       supplierPtr(in.Fornecedor),
	}

	err = s.store.InTx(ctx, func(tx database.StockTx) error {
		ok, err := tx.ProductExists(ctx, in.Codigo)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrProductNotFound
		}
		return tx.CreateReceipt(ctx, r)
	})
	if err != nil {
		return nil, s.internal("record receipt", err)
	}
	return r, nil
}

// RecordIssue admits an issue only when the stock key holds at least the
// requested quantity. Check and insert run under one lock per key, so two
// concurrent issues can never both pass against the same stock.
func (s *Service) RecordIssue(ctx context.Context, in IssueInput) (*models.Issue, error) {
	lote, err := validateLote(in.Lote)
	if err != nil {
		return nil, err
	}
	if in.Quantidade <= 0 {
		return nil, apperr.BadRequest("quantidade deve ser maior que zero")
	}
	if in.DataSaida.IsZero() {
		return nil, apperr.BadRequest("data_saida é obrigatória")
	}

	key := models.StockKey{Codigo: in.Codigo, Lote: lote, Fornecedor: strings.TrimSpace(in.Fornecedor)}

	unlock, err := s.locks.Lock(ctx, key.String())
	if err != nil {
		return nil, s.busy(key, err)
	}
	defer unlock()

	issue := &models.Issue{
		DataSaida:  in.DataSaida,
		Quant:      in.Quantidade,
		Lote:       key.Lote,
		Codigo:     key.Codigo,
		Fornecedor: supplierPtr(key.Fornecedor),
	}

	var available int64
	err = s.store.InTx(ctx, func(tx database.StockTx) error {
		if err := tx.LockStockKey(ctx, key); err != nil {
			return err
		}
		ok, err := tx.ProductExists(ctx, key.Codigo)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrProductNotFound
		}
		available, err = tx.AvailableStock(ctx, key)
		if err != nil {
			return err
		}
		if available < in.Quantidade {
			return apperr.ErrInsufficientStock
		}
		return tx.CreateIssue(ctx, issue)
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInsufficientStock):
			s.log.Info("issue refused",
				zap.String("key", key.String()),
				zap.Int64("requested", in.Quantidade),
				zap.Int64("available", available),
			)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, s.busy(key, err)
		}
		return nil, s.internal("record issue", err)
	}
	return issue, nil
}

// Balances returns the saldo report, optionally for a single product.
func (s *Service) Balances(ctx context.Context, codigo *int64) ([]models.BalanceRow, error) {
	receipts, err := s.store.ReceiptGroups(ctx, codigo)
	if err != nil {
		return nil, s.internal("receipt groups", err)
	}
	issues, err := s.store.IssueGroups(ctx, codigo)
	if err != nil {
		return nil, s.internal("issue groups", err)
	}
	return ComputeBalances(receipts, issues), nil
}

func (s *Service) ListReceipts(ctx context.Context, codigo *int64) ([]models.ReceiptView, error) {
	views, err := s.store.ListReceipts(ctx, codigo)
	if err != nil {
		return nil, s.internal("list receipts", err)
	}
	return views, nil
}

func (s *Service) ListIssues(ctx context.Context, codigo *int64) ([]models.IssueView, error) {
	views, err := s.store.ListIssues(ctx, codigo)
	if err != nil {
		return nil, s.internal("list issues", err)
	}
	return views, nil
}

func (s *Service) Suppliers(ctx context.Context, codigo int64) ([]string, error) {
	suppliers, err := s.store.Suppliers(ctx, codigo)
	if err != nil {
		return nil, s.internal("suppliers", err)
	}
	return suppliers, nil
}

// Lots lists the lots of a (codigo, fornecedor) pair that still have stock.
func (s *Service) Lots(ctx context.Context, codigo int64, fornecedor string) ([]models.LotAvailability, error) {
	rows, err := s.Balances(ctx, &codigo)
	if err != nil {
		return nil, err
	}
	return AvailableLots(rows, strings.TrimSpace(fornecedor)), nil
}

func (s *Service) SafetyStock(ctx context.Context) ([]models.SafetyStock, error) {
	out, err := s.store.SafetyStock(ctx)
	if err != nil {
		return nil, s.internal("safety stock", err)
	}
	return out, nil
}

// StockSummary totals the balance per product next to its latest receipt quantity.
func (s *Service) StockSummary(ctx context.Context) ([]models.StockSummary, error) {
	rows, err := s.Balances(ctx, nil)
	if err != nil {
		return nil, err
	}
	latest, err := s.store.LatestReceiptQuantities(ctx)
	if err != nil {
		return nil, s.internal("latest receipts", err)
	}
	return Summarize(rows, latest), nil
}

// busy reports a request that gave up waiting for a stock key.
func (s *Service) busy(key models.StockKey, err error) error {
	s.log.Warn("stock key busy", zap.String("key", key.String()), zap.Error(err))
	return apperr.Wrap(apperr.ErrStockBusy, err)
}

// internal passes application errors through and wraps everything else as a 500.
func (s *Service) internal(op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	s.log.Error("stock operation failed", zap.String("op", op), zap.Error(err))
	return apperr.Wrap(apperr.ErrInternal, err)
}

func validateLote(lote string) (string, error) {
	lote = strings.TrimSpace(lote)
	if lote == "" {
		return "", apperr.BadRequest("lote é obrigatório")
	}
	if utf8.RuneCountInString(lote) > maxLoteLen {
		return "", apperr.BadRequest("lote deve ter no máximo 30 caracteres")
	}
	return lote, nil
}

// supplierPtr stores a blank supplier as NULL.
func supplierPtr(fornecedor string) *string {
	fornecedor = strings.TrimSpace(fornecedor)
	if fornecedor == "" {
		return nil
	}
	return &fornecedor
}
