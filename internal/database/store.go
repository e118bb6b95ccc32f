package database

import (
	"context"
	"errors"

	"estoque-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenced means another row still points at the one being deleted.
	ErrReferenced = errors.New("record still referenced")
)

type ProductStore interface {
	// CreateProduct returns ErrDuplicate when the codigo is taken.
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, codigo int64) (*models.Product, error)
	// ListProducts leaves Imagem empty and reports a stored image through TemImagem.
	ListProducts(ctx context.Context) ([]models.Product, error)
	// UpdateProduct runs mutate on the current row while holding it locked and
	// stores the result, so concurrent updates never overwrite each other's
	// fields. An error from mutate aborts the update and is returned as is.
	UpdateProduct(ctx context.Context, codigo int64, mutate func(p *models.Product) error) (before, after *models.Product, err error)
	// DeleteProduct returns ErrReferenced while receipts or issues point at the product.
	DeleteProduct(ctx context.Context, codigo int64) error
	// CountMovements counts receipts plus issues referencing the product.
	CountMovements(ctx context.Context, codigo int64) (int64, error)
}

type UserStore interface {
	// CreateUser returns ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuditFilter narrows ListAuditLogs. Zero fields do not filter.
type AuditFilter struct {
	EntityType string
	EntityID   int64
	UserID     int64
	Limit      int
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, l *models.AuditLog) error
	// ListAuditLogs returns the newest entries first.
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error)
}

// StockTx is the unit of work for stock writes. It is rolled back when the
// function passed to InTx returns an error.
type StockTx interface {
	// LockStockKey blocks until no other transaction holds the key.
	LockStockKey(ctx context.Context, key models.StockKey) error
	ProductExists(ctx context.Context, codigo int64) (bool, error)
	// AvailableStock is sum(receipts) - sum(issues) for key, each sum defaulting to zero.
	AvailableStock(ctx context.Context, key models.StockKey) (int64, error)
	CreateReceipt(ctx context.Context, r *models.Receipt) error
	CreateIssue(ctx context.Context, i *models.Issue) error
}

type MovementStore interface {
	InTx(ctx context.Context, fn func(tx StockTx) error) error

	// ReceiptGroups sums receipts per (codigo, lote, fornecedor, validade); nil codigo means all products.
	ReceiptGroups(ctx context.Context, codigo *int64) ([]models.ReceiptGroup, error)
	// IssueGroups sums issues per (codigo, lote, fornecedor).
	IssueGroups(ctx context.Context, codigo *int64) ([]models.IssueGroup, error)

	ListReceipts(ctx context.Context, codigo *int64) ([]models.ReceiptView, error)
	ListIssues(ctx context.Context, codigo *int64) ([]models.IssueView, error)
	Suppliers(ctx context.Context, codigo int64) ([]string, error)
	SafetyStock(ctx context.Context) ([]models.SafetyStock, error)
	// LatestReceiptQuantities maps codigo to the quantity of its most recent receipt.
	LatestReceiptQuantities(ctx context.Context) (map[int64]int64, error)
}

// Store is everything the HTTP layer needs from persistence.
type Store interface {
	ProductStore
	UserStore
	AuditStore
	MovementStore
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
