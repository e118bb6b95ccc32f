package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"estoque-backend/internal/models"
)

// MemoryStore is a process-local Store for development runs (STORE_DRIVER=memory) and tests.
// Stock transactions are serialized; a failed transaction leaves no rows behind.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	products map[int64]models.Product
	users    []models.User
	receipts []models.Receipt
	issues   []models.Issue
	audit    []models.AuditLog

	nextUserID    int64
	nextReceiptID int64
	nextIssueID   int64
	nextAuditID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[int64]models.Product)}
}

func supplierOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyProduct(p models.Product) models.Product {
	if p.Imagem != nil {
		p.Imagem = append([]byte(nil), p.Imagem...)
	}
	return p
}

// -------------------------
// Products
// -------------------------

func (m *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.Codigo]; ok {
		return ErrDuplicate
	}
	m.products[p.Codigo] = copyProduct(*p)
	return nil
}

func (m *MemoryStore) GetProduct(_ context.Context, codigo int64) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[codigo]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyProduct(p)
	return &out, nil
}

func (m *MemoryStore) ListProducts(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		p.TemImagem = len(p.Imagem) > 0
		p.Imagem = nil
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out, nil
}

// UpdateProduct holds the store lock across mutate; mutate must not call back into the store.
func (m *MemoryStore) UpdateProduct(_ context.Context, codigo int64, mutate func(p *models.Product) error) (*models.Product, *models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.products[codigo]
	if !ok {
		return nil, nil, ErrNotFound
	}

	before := copyProduct(current)
	after := copyProduct(current)
	if err := mutate(&after); err != nil {
		return nil, nil, err
	}
	after.Codigo = codigo
	m.products[codigo] = copyProduct(after)
	return &before, &after, nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, codigo int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[codigo]; !ok {
		return ErrNotFound
	}
	for _, r := range m.receipts {
		if r.Codigo == codigo {
			return ErrReferenced
		}
	}
	for _, i := range m.issues {
		if i.Codigo == codigo {
			return ErrReferenced
		}
	}
	delete(m.products, codigo)
	return nil
}

func (m *MemoryStore) CountMovements(_ context.Context, codigo int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, r := range m.receipts {
		if r.Codigo == codigo {
			n++
		}
	}
	for _, i := range m.issues {
		if i.Codigo == codigo {
			n++
		}
	}
	return n, nil
}

// -------------------------
// Users
// -------------------------

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	m.nextUserID++
	u.ID = m.nextUserID
	m.users = append(m.users, *u)
	return nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// -------------------------
// Audit
// -------------------------

func (m *MemoryStore) CreateAuditLog(_ context.Context, l *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAuditID++
	l.ID = m.nextAuditID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	m.audit = append(m.audit, *l)
	return nil
}

func (m *MemoryStore) ListAuditLogs(_ context.Context, f AuditFilter) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.AuditLog, 0)
	for i := len(m.audit) - 1; i >= 0; i-- {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		l := m.audit[i]
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != 0 && l.EntityID != f.EntityID {
			continue
		}
		if f.UserID != 0 && l.UserID != f.UserID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// -------------------------
// Stock writes
// -------------------------

type memoryTx struct {
	store    *MemoryStore
	receipts []models.Receipt
	issues   []models.Issue
}

// InTx serializes every stock transaction; pending rows are published only when fn succeeds.
func (m *MemoryStore) InTx(ctx context.Context, fn func(tx StockTx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.receipts = append(m.receipts, tx.receipts...)
	m.issues = append(m.issues, tx.issues...)
	m.mu.Unlock()
	return nil
}

func (t *memoryTx) LockStockKey(ctx context.Context, _ models.StockKey) error {
	// InTx already holds the store-wide transaction lock
	return ctx.Err()
}

func (t *memoryTx) ProductExists(_ context.Context, codigo int64) (bool, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	_, ok := t.store.products[codigo]
	return ok, nil
}

func (t *memoryTx) AvailableStock(_ context.Context, key models.StockKey) (int64, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var received, issued int64
	matches := func(codigo int64, lote string, fornecedor *string) bool {
		return codigo == key.Codigo && lote == key.Lote && supplierOf(fornecedor) == key.Fornecedor
	}
	for _, rs := range [][]models.Receipt{t.store.receipts, t.receipts} {
		for _, r := range rs {
			if matches(r.Codigo, r.Lote, r.Fornecedor) {
				received += r.Quant
			}
		}
	}
	for _, is := range [][]models.Issue{t.store.issues, t.issues} {
		for _, i := range is {
			if matches(i.Codigo, i.Lote, i.Fornecedor) {
				issued += i.Quant
			}
		}
	}
	return received - issued, nil
}

func (t *memoryTx) CreateReceipt(_ context.Context, r *models.Receipt) error {
	t.store.mu.Lock()
	t.store.nextReceiptID++
	r.ID = t.store.nextReceiptID
	t.store.mu.Unlock()

	stored := *r
	stored.Produto = nil
	t.receipts = append(t.receipts, stored)
	return nil
}

func (t *memoryTx) CreateIssue(_ context.Context, i *models.Issue) error {
	t.store.mu.Lock()
	t.store.nextIssueID++
	i.ID = t.store.nextIssueID
	t.store.mu.Unlock()

	stored := *i
	stored.Produto = nil
	t.issues = append(t.issues, stored)
	return nil
}

// -------------------------
// Stock reads
// -------------------------

func (m *MemoryStore) ReceiptGroups(_ context.Context, codigo *int64) ([]models.ReceiptGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type groupKey struct {
		codigo     int64
		lote       string
		fornecedor string
		validade   time.Time
	}
	totals := make(map[groupKey]int64)
	for _, r := range m.receipts {
		if codigo != nil && r.Codigo != *codigo {
			continue
		}
		if _, ok := m.products[r.Codigo]; !ok {
			continue
		}
		k := groupKey{r.Codigo, r.Lote, supplierOf(r.Fornecedor), r.Validade}
		totals[k] += r.Quant
	}

	out := make([]models.ReceiptGroup, 0, len(totals))
	for k, q := range totals {
		p := m.products[k.codigo]
		out = append(out, models.ReceiptGroup{
			Codigo:     k.codigo,
			NomeBasico: p.NomeBasico,
			Imagem:     p.Imagem,
			Lote:       k.lote,
			Fornecedor: k.fornecedor,
			Validade:   k.validade,
			Quant:      q,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
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
	return out, nil
}

func (m *MemoryStore) IssueGroups(_ context.Context, codigo *int64) ([]models.IssueGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[models.StockKey]int64)
	for _, i := range m.issues {
		if codigo != nil && i.Codigo != *codigo {
			continue
		}
		totals[models.StockKey{Codigo: i.Codigo, Lote: i.Lote, Fornecedor: supplierOf(i.Fornecedor)}] += i.Quant
	}

	out := make([]models.IssueGroup, 0, len(totals))
	for k, q := range totals {
		out = append(out, models.IssueGroup{Codigo: k.Codigo, Lote: k.Lote, Fornecedor: k.Fornecedor, Quant: q})
	}
	return out, nil
}

func (m *MemoryStore) ListReceipts(_ context.Context, codigo *int64) ([]models.ReceiptView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]models.Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		if codigo == nil || r.Codigo == *codigo {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].DataReceb.Equal(rows[j].DataReceb) {
			return rows[i].DataReceb.After(rows[j].DataReceb)
		}
		return rows[i].ID > rows[j].ID
	})

	out := make([]models.ReceiptView, 0, len(rows))
	for _, r := range rows {
		p, ok := m.products[r.Codigo]
		if !ok {
			continue
		}
		out = append(out, models.ReceiptView{
			ID:               r.ID,
			Codigo:           r.Codigo,
			NomeBasico:       p.NomeBasico,
			Unidade:          p.Unidade,
			DataReceb:        models.FormatDate(r.DataReceb),
			Quant:            r.Quant,
			Lote:             r.Lote,
			Validade:         models.FormatDate(r.Validade),
			PrecoDeAquisicao: r.PrecoDeAquisicao.StringFixed(2),
			Fornecedor:       r.Fornecedor,
		})
	}
	return out, nil
}

// firstReceipt returns the earliest receipt of key, mirroring the SQL join.
func (m *MemoryStore) firstReceipt(key models.StockKey) (models.Receipt, bool) {
	var first models.Receipt
	found := false
	for _, r := range m.receipts {
		if r.Codigo != key.Codigo || r.Lote != key.Lote || supplierOf(r.Fornecedor) != key.Fornecedor {
			continue
		}
		if !found || r.DataReceb.Before(first.DataReceb) ||
			(r.DataReceb.Equal(first.DataReceb) && r.ID < first.ID) {
			first = r
			found = true
		}
	}
	return first, found
}

func (m *MemoryStore) ListIssues(_ context.Context, codigo *int64) ([]models.IssueView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]models.Issue, 0, len(m.issues))
	for _, i := range m.issues {
		if codigo == nil || i.Codigo == *codigo {
			rows = append(rows, i)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].DataSaida.Equal(rows[j].DataSaida) {
			return rows[i].DataSaida.After(rows[j].DataSaida)
		}
		return rows[i].ID > rows[j].ID
	})

	out := make([]models.IssueView, 0, len(rows))
	for _, i := range rows {
		p, ok := m.products[i.Codigo]
		if !ok {
			continue
		}
		v := models.IssueView{
			ID:         i.ID,
			Codigo:     i.Codigo,
			NomeBasico: p.NomeBasico,
			Unidade:    p.Unidade,
			DataSaida:  models.FormatDate(i.DataSaida),
			Quant:      i.Quant,
			Lote:       i.Lote,
			Fornecedor: i.Fornecedor,
		}
		key := models.StockKey{Codigo: i.Codigo, Lote: i.Lote, Fornecedor: supplierOf(i.Fornecedor)}
		if r, ok := m.firstReceipt(key); ok {
			v.Validade = models.FormatDate(r.Validade)
			v.PrecoDeAquisicao = r.PrecoDeAquisicao.StringFixed(2)
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *MemoryStore) Suppliers(_ context.Context, codigo int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range m.receipts {
		s := supplierOf(r.Fornecedor)
		if r.Codigo != codigo || s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) SafetyStock(_ context.Context) ([]models.SafetyStock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type minMax struct{ min, max int64 }
	byCode := make(map[int64]*minMax)
	for _, r := range m.receipts {
		mm, ok := byCode[r.Codigo]
		if !ok {
			byCode[r.Codigo] = &minMax{r.Quant, r.Quant}
			continue
		}
		if r.Quant < mm.min {
			mm.min = r.Quant
		}
		if r.Quant > mm.max {
			mm.max = r.Quant
		}
	}

	out := make([]models.SafetyStock, 0, len(byCode))
	for codigo, mm := range byCode {
		out = append(out, models.SafetyStock{Codigo: codigo, EstoqueSeguranca: float64(mm.max+mm.min) / 2})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out, nil
}

func (m *MemoryStore) LatestReceiptQuantities(_ context.Context) (map[int64]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[int64]models.Receipt)
	for _, r := range m.receipts {
		cur, ok := latest[r.Codigo]
		if !ok || r.DataReceb.After(cur.DataReceb) || (r.DataReceb.Equal(cur.DataReceb) && r.ID > cur.ID) {
			latest[r.Codigo] = r
		}
	}

	out := make(map[int64]int64, len(latest))
	for codigo, r := range latest {
		out[codigo] = r.Quant
	}
	return out, nil
}
