package database

import (
	"context"
	"errors"
	"time"

	"estoque-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on Postgres through GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrReferenced
	default:
		return err
	}
}

// -------------------------
// Products
// -------------------------

func (s *GormStore) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) GetProduct(ctx context.Context, codigo int64) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "codigo = ?", codigo).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// productListColumns is every dimproduto column except the image bytes.
const productListColumns = `codigo, nome_basico, nome_modificador, descricao_tecnica, fabricante,
	observacoes_adicional, unidade, preco_de_venda, fragilidade, inserido_por, rua, coluna, andar,
	altura, largura, profundidade, peso, COALESCE(octet_length(imagem), 0) > 0 AS tem_imagem`

func (s *GormStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Select(productListColumns).
		Order("codigo asc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) UpdateProduct(ctx context.Context, codigo int64, mutate func(p *models.Product) error) (*models.Product, *models.Product, error) {
	var before, after models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&before, "codigo = ?", codigo).Error
		if err != nil {
			return translate(err)
		}

		after = before
		if err := mutate(&after); err != nil {
			return err
		}
		after.Codigo = codigo

		return translate(tx.Model(&after).Select("*").Omit("codigo").Updates(&after).Error)
	})
	if err != nil {
		return nil, nil, err
	}
	return &before, &after, nil
}

func (s *GormStore) DeleteProduct(ctx context.Context, codigo int64) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "codigo = ?", codigo)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CountMovements(ctx context.Context, codigo int64) (int64, error) {
	var receipts, issues int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Receipt{}).Where("codigo = ?", codigo).Count(&receipts).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&models.Issue{}).Where("codigo = ?", codigo).Count(&issues).Error; err != nil {
		return 0, err
	}
	return receipts + issues, nil
}

// -------------------------
// Users
// -------------------------

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "idusuario = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// -------------------------
// Audit
// -------------------------

func (s *GormStore) CreateAuditLog(ctx context.Context, l *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *GormStore) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC, id DESC").Find(&logs).Error
	return logs, err
}

// -------------------------
// Stock writes
// -------------------------

type gormTx struct {
	db *gorm.DB
}

// InTx runs fn inside a database transaction; gorm rolls back on error or panic.
func (s *GormStore) InTx(ctx context.Context, fn func(tx StockTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (t *gormTx) LockStockKey(ctx context.Context, key models.StockKey) error {
	// released automatically at commit or rollback
	return t.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key.String()).Error
}

func (t *gormTx) ProductExists(ctx context.Context, codigo int64) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.Product{}).Where("codigo = ?", codigo).Count(&count).Error
	return count > 0, err
}

func (t *gormTx) AvailableStock(ctx context.Context, key models.StockKey) (int64, error) {
	received := t.db.Model(&models.Receipt{}).
		Select("COALESCE(SUM(quant), 0)").
		Where("codigo = ? AND lote = ? AND COALESCE(fornecedor, '') = ?", key.Codigo, key.Lote, key.Fornecedor)
	issued := t.db.Model(&models.Issue{}).
		Select("COALESCE(SUM(quant), 0)").
		Where("codigo = ? AND lote = ? AND COALESCE(fornecedor, '') = ?", key.Codigo, key.Lote, key.Fornecedor)

	var available int64
	err := t.db.WithContext(ctx).Raw("SELECT (?) - (?)", received, issued).Scan(&available).Error
	return available, err
}

func (t *gormTx) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	return t.db.WithContext(ctx).Omit("Produto").Create(r).Error
}

func (t *gormTx) CreateIssue(ctx context.Context, i *models.Issue) error {
	return t.db.WithContext(ctx).Omit("Produto").Create(i).Error
}

// -------------------------
// Stock reads
// -------------------------

func (s *GormStore) ReceiptGroups(ctx context.Context, codigo *int64) ([]models.ReceiptGroup, error) {
	q := s.db.WithContext(ctx).
		Table("factrecebimento AS r").
		Select(`p.codigo AS codigo, p.nome_basico AS nome_basico, p.imagem AS imagem,
			r.lote AS lote, COALESCE(r.fornecedor, '') AS fornecedor, r.validade AS validade,
			COALESCE(SUM(r.quant), 0) AS quant`).
		Joins("JOIN dimproduto p ON p.codigo = r.codigo").
		Group("p.codigo, r.lote, COALESCE(r.fornecedor, ''), r.validade").
		Order("p.codigo, r.lote, COALESCE(r.fornecedor, ''), r.validade")
	if codigo != nil {
		q = q.Where("r.codigo = ?", *codigo)
	}

	var groups []models.ReceiptGroup
	if err := q.Scan(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *GormStore) IssueGroups(ctx context.Context, codigo *int64) ([]models.IssueGroup, error) {
	q := s.db.WithContext(ctx).
		Model(&models.Issue{}).
		Select("codigo, lote, COALESCE(fornecedor, '') AS fornecedor, COALESCE(SUM(quant), 0) AS quant").
		Group("codigo, lote, COALESCE(fornecedor, '')")
	if codigo != nil {
		q = q.Where("codigo = ?", *codigo)
	}

	var groups []models.IssueGroup
	if err := q.Scan(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

type receiptRow struct {
	ID               int64
	Codigo           int64
	NomeBasico       string
	Unidade          *string
	DataReceb        time.Time
	Quant            int64
	Lote             string
	Validade         time.Time
	PrecoDeAquisicao decimal.Decimal
	Fornecedor       *string
}

func (s *GormStore) ListReceipts(ctx context.Context, codigo *int64) ([]models.ReceiptView, error) {
	q := s.db.WithContext(ctx).
		Table("factrecebimento AS r").
		Select(`r.idrecebimento AS id, r.codigo, p.nome_basico, p.unidade, r.data_receb, r.quant,
			r.lote, r.validade, r.preco_de_aquisicao, r.fornecedor`).
		Joins("JOIN dimproduto p ON p.codigo = r.codigo").
		Order("r.data_receb DESC, r.idrecebimento DESC")
	if codigo != nil {
		q = q.Where("r.codigo = ?", *codigo)
	}

	var rows []receiptRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.ReceiptView, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ReceiptView{
			ID:               r.ID,
			Codigo:           r.Codigo,
			NomeBasico:       r.NomeBasico,
			Unidade:          r.Unidade,
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

type issueRow struct {
	ID               int64
	Codigo           int64
	NomeBasico       string
	Unidade          *string
	DataSaida        time.Time
	Quant            int64
	Lote             string
	Fornecedor       *string
	Validade         *time.Time
	PrecoDeAquisicao decimal.NullDecimal
}

// firstReceiptPerKey picks the earliest receipt of every stock key.
const firstReceiptPerKey = `(
	SELECT DISTINCT ON (codigo, lote, COALESCE(fornecedor, ''))
		codigo, lote, COALESCE(fornecedor, '') AS fornecedor, validade, preco_de_aquisicao
	FROM factrecebimento
	ORDER BY codigo, lote, COALESCE(fornecedor, ''), data_receb, idrecebimento
) AS r`

func (s *GormStore) ListIssues(ctx context.Context, codigo *int64) ([]models.IssueView, error) {
	q := s.db.WithContext(ctx).
		Table("factsaidas AS s").
		Select(`s.idsaida AS id, s.codigo, p.nome_basico, p.unidade, s.data_saida, s.quant,
			s.lote, s.fornecedor, r.validade, r.preco_de_aquisicao`).
		Joins("JOIN dimproduto p ON p.codigo = s.codigo").
		Joins("LEFT JOIN "+firstReceiptPerKey+" ON r.codigo = s.codigo AND r.lote = s.lote AND r.fornecedor = COALESCE(s.fornecedor, '')").
		Order("s.data_saida DESC, s.idsaida DESC")
	if codigo != nil {
		q = q.Where("s.codigo = ?", *codigo)
	}

	var rows []issueRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.IssueView, 0, len(rows))
	for _, r := range rows {
		v := models.IssueView{
			ID:         r.ID,
			Codigo:     r.Codigo,
			NomeBasico: r.NomeBasico,
			Unidade:    r.Unidade,
			DataSaida:  models.FormatDate(r.DataSaida),
			Quant:      r.Quant,
			Lote:       r.Lote,
			Fornecedor: r.Fornecedor,
		}
		if r.Validade != nil {
			v.Validade = models.FormatDate(*r.Validade)
		}
		if r.PrecoDeAquisicao.Valid {
			v.PrecoDeAquisicao = r.PrecoDeAquisicao.Decimal.StringFixed(2)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *GormStore) Suppliers(ctx context.Context, codigo int64) ([]string, error) {
	suppliers := make([]string, 0)
	err := s.db.WithContext(ctx).
		Model(&models.Receipt{}).
		Where("codigo = ? AND fornecedor IS NOT NULL AND fornecedor <> ''", codigo).
		Distinct("fornecedor").
		Order("fornecedor").
		Pluck("fornecedor", &suppliers).Error
	return suppliers, err
}

func (s *GormStore) SafetyStock(ctx context.Context) ([]models.SafetyStock, error) {
	var rows []models.SafetyStock
	err := s.db.WithContext(ctx).
		Model(&models.Receipt{}).
		Select("codigo, (MAX(quant) + MIN(quant)) / 2.0 AS estoque_seguranca").
		Group("codigo").
		Order("codigo").
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) LatestReceiptQuantities(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		Codigo int64
		Quant  int64
	}
	err := s.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (codigo) codigo, quant
			FROM factrecebimento
			ORDER BY codigo, data_receb DESC, idrecebimento DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		out[r.Codigo] = r.Quant
	}
	return out, nil
}
