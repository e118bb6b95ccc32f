package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/database"
	"estoque-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductPatch carries a partial update; nil fields keep their stored value.
type ProductPatch struct {
	NomeBasico           *string          `json:"nome_basico"`
	NomeModificador      *string          `json:"nome_modificador"`
	DescricaoTecnica     *string          `json:"descricao_tecnica"`
	Fabricante           *string          `json:"fabricante"`
	ObservacoesAdicional *string          `json:"observacoes_adicional"`
	Unidade              *string          `json:"unidade"`
	PrecoDeVenda         *decimal.Decimal `json:"preco_de_venda"`
	Fragilidade          *bool            `json:"fragilidade"`
	InseridoPor          *string          `json:"inserido_por"`
	Rua                  *int             `json:"rua"`
	Coluna               *int             `json:"coluna"`
	Andar                *int             `json:"andar"`
	Altura               *float64         `json:"altura"`
	Largura              *float64         `json:"largura"`
	Profundidade         *float64         `json:"profundidade"`
	Peso                 *float64         `json:"peso"`
}

type Service struct {
	store database.ProductStore
	log   *zap.Logger
}

func NewService(store database.ProductStore, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Create(ctx context.Context, p *models.Product) error {
	if err := validate(p); err != nil {
		return err
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return apperr.ErrDuplicateProduct
		}
		return s.internal("create product", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, s.internal("list products", err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, codigo int64) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, codigo)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.ErrProductNotFound
		}
		return nil, s.internal("get product", err)
	}
	return p, nil
}

// Update applies patch and returns the product before and after the change.
// Only the fields set in patch change, even under concurrent updates.
func (s *Service) Update(ctx context.Context, codigo int64, patch ProductPatch) (before, after *models.Product, err error) {
	before, after, err = s.store.UpdateProduct(ctx, codigo, func(p *models.Product) error {
		patch.apply(p)
		return validate(p)
	})
	if err != nil {
		var appErr *apperr.Error
		switch {
		case errors.As(err, &appErr):
			return nil, nil, err
		case errors.Is(err, database.ErrNotFound):
			return nil, nil, apperr.ErrProductNotFound
		}
		return nil, nil, s.internal("update product", err)
	}
	return before, after, nil
}

// Delete removes a product that has no receipts or issues; products with
// history are kept and ErrProductHasHistory is returned.
func (s *Service) Delete(ctx context.Context, codigo int64) (*models.Product, error) {
	p, err := s.Get(ctx, codigo)
	if err != nil {
		return nil, err
	}

	n, err := s.store.CountMovements(ctx, codigo)
	if err != nil {
		return nil, s.internal("count movements", err)
	}
	if n > 0 {
		return nil, apperr.ErrProductHasHistory
	}

	if err := s.store.DeleteProduct(ctx, codigo); err != nil {
		switch {
		case errors.Is(err, database.ErrReferenced):
			return nil, apperr.ErrProductHasHistory
		case errors.Is(err, database.ErrNotFound):
			return nil, apperr.ErrProductNotFound
		}
		return nil, s.internal("delete product", err)
	}
	return p, nil
}

// Image returns the stored image and its sniffed content type.
func (s *Service) Image(ctx context.Context, codigo int64) ([]byte, string, error) {
	p, err := s.Get(ctx, codigo)
	if err != nil {
		return nil, "", err
	}
	if len(p.Imagem) == 0 {
		return nil, "", apperr.ErrImageNotFound
	}
	return p.Imagem, http.DetectContentType(p.Imagem), nil
}

func (s *Service) internal(op string, err error) error {
	s.log.Error("catalog operation failed", zap.String("op", op), zap.Error(err))
	return apperr.Wrap(apperr.ErrInternal, err)
}

func validate(p *models.Product) error {
	p.NomeBasico = strings.TrimSpace(p.NomeBasico)
	p.InseridoPor = strings.TrimSpace(p.InseridoPor)

	switch {
	case p.Codigo <= 0:
		return apperr.BadRequest("codigo deve ser um inteiro positivo")
	case p.NomeBasico == "":
		return apperr.BadRequest("nome_basico é obrigatório")
	case p.InseridoPor == "":
		return apperr.BadRequest("inserido_por é obrigatório")
	case p.PrecoDeVenda.Valid && p.PrecoDeVenda.Decimal.IsNegative():
		return apperr.BadRequest("preco_de_venda não pode ser negativo")
	}
	for _, f := range []*float64{p.Altura, p.Largura, p.Profundidade, p.Peso} {
		if f != nil && *f < 0 {
			return apperr.BadRequest("dimensões e peso não podem ser negativos")
		}
	}
	return nil
}

func (patch ProductPatch) apply(p *models.Product) {
	if patch.NomeBasico != nil {
		p.NomeBasico = *patch.NomeBasico
	}
	if patch.NomeModificador != nil {
		p.NomeModificador = patch.NomeModificador
	}
	if patch.DescricaoTecnica != nil {
		p.DescricaoTecnica = patch.DescricaoTecnica
	}
	if patch.Fabricante != nil {
		p.Fabricante = patch.Fabricante
	}
	if patch.ObservacoesAdicional != nil {
		p.ObservacoesAdicional = patch.ObservacoesAdicional
	}
	if patch.Unidade != nil {
		p.Unidade = patch.Unidade
	}
	if patch.PrecoDeVenda != nil {
		p.PrecoDeVenda = decimal.NewNullDecimal(*patch.PrecoDeVenda)
	}
	if patch.Fragilidade != nil {
		p.Fragilidade = *patch.Fragilidade
	}
	if patch.InseridoPor != nil {
		p.InseridoPor = *patch.InseridoPor
	}
	if patch.Rua != nil {
		p.Rua = patch.Rua
	}
	if patch.Coluna != nil {
		p.Coluna = patch.Coluna
	}
	if patch.Andar != nil {
		p.Andar = patch.Andar
	}
	if patch.Altura != nil {
		p.Altura = patch.Altura
	}
	if patch.Largura != nil {
		p.Largura = patch.Largura
	}
	if patch.Profundidade != nil {
		p.Profundidade = patch.Profundidade
	}
	if patch.Peso != nil {
		p.Peso = patch.Peso
	}
}
