package inventory

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/audit"
	"estoque-backend/internal/auth"
	"estoque-backend/internal/catalog"
	"estoque-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	Codigo               int64               `json:"codigo"`
	NomeBasico           string              `json:"nome_basico"`
	NomeModificador      *string             `json:"nome_modificador"`
	DescricaoTecnica     *string             `json:"descricao_tecnica"`
	Fabricante           *string             `json:"fabricante"`
	ObservacoesAdicional *string             `json:"observacoes_adicional"`
	Unidade              *string             `json:"unidade"`
	PrecoDeVenda         decimal.NullDecimal `json:"preco_de_venda"`
	Fragilidade          bool                `json:"fragilidade"`
	InseridoPor          string              `json:"inserido_por"`
	Rua                  *int                `json:"rua"`
	Coluna               *int                `json:"coluna"`
	Andar                *int                `json:"andar"`
	Altura               *float64            `json:"altura"`
	Largura              *float64            `json:"largura"`
	Profundidade         *float64            `json:"profundidade"`
	Peso                 *float64            `json:"peso"`
	TemImagem            bool                `json:"tem_imagem"`
}

func toProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		Codigo:               p.Codigo,
		NomeBasico:           p.NomeBasico,
		NomeModificador:      p.NomeModificador,
		DescricaoTecnica:     p.DescricaoTecnica,
		Fabricante:           p.Fabricante,
		ObservacoesAdicional: p.ObservacoesAdicional,
		Unidade:              p.Unidade,
		PrecoDeVenda:         p.PrecoDeVenda,
		Fragilidade:          p.Fragilidade,
		InseridoPor:          p.InseridoPor,
		Rua:                  p.Rua,
		Coluna:               p.Coluna,
		Andar:                p.Andar,
		Altura:               p.Altura,
		Largura:              p.Largura,
		Profundidade:         p.Profundidade,
		Peso:                 p.Peso,
		TemImagem:            p.TemImagem || len(p.Imagem) > 0,
	}
}

// POST /produtos (multipart/form-data, optional "imagem" file)
func CreateProductHandler(svc *catalog.Service, auditSvc *audit.Service, maxImageBytes int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := catalog.ProductFromFields(func(name string) string {
			return strings.TrimSpace(c.FormValue(name))
		})
		if err != nil {
			return apperr.BadRequest(err.Error())
		}

		img, err := readImage(c, maxImageBytes)
		if err != nil {
			return err
		}
		p.Imagem = img

		if err := svc.Create(c.UserContext(), p); err != nil {
			return err
		}

		writeAudit(c, auditSvc, audit.LogOptions{
			EntityType:  models.AuditEntityProduct,
			EntityID:    p.Codigo,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Produto cadastrado: %d - %s", p.Codigo, p.NomeBasico),
			After:       productSnapshot(p),
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Produto cadastrado com sucesso",
			"codigo":  p.Codigo,
		})
	}
}

// readImage returns the uploaded "imagem" file, or nil when none was sent.
func readImage(c *fiber.Ctx, maxBytes int) ([]byte, error) {
	fh, err := c.FormFile("imagem")
	if err != nil {
		return nil, nil
	}
	if fh.Size > int64(maxBytes) {
		return nil, apperr.BadRequest(fmt.Sprintf("imagem excede o limite de %d bytes", maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperr.BadRequest("Não foi possível abrir a imagem")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)+1))
	if err != nil {
		return nil, apperr.BadRequest("Não foi possível ler a imagem")
	}
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) > maxBytes {
		return nil, apperr.BadRequest(fmt.Sprintf("imagem excede o limite de %d bytes", maxBytes))
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, apperr.BadRequest("O arquivo enviado não é uma imagem")
	}
	return data, nil
}

// POST /produtos/importar (multipart/form-data, "arquivo" .xlsx)
func ImportProductsHandler(svc *catalog.Service, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("arquivo")
		if err != nil {
			return apperr.BadRequest("Envie a planilha no campo 'arquivo'")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return apperr.BadRequest("Apenas arquivos .xlsx são aceitos")
		}

		f, err := fh.Open()
		if err != nil {
			return apperr.BadRequest("Não foi possível abrir a planilha")
		}
		defer f.Close()

		inseridoPor := strings.TrimSpace(c.FormValue("inserido_por"))
		if inseridoPor == "" {
			if actor, ok := auth.CurrentActor(c); ok {
				inseridoPor = actor.Email
			}
		}

		res, err := svc.Import(c.UserContext(), f, inseridoPor)
		if err != nil {
			return err
		}

		for i := range res.Criados {
			p := &res.Criados[i]
			writeAudit(c, auditSvc, audit.LogOptions{
				EntityType:  models.AuditEntityProduct,
				EntityID:    p.Codigo,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Produto importado: %d - %s", p.Codigo, p.NomeBasico),
				After:       productSnapshot(p),
			})
		}

		return c.JSON(fiber.Map{
			"message":   fmt.Sprintf("%d produtos importados, %d ignorados", len(res.Criados), len(res.Ignorados)),
			"criados":   res.Codigos(),
			"ignorados": res.Ignorados,
		})
	}
}

// GET /ver_produtos
func ListProductsHandler(svc *catalog.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}

		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, toProductResponse(&products[i]))
		}
		return c.JSON(dados(res))
	}
}

// GET /produtos/:codigo
func GetProductHandler(svc *catalog.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := codigoParam(c)
		if err != nil {
			return err
		}
		p, err := svc.Get(c.UserContext(), codigo)
		if err != nil {
			return err
		}
		return c.JSON(toProductResponse(p))
	}
}

// GET /produtos/:codigo/imagem
func ProductImageHandler(svc *catalog.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := codigoParam(c)
		if err != nil {
			return err
		}
		data, contentType, err := svc.Image(c.UserContext(), codigo)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(data)
	}
}

// PATCH /editar_produto/:codigo
func UpdateProductHandler(svc *catalog.Service, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := codigoParam(c)
		if err != nil {
			return err
		}

		var body catalog.ProductPatch
		if err := c.BodyParser(&body); err != nil {
			return apperr.ErrBadRequest
		}

		before, after, err := svc.Update(c.UserContext(), codigo, body)
		if err != nil {
			return err
		}

		writeAudit(c, auditSvc, audit.LogOptions{
			EntityType:  models.AuditEntityProduct,
			EntityID:    codigo,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Produto atualizado: %d - %s", codigo, after.NomeBasico),
			Before:      productSnapshot(before),
			After:       productSnapshot(after),
		})

		return c.JSON(fiber.Map{
			"message": "Produto atualizado com sucesso",
			"produto": toProductResponse(after),
		})
	}
}

// DELETE /deletar_produto/:codigo
func DeleteProductHandler(svc *catalog.Service, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		codigo, err := codigoParam(c)
		if err != nil {
			return err
		}

		deleted, err := svc.Delete(c.UserContext(), codigo)
		if err != nil {
			return err
		}

		writeAudit(c, auditSvc, audit.LogOptions{
			EntityType:  models.AuditEntityProduct,
			EntityID:    codigo,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Produto removido: %d - %s", codigo, deleted.NomeBasico),
			Before:      productSnapshot(deleted),
		})

		return c.JSON(fiber.Map{"message": "Produto removido com sucesso", "codigo": codigo})
	}
}
