package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ImportColumns lists the header names understood by Import. Only codigo and
// nome_basico are required; unknown columns are ignored.
var ImportColumns = []string{
	"codigo", "nome_basico", "nome_modificador", "descricao_tecnica", "fabricante",
	"unidade", "preco_de_venda", "fragilidade", "rua", "coluna", "andar",
	"altura", "largura", "profundidade", "peso", "observacoes_adicional", "inserido_por",
}

type ImportSkip struct {
	Linha  int    `json:"linha"`
	Codigo string `json:"codigo"`
	Motivo string `json:"motivo"`
}

type ImportResult struct {
	Criados   []models.Product `json:"-"`
	Ignorados []ImportSkip     `json:"ignorados"`
}

// Codigos lists the codes of the created products.
func (r ImportResult) Codigos() []int64 {
	out := make([]int64, 0, len(r.Criados))
	for _, p := range r.Criados {
		out = append(out, p.Codigo)
	}
	return out
}

// Import reads the first sheet of an .xlsx workbook and creates one product
// per row. Rows that fail validation or collide with an existing codigo are
// reported and skipped; the rest are still created.
func (s *Service) Import(ctx context.Context, r io.Reader, inseridoPor string) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.BadRequest("Não foi possível ler o arquivo Excel")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.BadRequest("O arquivo Excel não possui planilhas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.BadRequest("Não foi possível ler a planilha")
	}
	if len(rows) < 2 {
		return nil, apperr.BadRequest("A planilha precisa de um cabeçalho e ao menos uma linha")
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"codigo", "nome_basico"} {
		if _, ok := header[required]; !ok {
			return nil, apperr.BadRequest(fmt.Sprintf("Coluna obrigatória ausente: %s", required))
		}
	}

	result := &ImportResult{Ignorados: make([]ImportSkip, 0)}
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(name string) string {
			idx, ok := header[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if isBlank(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, err)
		}

		p, err := ProductFromFields(cell)
		if err != nil {
			result.Ignorados = append(result.Ignorados, ImportSkip{Linha: line, Codigo: cell("codigo"), Motivo: err.Error()})
			continue
		}
		if p.InseridoPor == "" {
			p.InseridoPor = inseridoPor
		}

		if err := s.Create(ctx, p); err != nil {
			var appErr *apperr.Error
			if errors.As(err, &appErr) && appErr.Code < 500 {
				result.Ignorados = append(result.Ignorados, ImportSkip{Linha: line, Codigo: cell("codigo"), Motivo: appErr.Message})
				continue
			}
			return nil, err
		}
		result.Criados = append(result.Criados, *p)
	}

	s.log.Info("product import finished",
		zap.Int("created", len(result.Criados)),
		zap.Int("skipped", len(result.Ignorados)),
	)
	return result, nil
}

// ProductFromFields builds a product from named text fields, the shape shared
// by spreadsheet rows and multipart forms. Blank optional fields stay nil.
func ProductFromFields(cell func(string) string) (*models.Product, error) {
	codigo, err := strconv.ParseInt(cell("codigo"), 10, 64)
	if err != nil {
		return nil, errors.New("codigo inválido")
	}

	p := &models.Product{
		Codigo:               codigo,
		NomeBasico:           cell("nome_basico"),
		NomeModificador:      optionalString(cell("nome_modificador")),
		DescricaoTecnica:     optionalString(cell("descricao_tecnica")),
		Fabricante:           optionalString(cell("fabricante")),
		ObservacoesAdicional: optionalString(cell("observacoes_adicional")),
		Unidade:              optionalString(cell("unidade")),
		InseridoPor:          cell("inserido_por"),
	}

	if v := cell("preco_de_venda"); v != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil {
			return nil, errors.New("preco_de_venda inválido")
		}
		p.PrecoDeVenda = decimal.NewNullDecimal(d)
	}
	if v := cell("fragilidade"); v != "" {
		b, err := ParseBool(v)
		if err != nil {
			return nil, errors.New("fragilidade inválida")
		}
		p.Fragilidade = b
	}

	for name, dst := range map[string]**int{"rua": &p.Rua, "coluna": &p.Coluna, "andar": &p.Andar} {
		v, err := optionalInt(cell(name))
		if err != nil {
			return nil, fmt.Errorf("%s inválido", name)
		}
		*dst = v
	}
	for name, dst := range map[string]**float64{
		"altura": &p.Altura, "largura": &p.Largura, "profundidade": &p.Profundidade, "peso": &p.Peso,
	} {
		v, err := optionalFloat(cell(name))
		if err != nil {
			return nil, fmt.Errorf("%s inválido", name)
		}
		*dst = v
	}
	return p, nil
}

// ParseBool accepts the spellings spreadsheets and HTML forms produce.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "sim", "s", "yes", "on", "verdadeiro":
		return true, nil
	case "0", "false", "nao", "não", "n", "no", "off", "falso":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
