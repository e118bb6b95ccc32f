package models

import "github.com/shopspring/decimal"

// Product is a catalog item. Codigo is chosen by the client and never changes.
type Product struct {
	Codigo               int64               `gorm:"column:codigo;primaryKey;autoIncrement:false" json:"codigo"`
	NomeBasico           string              `gorm:"column:nome_basico;size:255;not null" json:"nome_basico"`
	NomeModificador      *string             `gorm:"column:nome_modificador;size:255" json:"nome_modificador"`
	DescricaoTecnica     *string             `gorm:"column:descricao_tecnica" json:"descricao_tecnica"`
	Fabricante           *string             `gorm:"column:fabricante;size:255" json:"fabricante"`
	ObservacoesAdicional *string             `gorm:"column:observacoes_adicional" json:"observacoes_adicional"`
	Imagem               []byte              `gorm:"column:imagem" json:"imagem,omitempty"`
	Unidade              *string             `gorm:"column:unidade;size:50" json:"unidade"`
	PrecoDeVenda         decimal.NullDecimal `gorm:"column:preco_de_venda;type:numeric(10,2)" json:"preco_de_venda"`
	Fragilidade          bool                `gorm:"column:fragilidade;not null" json:"fragilidade"`
	InseridoPor          string              `gorm:"column:inserido_por;size:255;not null" json:"inserido_por"`
	Rua                  *int                `gorm:"column:rua" json:"rua"`
	Coluna               *int                `gorm:"column:coluna" json:"coluna"`
	Andar                *int                `gorm:"column:andar" json:"andar"`
	Altura               *float64            `gorm:"column:altura" json:"altura"`
	Largura              *float64            `gorm:"column:largura" json:"largura"`
	Profundidade         *float64            `gorm:"column:profundidade" json:"profundidade"`
	Peso                 *float64            `gorm:"column:peso" json:"peso"`

	// TemImagem is only filled by listings, which skip the image bytes.
	TemImagem bool `gorm:"column:tem_imagem;->;-:migration" json:"-"`
}

func (Product) TableName() string { return "dimproduto" }
