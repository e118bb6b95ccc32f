package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt (recebimento) records goods entering stock. Rows are never updated.
type Receipt struct {
	ID               int64           `gorm:"column:idrecebimento;primaryKey" json:"idrecebimento"`
	DataReceb        time.Time       `gorm:"column:data_receb;type:date;not null" json:"data_receb"`
	Quant            int64           `gorm:"column:quant;not null" json:"quant"`
	Codigo           int64           `gorm:"column:codigo;not null;index:idx_receb_key,priority:1" json:"codigo"`
	Validade         time.Time       `gorm:"column:validade;type:date;not null" json:"validade"`
	PrecoDeAquisicao decimal.Decimal `gorm:"column:preco_de_aquisicao;type:numeric(10,2);not null" json:"preco_de_aquisicao"`
	Lote             string          `gorm:"column:lote;size:30;not null;index:idx_receb_key,priority:2" json:"lote"`
	Fornecedor       *string         `gorm:"column:fornecedor;index:idx_receb_key,priority:3" json:"fornecedor"`

	Produto *Product `gorm:"foreignKey:Codigo;references:Codigo;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Receipt) TableName() string { return "factrecebimento" }
