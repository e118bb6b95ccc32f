package models

import "time"

// Issue (saída) records goods leaving stock. It is only inserted after admission.
type Issue struct {
	ID         int64     `gorm:"column:idsaida;primaryKey" json:"idsaida"`
	DataSaida  time.Time `gorm:"column:data_saida;type:date;not null" json:"data_saida"`
	Quant      int64     `gorm:"column:quant;not null" json:"quant"`
	Lote       string    `gorm:"column:lote;size:30;not null;index:idx_saida_key,priority:2" json:"lote"`
	Codigo     int64     `gorm:"column:codigo;not null;index:idx_saida_key,priority:1" json:"codigo"`
	Fornecedor *string   `gorm:"column:fornecedor;index:idx_saida_key,priority:3" json:"fornecedor"`

	Produto *Product `gorm:"foreignKey:Codigo;references:Codigo;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Issue) TableName() string { return "factsaidas" }
