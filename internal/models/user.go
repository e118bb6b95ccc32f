package models

import "time"

type User struct {
	ID          int64      `gorm:"column:idusuario;primaryKey" json:"idusuario"`
	Nome        string     `gorm:"column:nome;size:255;not null" json:"nome"`
	Email       string     `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Senha       string     `gorm:"column:senha;size:255;not null" json:"-"`
	DataNasc    *time.Time `gorm:"column:datanasc;type:date" json:"datanasc"`
	DataEntrada *time.Time `gorm:"column:dataentrada;type:date" json:"dataentrada"`
}

func (User) TableName() string { return "dimusuario" }
