package models

import "time"

// StockKey identifies one balance partition. An empty Fornecedor stands for "no supplier".
type StockKey struct {
	Codigo     int64
	Lote       string
	Fornecedor string
}

func (k StockKey) String() string {
	return formatKey(k.Codigo, k.Lote, k.Fornecedor)
}

// ReceiptGroup is the receipt total of one (codigo, lote, fornecedor, validade) group.
type ReceiptGroup struct {
	Codigo     int64
	NomeBasico string
	Imagem     []byte
	Lote       string
	Fornecedor string
	Validade   time.Time
	Quant      int64
}

// IssueGroup is the issue total of one stock key.
type IssueGroup struct {
	Codigo     int64
	Lote       string
	Fornecedor string
	Quant      int64
}

// BalanceRow is one line of the saldo report.
type BalanceRow struct {
	Codigo           int64  `json:"codigo"`
	NomeBasico       string `json:"nome_basico"`
	Lote             string `json:"lote"`
	Fornecedor       string `json:"fornecedor"`
	Imagem           []byte `json:"imagem"`
	Validade         string `json:"validade"`
	QuantRecebimento int64  `json:"quant_recebimento"`
	QuantSaida       int64  `json:"quant_saida"`
	Saldo            int64  `json:"saldo"`
}

type ReceiptView struct {
	ID               int64   `json:"idrecebimento"`
	Codigo           int64   `json:"codigo"`
	NomeBasico       string  `json:"nome_basico"`
	Unidade          *string `json:"unidade"`
	DataReceb        string  `json:"data_receb"`
	Quant            int64   `json:"quant"`
	Lote             string  `json:"lote"`
	Validade         string  `json:"validade"`
	PrecoDeAquisicao string  `json:"preco_de_aquisicao"`
	Fornecedor       *string `json:"fornecedor"`
}

type IssueView struct {
	ID               int64   `json:"idsaida"`
	Codigo           int64   `json:"codigo"`
	NomeBasico       string  `json:"nome_basico"`
	Unidade          *string `json:"unidade"`
	DataSaida        string  `json:"data_saida"`
	Quant            int64   `json:"quant"`
	Lote             string  `json:"lote"`
	Fornecedor       *string `json:"fornecedor"`
	Validade         string  `json:"validade"`
	PrecoDeAquisicao string  `json:"preco_de_aquisicao"`
}

// LotAvailability is the stock still available in one lot of a supplier.
type LotAvailability struct {
	Lote       string `json:"lote"`
	Validade   string `json:"validade"`
	Disponivel int64  `json:"disponivel"`
}

type SafetyStock struct {
	Codigo           int64   `json:"codigo"`
	EstoqueSeguranca float64 `json:"estoque_seguranca"`
}

type StockSummary struct {
	Codigo       int64  `json:"codigo"`
	NomeBasico   string `json:"nome_basico"`
	Quantidade   int64  `json:"quantidade"`
	QuantRecente int64  `json:"quant_recente"`
}
