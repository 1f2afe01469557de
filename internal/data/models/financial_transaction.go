package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/calc"
	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// Tipos de lançamento.
const (
	KindIncome  = "receita"
	KindExpense = "despesa"
)

// Status de lançamento.
const (
	StatusPaid       = "pago"
	StatusReceivable = "a_receber"
	StatusOverdue    = "atrasado"
)

// DBFinancialTransaction é um lançamento do livro financeiro.
// Parcelas de um mesmo parcelamento compartilham GroupID.
type DBFinancialTransaction struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	EmpresaID uuid.UUID `gorm:"type:varchar(36);not null;index:idx_tx_tenant_due,priority:1"`

	Kind        string          `gorm:"type:varchar(10);not null"`
	Category    string          `gorm:"type:varchar(60);not null"`
	Description string          `gorm:"type:varchar(255);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DueDate     time.Time       `gorm:"type:date;not null;index:idx_tx_tenant_due,priority:2"`
	PaidAt      *time.Time      `gorm:"type:date"`
	Status      string          `gorm:"type:varchar(12);not null;index"`

	InstallmentNumber int        `gorm:"not null;default:1"`
	InstallmentTotal  int        `gorm:"not null;default:1"`
	GroupID           *uuid.UUID `gorm:"type:varchar(36);index"`

	ClientID   *uuid.UUID `gorm:"type:varchar(36);index"`
	ContractID *uuid.UUID `gorm:"type:varchar(36);index"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
	CreatedBy *string   `gorm:"type:varchar(50)"`
}

// TableName especifica o nome da tabela para GORM.
func (DBFinancialTransaction) TableName() string {
	return "lancamentos_financeiros"
}

// BeforeCreate gera o UUID quando o chamador não definiu um.
func (t *DBFinancialTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// PaymentInput descreve um pagamento a ser parcelado no livro financeiro.
type PaymentInput struct {
	TotalAmount      decimal.Decimal `json:"total_amount"`
	InstallmentCount int             `json:"installment_count"`
	FirstDueDate     time.Time       `json:"first_due_date"`
	// FirstReceivable é o estado da primeira parcela: true = a receber, false = já paga.
	FirstReceivable bool   `json:"first_receivable"`
	Category        string `json:"category"`
	Description     string `json:"description"`
}

// CleanAndValidate valida o pagamento antes do parcelamento.
func (p *PaymentInput) CleanAndValidate() error {
	if !p.TotalAmount.IsPositive() {
		return appErrors.NewFieldError(appErrors.ErrInvalidInput, "total_amount", "Valor do pagamento deve ser positivo.")
	}
	if err := validateMoney("total_amount", p.TotalAmount); err != nil {
		return err
	}
	if p.InstallmentCount < 1 {
		return appErrors.NewFieldError(appErrors.ErrInvalidInput, "installment_count", "Quantidade de parcelas deve ser pelo menos 1.")
	}
	if p.FirstDueDate.IsZero() {
		return appErrors.NewFieldError(appErrors.ErrMissingRequiredField, "first_due_date", "Data do primeiro vencimento é obrigatória.")
	}
	p.FirstDueDate = calc.DateOnly(p.FirstDueDate)
	p.Category = utils.TruncateString(utils.SanitizeInput(p.Category), 60)
	p.Description = utils.TruncateString(utils.SanitizeInput(p.Description), 200)
	return nil
}

// Plan converte o pagamento para o cálculo de parcelas.
func (p *PaymentInput) Plan() calc.InstallmentPlan {
	return calc.InstallmentPlan{
		TotalAmount:      p.TotalAmount,
		InstallmentCount: p.InstallmentCount,
		FirstDueDate:     p.FirstDueDate,
		FirstReceivable:  p.FirstReceivable,
	}
}

// LedgerInput é a entrada única para gravar parcelas no livro, usada pelo
// cadastro e edição de clientes, contratos, renovações e lançamentos avulsos.
type LedgerInput struct {
	Kind       string
	Payment    PaymentInput
	ClientID   *uuid.UUID
	ContractID *uuid.UUID
}

// Validate confere o tipo e o pagamento.
func (li *LedgerInput) Validate() error {
	li.Kind = strings.ToLower(strings.TrimSpace(li.Kind))
	if li.Kind == "" {
		li.Kind = KindIncome
	}
	if li.Kind != KindIncome && li.Kind != KindExpense {
		return appErrors.NewValidationError("Tipo de lançamento inválido.", map[string]string{"kind": "use receita ou despesa"})
	}
	return li.Payment.CleanAndValidate()
}

// StatusFor define o status inicial de uma parcela.
func StatusFor(inst calc.Installment) string {
	if inst.Receivable {
		return StatusReceivable
	}
	return StatusPaid
}

// TransactionPublic representa um lançamento para a UI ou API.
type TransactionPublic struct {
	ID                uuid.UUID       `json:"id"`
	Kind              string          `json:"kind"`
	Category          string          `json:"category"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"due_date"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	Status            string          `json:"status"`
	InstallmentNumber int             `json:"installment_number"`
	InstallmentTotal  int             `json:"installment_total"`
	GroupID           *uuid.UUID      `json:"group_id,omitempty"`
	ClientID          *uuid.UUID      `json:"client_id,omitempty"`
	ContractID        *uuid.UUID      `json:"contract_id,omitempty"`
}

// ToTransactionPublic converte um DBFinancialTransaction para TransactionPublic.
func ToTransactionPublic(t *DBFinancialTransaction) *TransactionPublic {
	if t == nil {
		return nil
	}
	return &TransactionPublic{
		ID:                t.ID,
		Kind:              t.Kind,
		Category:          t.Category,
		Description:       t.Description,
		Amount:            t.Amount,
		DueDate:           t.DueDate,
		PaidAt:            t.PaidAt,
		Status:            t.Status,
		InstallmentNumber: t.InstallmentNumber,
		InstallmentTotal:  t.InstallmentTotal,
		GroupID:           t.GroupID,
		ClientID:          t.ClientID,
		ContractID:        t.ContractID,
	}
}

// ToTransactionPublicList converte uma lista de lançamentos.
func ToTransactionPublicList(txs []*DBFinancialTransaction) []*TransactionPublic {
	out := make([]*TransactionPublic, len(txs))
	for i, t := range txs {
		out[i] = ToTransactionPublic(t)
	}
	return out
}

// TransactionFilter define os critérios de consulta ao livro.
type TransactionFilter struct {
	From       *time.Time
	To         *time.Time
	Kind       string
	Status     string
	Category   string
	ClientID   *uuid.UUID
	ContractID *uuid.UUID
	GroupID    *uuid.UUID
}

// FinancialSummary consolida o livro em um período.
type FinancialSummary struct {
	Received   decimal.Decimal `json:"received"`
	Receivable decimal.Decimal `json:"receivable"`
	Overdue    decimal.Decimal `json:"overdue"`
	Expenses   decimal.Decimal `json:"expenses"`
	Balance    decimal.Decimal `json:"balance"` // recebido - despesas pagas
}
