package calc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
)

// InstallmentPlan descreve um valor total a ser dividido em parcelas mensais.
type InstallmentPlan struct {
	TotalAmount      decimal.Decimal
	InstallmentCount int
	FirstDueDate     time.Time
	// FirstReceivable é o estado da primeira parcela, copiado para Installment.Receivable.
	// As demais parcelas nascem sempre a receber.
	FirstReceivable bool
}

// Installment é uma parcela calculada. Não é persistida por si só: vira
// lançamento financeiro apenas depois que o registro pai (cliente, contrato) existe.
type Installment struct {
	SequenceNumber int             `json:"sequence_number"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
	Receivable     bool            `json:"receivable"`
}

var hundred = decimal.NewFromInt(100)

// SplitInstallments divide o total em InstallmentCount parcelas.
//
// As parcelas 1..N-1 recebem o quociente truncado em centavos; a última
// absorve a diferença, de modo que a soma seja exatamente o total.
// A parcela i vence AddMonths(FirstDueDate, i).
func SplitInstallments(plan InstallmentPlan) ([]Installment, error) {
	count := plan.InstallmentCount
	total := plan.TotalAmount

	if count < 1 {
		return nil, fmt.Errorf("%w: quantidade de parcelas deve ser >= 1 (recebido %d)", appErrors.ErrInvalidInput, count)
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: valor total deve ser positivo (recebido %s)", appErrors.ErrInvalidInput, total.String())
	}
	if !total.Equal(total.Round(2)) {
		return nil, fmt.Errorf("%w: valor total com mais de duas casas decimais (%s)", appErrors.ErrInvalidInput, total.String())
	}
	if plan.FirstDueDate.IsZero() {
		return nil, fmt.Errorf("%w: data do primeiro vencimento não informada", appErrors.ErrInvalidInput)
	}

	n := decimal.NewFromInt(int64(count))
	base := total.Mul(hundred).Div(n).Floor().Div(hundred)
	last := total.Sub(base.Mul(decimal.NewFromInt(int64(count - 1)))).Round(2)

	first := DateOnly(plan.FirstDueDate)
	installments := make([]Installment, count)
	for i := 0; i < count; i++ {
		amount := base
		if i == count-1 {
			amount = last
		}
		receivable := true
		if i == 0 {
			receivable = plan.FirstReceivable
		}
		installments[i] = Installment{
			SequenceNumber: i + 1,
			Amount:         amount,
			DueDate:        AddMonths(first, i),
			Receivable:     receivable,
		}
	}
	return installments, nil
}

// SumInstallments soma os valores das parcelas.
func SumInstallments(installments []Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range installments {
		sum = sum.Add(inst.Amount)
	}
	return sum
}
