package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/calc"
	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/repositories"
)

// requireTenant rejeita chamadas sem empresa definida.
func requireTenant(tenant *types.TenantContext) error {
	if tenant == nil || !tenant.Valid() {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "contexto de empresa não informado")
	}
	return nil
}

// audit grava a entrada e apenas avisa em caso de falha; a operação principal já foi concluída.
func audit(svc AuditLogService, tenant *types.TenantContext, action, severity, description string, metadata map[string]interface{}) {
	if svc == nil {
		return
	}
	entry := models.AuditLogEntry{
		Action:      action,
		Description: description,
		Severity:    severity,
		Metadata:    metadata,
	}
	if err := svc.LogAction(entry, tenant); err != nil {
		appLogger.Warnf("Falha ao registrar log de auditoria (%s): %v", action, err)
	}
}

// ledgerWriter transforma um pagamento em lançamentos do livro financeiro.
// É o único caminho de gravação de parcelas: cadastro e edição de cliente,
// contratos, renovações e lançamentos avulsos passam por aqui.
type ledgerWriter struct {
	repo            repositories.TransactionRepository
	defaultCategory string
	maxInstallments int
}

func newLedgerWriter(repo repositories.TransactionRepository, defaultCategory string, maxInstallments int) *ledgerWriter {
	return &ledgerWriter{repo: repo, defaultCategory: defaultCategory, maxInstallments: maxInstallments}
}

// build valida a entrada e monta as linhas sem gravá-las.
func (w *ledgerWriter) build(tenant *types.TenantContext, in models.LedgerInput) ([]*models.DBFinancialTransaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if w.maxInstallments > 0 && in.Payment.InstallmentCount > w.maxInstallments {
		return nil, appErrors.NewValidationError(
			fmt.Sprintf("Máximo de %d parcelas.", w.maxInstallments),
			map[string]string{"installment_count": "acima do limite"},
		)
	}

	installments, err := calc.SplitInstallments(in.Payment.Plan())
	if err != nil {
		return nil, err
	}

	category := in.Payment.Category
	if category == "" {
		category = w.defaultCategory
	}
	description := in.Payment.Description
	if description == "" {
		description = category
	}

	groupID := uuid.New()
	actor := tenant.Actor()
	total := len(installments)
	rows := make([]*models.DBFinancialTransaction, 0, total)
	for _, inst := range installments {
		row := &models.DBFinancialTransaction{
			EmpresaID:         tenant.EmpresaID,
			Kind:              in.Kind,
			Category:          category,
			Description:       description,
			Amount:            inst.Amount,
			DueDate:           inst.DueDate,
			Status:            models.StatusFor(inst),
			InstallmentNumber: inst.SequenceNumber,
			InstallmentTotal:  total,
			GroupID:           &groupID,
			ClientID:          in.ClientID,
			ContractID:        in.ContractID,
			CreatedBy:         &actor,
		}
		if total > 1 {
			row.Description = fmt.Sprintf("%s (%d/%d)", description, row.InstallmentNumber, total)
		}
		if row.Status == models.StatusPaid {
			paid := inst.DueDate
			row.PaidAt = &paid
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// write grava as parcelas usando tx. Deve ser chamado depois que o registro pai existe.
func (w *ledgerWriter) write(tx *gorm.DB, tenant *types.TenantContext, in models.LedgerInput) ([]*models.DBFinancialTransaction, error) {
	rows, err := w.build(tenant, in)
	if err != nil {
		return nil, err
	}
	repo := w.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	if err := repo.CreateBatch(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// currentDate devolve a data corrente (UTC, meia-noite) a partir do relógio injetado.
func currentDate(now func() time.Time) time.Time {
	return calc.DateOnly(now())
}
