package services

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/calc"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/repositories"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// FinancialService define a interface do livro financeiro (contas a receber e despesas).
type FinancialService interface {
	// RegisterInstallments divide o pagamento e grava as parcelas em uma transação.
	RegisterInstallments(tenant *types.TenantContext, in models.LedgerInput) ([]*models.TransactionPublic, error)
	ListTransactions(tenant *types.TenantContext, filter models.TransactionFilter) ([]*models.TransactionPublic, error)
	MarkPaid(tenant *types.TenantContext, id uuid.UUID, paidAt time.Time) (*models.TransactionPublic, error)
	// MarkReceivable desfaz uma baixa. Parcelas já vencidas voltam como atrasadas.
	MarkReceivable(tenant *types.TenantContext, id uuid.UUID) (*models.TransactionPublic, error)
	DeleteTransaction(tenant *types.TenantContext, id uuid.UUID) error
	Summary(tenant *types.TenantContext, from, to time.Time) (*models.FinancialSummary, error)
	// RefreshOverdue marca como atrasadas, em todas as empresas, as parcelas a receber vencidas antes de today.
	RefreshOverdue(today time.Time) (int64, error)
	// ExportTransactions grava o livro filtrado em .xlsx ou .csv, conforme a extensão do caminho.
	ExportTransactions(tenant *types.TenantContext, filter models.TransactionFilter, outputPath string) (string, error)
}

type financialServiceImpl struct {
	cfg             *core.Config
	db              *gorm.DB
	repo            repositories.TransactionRepository
	clientRepo      repositories.ClientRepository
	contractRepo    repositories.ContractRepository
	ledger          *ledgerWriter
	auditLogService AuditLogService
	now             func() time.Time
}

// NewFinancialService cria uma nova instância de FinancialService.
func NewFinancialService(
	cfg *core.Config,
	db *gorm.DB,
	repo repositories.TransactionRepository,
	clientRepo repositories.ClientRepository,
	contractRepo repositories.ContractRepository,
	auditLogService AuditLogService,
) FinancialService {
	if cfg == nil || db == nil || repo == nil || clientRepo == nil || contractRepo == nil || auditLogService == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewFinancialService")
	}
	return &financialServiceImpl{
		cfg:             cfg,
		db:              db,
		repo:            repo,
		clientRepo:      clientRepo,
		contractRepo:    contractRepo,
		ledger:          newLedgerWriter(repo, cfg.DefaultCategory, cfg.MaxInstallments),
		auditLogService: auditLogService,
		now:             time.Now,
	}
}

func (s *financialServiceImpl) RegisterInstallments(tenant *types.TenantContext, in models.LedgerInput) ([]*models.TransactionPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	if err := s.checkOwnership(tenant, in); err != nil {
		return nil, err
	}

	var rows []*models.DBFinancialTransaction
	err := data.WithTransaction(s.db, func(tx *gorm.DB) error {
		var werr error
		rows, werr = s.ledger.write(tx, tenant, in)
		return werr
	})
	if err != nil {
		appLogger.Warnf("Falha ao registrar parcelas (empresa %s): %v", tenant.EmpresaID, err)
		return nil, err
	}

	audit(s.auditLogService, tenant, "LEDGER_REGISTER", "INFO",
		fmt.Sprintf("%d parcela(s) de %s registrada(s): %s.", len(rows), in.Kind, utils.FormatBRL(in.Payment.TotalAmount)),
		map[string]interface{}{"group_id": rows[0].GroupID.String(), "installments": len(rows), "total": in.Payment.TotalAmount.StringFixed(2)})
	return models.ToTransactionPublicList(rows), nil
}

// checkOwnership confere que o cliente ou contrato vinculado pertence à empresa.
func (s *financialServiceImpl) checkOwnership(tenant *types.TenantContext, in models.LedgerInput) error {
	if in.ClientID != nil {
		if _, err := s.clientRepo.GetByID(tenant.EmpresaID, *in.ClientID); err != nil {
			return err
		}
	}
	if in.ContractID != nil {
		if _, err := s.contractRepo.GetByID(tenant.EmpresaID, *in.ContractID); err != nil {
			return err
		}
	}
	return nil
}

func (s *financialServiceImpl) ListTransactions(tenant *types.TenantContext, filter models.TransactionFilter) ([]*models.TransactionPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, core.WrapErrorf(core.ErrInvalidDateRange, "filtro de período")
	}
	rows, err := s.repo.Query(tenant.EmpresaID, filter)
	if err != nil {
		return nil, err
	}
	return models.ToTransactionPublicList(rows), nil
}

func (s *financialServiceImpl) MarkPaid(tenant *types.TenantContext, id uuid.UUID, paidAt time.Time) (*models.TransactionPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	paid := calc.DateOnly(paidAt)
	if err := s.repo.Update(tenant.EmpresaID, id, map[string]interface{}{
		"status":  models.StatusPaid,
		"paid_at": paid,
	}); err != nil {
		return nil, err
	}
	row, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	audit(s.auditLogService, tenant, "LEDGER_MARK_PAID", "INFO",
		fmt.Sprintf("Lançamento '%s' baixado em %s.", row.Description, utils.FormatDateBR(paid)),
		map[string]interface{}{"transaction_id": id.String()})
	return models.ToTransactionPublic(row), nil
}

func (s *financialServiceImpl) MarkReceivable(tenant *types.TenantContext, id uuid.UUID) (*models.TransactionPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	row, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	status := models.StatusReceivable
	if row.DueDate.Before(currentDate(s.now)) {
		status = models.StatusOverdue
	}
	if err := s.repo.Update(tenant.EmpresaID, id, map[string]interface{}{
		"status":  status,
		"paid_at": nil,
	}); err != nil {
		return nil, err
	}
	row.Status = status
	row.PaidAt = nil
	audit(s.auditLogService, tenant, "LEDGER_MARK_RECEIVABLE", "INFO",
		fmt.Sprintf("Baixa do lançamento '%s' desfeita (%s).", row.Description, status),
		map[string]interface{}{"transaction_id": id.String()})
	return models.ToTransactionPublic(row), nil
}

func (s *financialServiceImpl) DeleteTransaction(tenant *types.TenantContext, id uuid.UUID) error {
	if err := requireTenant(tenant); err != nil {
		return err
	}
	if err := s.repo.Delete(tenant.EmpresaID, id); err != nil {
		return err
	}
	audit(s.auditLogService, tenant, "LEDGER_DELETE", "WARNING",
		fmt.Sprintf("Lançamento %s excluído.", id), map[string]interface{}{"transaction_id": id.String()})
	return nil
}

func (s *financialServiceImpl) Summary(tenant *types.TenantContext, from, to time.Time) (*models.FinancialSummary, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	from, to = calc.DateOnly(from), calc.DateOnly(to)
	if to.Before(from) {
		return nil, core.WrapErrorf(core.ErrInvalidDateRange, "resumo financeiro")
	}
	rows, err := s.repo.Query(tenant.EmpresaID, models.TransactionFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	sum := &models.FinancialSummary{
		Received:   decimal.Zero,
		Receivable: decimal.Zero,
		Overdue:    decimal.Zero,
		Expenses:   decimal.Zero,
	}
	ref := currentDate(s.now)
	for _, r := range rows {
		if r.Kind == models.KindExpense {
			if r.Status == models.StatusPaid {
				sum.Expenses = sum.Expenses.Add(r.Amount)
			}
			continue
		}
		switch {
		case r.Status == models.StatusPaid:
			sum.Received = sum.Received.Add(r.Amount)
		case r.Status == models.StatusOverdue || r.DueDate.Before(ref):
			sum.Overdue = sum.Overdue.Add(r.Amount)
		default:
			sum.Receivable = sum.Receivable.Add(r.Amount)
		}
	}
	sum.Balance = sum.Received.Sub(sum.Expenses)
	return sum, nil
}

func (s *financialServiceImpl) RefreshOverdue(today time.Time) (int64, error) {
	n, err := s.repo.MarkOverdue(nil, calc.DateOnly(today))
	if err != nil {
		appLogger.Errorf("Falha ao atualizar lançamentos atrasados: %v", err)
		return 0, err
	}
	if n > 0 {
		appLogger.Infof("%d lançamento(s) marcados como atrasados.", n)
		audit(s.auditLogService, nil, "LEDGER_OVERDUE_REFRESH", "INFO",
			fmt.Sprintf("%d lançamento(s) marcados como atrasados em %s.", n, utils.FormatDateBR(today)), nil)
	}
	return n, nil
}

var transactionExportHeaders = []string{
	"VENCIMENTO", "DESCRIÇÃO", "CATEGORIA", "TIPO", "PARCELA", "VALOR", "STATUS", "PAGO EM",
}

func (s *financialServiceImpl) ExportTransactions(tenant *types.TenantContext, filter models.TransactionFilter, outputPath string) (string, error) {
	rows, err := s.ListTransactions(tenant, filter)
	if err != nil {
		return "", err
	}

	lines := make([][]string, len(rows))
	for i, r := range rows {
		lines[i] = []string{
			utils.FormatDateBR(r.DueDate),
			r.Description,
			r.Category,
			r.Kind,
			strconv.Itoa(r.InstallmentNumber) + "/" + strconv.Itoa(r.InstallmentTotal),
			utils.FormatDecimalBR(r.Amount),
			r.Status,
			utils.FormatDatePtrBR(r.PaidAt),
		}
	}
	input, err := utils.NewSliceDataInput(transactionExportHeaders, lines, "Lançamentos")
	if err != nil {
		return "", err
	}

	var path string
	if strings.EqualFold(filepath.Ext(outputPath), ".csv") {
		path, err = utils.ExportToCSV(input, outputPath, s.cfg.ExportDir, &utils.ExportOptions{CreateBackup: true})
	} else {
		path, err = utils.ExportToXLSX([]utils.DataInput{input}, outputPath, s.cfg.ExportDir, &utils.ExportOptions{
			CreateBackup:   true,
			NumericColumns: []string{"VALOR"},
			ColumnWidths:   map[string]float64{"B": 40},
		})
	}
	if err != nil {
		return "", err
	}
	audit(s.auditLogService, tenant, "LEDGER_EXPORT", "INFO",
		fmt.Sprintf("%d lançamento(s) exportados para %s.", len(rows), filepath.Base(path)), nil)
	return path, nil
}
