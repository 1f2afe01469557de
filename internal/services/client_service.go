package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
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

// ClientService define a interface para o cadastro de clientes e seus planos.
type ClientService interface {
	CreateClient(tenant *types.TenantContext, in models.ClientCreate) (*models.ClientPublic, error)
	UpdateClient(tenant *types.TenantContext, id uuid.UUID, in models.ClientUpdate) (*models.ClientPublic, error)
	// DeleteClient remove o cliente junto com seus contratos e lançamentos.
	DeleteClient(tenant *types.TenantContext, id uuid.UUID) error
	GetClient(tenant *types.TenantContext, id uuid.UUID) (*models.ClientPublic, error)
	ListClients(tenant *types.TenantContext, filter models.ClientFilter) ([]*models.ClientPublic, int64, error)
	RenewPlan(tenant *types.TenantContext, id uuid.UUID, in models.RenewPlanInput) (*models.ClientPublic, error)
	// ExportClients grava a listagem em .xlsx ou .csv. Com sanitize, CPF, e-mail e telefone são mascarados.
	ExportClients(tenant *types.TenantContext, filter models.ClientFilter, outputPath string, sanitize bool) (string, error)
	// ExpiringPlans lista, em todas as empresas, os planos que terminam entre from e from+days.
	ExpiringPlans(from time.Time, days int) ([]*models.DBClient, error)
}

type clientServiceImpl struct {
	cfg             *core.Config
	db              *gorm.DB
	repo            repositories.ClientRepository
	contractRepo    repositories.ContractRepository
	txRepo          repositories.TransactionRepository
	ledger          *ledgerWriter
	auditLogService AuditLogService
	emailService    EmailService // opcional
	now             func() time.Time
}

// NewClientService cria uma nova instância de ClientService.
// emailService pode ser nil; nesse caso o questionário não é enviado.
func NewClientService(
	cfg *core.Config,
	db *gorm.DB,
	repo repositories.ClientRepository,
	contractRepo repositories.ContractRepository,
	txRepo repositories.TransactionRepository,
	auditLogService AuditLogService,
	emailService EmailService,
) ClientService {
	if cfg == nil || db == nil || repo == nil || contractRepo == nil || txRepo == nil || auditLogService == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewClientService")
	}
	return &clientServiceImpl{
		cfg:             cfg,
		db:              db,
		repo:            repo,
		contractRepo:    contractRepo,
		txRepo:          txRepo,
		ledger:          newLedgerWriter(txRepo, cfg.DefaultCategory, cfg.MaxInstallments),
		auditLogService: auditLogService,
		emailService:    emailService,
		now:             time.Now,
	}
}

// ensureUniqueCPF devolve ErrConflict se outro cliente da empresa já usa o CPF.
func (s *clientServiceImpl) ensureUniqueCPF(empresaID uuid.UUID, cpf string, self uuid.UUID) error {
	if cpf == "" {
		return nil
	}
	existing, err := s.repo.FindByCPF(empresaID, cpf)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == self {
		return nil
	}
	return fmt.Errorf("%w: CPF já cadastrado para o cliente '%s'", core.ErrConflict, existing.Name)
}

// paymentLedger monta a entrada do livro para o pagamento de um cliente.
func paymentLedger(payment models.PaymentInput, clientID uuid.UUID, contractID *uuid.UUID, fallbackDescription string) models.LedgerInput {
	if payment.Description == "" {
		payment.Description = fallbackDescription
	}
	cid := clientID
	return models.LedgerInput{
		Kind:       models.KindIncome,
		Payment:    payment,
		ClientID:   &cid,
		ContractID: contractID,
	}
}

func planDescription(planName, clientName string) string {
	if planName != "" {
		return fmt.Sprintf("Plano %s - %s", planName, clientName)
	}
	return "Atendimento - " + clientName
}

func (s *clientServiceImpl) CreateClient(tenant *types.TenantContext, in models.ClientCreate) (*models.ClientPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	period, err := in.CleanAndValidate()
	if err != nil {
		appLogger.Warnf("Dados de cadastro de cliente inválidos: %v", err)
		return nil, err
	}
	if err := s.ensureUniqueCPF(tenant.EmpresaID, in.CPF, uuid.Nil); err != nil {
		return nil, err
	}

	client := in.ToDBClient(tenant.EmpresaID, period, tenant.Actor())
	var installments int
	err = data.WithTransaction(s.db, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(client); err != nil {
			return err
		}
		if in.Payment == nil {
			return nil
		}
		planName := ""
		if in.Plan != nil {
			planName = in.Plan.Name
		}
		rows, err := s.ledger.write(tx, tenant, paymentLedger(*in.Payment, client.ID, nil, planDescription(planName, client.Name)))
		if err != nil {
			return err
		}
		installments = len(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.SendQuestionnaire {
		s.sendQuestionnaire(tenant, client)
	}

	audit(s.auditLogService, tenant, "CLIENT_CREATE", "INFO",
		fmt.Sprintf("Cliente '%s' cadastrado.", client.Name),
		map[string]interface{}{"client_id": client.ID.String(), "installments": installments})
	return models.ToClientPublic(client, s.now()), nil
}

// sendQuestionnaire envia o questionário; falhas não desfazem o cadastro.
func (s *clientServiceImpl) sendQuestionnaire(tenant *types.TenantContext, client *models.DBClient) {
	if s.emailService == nil {
		appLogger.Warnf("Envio de questionário solicitado para cliente %s, mas o serviço de e-mail não está configurado.", client.ID)
		return
	}
	if client.Email == nil {
		return
	}
	if err := s.emailService.SendQuestionnaire(*client.Email, client.Name); err != nil {
		appLogger.Warnf("Falha ao enviar questionário para cliente %s: %v", client.ID, err)
		audit(s.auditLogService, tenant, "CLIENT_QUESTIONNAIRE_FAILED", "WARNING",
			fmt.Sprintf("Falha ao enviar questionário para '%s'.", client.Name),
			map[string]interface{}{"client_id": client.ID.String(), "error": err.Error()})
		return
	}
	sentAt := s.now().UTC()
	if err := s.repo.Update(tenant.EmpresaID, client.ID, map[string]interface{}{"questionnaire_sent_at": sentAt}); err != nil {
		appLogger.Warnf("Questionário enviado, mas falhou ao registrar data de envio (cliente %s): %v", client.ID, err)
		return
	}
	client.QuestionnaireSentAt = &sentAt
}

func (s *clientServiceImpl) UpdateClient(tenant *types.TenantContext, id uuid.UUID, in models.ClientUpdate) (*models.ClientPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	fields, _, err := in.CleanAndValidate()
	if err != nil {
		appLogger.Warnf("Dados de atualização do cliente %s inválidos: %v", id, err)
		return nil, err
	}
	if cpf, ok := fields["cpf"].(*string); ok && cpf != nil {
		if err := s.ensureUniqueCPF(tenant.EmpresaID, *cpf, id); err != nil {
			return nil, err
		}
	}
	fields["updated_by"] = tenant.Actor()

	err = data.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(tenant.EmpresaID, id, fields); err != nil {
			return err
		}
		if in.Payment == nil {
			return nil
		}
		planName := derefOr(current.PlanName, "")
		if in.Plan != nil {
			planName = in.Plan.Name
		}
		name := current.Name
		if n, ok := fields["name"].(string); ok {
			name = n
		}
		_, err := s.ledger.write(tx, tenant, paymentLedger(*in.Payment, id, nil, planDescription(planName, name)))
		return err
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	audit(s.auditLogService, tenant, "CLIENT_UPDATE", "INFO",
		fmt.Sprintf("Cliente '%s' atualizado.", updated.Name),
		map[string]interface{}{"client_id": id.String(), "fields": len(fields)})
	return models.ToClientPublic(updated, s.now()), nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func (s *clientServiceImpl) DeleteClient(tenant *types.TenantContext, id uuid.UUID) error {
	if err := requireTenant(tenant); err != nil {
		return err
	}
	client, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return err
	}

	var removedTx, removedContracts int64
	err = data.WithTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		if removedTx, err = s.txRepo.WithTx(tx).DeleteByClient(tenant.EmpresaID, id); err != nil {
			return err
		}
		if removedContracts, err = s.contractRepo.WithTx(tx).DeleteByClient(tenant.EmpresaID, id); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(tenant.EmpresaID, id)
	})
	if err != nil {
		return err
	}

	audit(s.auditLogService, tenant, "CLIENT_DELETE", "WARNING",
		fmt.Sprintf("Cliente '%s' excluído com %d lançamento(s) e %d contrato(s).", client.Name, removedTx, removedContracts),
		map[string]interface{}{"client_id": id.String()})
	return nil
}

func (s *clientServiceImpl) GetClient(tenant *types.TenantContext, id uuid.UUID) (*models.ClientPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	client, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	return models.ToClientPublic(client, s.now()), nil
}

func (s *clientServiceImpl) ListClients(tenant *types.TenantContext, filter models.ClientFilter) ([]*models.ClientPublic, int64, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, 0, err
	}
	filter.Search = strings.ToLower(utils.SanitizeInput(filter.Search))
	if filter.Today.IsZero() {
		filter.Today = s.now()
	}
	clients, total, err := s.repo.Query(tenant.EmpresaID, filter)
	if err != nil {
		return nil, 0, err
	}
	return models.ToClientPublicList(clients, filter.Today), total, nil
}

func (s *clientServiceImpl) RenewPlan(tenant *types.TenantContext, id uuid.UUID, in models.RenewPlanInput) (*models.ClientPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	if err := in.CleanAndValidate(); err != nil {
		return nil, err
	}
	client, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}

	planName := in.PlanName
	if planName == "" {
		planName = derefOr(client.PlanName, "")
	}
	client.ApplyPlan(planName, in.PlanValue, in.Period)
	fields := map[string]interface{}{
		"plan_name":       client.PlanName,
		"plan_value":      *client.PlanValue,
		"plan_start_date": *client.PlanStartDate,
		"plan_end_date":   *client.PlanEndDate,
		"updated_by":      tenant.Actor(),
	}

	err = data.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(tenant.EmpresaID, id, fields); err != nil {
			return err
		}
		if in.Payment == nil {
			return nil
		}
		desc := "Renovação " + planDescription(planName, client.Name)
		_, err := s.ledger.write(tx, tenant, paymentLedger(*in.Payment, id, nil, desc))
		return err
	})
	if err != nil {
		return nil, err
	}

	audit(s.auditLogService, tenant, "CLIENT_PLAN_RENEW", "INFO",
		fmt.Sprintf("Plano do cliente '%s' renovado: %s a %s.", client.Name,
			utils.FormatDateBR(in.Period.StartDate), utils.FormatDateBR(in.Period.EndDate)),
		map[string]interface{}{"client_id": id.String(), "plan_value": in.PlanValue.StringFixed(2)})

	updated, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	return models.ToClientPublic(updated, s.now()), nil
}

var clientExportHeaders = []string{
	"NOME", "EMAIL", "TELEFONE", "CPF", "DATA_NASCIMENTO", "OBJETIVO", "PLANO", "VALOR_PLANO", "FIM_PLANO", "SITUACAO",
}

func (s *clientServiceImpl) ExportClients(tenant *types.TenantContext, filter models.ClientFilter, outputPath string, sanitize bool) (string, error) {
	filter.Limit, filter.Offset = 0, 0
	clients, _, err := s.ListClients(tenant, filter)
	if err != nil {
		return "", err
	}

	rows := make([][]string, len(clients))
	for i, c := range clients {
		value := ""
		if c.PlanValue != nil {
			value = utils.FormatDecimalBR(*c.PlanValue)
		}
		rows[i] = []string{
			c.Name,
			derefOr(c.Email, ""),
			derefOr(c.Phone, ""),
			derefOr(c.CPF, ""),
			utils.FormatDatePtrBR(c.BirthDate),
			derefOr(c.Objective, ""),
			derefOr(c.PlanName, ""),
			value,
			utils.FormatDatePtrBR(c.PlanEndDate),
			c.PlanStatus,
		}
	}
	input, err := utils.NewSliceDataInput(clientExportHeaders, rows, "Clientes")
	if err != nil {
		return "", err
	}
	opts := &utils.ExportOptions{
		CreateBackup:    true,
		Sanitize:        sanitize,
		SanitizeColumns: []string{"EMAIL", "TELEFONE", "CPF"},
		NumericColumns:  []string{"VALOR_PLANO"},
		ColumnWidths:    map[string]float64{"A": 35, "B": 30},
	}

	var path string
	if strings.EqualFold(filepath.Ext(outputPath), ".csv") {
		path, err = utils.ExportToCSV(input, outputPath, s.cfg.ExportDir, opts)
	} else {
		path, err = utils.ExportToXLSX([]utils.DataInput{input}, outputPath, s.cfg.ExportDir, opts)
	}
	if err != nil {
		return "", err
	}
	audit(s.auditLogService, tenant, "CLIENT_EXPORT", "INFO",
		fmt.Sprintf("%d cliente(s) exportados para %s.", len(clients), filepath.Base(path)),
		map[string]interface{}{"sanitized": sanitize})
	return path, nil
}

func (s *clientServiceImpl) ExpiringPlans(from time.Time, days int) ([]*models.DBClient, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: dias de antecedência negativos (%d)", core.ErrInvalidInput, days)
	}
	start := calc.DateOnly(from)
	return s.repo.ListPlansEndingBetween(start, calc.AddDays(start, days))
}
