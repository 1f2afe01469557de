package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/repositories"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// ContractService define a interface dos contratos de acompanhamento.
type ContractService interface {
	CreateContract(tenant *types.TenantContext, in models.ContractCreate) (*models.ContractPublic, error)
	UpdateContract(tenant *types.TenantContext, id uuid.UUID, in models.ContractUpdate) (*models.ContractPublic, error)
	// DeleteContract remove o contrato e as parcelas vinculadas a ele.
	DeleteContract(tenant *types.TenantContext, id uuid.UUID) error
	GetContract(tenant *types.TenantContext, id uuid.UUID) (*models.ContractPublic, error)
	ListContracts(tenant *types.TenantContext, filter models.ContractFilter) ([]*models.ContractPublic, error)
}

type contractServiceImpl struct {
	db              *gorm.DB
	repo            repositories.ContractRepository
	clientRepo      repositories.ClientRepository
	txRepo          repositories.TransactionRepository
	ledger          *ledgerWriter
	auditLogService AuditLogService
}

// NewContractService cria uma nova instância de ContractService.
func NewContractService(
	cfg *core.Config,
	db *gorm.DB,
	repo repositories.ContractRepository,
	clientRepo repositories.ClientRepository,
	txRepo repositories.TransactionRepository,
	auditLogService AuditLogService,
) ContractService {
	if cfg == nil || db == nil || repo == nil || clientRepo == nil || txRepo == nil || auditLogService == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewContractService")
	}
	return &contractServiceImpl{
		db:              db,
		repo:            repo,
		clientRepo:      clientRepo,
		txRepo:          txRepo,
		ledger:          newLedgerWriter(txRepo, cfg.DefaultCategory, cfg.MaxInstallments),
		auditLogService: auditLogService,
	}
}

func (s *contractServiceImpl) CreateContract(tenant *types.TenantContext, in models.ContractCreate) (*models.ContractPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	if err := in.CleanAndValidate(); err != nil {
		appLogger.Warnf("Dados de contrato inválidos: %v", err)
		return nil, err
	}
	client, err := s.clientRepo.GetByID(tenant.EmpresaID, in.ClientID)
	if err != nil {
		return nil, err
	}

	actor := tenant.Actor()
	contract := &models.DBContract{
		EmpresaID:  tenant.EmpresaID,
		ClientID:   in.ClientID,
		Title:      in.Title,
		TotalValue: in.TotalValue.Round(2),
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Status:     models.ContractActive,
		Notes:      optional(strings.TrimSpace(in.Notes)),
		CreatedBy:  &actor,
		UpdatedBy:  &actor,
	}

	var installments int
	err = data.WithTransaction(s.db, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(contract); err != nil {
			return err
		}
		if in.Payment == nil {
			return nil
		}
		contractID := contract.ID
		desc := fmt.Sprintf("Contrato %s - %s", contract.Title, client.Name)
		rows, err := s.ledger.write(tx, tenant, paymentLedger(*in.Payment, client.ID, &contractID, desc))
		if err != nil {
			return err
		}
		installments = len(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit(s.auditLogService, tenant, "CONTRACT_CREATE", "INFO",
		fmt.Sprintf("Contrato '%s' (%s) criado para '%s'.", contract.Title, utils.FormatBRL(contract.TotalValue), client.Name),
		map[string]interface{}{"contract_id": contract.ID.String(), "client_id": client.ID.String(), "installments": installments})
	return models.ToContractPublic(contract), nil
}

func (s *contractServiceImpl) UpdateContract(tenant *types.TenantContext, id uuid.UUID, in models.ContractUpdate) (*models.ContractPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	fields, err := in.CleanAndValidate(current)
	if err != nil {
		return nil, err
	}
	fields["updated_by"] = tenant.Actor()
	if err := s.repo.Update(tenant.EmpresaID, id, fields); err != nil {
		return nil, err
	}
	updated, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	audit(s.auditLogService, tenant, "CONTRACT_UPDATE", "INFO",
		fmt.Sprintf("Contrato '%s' atualizado (status %s).", updated.Title, updated.Status),
		map[string]interface{}{"contract_id": id.String()})
	return models.ToContractPublic(updated), nil
}

func (s *contractServiceImpl) DeleteContract(tenant *types.TenantContext, id uuid.UUID) error {
	if err := requireTenant(tenant); err != nil {
		return err
	}
	contract, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return err
	}
	var removed int64
	err = data.WithTransaction(s.db, func(tx *gorm.DB) error {
		var err error
		if removed, err = s.txRepo.WithTx(tx).DeleteByContract(tenant.EmpresaID, id); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(tenant.EmpresaID, id)
	})
	if err != nil {
		return err
	}
	audit(s.auditLogService, tenant, "CONTRACT_DELETE", "WARNING",
		fmt.Sprintf("Contrato '%s' excluído com %d lançamento(s).", contract.Title, removed),
		map[string]interface{}{"contract_id": id.String()})
	return nil
}

func (s *contractServiceImpl) GetContract(tenant *types.TenantContext, id uuid.UUID) (*models.ContractPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	return models.ToContractPublic(c), nil
}

func (s *contractServiceImpl) ListContracts(tenant *types.TenantContext, filter models.ContractFilter) ([]*models.ContractPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status != "" && !models.IsValidContractStatus(filter.Status) {
		return nil, core.NewValidationError("Status de contrato inválido.", map[string]string{"status": filter.Status})
	}
	contracts, err := s.repo.Query(tenant.EmpresaID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ContractPublic, len(contracts))
	for i, c := range contracts {
		out[i] = models.ToContractPublic(c)
	}
	return out, nil
}
