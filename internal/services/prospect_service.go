package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/repositories"
)

// ProspectService define a interface do quadro de leads (CRM).
type ProspectService interface {
	CreateProspect(tenant *types.TenantContext, in models.ProspectCreate) (*models.ProspectPublic, error)
	UpdateProspect(tenant *types.TenantContext, id uuid.UUID, in models.ProspectUpdate) (*models.ProspectPublic, error)
	DeleteProspect(tenant *types.TenantContext, id uuid.UUID) error
	GetProspect(tenant *types.TenantContext, id uuid.UUID) (*models.ProspectPublic, error)

	// Board devolve as colunas na ordem do funil, com os cartões em ordem de posição.
	Board(tenant *types.TenantContext) ([]models.BoardColumn, error)
	// MoveProspect move o cartão para toStage na posição toIndex (limitada aos extremos da coluna).
	MoveProspect(tenant *types.TenantContext, id uuid.UUID, toStage string, toIndex int) (*models.ProspectPublic, error)
	// ConvertToClient cadastra o lead como cliente e o move para "fechado".
	ConvertToClient(tenant *types.TenantContext, id uuid.UUID) (*models.ClientPublic, error)
}

type prospectServiceImpl struct {
	db              *gorm.DB
	repo            repositories.ProspectRepository
	clientService   ClientService
	auditLogService AuditLogService
}

// NewProspectService cria uma nova instância de ProspectService.
func NewProspectService(
	db *gorm.DB,
	repo repositories.ProspectRepository,
	clientService ClientService,
	auditLogService AuditLogService,
) ProspectService {
	if db == nil || repo == nil || clientService == nil || auditLogService == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewProspectService")
	}
	return &prospectServiceImpl{
		db:              db,
		repo:            repo,
		clientService:   clientService,
		auditLogService: auditLogService,
	}
}

func (s *prospectServiceImpl) CreateProspect(tenant *types.TenantContext, in models.ProspectCreate) (*models.ProspectPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	if err := in.CleanAndValidate(); err != nil {
		appLogger.Warnf("Dados de lead inválidos: %v", err)
		return nil, err
	}

	actor := tenant.Actor()
	p := &models.DBProspect{
		EmpresaID:      tenant.EmpresaID,
		Name:           in.Name,
		Phone:          optional(in.Phone),
		Email:          optional(in.Email),
		Source:         optional(in.Source),
		Stage:          in.Stage,
		EstimatedValue: in.EstimatedValue,
		Notes:          optional(strings.TrimSpace(in.Notes)),
		CreatedBy:      &actor,
		UpdatedBy:      &actor,
	}
	err := data.WithTransaction(s.db, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pos, err := repo.NextPosition(tenant.EmpresaID, p.Stage)
		if err != nil {
			return err
		}
		p.Position = pos
		_, err = repo.Create(p)
		return err
	})
	if err != nil {
		return nil, err
	}

	audit(s.auditLogService, tenant, "PROSPECT_CREATE", "INFO",
		fmt.Sprintf("Lead '%s' criado na etapa %s.", p.Name, p.Stage),
		map[string]interface{}{"prospect_id": p.ID.String()})
	return models.ToProspectPublic(p), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *prospectServiceImpl) UpdateProspect(tenant *types.TenantContext, id uuid.UUID, in models.ProspectUpdate) (*models.ProspectPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	fields, err := in.CleanAndValidate()
	if err != nil {
		return nil, err
	}
	fields["updated_by"] = tenant.Actor()
	if err := s.repo.Update(tenant.EmpresaID, id, fields); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	audit(s.auditLogService, tenant, "PROSPECT_UPDATE", "INFO",
		fmt.Sprintf("Lead '%s' atualizado.", p.Name), map[string]interface{}{"prospect_id": id.String()})
	return models.ToProspectPublic(p), nil
}

func (s *prospectServiceImpl) DeleteProspect(tenant *types.TenantContext, id uuid.UUID) error {
	if err := requireTenant(tenant); err != nil {
		return err
	}
	p, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return err
	}
	err = data.WithTransaction(s.db, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Delete(tenant.EmpresaID, id); err != nil {
			return err
		}
		remaining, err := repo.ListByStage(tenant.EmpresaID, p.Stage)
		if err != nil {
			return err
		}
		return repo.SaveColumn(tenant.EmpresaID, p.Stage, prospectIDs(remaining))
	})
	if err != nil {
		return err
	}
	audit(s.auditLogService, tenant, "PROSPECT_DELETE", "INFO",
		fmt.Sprintf("Lead '%s' excluído.", p.Name), map[string]interface{}{"prospect_id": id.String()})
	return nil
}

func (s *prospectServiceImpl) GetProspect(tenant *types.TenantContext, id uuid.UUID) (*models.ProspectPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	return models.ToProspectPublic(p), nil
}

func (s *prospectServiceImpl) Board(tenant *types.TenantContext) ([]models.BoardColumn, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	all, err := s.repo.ListBoard(tenant.EmpresaID)
	if err != nil {
		return nil, err
	}

	byStage := make(map[string][]*models.ProspectPublic, len(models.PipelineStages))
	totals := make(map[string]decimal.Decimal, len(models.PipelineStages))
	for _, p := range all {
		byStage[p.Stage] = append(byStage[p.Stage], models.ToProspectPublic(p))
		if p.EstimatedValue != nil {
			totals[p.Stage] = totals[p.Stage].Add(*p.EstimatedValue)
		}
	}

	columns := make([]models.BoardColumn, 0, len(models.PipelineStages))
	for _, stage := range models.PipelineStages {
		cards := byStage[stage]
		if cards == nil {
			cards = []*models.ProspectPublic{}
		}
		columns = append(columns, models.BoardColumn{
			Stage:      stage,
			Prospects:  cards,
			TotalValue: totals[stage],
		})
	}
	return columns, nil
}

func (s *prospectServiceImpl) MoveProspect(tenant *types.TenantContext, id uuid.UUID, toStage string, toIndex int) (*models.ProspectPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	toStage = strings.ToLower(strings.TrimSpace(toStage))
	if !models.IsValidStage(toStage) {
		return nil, appErrors.NewValidationError("Etapa do funil inválida.", map[string]string{"stage": toStage})
	}

	var moved *models.DBProspect
	var fromStage string
	err := data.WithTransaction(s.db, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		p, err := repo.GetByID(tenant.EmpresaID, id)
		if err != nil {
			return err
		}
		fromStage = p.Stage

		source, err := repo.ListByStage(tenant.EmpresaID, fromStage)
		if err != nil {
			return err
		}
		sourceIDs := removeID(prospectIDs(source), id)

		targetIDs := sourceIDs
		if toStage != fromStage {
			target, err := repo.ListByStage(tenant.EmpresaID, toStage)
			if err != nil {
				return err
			}
			targetIDs = prospectIDs(target)
		}
		targetIDs = insertID(targetIDs, id, toIndex)

		if err := repo.SaveColumn(tenant.EmpresaID, toStage, targetIDs); err != nil {
			return err
		}
		if toStage != fromStage {
			if err := repo.SaveColumn(tenant.EmpresaID, fromStage, sourceIDs); err != nil {
				return err
			}
		}
		if err := repo.Update(tenant.EmpresaID, id, map[string]interface{}{"updated_by": tenant.Actor()}); err != nil {
			return err
		}
		moved, err = repo.GetByID(tenant.EmpresaID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if fromStage != toStage {
		audit(s.auditLogService, tenant, "PROSPECT_MOVE", "INFO",
			fmt.Sprintf("Lead '%s' movido de %s para %s.", moved.Name, fromStage, toStage),
			map[string]interface{}{"prospect_id": id.String(), "from": fromStage, "to": toStage, "position": moved.Position})
	}
	return models.ToProspectPublic(moved), nil
}

func (s *prospectServiceImpl) ConvertToClient(tenant *types.TenantContext, id uuid.UUID) (*models.ClientPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(tenant.EmpresaID, id)
	if err != nil {
		return nil, err
	}
	if p.ClientID != nil {
		return nil, fmt.Errorf("%w: lead '%s' já foi convertido em cliente", appErrors.ErrConflict, p.Name)
	}

	client, err := s.clientService.CreateClient(tenant, models.ClientCreate{
		Name:  p.Name,
		Email: derefOr(p.Email, ""),
		Phone: derefOr(p.Phone, ""),
		Notes: derefOr(p.Notes, ""),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.MoveProspect(tenant, id, models.StageWon, 0); err != nil {
		return nil, err
	}
	if err := s.repo.Update(tenant.EmpresaID, id, map[string]interface{}{"client_id": client.ID}); err != nil {
		return nil, err
	}

	audit(s.auditLogService, tenant, "PROSPECT_CONVERT", "INFO",
		fmt.Sprintf("Lead '%s' convertido em cliente.", p.Name),
		map[string]interface{}{"prospect_id": id.String(), "client_id": client.ID.String()})
	return client, nil
}

func prospectIDs(ps []*models.DBProspect) []uuid.UUID {
	ids := make([]uuid.UUID, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// insertID insere id em index, limitado a [0, len(ids)].
func insertID(ids []uuid.UUID, id uuid.UUID, index int) []uuid.UUID {
	if index < 0 {
		index = 0
	}
	if index > len(ids) {
		index = len(ids)
	}
	out := make([]uuid.UUID, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	return append(out, ids[index:]...)
}
