package services

import (
	"strings"
	"time"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/repositories"
)

const maxAuditDescription = 4000

// AuditLogService define a interface para o serviço de log de auditoria.
type AuditLogService interface {
	// LogAction registra uma ação. Sem tenant, a ação é atribuída ao sistema.
	LogAction(entry models.AuditLogEntry, tenant *types.TenantContext) error

	// GetAuditLogs busca logs do tenant com filtros e paginação.
	GetAuditLogs(tenant *types.TenantContext, filter models.AuditLogFilter, limit, offset int) ([]models.AuditLogEntry, int64, error)
}

type auditLogServiceImpl struct {
	repo repositories.AuditLogRepository
}

// NewAuditLogService cria uma nova instância de AuditLogService.
func NewAuditLogService(repo repositories.AuditLogRepository) AuditLogService {
	if repo == nil {
		appLogger.Fatalf("AuditLogRepository não pode ser nil para NewAuditLogService")
	}
	return &auditLogServiceImpl{repo: repo}
}

func (s *auditLogServiceImpl) LogAction(entry models.AuditLogEntry, tenant *types.TenantContext) error {
	if strings.TrimSpace(entry.Action) == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "ação do log de auditoria não pode ser vazia")
	}
	if strings.TrimSpace(entry.Description) == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "descrição do log de auditoria não pode ser vazia")
	}

	severity := strings.ToUpper(strings.TrimSpace(entry.Severity))
	if !models.ValidSeverities[severity] {
		if severity != "" {
			appLogger.Warnf("Nível de severidade inválido '%s' fornecido para log. Usando 'INFO'. Ação: %s", entry.Severity, entry.Action)
		}
		severity = "INFO"
	}
	entry.Severity = severity

	if tenant != nil {
		if entry.Username == "" {
			entry.Username = tenant.Actor()
		}
		if entry.EmpresaID == nil && tenant.Valid() {
			id := tenant.EmpresaID
			entry.EmpresaID = &id
		}
	}
	if entry.Username == "" {
		entry.Username = "system"
	}

	if runes := []rune(entry.Description); len(runes) > maxAuditDescription {
		entry.Description = string(runes[:maxAuditDescription-3]) + "..."
		appLogger.Warnf("Descrição do log de auditoria truncada para %d caracteres. Ação: %s", maxAuditDescription, entry.Action)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if _, err := s.repo.Create(entry); err != nil {
		return appErrors.WrapErrorf(err, "falha ao persistir log de auditoria (Ação: %s)", entry.Action)
	}
	return nil
}

func (s *auditLogServiceImpl) GetAuditLogs(tenant *types.TenantContext, filter models.AuditLogFilter, limit, offset int) ([]models.AuditLogEntry, int64, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, 0, err
	}
	if limit > 1000 {
		appLogger.Warnf("Solicitação de GetAuditLogs com limite > 1000. Reduzido para 1000.")
		limit = 1000
	}
	id := tenant.EmpresaID
	logs, total, err := s.repo.GetFiltered(&id, filter, limit, offset)
	if err != nil {
		return nil, 0, appErrors.WrapErrorf(err, "falha ao buscar logs de auditoria do repositório")
	}
	return logs, total, nil
}
