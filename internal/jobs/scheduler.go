package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/calc"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/services"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// Scheduler executa as rotinas diárias: atualização de parcelas atrasadas
// e aviso de planos perto do vencimento.
type Scheduler struct {
	cfg       *core.Config
	financial services.FinancialService
	clients   services.ClientService
	auditLog  services.AuditLogService
	email     services.EmailService // opcional

	cron *cron.Cron
	now  func() time.Time
}

// NewScheduler cria o agendador. email pode ser nil.
func NewScheduler(
	cfg *core.Config,
	financial services.FinancialService,
	clients services.ClientService,
	auditLog services.AuditLogService,
	email services.EmailService,
) *Scheduler {
	if cfg == nil || financial == nil || clients == nil || auditLog == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewScheduler")
	}
	loc, err := time.LoadLocation(cfg.SchedulerTimeZone)
	if err != nil {
		appLogger.Warnf("Fuso '%s' inválido para o agendador (%v). Usando UTC.", cfg.SchedulerTimeZone, err)
		loc = time.UTC
	}
	return &Scheduler{
		cfg:       cfg,
		financial: financial,
		clients:   clients,
		auditLog:  auditLog,
		email:     email,
		cron:      cron.New(cron.WithLocation(loc)),
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

// Start registra as rotinas e inicia o cron em segundo plano.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.OverdueCronSpec, func() {
		if _, err := s.RunOverdueRefresh(); err != nil {
			appLogger.Errorf("Rotina de parcelas atrasadas falhou: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("%w: agenda inválida para parcelas atrasadas '%s': %v", core.ErrConfiguration, s.cfg.OverdueCronSpec, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.PlanExpiryCronSpec, func() {
		if _, err := s.RunPlanExpiryNotice(); err != nil {
			appLogger.Errorf("Rotina de aviso de vencimento de planos falhou: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("%w: agenda inválida para aviso de planos '%s': %v", core.ErrConfiguration, s.cfg.PlanExpiryCronSpec, err)
	}

	s.cron.Start()
	appLogger.Infof("Agendador iniciado (atrasados: '%s', planos: '%s').", s.cfg.OverdueCronSpec, s.cfg.PlanExpiryCronSpec)
	return nil
}

// Stop interrompe o cron e espera as rotinas em execução terminarem.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	appLogger.Info("Agendador parado.")
}

// RunOverdueRefresh marca como atrasadas as parcelas a receber vencidas.
func (s *Scheduler) RunOverdueRefresh() (int64, error) {
	return s.financial.RefreshOverdue(calc.DateOnly(s.now()))
}

// RunPlanExpiryNotice registra (e envia por e-mail, se configurado) os planos que
// terminam exatamente daqui a PlanExpiryNoticeDays dias. Retorna quantos clientes foram avisados.
func (s *Scheduler) RunPlanExpiryNotice() (int, error) {
	// Cada plano entra em uma única execução diária.
	target := calc.AddDays(calc.DateOnly(s.now()), s.cfg.PlanExpiryNoticeDays)
	expiring, err := s.clients.ExpiringPlans(target, 0)
	if err != nil {
		return 0, err
	}

	for _, c := range expiring {
		s.noticeClient(c)
	}
	if len(expiring) > 0 {
		appLogger.Infof("%d plano(s) vencendo em %s.", len(expiring), utils.FormatDateBR(target))
	}
	return len(expiring), nil
}

func (s *Scheduler) noticeClient(c *models.DBClient) {
	tenant := types.NewTenantContext(c.EmpresaID, "")
	end := *c.PlanEndDate
	emailed := false
	if s.email != nil && c.Email != nil {
		if err := s.email.SendPlanExpiryNotice(*c.Email, c.Name, end); err != nil {
			appLogger.Warnf("Falha ao avisar cliente %s sobre vencimento do plano: %v", c.ID, err)
		} else {
			emailed = true
		}
	}

	entry := models.AuditLogEntry{
		Action:      "CLIENT_PLAN_EXPIRING",
		Description: fmt.Sprintf("Plano do cliente '%s' vence em %s.", c.Name, utils.FormatDateBR(end)),
		Severity:    "INFO",
		Metadata:    map[string]interface{}{"client_id": c.ID.String(), "emailed": emailed},
	}
	if err := s.auditLog.LogAction(entry, &tenant); err != nil {
		appLogger.Warnf("Falha ao registrar log de auditoria de vencimento (cliente %s): %v", c.ID, err)
	}
}
