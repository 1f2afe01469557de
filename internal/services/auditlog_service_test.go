package services

import (
	"errors"
	"strings"
	"testing"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

func TestLogActionNormalizesEntry(t *testing.T) {
	h := newHarness(t)

	err := h.auditLog.LogAction(models.AuditLogEntry{
		Action:      "CLIENT_EXPORT",
		Description: strings.Repeat("x", maxAuditDescription+50),
		Severity:    "urgente",
	}, h.tenant)
	if err != nil {
		t.Fatalf("LogAction: %v", err)
	}

	logs, total, err := h.auditLog.GetAuditLogs(h.tenant, models.AuditLogFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if total != 1 {
		t.Fatalf("esperado 1 log, obtido %d", total)
	}
	got := logs[0]
	if got.Severity != "INFO" {
		t.Errorf("severidade desconhecida deveria virar INFO, obtido %s", got.Severity)
	}
	if got.Username != "nutri" {
		t.Errorf("usuário = %q", got.Username)
	}
	if n := len([]rune(got.Description)); n != maxAuditDescription || !strings.HasSuffix(got.Description, "...") {
		t.Errorf("descrição com %d caracteres, esperado truncamento em %d", n, maxAuditDescription)
	}
	if got.EmpresaID == nil || *got.EmpresaID != h.tenant.EmpresaID {
		t.Errorf("log sem a empresa do contexto")
	}
}

func TestLogActionRejectsEmptyFields(t *testing.T) {
	h := newHarness(t)
	if err := h.auditLog.LogAction(models.AuditLogEntry{Description: "sem ação"}, h.tenant); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("sem ação: esperado ErrInvalidInput, obtido %v", err)
	}
	if err := h.auditLog.LogAction(models.AuditLogEntry{Action: "X"}, h.tenant); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("sem descrição: esperado ErrInvalidInput, obtido %v", err)
	}
}

func TestGetAuditLogsIsScopedAndFiltered(t *testing.T) {
	h := newHarness(t)
	entries := []models.AuditLogEntry{
		{Action: "CLIENT_CREATE", Description: "a", Severity: "INFO"},
		{Action: "CLIENT_DELETE", Description: "b", Severity: "WARNING"},
		{Action: "CLIENT_CREATE", Description: "c", Severity: "INFO"},
	}
	for _, e := range entries {
		if err := h.auditLog.LogAction(e, h.tenant); err != nil {
			t.Fatalf("LogAction: %v", err)
		}
	}
	if err := h.auditLog.LogAction(models.AuditLogEntry{Action: "CLIENT_CREATE", Description: "d"}, otherTenant()); err != nil {
		t.Fatalf("LogAction: %v", err)
	}

	created, total, err := h.auditLog.GetAuditLogs(h.tenant, models.AuditLogFilter{Action: "client_create"}, 10, 0)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if total != 2 || len(created) != 2 {
		t.Errorf("CLIENT_CREATE da empresa: total %d, itens %d", total, len(created))
	}

	warnings, _, err := h.auditLog.GetAuditLogs(h.tenant, models.AuditLogFilter{Severity: "warning"}, 10, 0)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Action != "CLIENT_DELETE" {
		t.Errorf("filtro por severidade = %+v", warnings)
	}

	page, total, err := h.auditLog.GetAuditLogs(h.tenant, models.AuditLogFilter{}, 2, 0)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Errorf("paginação: total %d, itens %d", total, len(page))
	}

	if _, _, err := h.auditLog.GetAuditLogs(nil, models.AuditLogFilter{}, 10, 0); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("sem empresa: esperado ErrInvalidInput, obtido %v", err)
	}
}
