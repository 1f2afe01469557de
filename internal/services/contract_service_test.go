package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

func newClient(t *testing.T, h *harness, name string) uuid.UUID {
	t.Helper()
	c, err := h.clients.CreateClient(h.tenant, models.ClientCreate{Name: name})
	if err != nil {
		t.Fatalf("CreateClient(%s): %v", name, err)
	}
	return c.ID
}

func semester(clientID uuid.UUID) models.ContractCreate {
	return models.ContractCreate{
		ClientID:   clientID,
		Title:      "Acompanhamento semestral",
		TotalValue: dec("1200"),
		StartDate:  date(2024, 1, 1),
		EndDate:    date(2024, 6, 30),
	}
}

func TestCreateContractWithPayment(t *testing.T) {
	h := newHarness(t)
	clientID := newClient(t, h, "Ana")

	in := semester(clientID)
	pay := payment("1200", 4, true)
	in.Payment = &pay
	contract, err := h.contracts.CreateContract(h.tenant, in)
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	if contract.Status != models.ContractActive {
		t.Errorf("status = %s, esperado ativo", contract.Status)
	}

	rows, err := h.financial.ListTransactions(h.tenant, models.TransactionFilter{ContractID: &contract.ID})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("esperado 4 parcelas do contrato, obtido %d", len(rows))
	}
	for _, r := range rows {
		assertDecimal(t, "parcela", r.Amount, "300")
		if r.ClientID == nil || *r.ClientID != clientID {
			t.Errorf("parcela %d sem o cliente do contrato", r.InstallmentNumber)
		}
		if r.Status != models.StatusReceivable {
			t.Errorf("parcela %d: status %s", r.InstallmentNumber, r.Status)
		}
	}
	if rows[0].Description != "Contrato Acompanhamento semestral - Ana (1/4)" {
		t.Errorf("descrição = %q", rows[0].Description)
	}
}

func TestCreateContractRequiresClientOfTenant(t *testing.T) {
	h := newHarness(t)
	clientID := newClient(t, h, "Ana")

	if _, err := h.contracts.CreateContract(otherTenant(), semester(clientID)); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("cliente de outra empresa: esperado ErrNotFound, obtido %v", err)
	}
	if _, err := h.contracts.CreateContract(h.tenant, semester(uuid.Nil)); !errors.Is(err, appErrors.ErrMissingRequiredField) {
		t.Errorf("sem cliente: esperado ErrMissingRequiredField, obtido %v", err)
	}

	inverted := semester(clientID)
	inverted.EndDate = date(2023, 12, 31)
	if _, err := h.contracts.CreateContract(h.tenant, inverted); !errors.Is(err, appErrors.ErrInvalidDateRange) {
		t.Errorf("vigência invertida: esperado ErrInvalidDateRange, obtido %v", err)
	}
}

func TestUpdateContract(t *testing.T) {
	h := newHarness(t)
	contract, err := h.contracts.CreateContract(h.tenant, semester(newClient(t, h, "Ana")))
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	// A nova data final é conferida contra o início já gravado.
	early := date(2023, 12, 1)
	if _, err := h.contracts.UpdateContract(h.tenant, contract.ID, models.ContractUpdate{EndDate: &early}); !errors.Is(err, appErrors.ErrInvalidDateRange) {
		t.Errorf("fim antes do início: esperado ErrInvalidDateRange, obtido %v", err)
	}

	status := "Encerrado"
	end := date(2024, 3, 31)
	updated, err := h.contracts.UpdateContract(h.tenant, contract.ID, models.ContractUpdate{Status: &status, EndDate: &end})
	if err != nil {
		t.Fatalf("UpdateContract: %v", err)
	}
	if updated.Status != models.ContractClosed || !updated.EndDate.Equal(end) {
		t.Errorf("após atualização: status %s, fim %v", updated.Status, updated.EndDate)
	}

	unknown := "suspenso"
	if _, err := h.contracts.UpdateContract(h.tenant, contract.ID, models.ContractUpdate{Status: &unknown}); !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("status desconhecido: esperado ErrValidation, obtido %v", err)
	}
}

func TestListContractsByStatus(t *testing.T) {
	h := newHarness(t)
	clientID := newClient(t, h, "Ana")
	first, err := h.contracts.CreateContract(h.tenant, semester(clientID))
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	if _, err := h.contracts.CreateContract(h.tenant, semester(clientID)); err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	cancelled := models.ContractCancelled
	if _, err := h.contracts.UpdateContract(h.tenant, first.ID, models.ContractUpdate{Status: &cancelled}); err != nil {
		t.Fatalf("UpdateContract: %v", err)
	}

	active, err := h.contracts.ListContracts(h.tenant, models.ContractFilter{Status: models.ContractActive})
	if err != nil {
		t.Fatalf("ListContracts: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("contratos ativos = %d, esperado 1", len(active))
	}
	all, err := h.contracts.ListContracts(h.tenant, models.ContractFilter{ClientID: &clientID})
	if err != nil {
		t.Fatalf("ListContracts: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("contratos do cliente = %d, esperado 2", len(all))
	}
	if _, err := h.contracts.ListContracts(h.tenant, models.ContractFilter{Status: "suspenso"}); !errors.Is(err, appErrors.ErrValidation) {
		t.Errorf("filtro inválido: esperado ErrValidation, obtido %v", err)
	}
}

func TestDeleteContractRemovesItsLedger(t *testing.T) {
	h := newHarness(t)
	clientID := newClient(t, h, "Ana")

	in := semester(clientID)
	pay := payment("1200", 2, true)
	in.Payment = &pay
	contract, err := h.contracts.CreateContract(h.tenant, in)
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	// Lançamento avulso do mesmo cliente, fora do contrato.
	if _, err := h.financial.RegisterInstallments(h.tenant, models.LedgerInput{Payment: payment("150", 1, true), ClientID: &clientID}); err != nil {
		t.Fatalf("RegisterInstallments: %v", err)
	}

	if err := h.contracts.DeleteContract(h.tenant, contract.ID); err != nil {
		t.Fatalf("DeleteContract: %v", err)
	}
	if _, err := h.contracts.GetContract(h.tenant, contract.ID); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("contrato excluído: esperado ErrNotFound, obtido %v", err)
	}
	rows, err := h.financial.ListTransactions(h.tenant, models.TransactionFilter{ClientID: &clientID})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(rows) != 1 || rows[0].ContractID != nil {
		t.Errorf("deveria restar apenas o lançamento avulso, obtido %d", len(rows))
	}
	if err := h.contracts.DeleteContract(h.tenant, contract.ID); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("exclusão repetida: esperado ErrNotFound, obtido %v", err)
	}
}
