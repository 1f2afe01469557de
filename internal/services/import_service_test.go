package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

func writeImportFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("gravando arquivo de teste: %v", err)
	}
	return path
}

func TestImportClients(t *testing.T) {
	h := newHarness(t)
	if _, err := h.clients.CreateClient(h.tenant, models.ClientCreate{Name: "Já Cadastrado", CPF: cpfJoao}); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	content := "\ufeffnome;Email;TELEFONE;cpf;data_nascimento;OBJETIVO\n" +
		"maria silva;MARIA@example.com;(11) 98765-4321;529.982.247-25;10/05/1990;Emagrecimento\n" +
		"Duplicada;;;52998224725;;\n" +
		";sem.nome@example.com;;;;\n" +
		";;;;;\n" +
		"Pedro;;;;31/02/2000;\n" +
		"Ana;;;111.444.777-35;;\n" +
		"Carla;;;;;\n"
	path := writeImportFile(t, "clientes.csv", []byte(content))

	result, err := h.imports.ImportClients(h.tenant, path)
	if err != nil {
		t.Fatalf("ImportClients: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 4 {
		t.Fatalf("importados %d, ignorados %d; problemas: %v", result.Imported, result.Skipped, result.Problems)
	}
	if result.Encoding != "UTF-8" {
		t.Errorf("codificação = %s", result.Encoding)
	}
	joined := strings.Join(result.Problems, "\n")
	for _, want := range []string{"linha 3: CPF repetido no arquivo", "linha 7: CPF já cadastrado", "linha 4:", "linha 6:"} {
		if !strings.Contains(joined, want) {
			t.Errorf("problemas não contêm %q:\n%s", want, joined)
		}
	}

	got, _, err := h.clients.ListClients(h.tenant, models.ClientFilter{Search: "maria"})
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("cliente importado não encontrado")
	}
	maria := got[0]
	if maria.Name != "Maria Silva" || *maria.Email != "maria@example.com" || *maria.CPF != "52998224725" {
		t.Errorf("cliente importado = %+v", maria)
	}
	if maria.BirthDate == nil || !maria.BirthDate.Equal(date(1990, 5, 10)) {
		t.Errorf("nascimento = %v", maria.BirthDate)
	}

	status, err := h.imports.GetImportStatus(h.tenant, FileTypeClients)
	if err != nil {
		t.Fatalf("GetImportStatus: %v", err)
	}
	if *status.RecordCount != 2 || *status.SkippedCount != 4 || *status.OriginalFilename != "clientes.csv" {
		t.Errorf("metadados = %+v", status)
	}

	logs, _, err := h.auditLog.GetAuditLogs(h.tenant, models.AuditLogFilter{Action: "IMPORT_CLIENTES"}, 10, 0)
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("esperado 1 log de importação, obtido %d", len(logs))
	}
}

func TestImportClientsLatin1(t *testing.T) {
	h := newHarness(t)
	encoded, err := charmap.ISO8859_1.NewEncoder().String(
		"NOME;EMAIL;TELEFONE;CPF;DATA_NASCIMENTO;OBJETIVO\njoão;;;;;Reeducação alimentar\n")
	if err != nil {
		t.Fatalf("codificando Latin-1: %v", err)
	}
	path := writeImportFile(t, "latin1.csv", []byte(encoded))

	result, err := h.imports.ImportClients(h.tenant, path)
	if err != nil {
		t.Fatalf("ImportClients: %v", err)
	}
	if result.Encoding != "Latin-1" || result.Imported != 1 {
		t.Fatalf("resultado = %+v", result)
	}
	got, _, err := h.clients.ListClients(h.tenant, models.ClientFilter{})
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(got) != 1 || got[0].Name != "João" || *got[0].Objective != "Reeducação alimentar" {
		t.Errorf("cliente importado = %+v", got)
	}
}

func TestImportClientsUpdatesMetadata(t *testing.T) {
	h := newHarness(t)
	header := "NOME;EMAIL;TELEFONE;CPF;DATA_NASCIMENTO;OBJETIVO\n"
	first := writeImportFile(t, "janeiro.csv", []byte(header+"Ana;;;;;\nBia;;;;;\n"))
	second := writeImportFile(t, "fevereiro.csv", []byte(header+"Caio;;;;;\n"))

	for _, path := range []string{first, second} {
		if _, err := h.imports.ImportClients(h.tenant, path); err != nil {
			t.Fatalf("ImportClients(%s): %v", filepath.Base(path), err)
		}
	}

	all, err := h.imports.GetAllImportStatus(h.tenant)
	if err != nil {
		t.Fatalf("GetAllImportStatus: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("esperado um registro por tipo de arquivo, obtido %d", len(all))
	}
	if *all[0].OriginalFilename != "fevereiro.csv" || *all[0].RecordCount != 1 {
		t.Errorf("metadados após segunda importação = %+v", all[0])
	}

	if _, err := h.imports.GetImportStatus(otherTenant(), FileTypeClients); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("outra empresa: esperado ErrNotFound, obtido %v", err)
	}
}

func TestImportClientsRejectsBadFiles(t *testing.T) {
	h := newHarness(t)

	missingColumn := writeImportFile(t, "sem_cpf.csv", []byte("NOME;EMAIL;TELEFONE;DATA_NASCIMENTO;OBJETIVO\nAna;;;;\n"))
	_, err := h.imports.ImportClients(h.tenant, missingColumn)
	if !errors.Is(err, appErrors.ErrDataImport) || !strings.Contains(err.Error(), "CPF") {
		t.Errorf("coluna ausente: esperado ErrDataImport citando CPF, obtido %v", err)
	}

	empty := writeImportFile(t, "vazio.csv", nil)
	if _, err := h.imports.ImportClients(h.tenant, empty); !errors.Is(err, appErrors.ErrDataImport) {
		t.Errorf("arquivo vazio: esperado ErrDataImport, obtido %v", err)
	}

	if _, err := h.imports.ImportClients(h.tenant, filepath.Join(t.TempDir(), "inexistente.csv")); !errors.Is(err, appErrors.ErrNotFound) {
		t.Errorf("arquivo inexistente: esperado ErrNotFound, obtido %v", err)
	}

	_, total, err := h.clients.ListClients(h.tenant, models.ClientFilter{})
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if total != 0 {
		t.Errorf("nenhum cliente deveria ter sido importado, obtido %d", total)
	}
}
