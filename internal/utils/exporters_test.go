package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
)

func sampleInput(t *testing.T) *SliceDataInput {
	t.Helper()
	input, err := NewSliceDataInput(
		[]string{"Cliente", "CPF", "Valor"},
		[][]string{
			{"Ana Souza", "529.982.247-25", "333,33"},
			{"João Lima", "111.444.777-35", "1200,00"},
		},
		"Lançamentos",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return input
}

func TestNewSliceDataInput_RejectsRaggedRows(t *testing.T) {
	_, err := NewSliceDataInput([]string{"A", "B"}, [][]string{{"1"}}, "")
	if !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExportToCSV(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToCSV(sampleInput(t), "financeiro", dir, &ExportOptions{Sanitize: true, SanitizeColumns: []string{"cpf"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(path) != ".csv" {
		t.Errorf("expected .csv extension, got %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "Cliente;CPF;Valor" {
		t.Errorf("header %q", lines[0])
	}
	if strings.Contains(lines[1], "529.982.247-25") {
		t.Errorf("CPF should be masked: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], ";333,33") {
		t.Errorf("value column changed: %q", lines[1])
	}
}

func TestExportToXLSX(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToXLSX([]DataInput{sampleInput(t)}, "financeiro.xlsx", dir, &ExportOptions{NumericColumns: []string{"Valor"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()

	if name := f.GetSheetName(0); name != "Lançamentos" {
		t.Errorf("sheet name %q", name)
	}
	header, _ := f.GetCellValue("Lançamentos", "A1")
	if header != "Cliente" {
		t.Errorf("A1 = %q", header)
	}
	cpf, _ := f.GetCellValue("Lançamentos", "B2")
	if cpf != "529.982.247-25" {
		t.Errorf("B2 = %q", cpf)
	}
	raw, _ := f.GetCellValue("Lançamentos", "C3", excelize.Options{RawCellValue: true})
	if raw != "1200" {
		t.Errorf("C3 should be stored as number, got %q", raw)
	}
}

func TestExportToXLSX_NoInputs(t *testing.T) {
	if _, err := ExportToXLSX(nil, "x", t.TempDir(), nil); !errors.Is(err, appErrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
