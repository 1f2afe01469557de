package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
)

// DataInput abstrai a fonte dos dados de exportação.
type DataInput interface {
	Headers() ([]string, error)
	Rows() ([][]string, error)
	RowCount() (int, error)
	GetSheetName() string
}

// SliceDataInput é uma implementação de DataInput para um `[][]string`.
type SliceDataInput struct {
	headers   []string
	rows      [][]string
	sheetName string
}

// NewSliceDataInput cria um DataInput a partir de cabeçalhos e linhas já formatadas.
func NewSliceDataInput(headers []string, rows [][]string, sheetName string) (*SliceDataInput, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: nenhum cabeçalho fornecido para exportação", appErrors.ErrInvalidInput)
	}
	for i, row := range rows {
		if len(row) != len(headers) {
			return nil, fmt.Errorf("%w: linha %d tem %d colunas, esperado %d", appErrors.ErrInvalidInput, i+1, len(row), len(headers))
		}
	}
	if sheetName == "" {
		sheetName = "Dados"
	}
	return &SliceDataInput{headers: headers, rows: rows, sheetName: sheetName}, nil
}

func (s *SliceDataInput) Headers() ([]string, error) { return s.headers, nil }
func (s *SliceDataInput) Rows() ([][]string, error)  { return s.rows, nil }
func (s *SliceDataInput) RowCount() (int, error)     { return len(s.rows), nil }
func (s *SliceDataInput) GetSheetName() string       { return s.sheetName }

// --- Sanitização (LGPD) ---
var (
	cpfRegex   = regexp.MustCompile(`\b(\d{3}[.-]?\d{3}[.-]?\d{3}-?\d{2})\b`)
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRegex = regexp.MustCompile(`\(?\d{2}\)?\s?9?\d{4}-?\d{4}`)
)

func sanitizeString(s string) string {
	s = cpfRegex.ReplaceAllString(s, "***.***.***-**")
	s = emailRegex.ReplaceAllString(s, "****@****.***")
	s = phoneRegex.ReplaceAllString(s, "(**) *****-****")
	return s
}

func columnIndexes(headers []string, names []string) map[int]bool {
	idx := make(map[int]bool)
	for _, name := range names {
		found := false
		for i, h := range headers {
			if strings.EqualFold(h, name) {
				idx[i] = true
				found = true
				break
			}
		}
		if !found {
			appLogger.Warnf("Coluna '%s' não encontrada nos cabeçalhos. Ignorando.", name)
		}
	}
	return idx
}

func sanitizeData(headers []string, rows [][]string, sanitizeColumns []string) [][]string {
	if len(sanitizeColumns) == 0 || len(rows) == 0 {
		return rows
	}
	cols := columnIndexes(headers, sanitizeColumns)
	if len(cols) == 0 {
		return rows
	}
	sanitized := make([][]string, len(rows))
	for i, row := range rows {
		newRow := make([]string, len(row))
		copy(newRow, row)
		for colIdx := range row {
			if cols[colIdx] {
				newRow[colIdx] = sanitizeString(row[colIdx])
			}
		}
		sanitized[i] = newRow
	}
	return sanitized
}

// ExportOptions contém opções para a exportação.
type ExportOptions struct {
	CreateBackup    bool
	Sanitize        bool
	SanitizeColumns []string // Colunas mascaradas quando Sanitize
	// NumericColumns são gravadas como número no XLSX ("1234,56" vira 1234.56).
	NumericColumns []string
	ColumnWidths   map[string]float64 // letra da coluna -> largura
}

// ExportToCSV exporta dados para um arquivo CSV separado por ';'.
func ExportToCSV(input DataInput, outputPath, exportDir string, opts *ExportOptions) (string, error) {
	finalPath := resolveOutputPath(outputPath, exportDir, ".csv")
	if opts == nil {
		opts = &ExportOptions{}
	}
	if opts.CreateBackup && fileExists(finalPath) {
		if err := createBackup(finalPath); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar backup para CSV: %v", err)
		}
	}

	headers, err := input.Headers()
	if err != nil {
		return "", err
	}
	rows, err := input.Rows()
	if err != nil {
		return "", err
	}
	if opts.Sanitize {
		rows = sanitizeData(headers, rows, opts.SanitizeColumns)
	}

	file, err := os.Create(finalPath)
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar arquivo CSV '%s': %v", finalPath, err)
	}
	defer file.Close()

	// BOM para o Excel reconhecer UTF-8 com acentos.
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever CSV: %v", err)
	}

	writer := csv.NewWriter(file)
	writer.Comma = ';'
	if err := writer.Write(headers); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever cabeçalhos CSV: %v", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever linha CSV: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao dar flush no writer CSV: %v", err)
	}
	appLogger.Infof("Dados exportados para CSV: %s", finalPath)
	return finalPath, nil
}

// ExportToXLSX exporta uma ou mais planilhas para um arquivo XLSX.
func ExportToXLSX(inputs []DataInput, outputPath, exportDir string, opts *ExportOptions) (string, error) {
	finalPath := resolveOutputPath(outputPath, exportDir, ".xlsx")
	if opts == nil {
		opts = &ExportOptions{}
	}
	if len(inputs) == 0 {
		return "", fmt.Errorf("%w: nenhuma planilha para exportar", appErrors.ErrInvalidInput)
	}
	if opts.CreateBackup && fileExists(finalPath) {
		if err := createBackup(finalPath); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar backup para XLSX: %v", err)
		}
	}

	xlsx := excelize.NewFile()
	defer func() {
		if err := xlsx.Close(); err != nil {
			appLogger.Errorf("Erro ao fechar arquivo XLSX: %v", err)
		}
	}()

	headerStyle, err := xlsx.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2E7D32"}, Pattern: 1},
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    []excelize.Border{{Type: "bottom", Color: "FFFFFF", Style: 1}},
	})
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar estilo do cabeçalho: %v", err)
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := xlsx.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar estilo numérico: %v", err)
	}

	for i, input := range inputs {
		sheetName := input.GetSheetName()
		if sheetName == "" {
			sheetName = fmt.Sprintf("Planilha%d", i+1)
		}
		// excelize cria "Sheet1" por padrão; a primeira entrada a reaproveita.
		if i == 0 {
			if err := xlsx.SetSheetName("Sheet1", sheetName); err != nil {
				return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao renomear planilha: %v", err)
			}
		} else if _, err := xlsx.NewSheet(sheetName); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar planilha '%s': %v", sheetName, err)
		}

		headers, err := input.Headers()
		if err != nil {
			return "", err
		}
		rows, err := input.Rows()
		if err != nil {
			return "", err
		}
		if opts.Sanitize {
			rows = sanitizeData(headers, rows, opts.SanitizeColumns)
		}
		numeric := columnIndexes(headers, opts.NumericColumns)

		for colIdx, headerVal := range headers {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
			_ = xlsx.SetCellValue(sheetName, cell, headerVal)
			_ = xlsx.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		for rowIdx, rowData := range rows {
			for colIdx, cellData := range rowData {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				if numeric[colIdx] {
					normalized := strings.ReplaceAll(strings.ReplaceAll(cellData, ".", ""), ",", ".")
					if num, errConv := strconv.ParseFloat(normalized, 64); errConv == nil {
						_ = xlsx.SetCellValue(sheetName, cell, num)
						_ = xlsx.SetCellStyle(sheetName, cell, cell, moneyStyle)
						continue
					}
				}
				_ = xlsx.SetCellValue(sheetName, cell, cellData)
			}
		}

		for colIdx := range headers {
			colLetter, _ := excelize.ColumnNumberToName(colIdx + 1)
			width := 18.0
			if w, ok := opts.ColumnWidths[colLetter]; ok {
				width = w
			}
			_ = xlsx.SetColWidth(sheetName, colLetter, colLetter, width)
		}
	}
	xlsx.SetActiveSheet(0)

	if err := xlsx.SaveAs(finalPath); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao salvar arquivo XLSX '%s': %v", finalPath, err)
	}
	appLogger.Infof("Dados exportados para XLSX: %s", finalPath)
	return finalPath, nil
}

// --- Funções Utilitárias Internas ---

func resolveOutputPath(path, defaultDir, defaultExt string) string {
	p := filepath.Clean(path)
	if !filepath.IsAbs(p) {
		absDefaultDir, _ := filepath.Abs(defaultDir)
		p = filepath.Join(absDefaultDir, p)
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		appLogger.Warnf("Não foi possível criar diretório de exportação '%s': %v. Usando diretório atual.", dir, err)
		p = filepath.Base(p)
	}
	if filepath.Ext(p) == "" {
		p += defaultExt
	}
	return p
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func createBackup(path string) error {
	timestamp := time.Now().Format("20060102_150405")
	ext := filepath.Ext(path)
	backupPath := fmt.Sprintf("%s_backup_%s%s", strings.TrimSuffix(path, ext), timestamp, ext)
	if err := os.Rename(path, backupPath); err != nil {
		return err
	}
	appLogger.Infof("Backup criado: %s", backupPath)
	return nil
}
