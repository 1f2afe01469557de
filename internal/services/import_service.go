package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gorm.io/gorm"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/repositories"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// FileTypeClients identifica a importação de clientes nos metadados.
const FileTypeClients = "CLIENTES"

// ClientImportColumns são as colunas esperadas no arquivo de clientes (ordem livre, sem diferenciar maiúsculas).
var ClientImportColumns = []string{"NOME", "EMAIL", "TELEFONE", "CPF", "DATA_NASCIMENTO", "OBJETIVO"}

// ImportResult resume uma importação.
type ImportResult struct {
	FileName string   `json:"file_name"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Encoding string   `json:"encoding"`
	Problems []string `json:"problems,omitempty"` // "linha N: motivo"
}

// ImportService define a interface para o serviço de importação.
type ImportService interface {
	// ImportClients lê um arquivo ';' de clientes. Linhas inválidas ou com CPF repetido são ignoradas e contadas.
	ImportClients(tenant *types.TenantContext, filePath string) (*ImportResult, error)
	GetImportStatus(tenant *types.TenantContext, fileType string) (*models.ImportMetadataPublic, error)
	GetAllImportStatus(tenant *types.TenantContext) ([]*models.ImportMetadataPublic, error)
}

type importServiceImpl struct {
	db                 *gorm.DB
	clientRepo         repositories.ClientRepository
	importMetadataRepo repositories.ImportMetadataRepository
	auditLogService    AuditLogService
}

// NewImportService cria uma nova instância de ImportService.
func NewImportService(
	db *gorm.DB,
	clientRepo repositories.ClientRepository,
	imRepo repositories.ImportMetadataRepository,
	auditLog AuditLogService,
) ImportService {
	if db == nil || clientRepo == nil || imRepo == nil || auditLog == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewImportService")
	}
	return &importServiceImpl{
		db:                 db,
		clientRepo:         clientRepo,
		importMetadataRepo: imRepo,
		auditLogService:    auditLog,
	}
}

// readDelimitedFile lê o arquivo removendo o BOM e convertendo Latin-1 para UTF-8 quando necessário.
func readDelimitedFile(filePath string) ([][]string, string, error) {
	rawBytes, err := os.ReadFile(filePath)
	if err != nil {
		appLogger.Errorf("Erro ao ler arquivo '%s': %v", filePath, err)
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: arquivo '%s' não encontrado", appErrors.ErrNotFound, filepath.Base(filePath))
		}
		return nil, "", fmt.Errorf("%w: falha ao ler arquivo '%s'", appErrors.ErrResourceLoading, filepath.Base(filePath))
	}

	rawBytes = bytes.TrimPrefix(rawBytes, []byte{0xEF, 0xBB, 0xBF})
	encoding := "UTF-8"
	if !utf8.Valid(rawBytes) {
		appLogger.Warnf("Arquivo '%s' não é UTF-8 válido. Tentando decodificar como Latin-1.", filePath)
		decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), rawBytes)
		if err != nil {
			return nil, "", fmt.Errorf("%w: arquivo '%s' não pôde ser decodificado como UTF-8 ou Latin-1", appErrors.ErrDataImport, filepath.Base(filePath))
		}
		rawBytes = decoded
		encoding = "Latin-1"
	}

	reader := csv.NewReader(bytes.NewReader(rawBytes))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, encoding, fmt.Errorf("%w: arquivo '%s' mal formatado (linha %d): %v", appErrors.ErrDataImport, filepath.Base(filePath), pe.Line, pe.Err)
		}
		return nil, encoding, fmt.Errorf("%w: falha ao interpretar '%s': %v", appErrors.ErrDataImport, filepath.Base(filePath), err)
	}
	return records, encoding, nil
}

// headerIndex mapeia cada coluna esperada para sua posição no cabeçalho.
func headerIndex(header, expected []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, col := range expected {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: colunas ausentes no cabeçalho: %s", appErrors.ErrDataImport, strings.Join(missing, ", "))
	}
	return idx, nil
}

func field(record []string, idx map[string]int, col string) string {
	i := idx[col]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// clientFromRecord converte uma linha em ClientCreate validado.
func clientFromRecord(record []string, idx map[string]int) (*models.ClientCreate, error) {
	cc := &models.ClientCreate{
		Name:      field(record, idx, "NOME"),
		Email:     field(record, idx, "EMAIL"),
		Phone:     field(record, idx, "TELEFONE"),
		CPF:       field(record, idx, "CPF"),
		Objective: field(record, idx, "OBJETIVO"),
	}
	if raw := field(record, idx, "DATA_NASCIMENTO"); raw != "" {
		birth, err := utils.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		cc.BirthDate = &birth
	}
	if _, err := cc.CleanAndValidate(); err != nil {
		return nil, err
	}
	return cc, nil
}

func (s *importServiceImpl) ImportClients(tenant *types.TenantContext, filePath string) (*ImportResult, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	fileName := filepath.Base(filePath)
	appLogger.Infof("Iniciando importação de clientes: Arquivo='%s', Usuário='%s'", fileName, tenant.Actor())

	records, encoding, err := readDelimitedFile(filePath)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: arquivo '%s' vazio", appErrors.ErrDataImport, fileName)
	}
	idx, err := headerIndex(records[0], ClientImportColumns)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{FileName: fileName, Encoding: encoding}
	skip := func(line int, reason string) {
		result.Skipped++
		result.Problems = append(result.Problems, fmt.Sprintf("linha %d: %s", line, reason))
	}

	seenCPF := make(map[string]bool)
	var toInsert []*models.DBClient
	actor := tenant.Actor()
	for i, record := range records[1:] {
		line := i + 2
		if isBlankRecord(record) {
			continue
		}
		cc, err := clientFromRecord(record, idx)
		if err != nil {
			skip(line, err.Error())
			continue
		}
		if cc.CPF != "" {
			if seenCPF[cc.CPF] {
				skip(line, "CPF repetido no arquivo")
				continue
			}
			seenCPF[cc.CPF] = true
			if _, err := s.clientRepo.FindByCPF(tenant.EmpresaID, cc.CPF); err == nil {
				skip(line, "CPF já cadastrado")
				continue
			} else if !errors.Is(err, appErrors.ErrNotFound) {
				return nil, err
			}
		}
		toInsert = append(toInsert, cc.ToDBClient(tenant.EmpresaID, nil, actor))
	}

	err = data.WithTransaction(s.db, func(tx *gorm.DB) error {
		repo := s.clientRepo.WithTx(tx)
		for _, c := range toInsert {
			if _, err := repo.Create(c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		audit(s.auditLogService, tenant, "IMPORT_CLIENTES_FAILED", "ERROR",
			fmt.Sprintf("Falha na importação do arquivo '%s': %v", fileName, err),
			map[string]interface{}{"filename": fileName, "error": err.Error()})
		return nil, appErrors.WrapErrorf(err, "falha ao gravar clientes importados")
	}
	result.Imported = len(toInsert)

	imported, skipped := result.Imported, result.Skipped
	if _, metaErr := s.importMetadataRepo.Upsert(models.ImportMetadataUpsert{
		EmpresaID:        tenant.EmpresaID,
		FileType:         FileTypeClients,
		OriginalFilename: &fileName,
		RecordCount:      &imported,
		SkippedCount:     &skipped,
		ImportedBy:       &actor,
	}); metaErr != nil {
		appLogger.Warnf("Falha ao atualizar metadados da importação '%s': %v", fileName, metaErr)
	}

	audit(s.auditLogService, tenant, "IMPORT_CLIENTES", "INFO",
		fmt.Sprintf("Importação de '%s' concluída: %d importado(s), %d ignorado(s).", fileName, imported, skipped),
		map[string]interface{}{"filename": fileName, "imported": imported, "skipped": skipped, "encoding": encoding})
	appLogger.Infof("Importação de '%s' concluída: %d importado(s), %d ignorado(s).", fileName, imported, skipped)
	return result, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (s *importServiceImpl) GetImportStatus(tenant *types.TenantContext, fileType string) (*models.ImportMetadataPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	meta, err := s.importMetadataRepo.GetByFileType(tenant.EmpresaID, fileType)
	if err != nil {
		return nil, err
	}
	return models.ToImportMetadataPublic(meta), nil
}

func (s *importServiceImpl) GetAllImportStatus(tenant *types.TenantContext) ([]*models.ImportMetadataPublic, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	all, err := s.importMetadataRepo.GetAll(tenant.EmpresaID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ImportMetadataPublic, len(all))
	for i := range all {
		out[i] = models.ToImportMetadataPublic(&all[i])
	}
	return out, nil
}
