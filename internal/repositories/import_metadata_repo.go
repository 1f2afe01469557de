package repositories

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

// ImportMetadataRepository define a interface para operações no repositório de metadados de importação.
type ImportMetadataRepository interface {
	// GetByFileType busca os metadados do tenant para o tipo de arquivo (case-insensitive).
	GetByFileType(empresaID uuid.UUID, fileType string) (*models.DBImportMetadata, error)
	GetAll(empresaID uuid.UUID) ([]models.DBImportMetadata, error)
	// Upsert cria ou atualiza os metadados do par (tenant, tipo). LastUpdatedAt é sempre agora (UTC).
	Upsert(upsertData models.ImportMetadataUpsert) (*models.DBImportMetadata, error)
}

type gormImportMetadataRepository struct {
	db *gorm.DB
}

// NewGormImportMetadataRepository cria uma nova instância de gormImportMetadataRepository.
func NewGormImportMetadataRepository(db *gorm.DB) ImportMetadataRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormImportMetadataRepository")
	}
	return &gormImportMetadataRepository{db: db}
}

func (r *gormImportMetadataRepository) GetByFileType(empresaID uuid.UUID, fileType string) (*models.DBImportMetadata, error) {
	trimmed := strings.TrimSpace(fileType)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: tipo de arquivo não pode ser vazio", appErrors.ErrInvalidInput)
	}
	var metadata models.DBImportMetadata
	err := r.db.Where("empresa_id = ? AND UPPER(file_type) = UPPER(?)", empresaID, trimmed).First(&metadata).Error
	if err != nil {
		return nil, translateError("buscando metadados de importação '"+trimmed+"'", err)
	}
	return &metadata, nil
}

func (r *gormImportMetadataRepository) GetAll(empresaID uuid.UUID) ([]models.DBImportMetadata, error) {
	var metadatas []models.DBImportMetadata
	if err := r.db.Where("empresa_id = ?", empresaID).Order("file_type ASC").Find(&metadatas).Error; err != nil {
		return nil, translateError("listando metadados de importação", err)
	}
	return metadatas, nil
}

func (r *gormImportMetadataRepository) Upsert(upsertData models.ImportMetadataUpsert) (*models.DBImportMetadata, error) {
	upsertData.Normalize()
	if upsertData.FileType == "" {
		return nil, fmt.Errorf("%w: tipo de arquivo não pode ser vazio para upsert de metadados", appErrors.ErrInvalidInput)
	}

	metadata := models.DBImportMetadata{
		EmpresaID:        upsertData.EmpresaID,
		FileType:         upsertData.FileType,
		LastUpdatedAt:    time.Now().UTC(),
		OriginalFilename: upsertData.OriginalFilename,
		RecordCount:      upsertData.RecordCount,
		SkippedCount:     upsertData.SkippedCount,
		ImportedBy:       upsertData.ImportedBy,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "empresa_id"}, {Name: "file_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_updated_at", "original_filename", "record_count", "skipped_count", "imported_by"}),
	}).Create(&metadata).Error
	if err != nil {
		return nil, translateError("gravando metadados de importação '"+upsertData.FileType+"'", err)
	}

	appLogger.Infof("Metadados de importação '%s' atualizados para empresa %s.", metadata.FileType, metadata.EmpresaID)
	return &metadata, nil
}
