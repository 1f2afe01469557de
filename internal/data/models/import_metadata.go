package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBImportMetadata guarda a última importação de cada tipo de arquivo por tenant.
type DBImportMetadata struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	EmpresaID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_import_tenant_type,priority:1"`

	// FileType identifica o tipo do arquivo importado (ex: "CLIENTES"), sempre em maiúsculas.
	FileType string `gorm:"type:varchar(50);not null;uniqueIndex:idx_import_tenant_type,priority:2"`

	LastUpdatedAt    time.Time `gorm:"not null"`
	OriginalFilename *string   `gorm:"type:varchar(255)"`
	RecordCount      *int      `gorm:"type:integer"`
	SkippedCount     *int      `gorm:"type:integer"`
	ImportedBy       *string   `gorm:"type:varchar(50)"`
}

// TableName especifica o nome da tabela para GORM.
func (DBImportMetadata) TableName() string {
	return "import_metadata"
}

// ImportMetadataPublic representa os metadados de importação para a UI ou API.
type ImportMetadataPublic struct {
	FileType         string    `json:"file_type"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`
	OriginalFilename *string   `json:"original_filename,omitempty"`
	RecordCount      *int      `json:"record_count,omitempty"`
	SkippedCount     *int      `json:"skipped_count,omitempty"`
	ImportedBy       *string   `json:"imported_by,omitempty"`
}

// ToImportMetadataPublic converte um DBImportMetadata para ImportMetadataPublic.
func ToImportMetadataPublic(dbMeta *DBImportMetadata) *ImportMetadataPublic {
	if dbMeta == nil {
		return nil
	}
	return &ImportMetadataPublic{
		FileType:         dbMeta.FileType,
		LastUpdatedAt:    dbMeta.LastUpdatedAt,
		OriginalFilename: dbMeta.OriginalFilename,
		RecordCount:      dbMeta.RecordCount,
		SkippedCount:     dbMeta.SkippedCount,
		ImportedBy:       dbMeta.ImportedBy,
	}
}

// ImportMetadataUpsert define os campos gravados ao final de uma importação.
// LastUpdatedAt é sempre o instante da operação.
type ImportMetadataUpsert struct {
	EmpresaID        uuid.UUID
	FileType         string
	OriginalFilename *string
	RecordCount      *int
	SkippedCount     *int
	ImportedBy       *string
}

// Normalize garante que o FileType esteja em maiúsculas.
func (imu *ImportMetadataUpsert) Normalize() {
	if imu != nil {
		imu.FileType = strings.ToUpper(strings.TrimSpace(imu.FileType))
	}
}
