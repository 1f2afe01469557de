package repositories

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

// AuditLogRepository define a interface para operações no repositório de logs de auditoria.
type AuditLogRepository interface {
	Create(entry models.AuditLogEntry) (*models.AuditLogEntry, error)

	// GetFiltered busca logs do tenant com paginação. Retorna as entradas e o total sem paginação.
	GetFiltered(empresaID *uuid.UUID, filter models.AuditLogFilter, limit, offset int) ([]models.AuditLogEntry, int64, error)
}

type gormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository cria uma nova instância de gormAuditLogRepository.
func NewGormAuditLogRepository(db *gorm.DB) AuditLogRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormAuditLogRepository")
	}
	return &gormAuditLogRepository{db: db}
}

func (r *gormAuditLogRepository) Create(entry models.AuditLogEntry) (*models.AuditLogEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Severity = strings.ToUpper(entry.Severity)

	if err := r.db.Create(&entry).Error; err != nil {
		// Metadata fica fora da mensagem; pode conter dados pessoais.
		appLogger.Errorf("Erro ao criar entrada de log de auditoria (Ação: %s, Usuário: %s): %v", entry.Action, entry.Username, err)
		return nil, translateError("gravando log de auditoria", err)
	}
	return &entry, nil
}

func (r *gormAuditLogRepository) GetFiltered(empresaID *uuid.UUID, filter models.AuditLogFilter, limit, offset int) ([]models.AuditLogEntry, int64, error) {
	query := r.db.Model(&models.AuditLogEntry{})
	if empresaID != nil {
		query = query.Where("empresa_id = ?", *empresaID)
	}
	if filter.StartDate != nil {
		s := filter.StartDate
		query = query.Where("timestamp >= ?", time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC))
	}
	if filter.EndDate != nil {
		e := filter.EndDate
		query = query.Where("timestamp <= ?", time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 999999999, time.UTC))
	}
	if filter.Severity != "" {
		query = query.Where("UPPER(severity) = UPPER(?)", filter.Severity)
	}
	if filter.Username != "" {
		query = query.Where("LOWER(username) = LOWER(?)", filter.Username)
	}
	if filter.Action != "" {
		query = query.Where("LOWER(action) = LOWER(?)", filter.Action)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError("contando logs de auditoria", err)
	}
	if total == 0 {
		return []models.AuditLogEntry{}, 0, nil
	}

	if limit <= 0 {
		limit = 100
	} else if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}

	var entries []models.AuditLogEntry
	if err := query.Order("timestamp DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, translateError("buscando logs de auditoria", err)
	}
	return entries, total, nil
}
