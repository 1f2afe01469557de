package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

// ProspectRepository define as operações de persistência dos leads do CRM.
type ProspectRepository interface {
	WithTx(tx *gorm.DB) ProspectRepository

	Create(p *models.DBProspect) (*models.DBProspect, error)
	GetByID(empresaID, id uuid.UUID) (*models.DBProspect, error)
	Update(empresaID, id uuid.UUID, fields map[string]interface{}) error
	Delete(empresaID, id uuid.UUID) error

	// ListBoard retorna todos os leads do tenant ordenados por etapa e posição.
	ListBoard(empresaID uuid.UUID) ([]*models.DBProspect, error)
	// ListByStage retorna os leads de uma coluna, em ordem de posição.
	ListByStage(empresaID uuid.UUID, stage string) ([]*models.DBProspect, error)
	// NextPosition devolve a posição do fim da coluna.
	NextPosition(empresaID uuid.UUID, stage string) (int, error)
	// SaveColumn grava a etapa e renumera as posições (0..n-1) na ordem dada.
	SaveColumn(empresaID uuid.UUID, stage string, orderedIDs []uuid.UUID) error
}

type gormProspectRepository struct {
	db *gorm.DB
}

// NewGormProspectRepository cria uma nova instância de gormProspectRepository.
func NewGormProspectRepository(db *gorm.DB) ProspectRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormProspectRepository")
	}
	return &gormProspectRepository{db: db}
}

func (r *gormProspectRepository) WithTx(tx *gorm.DB) ProspectRepository {
	return &gormProspectRepository{db: tx}
}

func (r *gormProspectRepository) Create(p *models.DBProspect) (*models.DBProspect, error) {
	if err := r.db.Create(p).Error; err != nil {
		return nil, translateError("criando lead", err)
	}
	return p, nil
}

func (r *gormProspectRepository) GetByID(empresaID, id uuid.UUID) (*models.DBProspect, error) {
	var p models.DBProspect
	if err := r.db.Where("empresa_id = ? AND id = ?", empresaID, id).First(&p).Error; err != nil {
		return nil, translateError("buscando lead "+id.String(), err)
	}
	return &p, nil
}

func (r *gormProspectRepository) Update(empresaID, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.Model(&models.DBProspect{}).Where("empresa_id = ? AND id = ?", empresaID, id).Updates(fields)
	if result.Error != nil {
		return translateError("atualizando lead "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("atualizando lead "+id.String(), gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *gormProspectRepository) Delete(empresaID, id uuid.UUID) error {
	result := r.db.Where("empresa_id = ? AND id = ?", empresaID, id).Delete(&models.DBProspect{})
	if result.Error != nil {
		return translateError("excluindo lead "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("excluindo lead "+id.String(), gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *gormProspectRepository) ListBoard(empresaID uuid.UUID) ([]*models.DBProspect, error) {
	var prospects []*models.DBProspect
	err := r.db.Where("empresa_id = ?", empresaID).
		Order("stage ASC").Order("position ASC").Order("created_at ASC").
		Find(&prospects).Error
	if err != nil {
		return nil, translateError("listando quadro de leads", err)
	}
	return prospects, nil
}

func (r *gormProspectRepository) ListByStage(empresaID uuid.UUID, stage string) ([]*models.DBProspect, error) {
	var prospects []*models.DBProspect
	err := r.db.Where("empresa_id = ? AND stage = ?", empresaID, stage).
		Order("position ASC").Order("created_at ASC").
		Find(&prospects).Error
	if err != nil {
		return nil, translateError("listando leads da etapa "+stage, err)
	}
	return prospects, nil
}

func (r *gormProspectRepository) NextPosition(empresaID uuid.UUID, stage string) (int, error) {
	var count int64
	err := r.db.Model(&models.DBProspect{}).Where("empresa_id = ? AND stage = ?", empresaID, stage).Count(&count).Error
	if err != nil {
		return 0, translateError("calculando posição na etapa "+stage, err)
	}
	return int(count), nil
}

func (r *gormProspectRepository) SaveColumn(empresaID uuid.UUID, stage string, orderedIDs []uuid.UUID) error {
	for pos, id := range orderedIDs {
		result := r.db.Model(&models.DBProspect{}).
			Where("empresa_id = ? AND id = ?", empresaID, id).
			Updates(map[string]interface{}{"stage": stage, "position": pos})
		if result.Error != nil {
			return translateError("reordenando etapa "+stage, result.Error)
		}
		if result.RowsAffected == 0 {
			return translateError("reordenando etapa "+stage, gorm.ErrRecordNotFound)
		}
	}
	return nil
}
