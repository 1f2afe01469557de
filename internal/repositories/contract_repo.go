package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

// ContractRepository define as operações de persistência de contratos.
type ContractRepository interface {
	WithTx(tx *gorm.DB) ContractRepository

	Create(c *models.DBContract) (*models.DBContract, error)
	GetByID(empresaID, id uuid.UUID) (*models.DBContract, error)
	Update(empresaID, id uuid.UUID, fields map[string]interface{}) error
	Delete(empresaID, id uuid.UUID) error
	Query(empresaID uuid.UUID, filter models.ContractFilter) ([]*models.DBContract, error)
	DeleteByClient(empresaID, clientID uuid.UUID) (int64, error)
}

type gormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository cria uma nova instância de gormContractRepository.
func NewGormContractRepository(db *gorm.DB) ContractRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormContractRepository")
	}
	return &gormContractRepository{db: db}
}

func (r *gormContractRepository) WithTx(tx *gorm.DB) ContractRepository {
	return &gormContractRepository{db: tx}
}

func (r *gormContractRepository) Create(c *models.DBContract) (*models.DBContract, error) {
	if err := r.db.Create(c).Error; err != nil {
		return nil, translateError("criando contrato", err)
	}
	return c, nil
}

func (r *gormContractRepository) GetByID(empresaID, id uuid.UUID) (*models.DBContract, error) {
	var c models.DBContract
	if err := r.db.Where("empresa_id = ? AND id = ?", empresaID, id).First(&c).Error; err != nil {
		return nil, translateError("buscando contrato "+id.String(), err)
	}
	return &c, nil
}

func (r *gormContractRepository) Update(empresaID, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.Model(&models.DBContract{}).Where("empresa_id = ? AND id = ?", empresaID, id).Updates(fields)
	if result.Error != nil {
		return translateError("atualizando contrato "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("atualizando contrato "+id.String(), gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *gormContractRepository) Delete(empresaID, id uuid.UUID) error {
	result := r.db.Where("empresa_id = ? AND id = ?", empresaID, id).Delete(&models.DBContract{})
	if result.Error != nil {
		return translateError("excluindo contrato "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("excluindo contrato "+id.String(), gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *gormContractRepository) Query(empresaID uuid.UUID, filter models.ContractFilter) ([]*models.DBContract, error) {
	query := r.db.Where("empresa_id = ?", empresaID)
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var contracts []*models.DBContract
	if err := query.Order("start_date DESC").Order("id ASC").Find(&contracts).Error; err != nil {
		return nil, translateError("listando contratos", err)
	}
	return contracts, nil
}

func (r *gormContractRepository) DeleteByClient(empresaID, clientID uuid.UUID) (int64, error) {
	result := r.db.Where("empresa_id = ? AND client_id = ?", empresaID, clientID).Delete(&models.DBContract{})
	if result.Error != nil {
		return 0, translateError("excluindo contratos do cliente "+clientID.String(), result.Error)
	}
	return result.RowsAffected, nil
}
