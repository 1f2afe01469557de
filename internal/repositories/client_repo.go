package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

// ClientRepository define as operações de persistência de clientes.
// Toda consulta é restrita ao tenant (empresaID).
type ClientRepository interface {
	// WithTx devolve uma cópia do repositório ligada à transação.
	WithTx(tx *gorm.DB) ClientRepository

	Create(client *models.DBClient) (*models.DBClient, error)
	GetByID(empresaID, id uuid.UUID) (*models.DBClient, error)
	Update(empresaID, id uuid.UUID, fields map[string]interface{}) error
	Delete(empresaID, id uuid.UUID) error
	Query(empresaID uuid.UUID, filter models.ClientFilter) ([]*models.DBClient, int64, error)

	// FindByCPF busca um cliente pelo CPF (apenas dígitos) dentro do tenant.
	FindByCPF(empresaID uuid.UUID, cpf string) (*models.DBClient, error)
	// ListPlansEndingBetween busca, em todos os tenants, clientes ativos cujo plano termina no intervalo.
	ListPlansEndingBetween(from, to time.Time) ([]*models.DBClient, error)
}

type gormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository cria uma nova instância de gormClientRepository.
func NewGormClientRepository(db *gorm.DB) ClientRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormClientRepository")
	}
	return &gormClientRepository{db: db}
}

func (r *gormClientRepository) WithTx(tx *gorm.DB) ClientRepository {
	return &gormClientRepository{db: tx}
}

func (r *gormClientRepository) Create(client *models.DBClient) (*models.DBClient, error) {
	if err := r.db.Create(client).Error; err != nil {
		return nil, translateError("criando cliente", err)
	}
	appLogger.Debugf("Cliente criado: %s (ID: %s, empresa: %s)", client.Name, client.ID, client.EmpresaID)
	return client, nil
}

func (r *gormClientRepository) GetByID(empresaID, id uuid.UUID) (*models.DBClient, error) {
	var client models.DBClient
	err := r.db.Where("empresa_id = ? AND id = ?", empresaID, id).First(&client).Error
	if err != nil {
		return nil, translateError("buscando cliente "+id.String(), err)
	}
	return &client, nil
}

func (r *gormClientRepository) Update(empresaID, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.Model(&models.DBClient{}).
		Where("empresa_id = ? AND id = ?", empresaID, id).
		Updates(fields)
	if result.Error != nil {
		return translateError("atualizando cliente "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("atualizando cliente "+id.String(), gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *gormClientRepository) Delete(empresaID, id uuid.UUID) error {
	result := r.db.Where("empresa_id = ? AND id = ?", empresaID, id).Delete(&models.DBClient{})
	if result.Error != nil {
		return translateError("excluindo cliente "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("excluindo cliente "+id.String(), gorm.ErrRecordNotFound)
	}
	return nil
}

var clientSortColumns = map[string]string{
	"":              "name",
	"name":          "name",
	"plan_end_date": "plan_end_date",
	"created_at":    "created_at",
}

func (r *gormClientRepository) Query(empresaID uuid.UUID, filter models.ClientFilter) ([]*models.DBClient, int64, error) {
	query := r.db.Model(&models.DBClient{}).Where("empresa_id = ?", empresaID)

	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR cpf LIKE ? ESCAPE '\')`, p, p, p, p)
	}
	if filter.OnlyActive {
		query = query.Where("active = ?", true)
	}

	today := filter.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	switch filter.PlanStatus {
	case models.PlanStatusActive:
		query = query.Where("plan_end_date IS NOT NULL AND plan_end_date >= ?", today)
	case models.PlanStatusExpired:
		query = query.Where("plan_end_date IS NOT NULL AND plan_end_date < ?", today)
	case models.PlanStatusNone:
		query = query.Where("plan_end_date IS NULL")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError("contando clientes", err)
	}

	column, ok := clientSortColumns[filter.SortBy]
	if !ok {
		column = "name"
	}
	direction := " ASC"
	if filter.SortDesc {
		direction = " DESC"
	}
	query = query.Order(column + direction).Order("id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var clients []*models.DBClient
	if err := query.Find(&clients).Error; err != nil {
		return nil, 0, translateError("listando clientes", err)
	}
	return clients, total, nil
}

func (r *gormClientRepository) FindByCPF(empresaID uuid.UUID, cpf string) (*models.DBClient, error) {
	var client models.DBClient
	err := r.db.Where("empresa_id = ? AND cpf = ?", empresaID, cpf).First(&client).Error
	if err != nil {
		return nil, translateError("buscando cliente por CPF", err)
	}
	return &client, nil
}

func (r *gormClientRepository) ListPlansEndingBetween(from, to time.Time) ([]*models.DBClient, error) {
	var clients []*models.DBClient
	err := r.db.Where("active = ? AND plan_end_date >= ? AND plan_end_date <= ?", true, from, to).
		Order("empresa_id ASC").Order("plan_end_date ASC").
		Find(&clients).Error
	if err != nil {
		return nil, translateError("listando planos a vencer", err)
	}
	return clients, nil
}
