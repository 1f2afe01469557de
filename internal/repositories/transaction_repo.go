package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

// TransactionRepository define as operações do livro financeiro.
type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository

	// CreateBatch insere as linhas na ordem dada; falha em qualquer linha aborta o lote.
	CreateBatch(rows []*models.DBFinancialTransaction) error
	GetByID(empresaID, id uuid.UUID) (*models.DBFinancialTransaction, error)
	Update(empresaID, id uuid.UUID, fields map[string]interface{}) error
	Delete(empresaID, id uuid.UUID) error
	Query(empresaID uuid.UUID, filter models.TransactionFilter) ([]*models.DBFinancialTransaction, error)

	DeleteByClient(empresaID, clientID uuid.UUID) (int64, error)
	DeleteByContract(empresaID, contractID uuid.UUID) (int64, error)
	// MarkOverdue passa para "atrasado" os lançamentos a receber vencidos antes de `today`.
	// empresaID nil atinge todos os tenants (uso do agendador).
	MarkOverdue(empresaID *uuid.UUID, today time.Time) (int64, error)
}

type gormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository cria uma nova instância de gormTransactionRepository.
func NewGormTransactionRepository(db *gorm.DB) TransactionRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormTransactionRepository")
	}
	return &gormTransactionRepository{db: db}
}

func (r *gormTransactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	return &gormTransactionRepository{db: tx}
}

func (r *gormTransactionRepository) CreateBatch(rows []*models.DBFinancialTransaction) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.Create(&rows).Error; err != nil {
		return translateError("inserindo lançamentos", err)
	}
	return nil
}

func (r *gormTransactionRepository) GetByID(empresaID, id uuid.UUID) (*models.DBFinancialTransaction, error) {
	var t models.DBFinancialTransaction
	if err := r.db.Where("empresa_id = ? AND id = ?", empresaID, id).First(&t).Error; err != nil {
		return nil, translateError("buscando lançamento "+id.String(), err)
	}
	return &t, nil
}

func (r *gormTransactionRepository) Update(empresaID, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.Model(&models.DBFinancialTransaction{}).Where("empresa_id = ? AND id = ?", empresaID, id).Updates(fields)
	if result.Error != nil {
		return translateError("atualizando lançamento "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("atualizando lançamento "+id.String(), gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *gormTransactionRepository) Delete(empresaID, id uuid.UUID) error {
	result := r.db.Where("empresa_id = ? AND id = ?", empresaID, id).Delete(&models.DBFinancialTransaction{})
	if result.Error != nil {
		return translateError("excluindo lançamento "+id.String(), result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError("excluindo lançamento "+id.String(), gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *gormTransactionRepository) Query(empresaID uuid.UUID, filter models.TransactionFilter) ([]*models.DBFinancialTransaction, error) {
	query := r.db.Where("empresa_id = ?", empresaID)
	if filter.From != nil {
		query = query.Where("due_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("due_date <= ?", *filter.To)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}

	var rows []*models.DBFinancialTransaction
	err := query.Order("due_date ASC").Order("installment_number ASC").Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, translateError("listando lançamentos", err)
	}
	return rows, nil
}

func (r *gormTransactionRepository) DeleteByClient(empresaID, clientID uuid.UUID) (int64, error) {
	result := r.db.Where("empresa_id = ? AND client_id = ?", empresaID, clientID).Delete(&models.DBFinancialTransaction{})
	if result.Error != nil {
		return 0, translateError("excluindo lançamentos do cliente "+clientID.String(), result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormTransactionRepository) DeleteByContract(empresaID, contractID uuid.UUID) (int64, error) {
	result := r.db.Where("empresa_id = ? AND contract_id = ?", empresaID, contractID).Delete(&models.DBFinancialTransaction{})
	if result.Error != nil {
		return 0, translateError("excluindo lançamentos do contrato "+contractID.String(), result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormTransactionRepository) MarkOverdue(empresaID *uuid.UUID, today time.Time) (int64, error) {
	query := r.db.Model(&models.DBFinancialTransaction{}).
		Where("status = ? AND due_date < ?", models.StatusReceivable, today)
	if empresaID != nil {
		query = query.Where("empresa_id = ?", *empresaID)
	}
	result := query.Update("status", models.StatusOverdue)
	if result.Error != nil {
		return 0, translateError("atualizando lançamentos atrasados", result.Error)
	}
	return result.RowsAffected, nil
}
