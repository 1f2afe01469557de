package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/calc"
	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// Status de contrato.
const (
	ContractActive    = "ativo"
	ContractClosed    = "encerrado"
	ContractCancelled = "cancelado"
)

var validContractStatus = map[string]bool{
	ContractActive:    true,
	ContractClosed:    true,
	ContractCancelled: true,
}

// DBContract representa um contrato de acompanhamento firmado com um cliente.
type DBContract struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	EmpresaID uuid.UUID `gorm:"type:varchar(36);not null;index"`
	ClientID  uuid.UUID `gorm:"type:varchar(36);not null;index"`

	Title      string          `gorm:"type:varchar(150);not null"`
	TotalValue decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StartDate  time.Time       `gorm:"type:date;not null"`
	EndDate    time.Time       `gorm:"type:date;not null"`
	Status     string          `gorm:"type:varchar(20);not null;default:'ativo';index"`
	Notes      *string         `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
	CreatedBy *string   `gorm:"type:varchar(50)"`
	UpdatedBy *string   `gorm:"type:varchar(50)"`
}

// TableName especifica o nome da tabela para GORM.
func (DBContract) TableName() string {
	return "contratos"
}

// BeforeCreate gera o UUID quando o chamador não definiu um.
func (c *DBContract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ContractCreate é usado para registrar um contrato.
type ContractCreate struct {
	ClientID   uuid.UUID       `json:"client_id"`
	Title      string          `json:"title"`
	TotalValue decimal.Decimal `json:"total_value"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	Notes      string          `json:"notes"`
	Payment    *PaymentInput   `json:"payment,omitempty"`
}

// CleanAndValidate normaliza e valida os campos do contrato.
func (cc *ContractCreate) CleanAndValidate() error {
	if cc.ClientID == uuid.Nil {
		return appErrors.NewFieldError(appErrors.ErrMissingRequiredField, "client_id", "Cliente do contrato é obrigatório.")
	}
	if err := utils.RequireField("title", cc.Title); err != nil {
		return err
	}
	cc.Title = utils.TruncateString(utils.SanitizeInput(cc.Title), 150)
	if err := validateMoney("total_value", cc.TotalValue); err != nil {
		return err
	}
	period := calc.RenewalPeriod{StartDate: cc.StartDate, EndDate: cc.EndDate}
	if err := period.Validate(); err != nil {
		return err
	}
	cc.StartDate = calc.DateOnly(cc.StartDate)
	cc.EndDate = calc.DateOnly(cc.EndDate)
	if cc.Payment != nil {
		if err := cc.Payment.CleanAndValidate(); err != nil {
			return err
		}
	}
	return nil
}

// ContractUpdate é usado para atualização parcial.
type ContractUpdate struct {
	Title      *string          `json:"title,omitempty"`
	TotalValue *decimal.Decimal `json:"total_value,omitempty"`
	StartDate  *time.Time       `json:"start_date,omitempty"`
	EndDate    *time.Time       `json:"end_date,omitempty"`
	Status     *string          `json:"status,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// CleanAndValidate valida os campos informados contra o contrato atual
// (as datas são conferidas em conjunto) e devolve o mapa de colunas.
func (cu *ContractUpdate) CleanAndValidate(current *DBContract) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if cu.Title != nil {
		if err := utils.RequireField("title", *cu.Title); err != nil {
			return nil, err
		}
		fields["title"] = utils.TruncateString(utils.SanitizeInput(*cu.Title), 150)
	}
	if cu.TotalValue != nil {
		if err := validateMoney("total_value", *cu.TotalValue); err != nil {
			return nil, err
		}
		fields["total_value"] = cu.TotalValue.Round(2)
	}
	if cu.StartDate != nil || cu.EndDate != nil {
		period := calc.RenewalPeriod{StartDate: current.StartDate, EndDate: current.EndDate}
		if cu.StartDate != nil {
			period.StartDate = calc.DateOnly(*cu.StartDate)
		}
		if cu.EndDate != nil {
			period.EndDate = calc.DateOnly(*cu.EndDate)
		}
		if err := period.Validate(); err != nil {
			return nil, err
		}
		fields["start_date"] = calc.DateOnly(period.StartDate)
		fields["end_date"] = calc.DateOnly(period.EndDate)
	}
	if cu.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*cu.Status))
		if !validContractStatus[status] {
			return nil, appErrors.NewValidationError("Status de contrato inválido.", map[string]string{"status": "use ativo, encerrado ou cancelado"})
		}
		fields["status"] = status
	}
	if cu.Notes != nil {
		fields["notes"] = optionalString(*cu.Notes)
	}
	return fields, nil
}

// ContractPublic representa um contrato para a UI ou API.
type ContractPublic struct {
	ID         uuid.UUID       `json:"id"`
	ClientID   uuid.UUID       `json:"client_id"`
	Title      string          `json:"title"`
	TotalValue decimal.Decimal `json:"total_value"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	Status     string          `json:"status"`
	Notes      *string         `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToContractPublic converte um DBContract para ContractPublic.
func ToContractPublic(c *DBContract) *ContractPublic {
	if c == nil {
		return nil
	}
	return &ContractPublic{
		ID:         c.ID,
		ClientID:   c.ClientID,
		Title:      c.Title,
		TotalValue: c.TotalValue,
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
		Status:     c.Status,
		Notes:      c.Notes,
		CreatedAt:  c.CreatedAt,
	}
}

// ContractFilter define os critérios da listagem.
type ContractFilter struct {
	ClientID *uuid.UUID
	Status   string
}

// IsValidContractStatus informa se o status é conhecido.
func IsValidContractStatus(status string) bool {
	return validContractStatus[status]
}
