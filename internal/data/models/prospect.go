package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// Colunas do funil de vendas, na ordem exibida no quadro.
const (
	StageNew         = "novo"
	StageContacted   = "contato"
	StageNegotiation = "negociacao"
	StageWon         = "fechado"
	StageLost        = "perdido"
)

// PipelineStages lista as etapas na ordem do quadro.
var PipelineStages = []string{StageNew, StageContacted, StageNegotiation, StageWon, StageLost}

// IsValidStage informa se a etapa pertence ao funil.
func IsValidStage(stage string) bool {
	for _, s := range PipelineStages {
		if s == stage {
			return true
		}
	}
	return false
}

// DBProspect representa um lead do CRM.
type DBProspect struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	EmpresaID uuid.UUID `gorm:"type:varchar(36);not null;index:idx_prospect_board,priority:1"`

	Name           string           `gorm:"type:varchar(150);not null"`
	Phone          *string          `gorm:"type:varchar(20)"`
	Email          *string          `gorm:"type:varchar(254)"`
	Source         *string          `gorm:"type:varchar(50)"` // instagram, indicação, site...
	Stage          string           `gorm:"type:varchar(20);not null;index:idx_prospect_board,priority:2"`
	Position       int              `gorm:"not null;default:0;index:idx_prospect_board,priority:3"`
	EstimatedValue *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notes          *string          `gorm:"type:text"`

	// ClientID é preenchido quando o lead é convertido em cliente.
	ClientID *uuid.UUID `gorm:"type:varchar(36)"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
	CreatedBy *string   `gorm:"type:varchar(50)"`
	UpdatedBy *string   `gorm:"type:varchar(50)"`
}

// TableName especifica o nome da tabela para GORM.
func (DBProspect) TableName() string {
	return "prospects"
}

// BeforeCreate gera o UUID quando o chamador não definiu um.
func (p *DBProspect) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProspectCreate é usado para cadastrar um lead.
type ProspectCreate struct {
	Name           string           `json:"name"`
	Phone          string           `json:"phone"`
	Email          string           `json:"email"`
	Source         string           `json:"source"`
	Stage          string           `json:"stage"`
	EstimatedValue *decimal.Decimal `json:"estimated_value,omitempty"`
	Notes          string           `json:"notes"`
}

// CleanAndValidate normaliza e valida os campos. Etapa vazia vira "novo".
func (pc *ProspectCreate) CleanAndValidate() error {
	if err := utils.RequireField("name", pc.Name); err != nil {
		return err
	}
	pc.Name = normalizePersonName(pc.Name)

	email, err := validateOptionalEmail(pc.Email)
	if err != nil {
		return err
	}
	pc.Email = derefString(email)
	phone, err := validateOptionalPhone(pc.Phone)
	if err != nil {
		return err
	}
	pc.Phone = derefString(phone)

	pc.Stage = strings.ToLower(strings.TrimSpace(pc.Stage))
	if pc.Stage == "" {
		pc.Stage = StageNew
	}
	if !IsValidStage(pc.Stage) {
		return appErrors.NewValidationError("Etapa do funil inválida.", map[string]string{"stage": "valores aceitos: " + strings.Join(PipelineStages, ", ")})
	}
	if pc.EstimatedValue != nil {
		if err := validateMoney("estimated_value", *pc.EstimatedValue); err != nil {
			return err
		}
	}
	pc.Source = strings.ToLower(utils.SanitizeInput(pc.Source))
	return nil
}

// ProspectUpdate é usado para atualização parcial. A etapa muda apenas via MoveProspect.
type ProspectUpdate struct {
	Name           *string          `json:"name,omitempty"`
	Phone          *string          `json:"phone,omitempty"`
	Email          *string          `json:"email,omitempty"`
	Source         *string          `json:"source,omitempty"`
	EstimatedValue *decimal.Decimal `json:"estimated_value,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// CleanAndValidate devolve o mapa de colunas a atualizar.
func (pu *ProspectUpdate) CleanAndValidate() (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if pu.Name != nil {
		if err := utils.RequireField("name", *pu.Name); err != nil {
			return nil, err
		}
		fields["name"] = normalizePersonName(*pu.Name)
	}
	if pu.Email != nil {
		email, err := validateOptionalEmail(*pu.Email)
		if err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if pu.Phone != nil {
		phone, err := validateOptionalPhone(*pu.Phone)
		if err != nil {
			return nil, err
		}
		fields["phone"] = phone
	}
	if pu.Source != nil {
		fields["source"] = optionalString(strings.ToLower(*pu.Source))
	}
	if pu.EstimatedValue != nil {
		if err := validateMoney("estimated_value", *pu.EstimatedValue); err != nil {
			return nil, err
		}
		fields["estimated_value"] = pu.EstimatedValue.Round(2)
	}
	if pu.Notes != nil {
		fields["notes"] = optionalString(*pu.Notes)
	}
	return fields, nil
}

// ProspectPublic representa um cartão do quadro.
type ProspectPublic struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Phone          *string          `json:"phone,omitempty"`
	Email          *string          `json:"email,omitempty"`
	Source         *string          `json:"source,omitempty"`
	Stage          string           `json:"stage"`
	Position       int              `json:"position"`
	EstimatedValue *decimal.Decimal `json:"estimated_value,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	ClientID       *uuid.UUID       `json:"client_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ToProspectPublic converte um DBProspect para ProspectPublic.
func ToProspectPublic(p *DBProspect) *ProspectPublic {
	if p == nil {
		return nil
	}
	return &ProspectPublic{
		ID:             p.ID,
		Name:           p.Name,
		Phone:          p.Phone,
		Email:          p.Email,
		Source:         p.Source,
		Stage:          p.Stage,
		Position:       p.Position,
		EstimatedValue: p.EstimatedValue,
		Notes:          p.Notes,
		ClientID:       p.ClientID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// BoardColumn é uma coluna do quadro com seus cartões em ordem.
type BoardColumn struct {
	Stage      string            `json:"stage"`
	Prospects  []*ProspectPublic `json:"prospects"`
	TotalValue decimal.Decimal   `json:"total_value"`
}
