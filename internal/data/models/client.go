package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/calc"
	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

// Situação do plano de um cliente em uma data de referência.
const (
	PlanStatusActive  = "ativo"
	PlanStatusExpired = "vencido"
	PlanStatusNone    = "sem_plano"
	PlanStatusAll     = "todos" // apenas filtro
)

// DBClient representa um cliente (paciente) de um tenant.
type DBClient struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	EmpresaID uuid.UUID `gorm:"type:varchar(36);not null;index"`

	Name      string     `gorm:"type:varchar(150);not null;index"`
	Email     *string    `gorm:"type:varchar(254)"`
	Phone     *string    `gorm:"type:varchar(20)"`
	CPF       *string    `gorm:"type:varchar(11);index"`
	BirthDate *time.Time `gorm:"type:date"`
	Objective *string    `gorm:"type:varchar(255)"`
	Notes     *string    `gorm:"type:text"`
	Active    bool       `gorm:"not null;default:true"`

	// Plano vigente.
	PlanName      *string          `gorm:"type:varchar(100)"`
	PlanValue     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PlanStartDate *time.Time       `gorm:"type:date"`
	PlanEndDate   *time.Time       `gorm:"type:date;index"`

	QuestionnaireSentAt *time.Time

	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
	CreatedBy *string   `gorm:"type:varchar(50)"`
	UpdatedBy *string   `gorm:"type:varchar(50)"`
}

// TableName especifica o nome da tabela para GORM.
func (DBClient) TableName() string {
	return "clientes"
}

// BeforeCreate gera o UUID quando o chamador não definiu um.
func (c *DBClient) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PlanStatus classifica o plano do cliente em relação a `today`.
// O plano vale até o fim do dia de PlanEndDate.
func (c *DBClient) PlanStatus(today time.Time) string {
	if c.PlanEndDate == nil {
		return PlanStatusNone
	}
	if calc.DateOnly(*c.PlanEndDate).Before(calc.DateOnly(today)) {
		return PlanStatusExpired
	}
	return PlanStatusActive
}

// PlanInput descreve o plano contratado em um cadastro ou renovação.
// EndDate preenchido é uma data final editada manualmente e prevalece sobre o cálculo.
type PlanInput struct {
	Name          string            `json:"name"`
	Value         decimal.Decimal   `json:"value"`
	StartDate     time.Time         `json:"start_date"`
	DurationUnit  calc.DurationUnit `json:"duration_unit"`
	DurationValue int               `json:"duration_value"`
	EndDate       *time.Time        `json:"end_date,omitempty"`
}

// Resolve valida o plano e devolve a vigência final.
func (p *PlanInput) Resolve() (calc.RenewalPeriod, error) {
	if p.StartDate.IsZero() {
		return calc.RenewalPeriod{}, appErrors.NewFieldError(appErrors.ErrMissingRequiredField, "plan_start_date", "Data de início do plano é obrigatória.")
	}
	if err := validateMoney("plan_value", p.Value); err != nil {
		return calc.RenewalPeriod{}, err
	}
	if p.DurationUnit == "" {
		p.DurationUnit = calc.DurationMonths
	}
	period, err := calc.ResolveEndDate(p.StartDate, p.DurationUnit, p.DurationValue, p.EndDate)
	if err != nil {
		return calc.RenewalPeriod{}, err
	}
	if err := period.Validate(); err != nil {
		return calc.RenewalPeriod{}, err
	}
	return period, nil
}

// ClientCreate é usado para cadastrar um novo cliente.
type ClientCreate struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	CPF       string     `json:"cpf"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Objective string     `json:"objective"`
	Notes     string     `json:"notes"`

	// SendQuestionnaire envia o questionário de anamnese por e-mail após o cadastro.
	SendQuestionnaire bool `json:"send_questionnaire"`

	Plan    *PlanInput    `json:"plan,omitempty"`
	Payment *PaymentInput `json:"payment,omitempty"`
}

// CleanAndValidate normaliza e valida os campos de ClientCreate.
// Retorna a vigência do plano resolvida (zero se não houver plano).
func (cc *ClientCreate) CleanAndValidate() (*calc.RenewalPeriod, error) {
	if err := utils.RequireField("name", cc.Name); err != nil {
		return nil, err
	}
	cc.Name = normalizePersonName(cc.Name)
	if len([]rune(cc.Name)) > 150 {
		return nil, appErrors.NewValidationError("Nome excede 150 caracteres.", map[string]string{"name": "muito longo"})
	}

	if err := utils.RequireWhen(cc.SendQuestionnaire, "email", cc.Email); err != nil {
		return nil, err
	}
	email, err := validateOptionalEmail(cc.Email)
	if err != nil {
		return nil, err
	}
	cc.Email = derefString(email)

	phone, err := validateOptionalPhone(cc.Phone)
	if err != nil {
		return nil, err
	}
	cc.Phone = derefString(phone)

	cpf, err := validateOptionalCPF(cc.CPF)
	if err != nil {
		return nil, err
	}
	cc.CPF = derefString(cpf)

	if cc.BirthDate != nil {
		d := calc.DateOnly(*cc.BirthDate)
		if d.After(calc.DateOnly(time.Now())) {
			return nil, appErrors.NewValidationError("Data de nascimento no futuro.", map[string]string{"birth_date": "data futura"})
		}
		cc.BirthDate = &d
	}
	cc.Objective = utils.TruncateString(utils.SanitizeInput(cc.Objective), 255)

	var period *calc.RenewalPeriod
	if cc.Plan != nil {
		p, err := cc.Plan.Resolve()
		if err != nil {
			return nil, err
		}
		period = &p
	}
	if cc.Payment != nil {
		if err := cc.Payment.CleanAndValidate(); err != nil {
			return nil, err
		}
	}
	return period, nil
}

// ToDBClient monta a linha a ser inserida.
func (cc *ClientCreate) ToDBClient(empresaID uuid.UUID, period *calc.RenewalPeriod, actor string) *DBClient {
	c := &DBClient{
		EmpresaID: empresaID,
		Name:      cc.Name,
		Email:     optionalString(cc.Email),
		Phone:     optionalString(cc.Phone),
		CPF:       optionalString(cc.CPF),
		BirthDate: cc.BirthDate,
		Objective: optionalString(cc.Objective),
		Notes:     optionalString(cc.Notes),
		Active:    true,
		CreatedBy: &actor,
		UpdatedBy: &actor,
	}
	if cc.Plan != nil && period != nil {
		c.ApplyPlan(cc.Plan.Name, cc.Plan.Value, *period)
	}
	return c
}

// ApplyPlan grava nome, valor e vigência do plano no cliente.
func (c *DBClient) ApplyPlan(name string, value decimal.Decimal, period calc.RenewalPeriod) {
	start, end := period.StartDate, period.EndDate
	v := value.Round(2)
	c.PlanName = optionalString(name)
	c.PlanValue = &v
	c.PlanStartDate = &start
	c.PlanEndDate = &end
}

// ClientUpdate é usado para atualização parcial.
type ClientUpdate struct {
	Name      *string    `json:"name,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	CPF       *string    `json:"cpf,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Objective *string    `json:"objective,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	Active    *bool      `json:"active,omitempty"`
	Plan      *PlanInput `json:"plan,omitempty"`
	// Payment registra novas parcelas junto com a edição.
	Payment *PaymentInput `json:"payment,omitempty"`
}

// CleanAndValidate valida os campos informados e devolve o mapa de colunas
// para o repositório, além da vigência do plano quando Plan foi enviado.
func (cu *ClientUpdate) CleanAndValidate() (map[string]interface{}, *calc.RenewalPeriod, error) {
	fields := make(map[string]interface{})

	if cu.Name != nil {
		if err := utils.RequireField("name", *cu.Name); err != nil {
			return nil, nil, err
		}
		fields["name"] = normalizePersonName(*cu.Name)
	}
	if cu.Email != nil {
		email, err := validateOptionalEmail(*cu.Email)
		if err != nil {
			return nil, nil, err
		}
		fields["email"] = email
	}
	if cu.Phone != nil {
		phone, err := validateOptionalPhone(*cu.Phone)
		if err != nil {
			return nil, nil, err
		}
		fields["phone"] = phone
	}
	if cu.CPF != nil {
		cpf, err := validateOptionalCPF(*cu.CPF)
		if err != nil {
			return nil, nil, err
		}
		fields["cpf"] = cpf
	}
	if cu.BirthDate != nil {
		d := calc.DateOnly(*cu.BirthDate)
		if d.After(calc.DateOnly(time.Now())) {
			return nil, nil, appErrors.NewValidationError("Data de nascimento no futuro.", map[string]string{"birth_date": "data futura"})
		}
		fields["birth_date"] = d
	}
	if cu.Objective != nil {
		fields["objective"] = optionalString(utils.TruncateString(utils.SanitizeInput(*cu.Objective), 255))
	}
	if cu.Notes != nil {
		fields["notes"] = optionalString(*cu.Notes)
	}
	if cu.Active != nil {
		fields["active"] = *cu.Active
	}

	var period *calc.RenewalPeriod
	if cu.Plan != nil {
		p, err := cu.Plan.Resolve()
		if err != nil {
			return nil, nil, err
		}
		period = &p
		value := cu.Plan.Value.Round(2)
		fields["plan_name"] = optionalString(cu.Plan.Name)
		fields["plan_value"] = value
		fields["plan_start_date"] = p.StartDate
		fields["plan_end_date"] = p.EndDate
	}
	if cu.Payment != nil {
		if err := cu.Payment.CleanAndValidate(); err != nil {
			return nil, nil, err
		}
	}
	return fields, period, nil
}

// ClientPublic representa os dados de um cliente para a UI ou API (DTO).
type ClientPublic struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	Email               *string          `json:"email,omitempty"`
	Phone               *string          `json:"phone,omitempty"`
	CPF                 *string          `json:"cpf,omitempty"`
	BirthDate           *time.Time       `json:"birth_date,omitempty"`
	Objective           *string          `json:"objective,omitempty"`
	Notes               *string          `json:"notes,omitempty"`
	Active              bool             `json:"active"`
	PlanName            *string          `json:"plan_name,omitempty"`
	PlanValue           *decimal.Decimal `json:"plan_value,omitempty"`
	PlanStartDate       *time.Time       `json:"plan_start_date,omitempty"`
	PlanEndDate         *time.Time       `json:"plan_end_date,omitempty"`
	PlanStatus          string           `json:"plan_status"`
	QuestionnaireSentAt *time.Time       `json:"questionnaire_sent_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ToClientPublic converte um DBClient para ClientPublic.
// today é a data de referência da situação do plano.
func ToClientPublic(c *DBClient, today time.Time) *ClientPublic {
	if c == nil {
		return nil
	}
	return &ClientPublic{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		Phone:               c.Phone,
		CPF:                 c.CPF,
		BirthDate:           c.BirthDate,
		Objective:           c.Objective,
		Notes:               c.Notes,
		Active:              c.Active,
		PlanName:            c.PlanName,
		PlanValue:           c.PlanValue,
		PlanStartDate:       c.PlanStartDate,
		PlanEndDate:         c.PlanEndDate,
		PlanStatus:          c.PlanStatus(today),
		QuestionnaireSentAt: c.QuestionnaireSentAt,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ToClientPublicList converte uma lista de DBClient.
func ToClientPublicList(clients []*DBClient, today time.Time) []*ClientPublic {
	out := make([]*ClientPublic, len(clients))
	for i, c := range clients {
		out[i] = ToClientPublic(c, today)
	}
	return out
}

// ClientFilter define os critérios da listagem de clientes.
type ClientFilter struct {
	Search     string // nome, e-mail, telefone ou CPF
	PlanStatus string // ativo, vencido, todos
	OnlyActive bool
	SortBy     string // name, plan_end_date, created_at
	SortDesc   bool
	Today      time.Time
	Limit      int
	Offset     int
}

// RenewPlanInput descreve a renovação do plano de um cliente.
// Period normalmente vem de calc.RenewalForm.Submit.
type RenewPlanInput struct {
	PlanName  string             `json:"plan_name"`
	Period    calc.RenewalPeriod `json:"period"`
	PlanValue decimal.Decimal    `json:"plan_value"`
	Payment   *PaymentInput      `json:"payment,omitempty"`
}

// CleanAndValidate confere a vigência e o valor da renovação.
func (ri *RenewPlanInput) CleanAndValidate() error {
	if err := ri.Period.Validate(); err != nil {
		return err
	}
	ri.Period.StartDate = calc.DateOnly(ri.Period.StartDate)
	ri.Period.EndDate = calc.DateOnly(ri.Period.EndDate)
	if err := validateMoney("plan_value", ri.PlanValue); err != nil {
		return err
	}
	ri.PlanName = utils.TruncateString(utils.SanitizeInput(ri.PlanName), 100)
	if ri.Payment != nil {
		if err := ri.Payment.CleanAndValidate(); err != nil {
			return err
		}
	}
	return nil
}
