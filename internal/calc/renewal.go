package calc

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
)

// DurationUnit é a unidade da duração de um plano.
type DurationUnit string

const (
	DurationDays   DurationUnit = "dias"
	DurationMonths DurationUnit = "meses"
)

// ParseDurationUnit aceita "dias"/"meses" (e as formas em inglês) sem diferenciar maiúsculas.
func ParseDurationUnit(s string) (DurationUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dias", "dia", "days", "d":
		return DurationDays, nil
	case "meses", "mes", "mês", "months", "m":
		return DurationMonths, nil
	}
	return "", fmt.Errorf("%w: unidade de duração '%s' desconhecida", appErrors.ErrInvalidInput, s)
}

// RenewalPeriod é a vigência resultante de uma renovação.
type RenewalPeriod struct {
	StartDate     time.Time    `json:"start_date"`
	DurationUnit  DurationUnit `json:"duration_unit"`
	DurationValue int          `json:"duration_value"`
	EndDate       time.Time    `json:"end_date"`
}

// Validate garante que a data final não seja anterior à inicial.
func (p RenewalPeriod) Validate() error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return appErrors.NewFieldError(appErrors.ErrMissingRequiredField, "data", "Datas de início e fim são obrigatórias.")
	}
	if DateOnly(p.EndDate).Before(DateOnly(p.StartDate)) {
		return fmt.Errorf("%w: fim %s antes do início %s", appErrors.ErrInvalidDateRange,
			p.EndDate.Format("2006-01-02"), p.StartDate.Format("2006-01-02"))
	}
	return nil
}

// ComputeEndDate soma meses de calendário à data inicial (com ajuste de fim de mês).
func ComputeEndDate(startDate time.Time, durationMonths int) time.Time {
	return AddMonths(startDate, durationMonths)
}

// ComputeEndDateByDays soma dias corridos à data inicial.
func ComputeEndDateByDays(startDate time.Time, durationDays int) time.Time {
	return AddDays(startDate, durationDays)
}

// ComputeEnd despacha para o cálculo correspondente à unidade.
func ComputeEnd(startDate time.Time, unit DurationUnit, value int) (time.Time, error) {
	switch unit {
	case DurationMonths:
		return ComputeEndDate(startDate, value), nil
	case DurationDays:
		return ComputeEndDateByDays(startDate, value), nil
	}
	return time.Time{}, fmt.Errorf("%w: unidade de duração '%s' desconhecida", appErrors.ErrInvalidInput, unit)
}

// ResolveEndDate usa a data final informada manualmente, se houver; senão calcula.
func ResolveEndDate(startDate time.Time, unit DurationUnit, value int, override *time.Time) (RenewalPeriod, error) {
	period := RenewalPeriod{
		StartDate:     DateOnly(startDate),
		DurationUnit:  unit,
		DurationValue: value,
	}
	if override != nil && !override.IsZero() {
		period.EndDate = DateOnly(*override)
		return period, nil
	}
	if value < 0 {
		return period, fmt.Errorf("%w: duração não pode ser negativa (%d)", appErrors.ErrInvalidInput, value)
	}
	end, err := ComputeEnd(period.StartDate, unit, value)
	if err != nil {
		return period, err
	}
	period.EndDate = end
	return period, nil
}

// EndDateMode indica se a data final segue o cálculo ou foi editada pelo usuário.
type EndDateMode int

const (
	ModeAuto EndDateMode = iota
	ModeManual
)

func (m EndDateMode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "auto"
}

// RenewalForm guarda o estado de um formulário de renovação aberto.
//
// Em ModeAuto, mudanças de início ou duração recalculam a data final.
// SetEndDate passa para ModeManual e congela a data final. Só Open com
// outro registro alvo (ou Reset) volta para ModeAuto; reabrir o mesmo alvo não
// altera nada, inclusive o alvo vazio de um cadastro ainda não gravado.
type RenewalForm struct {
	opened   bool
	targetID string
	mode     EndDateMode
	start    time.Time
	unit     DurationUnit
	value    int
	end      time.Time
}

// NewRenewalForm cria um formulário vazio, em ModeAuto.
func NewRenewalForm() *RenewalForm {
	return &RenewalForm{mode: ModeAuto, unit: DurationMonths}
}

// Open associa o formulário a um registro. Para um alvo diferente do atual,
// carrega os valores e volta para ModeAuto; para o mesmo alvo, não faz nada.
func (f *RenewalForm) Open(targetID string, start time.Time, unit DurationUnit, value int) {
	if f.opened && f.targetID == targetID {
		return
	}
	f.opened = true
	f.targetID = targetID
	f.mode = ModeAuto
	f.start = DateOnly(start)
	f.unit = unit
	f.value = value
	f.recompute()
}

// Reset fecha o formulário; o próximo Open carrega os valores em ModeAuto.
func (f *RenewalForm) Reset() {
	*f = RenewalForm{mode: ModeAuto, unit: DurationMonths}
}

// SetStartDate altera a data inicial.
func (f *RenewalForm) SetStartDate(start time.Time) {
	f.start = DateOnly(start)
	f.recompute()
}

// SetDuration altera a duração.
func (f *RenewalForm) SetDuration(unit DurationUnit, value int) {
	f.unit = unit
	f.value = value
	f.recompute()
}

// SetEndDate registra uma edição manual da data final.
func (f *RenewalForm) SetEndDate(end time.Time) {
	f.end = DateOnly(end)
	f.mode = ModeManual
}

// Mode retorna o modo atual.
func (f *RenewalForm) Mode() EndDateMode { return f.mode }

// TargetID retorna o registro associado.
func (f *RenewalForm) TargetID() string { return f.targetID }

// EndDate retorna a data final atual (zero se ainda não calculável).
func (f *RenewalForm) EndDate() time.Time { return f.end }

// Period retorna a vigência atual sem validar.
func (f *RenewalForm) Period() RenewalPeriod {
	return RenewalPeriod{
		StartDate:     f.start,
		DurationUnit:  f.unit,
		DurationValue: f.value,
		EndDate:       f.end,
	}
}

// Submit valida e retorna a vigência. ErrInvalidDateRange bloqueia o envio.
func (f *RenewalForm) Submit() (RenewalPeriod, error) {
	p := f.Period()
	if err := p.Validate(); err != nil {
		return RenewalPeriod{}, err
	}
	return p, nil
}

func (f *RenewalForm) recompute() {
	if f.mode == ModeManual || f.start.IsZero() || f.value < 0 {
		return
	}
	if end, err := ComputeEnd(f.start, f.unit, f.value); err == nil {
		f.end = end
	}
}
