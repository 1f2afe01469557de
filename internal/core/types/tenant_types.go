package types

import (
	"github.com/google/uuid"
)

// TenantContext identifica a empresa dona dos registros e quem está operando.
// É passado explicitamente a todos os serviços; nada é lido de estado global.
type TenantContext struct {
	EmpresaID uuid.UUID
	Username  string
}

// NewTenantContext cria um TenantContext.
func NewTenantContext(empresaID uuid.UUID, username string) TenantContext {
	return TenantContext{EmpresaID: empresaID, Username: username}
}

// Valid indica se o contexto possui uma empresa definida.
func (t TenantContext) Valid() bool {
	return t.EmpresaID != uuid.Nil
}

// Actor retorna o nome a ser registrado em auditoria ("system" quando vazio).
func (t TenantContext) Actor() string {
	if t.Username == "" {
		return "system"
	}
	return t.Username
}
