package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JSONMetadata guarda dados extras da auditoria como JSON em coluna texto.
type JSONMetadata map[string]interface{}

// Value implementa driver.Valuer.
func (jm JSONMetadata) Value() (driver.Value, error) {
	if jm == nil {
		return nil, nil
	}
	b, err := json.Marshal(jm)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implementa sql.Scanner.
func (jm *JSONMetadata) Scan(value interface{}) error {
	if value == nil {
		*jm = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("tipo de valor inválido para JSONMetadata scan, esperado []byte ou string")
	}
	if len(b) == 0 {
		*jm = make(JSONMetadata)
		return nil
	}
	return json.Unmarshal(b, jm)
}

// AuditLogEntry representa uma entrada de log de auditoria.
type AuditLogEntry struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time  `gorm:"not null;index"`
	EmpresaID   *uuid.UUID `gorm:"type:varchar(36);index"` // nil para ações do sistema
	Action      string     `gorm:"type:varchar(100);not null;index"`
	Description string     `gorm:"type:text;not null"`
	Severity    string     `gorm:"type:varchar(10);not null;index"` // DEBUG, INFO, WARNING, ERROR, CRITICAL
	Username    string     `gorm:"type:varchar(50);not null;index"`

	Metadata JSONMetadata `gorm:"type:text"`
}

// TableName especifica o nome da tabela para GORM.
func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// ValidSeverities define os níveis de severidade válidos.
var ValidSeverities = map[string]bool{
	"DEBUG":    true,
	"INFO":     true,
	"WARNING":  true,
	"ERROR":    true,
	"CRITICAL": true,
}

// AuditLogFilter define os critérios de busca no log de auditoria.
type AuditLogFilter struct {
	Action    string
	Username  string
	Severity  string
	StartDate *time.Time
	EndDate   *time.Time
}
