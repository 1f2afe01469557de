package repositories

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	appErrors "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
)

// translateError converte erros do GORM/driver nos sentinelas da aplicação.
// `operation` descreve o que estava sendo feito (ex: "criando cliente").
func translateError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", appErrors.ErrNotFound, operation)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "duplicate key value"):
		return fmt.Errorf("%w: %s", appErrors.ErrConflict, operation)
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(msg, "foreign key constraint"),
		strings.Contains(msg, "violates foreign key"):
		return fmt.Errorf("%w: %s", appErrors.ErrIntegrity, operation)
	}

	appLogger.Errorf("Erro de banco de dados durante %s: %v", operation, err)
	return appErrors.NewDatabaseErrorDetail(operation, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern monta o padrão de busca parcial case-insensitive.
// Curingas digitados pelo usuário são escapados; use com ESCAPE '\'.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
