package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
)

// InitializeDB configura e estabelece a conexão com o banco de dados
// e executa as migrações automáticas.
func InitializeDB(cfg *core.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	appLogger.Infof("Inicializando conexão com banco de dados: %s", cfg.DBEngine)

	switch cfg.DBEngine {
	case "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
		appLogger.Infof("Conectando ao PostgreSQL: host=%s dbname=%s user=%s port=%d", cfg.DBHost, cfg.DBName, cfg.DBUser, cfg.DBPort)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBName + "?_foreign_keys=on")
		appLogger.Infof("Usando banco de dados SQLite: %s", cfg.DBName)
	default:
		return nil, fmt.Errorf("%w: motor de banco de dados não suportado: %s", core.ErrConfiguration, cfg.DBEngine)
	}

	db, err := gorm.Open(dialector, NewGormConfig(cfg.AppDebug))
	if err != nil {
		appLogger.Errorf("Falha ao conectar ao banco de dados %s: %v", cfg.DBEngine, err)
		return nil, fmt.Errorf("%w: falha ao abrir conexão com %s: %v", core.ErrDatabase, cfg.DBEngine, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Falha ao obter instância *sql.DB do GORM: %v", err)
		return nil, fmt.Errorf("%w: falha ao configurar pool de conexões: %v", core.ErrDatabase, err)
	}
	if cfg.DBEngine == "sqlite" {
		// SQLite serializa escritas; uma conexão evita "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	appLogger.Info("Conexão com banco de dados estabelecida.")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewGormConfig monta a configuração do GORM com o logger ligado ao logrus.
func NewGormConfig(debug bool) *gorm.Config {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger: gormlogger.New(
			appLogger.WithFields(logrus.Fields{"component": "gorm"}),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// allModels lista as tabelas gerenciadas pelo AutoMigrate.
func allModels() []interface{} {
	return []interface{}{
		&models.DBClient{},
		&models.DBProspect{},
		&models.DBContract{},
		&models.DBFinancialTransaction{},
		&models.AuditLogEntry{},
		&models.DBImportMetadata{},
	}
}

// Migrate cria/altera as tabelas para corresponder aos modelos.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("instância de banco de dados é nil, não é possível criar tabelas")
	}
	appLogger.Info("Executando migrações automáticas do GORM...")
	if err := db.AutoMigrate(allModels()...); err != nil {
		appLogger.Errorf("Falha durante AutoMigrate: %v", err)
		return fmt.Errorf("%w: falha na migração do esquema do banco de dados: %v", core.ErrDatabase, err)
	}
	appLogger.Info("Migrações automáticas do GORM concluídas.")
	return nil
}

// CloseDB fecha a conexão com o banco de dados.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		appLogger.Warn("Tentativa de fechar conexão DB nula.")
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Erro ao obter *sql.DB para fechar: %v", err)
		return err
	}
	appLogger.Info("Fechando conexão com o banco de dados...")
	return sqlDB.Close()
}

// DBSessionFunc é o corpo de uma transação.
type DBSessionFunc func(tx *gorm.DB) error

// WithTransaction executa fn dentro de uma transação GORM.
// Faz commit se fn não retornar erro, rollback caso contrário.
func WithTransaction(db *gorm.DB, fn DBSessionFunc) error {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("%w: falha ao iniciar transação: %v", core.ErrDatabase, tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			appLogger.Errorf("Erro no rollback após falha (%v): %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: falha ao commitar transação: %v", core.ErrDatabase, err)
	}
	return nil
}
