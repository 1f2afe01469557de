package core

import (
	"errors"
	"fmt"
	"log" // Usado para logs iniciais antes que o logger da aplicação esteja configurado
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config armazena todas as configurações da aplicação.
type Config struct {
	AppName    string
	AppVersion string
	AppDebug   bool

	// Database
	DBEngine   string
	DBName     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string

	// Logging
	LogDir         string
	LogLevel       string
	LogMaxBytes    int
	LogBackupCount int
	LogToConsole   bool

	// Export
	ExportDir string

	// Financeiro
	MaxInstallments      int // Limite de parcelas aceito pelos formulários
	PlanExpiryNoticeDays int // Antecedência do aviso de plano vencendo
	OverdueCronSpec      string
	PlanExpiryCronSpec   string
	SchedulerEnabled     bool
	SchedulerTimeZone    string
	DefaultCategory      string
	QuestionnaireURL     string
	QuestionnaireSubject string

	// Email
	EmailSMTPServer string
	EmailPort       int
	EmailUser       string
	EmailPassword   string
	EmailSender     string
}

// LoadConfig carrega as configurações do arquivo .env especificado ou encontrado na árvore de diretórios.
func LoadConfig(envPath string) (*Config, error) {
	foundEnvPath, err := findEnvFile(envPath)
	if err != nil {
		log.Printf("Aviso: Arquivo .env em '%s' não encontrado: %v. Usando variáveis de ambiente existentes.", envPath, err)
	} else {
		log.Printf("Carregando configurações de: %s", foundEnvPath)
		if err := godotenv.Load(foundEnvPath); err != nil {
			log.Printf("Aviso: Erro ao carregar arquivo .env de '%s': %v. Usando valores padrão ou variáveis de ambiente existentes.", foundEnvPath, err)
		}
	}

	cfg := &Config{}

	cfg.AppName = getEnv("APP_NAME", "NutriGestao")
	cfg.AppVersion = getEnv("APP_VERSION", "1.0.0-go")
	cfg.AppDebug = getEnvAsBool("APP_DEBUG", false)

	cfg.DBEngine = getEnv("APP_DB_ENGINE", "sqlite")
	cfg.DBName = getEnv("APP_DB_NAME", "nutrigestao.db")
	cfg.DBHost = getEnv("APP_DB_HOST", "localhost")
	cfg.DBPort = getEnvAsInt("APP_DB_PORT", 5432)
	cfg.DBUser = getEnv("APP_DB_USER", "user")
	cfg.DBPassword = getEnv("APP_DB_PASSWORD", "password")

	cfg.LogDir = getEnv("APP_LOG_DIR", "./app_logs")
	cfg.LogLevel = strings.ToUpper(getEnv("APP_LOG_LEVEL", "INFO"))
	cfg.LogMaxBytes = getEnvAsInt("APP_LOG_MAX_BYTES", 5*1024*1024) // 5MB
	cfg.LogBackupCount = getEnvAsInt("APP_LOG_BACKUP_COUNT", 7)
	cfg.LogToConsole = getEnvAsBool("APP_LOG_TO_CONSOLE", true)

	cfg.ExportDir = getEnv("APP_EXPORT_DIR", "./app_exports")

	cfg.MaxInstallments = getEnvAsInt("APP_MAX_INSTALLMENTS", 12)
	cfg.PlanExpiryNoticeDays = getEnvAsInt("APP_PLAN_EXPIRY_NOTICE_DAYS", 7)
	cfg.OverdueCronSpec = getEnv("APP_OVERDUE_CRON", "0 6 * * *")
	cfg.PlanExpiryCronSpec = getEnv("APP_PLAN_EXPIRY_CRON", "0 7 * * *")
	cfg.SchedulerEnabled = getEnvAsBool("APP_SCHEDULER_ENABLED", true)
	cfg.SchedulerTimeZone = getEnv("APP_SCHEDULER_TIMEZONE", "America/Sao_Paulo")
	cfg.DefaultCategory = getEnv("APP_DEFAULT_TRANSACTION_CATEGORY", "Consultas")
	cfg.QuestionnaireURL = getEnv("APP_QUESTIONNAIRE_URL", "")
	cfg.QuestionnaireSubject = getEnv("APP_QUESTIONNAIRE_SUBJECT", "Seu questionário de anamnese")

	cfg.EmailSMTPServer = getEnv("APP_EMAIL_SMTP_SERVER", "")
	cfg.EmailPort = getEnvAsInt("APP_EMAIL_PORT", 587)
	cfg.EmailUser = getEnv("APP_EMAIL_USER", "")
	cfg.EmailPassword = getEnv("APP_EMAIL_PASSWORD", "")
	cfg.EmailSender = getEnv("APP_EMAIL_SENDER", cfg.EmailUser)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(cfg.LogDir, true); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de log essencial '%s': %w", cfg.LogDir, err)
	}
	if cfg.DBEngine == "sqlite" {
		sqliteDir := filepath.Dir(cfg.DBName)
		if sqliteDir != "." && sqliteDir != string(filepath.Separator) {
			if err := ensureDir(sqliteDir, true); err != nil {
				return nil, fmt.Errorf("falha ao criar diretório para banco de dados SQLite '%s': %w", sqliteDir, err)
			}
		}
	}
	_ = ensureDir(cfg.ExportDir, false)

	log.Println("Configurações carregadas e validadas.")
	return cfg, nil
}

// Validate verifica combinações inválidas de configuração.
func (c *Config) Validate() error {
	switch c.DBEngine {
	case "sqlite", "postgresql":
	default:
		return fmt.Errorf("%w: APP_DB_ENGINE '%s' não suportado (use sqlite ou postgresql)", ErrConfiguration, c.DBEngine)
	}
	if c.MaxInstallments < 1 {
		return fmt.Errorf("%w: APP_MAX_INSTALLMENTS deve ser >= 1 (recebido %d)", ErrConfiguration, c.MaxInstallments)
	}
	if c.PlanExpiryNoticeDays < 0 {
		return fmt.Errorf("%w: APP_PLAN_EXPIRY_NOTICE_DAYS não pode ser negativo", ErrConfiguration)
	}
	return nil
}

// EmailEnabled indica se há configuração SMTP suficiente para enviar e-mails.
func (c *Config) EmailEnabled() bool {
	return c.EmailSMTPServer != "" && c.EmailUser != "" && c.EmailSender != ""
}

// findEnvFile tenta localizar o arquivo .env: primeiro no path fornecido,
// depois subindo na árvore de diretórios a partir do CWD.
func findEnvFile(envPath string) (string, error) {
	if _, err := os.Stat(envPath); err == nil {
		absPath, _ := filepath.Abs(envPath)
		return absPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("não foi possível obter o diretório de trabalho atual: %w", err)
	}

	for i := 0; i < 5; i++ {
		tryPath := filepath.Join(cwd, ".env")
		if _, err := os.Stat(tryPath); err == nil {
			return tryPath, nil
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return "", fmt.Errorf("arquivo .env não encontrado no caminho '%s' ou nos diretórios pais", envPath)
}

// ensureDir garante que um diretório exista.
// Se 'critical' for true, retorna erro em caso de falha; caso contrário apenas avisa.
func ensureDir(dirPath string, critical bool) error {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		msg := fmt.Sprintf("Não foi possível resolver o caminho absoluto para '%s': %v", dirPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
		return nil
	}

	if err := os.MkdirAll(absPath, os.ModePerm); err != nil {
		msg := fmt.Sprintf("Não foi possível criar o diretório '%s': %v", absPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
