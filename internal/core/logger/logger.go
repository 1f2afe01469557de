package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log *logrus.Logger // Logger global da aplicação
)

// SetupLogger inicializa o logger global da aplicação.
// Deve ser chamado uma vez no início.
func SetupLogger(cfg *core.Config) error {
	log = logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		fmt.Fprintf(os.Stderr, "Nível de log inválido '%s', usando INFO: %v\n", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601 com milissegundos
	})

	logFilePath := filepath.Join(cfg.LogDir, strings.ToLower(strings.ReplaceAll(cfg.AppName, " ", "_"))+".log")

	logDirAbs, _ := filepath.Abs(cfg.LogDir)
	if err := os.MkdirAll(logDirAbs, os.ModePerm); err != nil {
		fmt.Fprintf(os.Stderr, "Falha ao criar diretório de log '%s': %v. Logs de arquivo podem não funcionar.\n", logDirAbs, err)
	}

	maxSizeMB := cfg.LogMaxBytes / (1024 * 1024)
	if maxSizeMB < 1 {
		maxSizeMB = 1
	}
	fileLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    maxSizeMB,
		MaxBackups: cfg.LogBackupCount,
		MaxAge:     28, // dias
		Compress:   true,
	}

	writers := []io.Writer{fileLogger}
	if cfg.LogToConsole {
		writers = append(writers, os.Stderr)
	}
	log.SetOutput(io.MultiWriter(writers...))

	log.Infof("Logger configurado. Nível: %s. Arquivo: %s", level.String(), logFilePath)
	return nil
}

// SetOutput redireciona o logger global (usado em testes e no modo CLI silencioso).
func SetOutput(w io.Writer) {
	ensure().SetOutput(w)
}

// ensure cria um logger de console caso SetupLogger ainda não tenha sido chamado.
func ensure() *logrus.Logger {
	if log == nil {
		log = logrus.New()
		log.SetFormatter(&logrus.TextFormatter{DisableColors: true})
	}
	return log
}

func Debug(args ...interface{}) { ensure().Debug(args...) }

func Debugf(format string, args ...interface{}) { ensure().Debugf(format, args...) }

func Info(args ...interface{}) { ensure().Info(args...) }

func Infof(format string, args ...interface{}) { ensure().Infof(format, args...) }

func Warn(args ...interface{}) { ensure().Warn(args...) }

func Warnf(format string, args ...interface{}) { ensure().Warnf(format, args...) }

func Error(args ...interface{}) { ensure().Error(args...) }

func Errorf(format string, args ...interface{}) { ensure().Errorf(format, args...) }

func Fatal(args ...interface{}) { ensure().Fatal(args...) }

func Fatalf(format string, args ...interface{}) { ensure().Fatalf(format, args...) }

// WithFields retorna uma entry para log estruturado com contexto.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return ensure().WithFields(fields)
}
