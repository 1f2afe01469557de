package main

import (
	"os"
	"path/filepath"
	"testing"
)

func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APP_DB_ENGINE", "sqlite")
	t.Setenv("APP_DB_NAME", filepath.Join(dir, "nutrigestao.db"))
	t.Setenv("APP_LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("APP_EXPORT_DIR", filepath.Join(dir, "exports"))
	t.Setenv("APP_LOG_TO_CONSOLE", "false")
	return dir
}

func TestRunExitCodes(t *testing.T) {
	dir := testEnv(t)

	tests := []struct {
		name string
		argv []string
		want int
	}{
		{"sem comando", nil, 2},
		{"comando desconhecido", []string{"relatorio"}, 2},
		{"migrar", []string{"migrar"}, 0},
		{"parcelas sem gravar", []string{"parcelas", "-total", "300,00", "-n", "3", "-inicio", "15/01/2024"}, 0},
		{"flag desconhecida", []string{"parcelas", "-valor", "300"}, 1},
		{"importar sem empresa", []string{"importar-clientes", "-empresa", "x", "-arquivo", "clientes.csv"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.argv); got != tt.want {
				t.Errorf("run(%v) = %d, esperado %d", tt.argv, got, tt.want)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "nutrigestao.db")); err != nil {
		t.Errorf("banco não criado pelo comando migrar: %v", err)
	}
}
