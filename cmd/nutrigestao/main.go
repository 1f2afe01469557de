package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/calc"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/logger"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data/models"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/jobs"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/repositories"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/services"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/utils"
)

const usage = `Uso: nutrigestao <comando> [opções]

Comandos:
  migrar              cria/atualiza as tabelas
  parcelas            calcula (e opcionalmente grava) um parcelamento
  importar-clientes   importa clientes de um arquivo ';'
  exportar-financeiro exporta o livro financeiro para .xlsx ou .csv
  agendador           executa as rotinas diárias até receber SIGINT/SIGTERM
`

// app agrupa as dependências montadas a partir da configuração.
type app struct {
	cfg       *core.Config
	db        *gorm.DB
	auditLog  services.AuditLogService
	email     services.EmailService
	financial services.FinancialService
	clients   services.ClientService
	imports   services.ImportService
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executa o comando e devolve o código de saída do processo.
func run(argv []string) int {
	if len(argv) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	// --- 1. Carregar Configurações ---
	cfg, err := core.LoadConfig(".env")
	if err != nil {
		log.Printf("Erro CRÍTICO ao carregar configuração: %v", err)
		return 1
	}

	// --- 2. Configurar Logger ---
	if err := appLogger.SetupLogger(cfg); err != nil {
		log.Printf("Erro CRÍTICO ao configurar logger: %v", err)
		return 1
	}
	appLogger.Infof("Iniciando %s v%s (comando: %s)", cfg.AppName, cfg.AppVersion, argv[0])

	cmd, args := argv[0], argv[1:]
	switch cmd {
	case "migrar", "importar-clientes", "exportar-financeiro", "agendador":
	case "parcelas":
		return exitCode(runInstallments(cfg, args))
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	// --- 3. Inicializar Banco de Dados ---
	db, err := data.InitializeDB(cfg)
	if err != nil {
		appLogger.Errorf("Erro CRÍTICO ao inicializar banco de dados: %v", err)
		return 1
	}
	defer closeDB(db)

	a := newApp(cfg, db)
	switch cmd {
	case "migrar":
		fmt.Println("Migrações aplicadas.")
	case "importar-clientes":
		err = a.runImportClients(args)
	case "exportar-financeiro":
		err = a.runExportLedger(args)
	case "agendador":
		err = a.runScheduler()
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	appLogger.Errorf("Comando falhou: %v", err)
	fmt.Fprintln(os.Stderr, "Erro:", err)
	return 1
}

func closeDB(db *gorm.DB) {
	if err := data.CloseDB(db); err != nil {
		appLogger.Errorf("Erro ao fechar conexão com banco de dados: %v", err)
	}
}

// newApp monta repositórios e serviços.
func newApp(cfg *core.Config, db *gorm.DB) *app {
	clientRepo := repositories.NewGormClientRepository(db)
	contractRepo := repositories.NewGormContractRepository(db)
	txRepo := repositories.NewGormTransactionRepository(db)
	auditLog := services.NewAuditLogService(repositories.NewGormAuditLogRepository(db))

	var email services.EmailService
	if cfg.AppDebug || cfg.EmailEnabled() {
		es, err := services.NewEmailService(cfg)
		if err != nil {
			appLogger.Warnf("Falha ao inicializar EmailService: %v. Funcionalidades de e-mail estarão desabilitadas.", err)
		} else {
			email = es
		}
	} else {
		appLogger.Info("Configuração de e-mail incompleta. EmailService não será inicializado.")
	}

	return &app{
		cfg:       cfg,
		db:        db,
		auditLog:  auditLog,
		email:     email,
		financial: services.NewFinancialService(cfg, db, txRepo, clientRepo, contractRepo, auditLog),
		clients:   services.NewClientService(cfg, db, clientRepo, contractRepo, txRepo, auditLog, email),
		imports:   services.NewImportService(db, clientRepo, repositories.NewGormImportMetadataRepository(db), auditLog),
	}
}

// tenantFlags registra -empresa e -usuario no FlagSet.
func tenantFlags(fs *flag.FlagSet) func() (*types.TenantContext, error) {
	empresa := fs.String("empresa", os.Getenv("APP_EMPRESA_ID"), "UUID da empresa")
	usuario := fs.String("usuario", "cli", "usuário registrado na auditoria")
	return func() (*types.TenantContext, error) {
		id, err := uuid.Parse(strings.TrimSpace(*empresa))
		if err != nil {
			return nil, fmt.Errorf("%w: -empresa inválida: %v", core.ErrInvalidInput, err)
		}
		t := types.NewTenantContext(id, *usuario)
		return &t, nil
	}
}

func runInstallments(cfg *core.Config, args []string) error {
	fs := flag.NewFlagSet("parcelas", flag.ContinueOnError)
	total := fs.String("total", "", "valor total (ex: 1.234,56)")
	count := fs.Int("n", 1, "quantidade de parcelas")
	first := fs.String("inicio", "", "primeiro vencimento (dd/mm/aaaa)")
	receivable := fs.Bool("a-receber", true, "primeira parcela a receber (false = já paga)")
	save := fs.Bool("gravar", false, "grava as parcelas no livro financeiro")
	category := fs.String("categoria", "", "categoria do lançamento")
	description := fs.String("descricao", "", "descrição do lançamento")
	tenant := tenantFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := utils.ParseCurrency(*total)
	if err != nil {
		return err
	}
	due, err := utils.ParseDate(*first)
	if err != nil {
		return err
	}
	payment := models.PaymentInput{
		TotalAmount:      amount,
		InstallmentCount: *count,
		FirstDueDate:     due,
		FirstReceivable:  *receivable,
		Category:         *category,
		Description:      *description,
	}
	if err := payment.CleanAndValidate(); err != nil {
		return err
	}
	installments, err := calc.SplitInstallments(payment.Plan())
	if err != nil {
		return err
	}
	for _, inst := range installments {
		status := "paga"
		if inst.Receivable {
			status = "a receber"
		}
		fmt.Printf("%2d  %s  %14s  %s\n", inst.SequenceNumber, utils.FormatDateBR(inst.DueDate), utils.FormatBRL(inst.Amount), status)
	}
	fmt.Printf("Total: %s\n", utils.FormatBRL(calc.SumInstallments(installments)))
	if !*save {
		return nil
	}

	t, err := tenant()
	if err != nil {
		return err
	}
	db, err := data.InitializeDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)
	rows, err := newApp(cfg, db).financial.RegisterInstallments(t, models.LedgerInput{Kind: models.KindIncome, Payment: payment})
	if err != nil {
		return err
	}
	fmt.Printf("%d parcela(s) gravada(s).\n", len(rows))
	return nil
}

func (a *app) runImportClients(args []string) error {
	fs := flag.NewFlagSet("importar-clientes", flag.ContinueOnError)
	file := fs.String("arquivo", "", "caminho do arquivo ';'")
	tenant := tenantFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := tenant()
	if err != nil {
		return err
	}
	if err := utils.RequireField("arquivo", *file); err != nil {
		return err
	}
	res, err := a.imports.ImportClients(t, *file)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s): %d importado(s), %d ignorado(s)\n", res.FileName, res.Encoding, res.Imported, res.Skipped)
	for _, p := range res.Problems {
		fmt.Println("  -", p)
	}
	return nil
}

func (a *app) runExportLedger(args []string) error {
	fs := flag.NewFlagSet("exportar-financeiro", flag.ContinueOnError)
	out := fs.String("saida", "lancamentos.xlsx", "arquivo de saída (.xlsx ou .csv)")
	from := fs.String("de", "", "vencimento inicial (dd/mm/aaaa)")
	to := fs.String("ate", "", "vencimento final (dd/mm/aaaa)")
	status := fs.String("status", "", "pago, a_receber ou atrasado")
	tenant := tenantFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := tenant()
	if err != nil {
		return err
	}
	filter := models.TransactionFilter{Status: *status}
	if *from != "" {
		d, err := utils.ParseDate(*from)
		if err != nil {
			return err
		}
		filter.From = &d
	}
	if *to != "" {
		d, err := utils.ParseDate(*to)
		if err != nil {
			return err
		}
		filter.To = &d
	}
	path, err := a.financial.ExportTransactions(t, filter, *out)
	if err != nil {
		return err
	}
	fmt.Println("Exportado para", path)
	return nil
}

func (a *app) runScheduler() error {
	if !a.cfg.SchedulerEnabled {
		return fmt.Errorf("%w: agendador desabilitado (APP_SCHEDULER_ENABLED=false)", core.ErrConfiguration)
	}
	s := jobs.NewScheduler(a.cfg, a.financial, a.clients, a.auditLog, a.email)

	// Atualiza uma vez na partida para não esperar a primeira execução agendada.
	if _, err := s.RunOverdueRefresh(); err != nil {
		appLogger.Warnf("Atualização inicial de parcelas atrasadas falhou: %v", err)
	}
	if err := s.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	appLogger.Infof("Sinal %v recebido, encerrando agendador.", sig)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		appLogger.Warn("Tempo esgotado aguardando rotinas do agendador.")
	}
	return nil
}
