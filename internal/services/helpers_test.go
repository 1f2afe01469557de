package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/calc"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/core/types"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/data"
	"github.com/Dukorsa/APP_NUTRIGESTAO_GO/internal/repositories"
)

// newTestDB abre um SQLite em memória exclusivo do teste, já migrado.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), data.NewGormConfig(false))
	if err != nil {
		t.Fatalf("abrindo sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("obtendo *sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := data.Migrate(db); err != nil {
		t.Fatalf("migrando: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testConfig(t *testing.T) *core.Config {
	return &core.Config{
		AppName:              "NutriGestao",
		DefaultCategory:      "Consultas",
		MaxInstallments:      12,
		PlanExpiryNoticeDays: 7,
		OverdueCronSpec:      "0 6 * * *",
		PlanExpiryCronSpec:   "0 7 * * *",
		SchedulerTimeZone:    "UTC",
		ExportDir:            t.TempDir(),
		QuestionnaireURL:     "https://forms.example.com/anamnese",
		QuestionnaireSubject: "Seu questionário",
	}
}

type sentMail struct {
	To, Name string
	EndDate  time.Time
}

// fakeEmail registra os envios em memória.
type fakeEmail struct {
	mu            sync.Mutex
	questionnaire []sentMail
	expiry        []sentMail
	err           error
}

func (f *fakeEmail) SendQuestionnaire(to, clientName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.questionnaire = append(f.questionnaire, sentMail{To: to, Name: clientName})
	return nil
}

func (f *fakeEmail) SendPlanExpiryNotice(to, clientName string, endDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.expiry = append(f.expiry, sentMail{To: to, Name: clientName, EndDate: endDate})
	return nil
}

var errSMTPDown = errors.New("smtp fora do ar")

type harness struct {
	db        *gorm.DB
	cfg       *core.Config
	tenant    *types.TenantContext
	auditRepo repositories.AuditLogRepository
	auditLog  AuditLogService
	email     *fakeEmail
	financial FinancialService
	clients   ClientService
	prospects ProspectService
	contracts ContractService
	imports   ImportService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig(t)

	clientRepo := repositories.NewGormClientRepository(db)
	contractRepo := repositories.NewGormContractRepository(db)
	txRepo := repositories.NewGormTransactionRepository(db)
	auditRepo := repositories.NewGormAuditLogRepository(db)
	auditLog := NewAuditLogService(auditRepo)
	email := &fakeEmail{}

	clients := NewClientService(cfg, db, clientRepo, contractRepo, txRepo, auditLog, email)
	tenant := types.NewTenantContext(uuid.New(), "nutri")
	return &harness{
		db:        db,
		cfg:       cfg,
		tenant:    &tenant,
		auditRepo: auditRepo,
		auditLog:  auditLog,
		email:     email,
		financial: NewFinancialService(cfg, db, txRepo, clientRepo, contractRepo, auditLog),
		clients:   clients,
		prospects: NewProspectService(db, repositories.NewGormProspectRepository(db), clients, auditLog),
		contracts: NewContractService(cfg, db, contractRepo, clientRepo, txRepo, auditLog),
		imports:   NewImportService(db, clientRepo, repositories.NewGormImportMetadataRepository(db), auditLog),
	}
}

// otherTenant devolve um contexto de outra empresa.
func otherTenant() *types.TenantContext {
	t := types.NewTenantContext(uuid.New(), "outra")
	return &t
}

// fixClock fixa o relógio dos serviços que o usam.
func (h *harness) fixClock(now time.Time) {
	clock := func() time.Time { return now }
	h.financial.(*financialServiceImpl).now = clock
	h.clients.(*clientServiceImpl).now = clock
}

func date(y int, m time.Month, d int) time.Time {
	return calc.NewDate(y, m, d)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, esperado %s", label, got.String(), want)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
