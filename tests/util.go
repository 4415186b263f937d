package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/employee"
)

// NewConfig loads the test configuration and sets core.Conf.
func NewConfig() *core.Config {
	_ = os.Setenv("ENV", "TEST")
	_ = os.Setenv("TEST_DEBUG", "false")
	_ = os.Setenv("TEST_BROKERRECONNECTPERIOD", "50ms")
	return core.NewConfig()
}

// InitValidators wires the package-level validator the way the apps do.
func InitValidators() {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validator.New(), translator)
}

func CreateEmployee(
	t *testing.T,
	repo employee.Repository,
	uid, name, email string,
	basePay float64,
	createdAt ...time.Time,
) employee.Employee {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	emp, err := repo.CreateEmployee(context.Background(), employee.Employee{
		UID:       uid,
		Name:      name,
		Email:     email,
		BasePay:   basePay,
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateEmployee() failed: %v", err)
	}
	return emp
}

// Logger is a quiet core.Logger that records messages for assertions.
type Logger struct {
	mu      sync.Mutex
	entries map[string][]string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{entries: make(map[string][]string)}
}

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[level] = append(l.entries[level], msg)
}

// Logged returns the messages recorded at level (debug, info, warn, error).
func (l *Logger) Logged(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries[level]...)
}

func (l *Logger) Enable(bool)                        {}
func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }
