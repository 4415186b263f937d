package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the process-wide configuration. It is set once by NewConfig.
var Conf *Config

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server     ServerConfig
		Database   DatabaseConfig
		Redis      RedisConfig
		Broker     BrokerConfig
		Attendance AttendanceConfig
		Payroll    PayrollConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		DebugPort       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	RedisConfig struct {
		URL string
	}

	BrokerConfig struct {
		// PresenceTopic is the topic scanning devices publish presence events on.
		PresenceTopic   string
		ReconnectPeriod time.Duration
		// OfflineQueueSize bounds the outbound queue kept while disconnected;
		// the oldest entry is dropped when full.
		OfflineQueueSize int
	}

	AttendanceConfig struct {
		WorkdayStart     string // "HH:MM"
		WorkdayEnd       string // "HH:MM"
		GraceMinutes     int
		WorkdaysPerMonth int
		HoursPerDay      int
	}

	PayrollConfig struct {
		OvertimeMultiplier float64
	}
)

func (c ServerConfig) Address() string      { return c.Host + ":" + c.Port }
func (c ServerConfig) DebugAddress() string { return c.Host + ":" + c.DebugPort }

func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }

// StandardMinutesPerMonth is the worked-minutes threshold above which a
// month's overtime starts. Derived from configuration, never hardcoded.
func (c AttendanceConfig) StandardMinutesPerMonth() int {
	return c.WorkdaysPerMonth * c.HoursPerDay * 60
}

func (c AttendanceConfig) StandardHoursPerMonth() float64 {
	return float64(c.WorkdaysPerMonth * c.HoursPerDay)
}

// NewConfig loads the configuration from defaults, an optional
// config/.env.<env> file and environment variables (in increasing
// precedence) and sets the Conf singleton.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Kazi")
	v.SetDefault("build", "dev")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("serverDebugPort", "8001")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)

	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "kazi")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("redisURL", "redis://localhost:6379/0")

	v.SetDefault("brokerPresenceTopic", "kazi/presence/events")
	v.SetDefault("brokerReconnectPeriod", 5*time.Second)
	v.SetDefault("brokerOfflineQueueSize", 100)

	v.SetDefault("workdayStart", "09:00")
	v.SetDefault("workdayEnd", "17:00")
	v.SetDefault("graceMinutes", 15)
	v.SetDefault("workdaysPerMonth", 22)
	v.SetDefault("hoursPerDay", 8)

	v.SetDefault("overtimeMultiplier", 1.5)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		WorkDir:          wd,
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Port:            v.GetString("serverPort"),
			DebugPort:       v.GetString("serverDebugPort"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetString("databasePort"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Redis: RedisConfig{
			URL: v.GetString("redisURL"),
		},
		Broker: BrokerConfig{
			PresenceTopic:    v.GetString("brokerPresenceTopic"),
			ReconnectPeriod:  v.GetDuration("brokerReconnectPeriod"),
			OfflineQueueSize: v.GetInt("brokerOfflineQueueSize"),
		},
		Attendance: AttendanceConfig{
			WorkdayStart:     v.GetString("workdayStart"),
			WorkdayEnd:       v.GetString("workdayEnd"),
			GraceMinutes:     v.GetInt("graceMinutes"),
			WorkdaysPerMonth: v.GetInt("workdaysPerMonth"),
			HoursPerDay:      v.GetInt("hoursPerDay"),
		},
		Payroll: PayrollConfig{
			OvertimeMultiplier: v.GetFloat64("overtimeMultiplier"),
		},
	}
	return Conf
}
