package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	gormlogger "gorm.io/gorm/logger"
)

// Config는 애플리케이션의 모든 설정을 관리합니다.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Discord   DiscordConfig   `yaml:"discord"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Directory DirectoryConfig `yaml:"directory"`
}

// AppConfig는 애플리케이션 기본 설정입니다.
type AppConfig struct {
	// ENV는 실행 환경입니다 (development, production)
	ENV string `yaml:"env"`
	// LogLevel은 애플리케이션 로그 레벨입니다 (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig는 데이터베이스 설정입니다.
type DatabaseConfig struct {
	// DSN은 데이터베이스 연결 문자열입니다. postgres URL이면 postgres 드라이버를 사용합니다.
	DSN string `yaml:"dsn"`
	// LogLevel은 GORM 로그 레벨입니다
	LogLevel gormlogger.LogLevel `yaml:"log_level"`
	// MaxIdleConns는 연결 풀의 idle 연결 개수입니다
	MaxIdleConns int `yaml:"max_idle_conns"`
	// MaxOpenConns는 연결 풀의 최대 연결 개수입니다
	MaxOpenConns int `yaml:"max_open_conns"`
	// ConnMaxLifetime은 연결의 최대 수명입니다
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	// SkipDefaultTxn은 기본 트랜잭션을 스킵할지 여부입니다
	SkipDefaultTxn bool `yaml:"skip_default_txn"`
	// PrepareStmt는 prepared statement 캐시를 사용할지 여부입니다
	PrepareStmt bool `yaml:"prepare_stmt"`
}

// DiscordConfig는 Discord 봇 설정입니다.
type DiscordConfig struct {
	Token string `yaml:"token"`
}

// SimulatorConfig는 시뮬레이터 동작 설정입니다.
type SimulatorConfig struct {
	// HistoryLimit은 history 조회 시 기본으로 보여줄 명령 수입니다
	HistoryLimit int `yaml:"history_limit"`
	// DefaultUser는 CLI에서 사용자 ID를 지정하지 않았을 때 쓰는 값입니다
	DefaultUser string `yaml:"default_user"`
}

// DirectoryConfig는 디렉토리 경로 설정입니다.
type DirectoryConfig struct {
	// DataDir은 기본 데이터 디렉토리입니다 (환경 변수 DOCKERSIM_DIR로만 설정 가능, 기본값: $HOME/.dockersim)
	DataDir string `yaml:"-"`
	// SQLiteDatabase는 SQLite 데이터베이스 파일 경로입니다
	SQLiteDatabase string `yaml:"sqlite_database"`
}

const (
	defaultHistoryLimit = 20
	defaultUser         = "local"
)

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// InitConfig는 설정을 초기화합니다.
// configPath가 비어있으면 ${DOCKERSIM_DIR}/config.yaml에서 로드를 시도하고, 파일이 없으면 환경 변수에서 로드합니다.
// 파일에서 로드한 후 환경 변수로 오버라이드됩니다.
func InitConfig(configPath string) error {
	var err error
	once.Do(func() {
		if configPath == "" {
			configPath = filepath.Join(getDataDir(), "config.yaml")
		}

		if _, statErr := os.Stat(configPath); statErr == nil {
			instance, err = LoadConfigFromFile(configPath)
		} else {
			instance, err = LoadConfigFromEnv()
		}
	})
	return err
}

// GetConfig는 싱글톤 Config 인스턴스를 반환합니다.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		_ = InitConfig("")
	}
	return instance
}

// LoadConfig는 싱글톤 설정을 반환합니다.
func LoadConfig() (*Config, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("설정이 초기화되지 않았습니다")
	}
	return cfg, nil
}

// LoadConfigFromFile은 YAML 파일에서 설정을 로드합니다.
// 파일에 없는 값은 환경 변수 기본값으로 채웁니다.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("설정 파일 파싱 실패: %w", err)
	}

	return mergeWithEnv(cfg), nil
}

// LoadConfigFromEnv는 환경 변수에서 설정을 로드합니다.
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{
		App:       loadAppConfig(),
		Database:  loadDatabaseConfig(),
		Discord:   loadDiscordConfig(),
		Simulator: loadSimulatorConfig(),
		Directory: loadDirectoryConfig(),
	}

	return cfg, nil
}

// mergeWithEnv는 YAML 설정을 환경 변수로 오버라이드합니다.
func mergeWithEnv(cfg *Config) *Config {
	if env := os.Getenv("DOCKERSIM_ENV"); env != "" {
		cfg.App.ENV = env
	}
	if logLevel := os.Getenv("DOCKERSIM_LOG_LEVEL"); logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	if dsn := os.Getenv("DOCKERSIM_DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if logLevel := os.Getenv("DOCKERSIM_DB_LOG_LEVEL"); logLevel != "" {
		cfg.Database.LogLevel = parseLogLevel(logLevel)
	}
	if maxIdle := os.Getenv("DOCKERSIM_DB_MAX_IDLE"); maxIdle != "" {
		cfg.Database.MaxIdleConns = parseIntWithDefault(maxIdle, cfg.Database.MaxIdleConns)
	}
	if maxOpen := os.Getenv("DOCKERSIM_DB_MAX_OPEN"); maxOpen != "" {
		cfg.Database.MaxOpenConns = parseIntWithDefault(maxOpen, cfg.Database.MaxOpenConns)
	}
	if lifetime := os.Getenv("DOCKERSIM_DB_CONN_LIFETIME"); lifetime != "" {
		cfg.Database.ConnMaxLifetime = parseDurationWithDefault(lifetime, cfg.Database.ConnMaxLifetime)
	}

	if token := os.Getenv("DOCKERSIM_DISCORD_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}

	if limit := os.Getenv("DOCKERSIM_HISTORY_LIMIT"); limit != "" {
		cfg.Simulator.HistoryLimit = parseIntWithDefault(limit, cfg.Simulator.HistoryLimit)
	}
	if user := os.Getenv("DOCKERSIM_USER"); user != "" {
		cfg.Simulator.DefaultUser = user
	}

	if dir := os.Getenv("DOCKERSIM_DIR"); dir != "" {
		cfg.Directory.DataDir = dir
	}
	if sqliteDB := os.Getenv("DOCKERSIM_SQLITE_DATABASE"); sqliteDB != "" {
		cfg.Directory.SQLiteDatabase = sqliteDB
	}

	return cfg
}

func loadAppConfig() AppConfig {
	return AppConfig{
		ENV:      getEnvOrDefault("DOCKERSIM_ENV", "production"),
		LogLevel: getEnvOrDefault("DOCKERSIM_LOG_LEVEL", "info"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	dsn := os.Getenv("DOCKERSIM_DATABASE_URL")
	if dsn == "" {
		// 순환 참조를 피하려고 GetDatabasePath 대신 직접 계산합니다.
		sqliteDB := os.Getenv("DOCKERSIM_SQLITE_DATABASE")
		if sqliteDB == "" {
			sqliteDB = filepath.Join(getDataDir(), "dockersim.db")
		}
		dsn = sqliteDB
	}

	return DatabaseConfig{
		DSN:             dsn,
		LogLevel:        parseLogLevel(os.Getenv("DOCKERSIM_DB_LOG_LEVEL")),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DOCKERSIM_DB_MAX_IDLE"), 5),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DOCKERSIM_DB_MAX_OPEN"), 20),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DOCKERSIM_DB_CONN_LIFETIME"), 30*time.Minute),
		SkipDefaultTxn:  parseBoolWithDefault(os.Getenv("DOCKERSIM_DB_SKIP_DEFAULT_TXN"), true),
		PrepareStmt:     parseBoolWithDefault(os.Getenv("DOCKERSIM_DB_PREPARE_STMT"), false),
	}
}

func loadDiscordConfig() DiscordConfig {
	return DiscordConfig{
		Token: os.Getenv("DOCKERSIM_DISCORD_TOKEN"),
	}
}

func loadSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		HistoryLimit: parseIntWithDefault(os.Getenv("DOCKERSIM_HISTORY_LIMIT"), defaultHistoryLimit),
		DefaultUser:  getEnvOrDefault("DOCKERSIM_USER", defaultUser),
	}
}

func loadDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		DataDir:        getDataDir(),
		SQLiteDatabase: os.Getenv("DOCKERSIM_SQLITE_DATABASE"),
	}
}

// getDataDir은 DOCKERSIM_DIR 환경 변수를 반환하거나 기본값을 계산합니다.
func getDataDir() string {
	if dir := os.Getenv("DOCKERSIM_DIR"); dir != "" {
		return dir
	}
	if homeDir := os.Getenv("HOME"); homeDir != "" {
		return filepath.Join(homeDir, ".dockersim")
	}
	return "./data"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(value string) gormlogger.LogLevel {
	switch value {
	case "silent", "SILENT":
		return gormlogger.Silent
	case "error", "ERROR":
		return gormlogger.Error
	case "warn", "WARN":
		return gormlogger.Warn
	case "info", "INFO":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func parseIntWithDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

func parseBoolWithDefault(value string, def bool) bool {
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

// ValidateDiscord는 Discord 봇 실행에 필요한 설정을 검증합니다.
func (c *Config) ValidateDiscord() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DOCKERSIM_DISCORD_TOKEN is required")
	}
	return nil
}
