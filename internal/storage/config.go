package storage

import (
	"time"

	"github.com/dockersim/app/internal/common"
	gormlogger "gorm.io/gorm/logger"
)

// Config는 GORM 데이터베이스 설정 값을 보관합니다.
type Config struct {
	DSN                  string
	LogLevel             gormlogger.LogLevel
	MaxIdleConns         int
	MaxOpenConns         int
	ConnMaxLifetime      time.Duration
	SkipDefaultTxn       bool
	PrepareStmt          bool
	DisableAutomaticPing bool
}

// ConfigFromEnv는 중앙 설정(common.LoadConfig)에서 데이터베이스 설정을 읽습니다.
func ConfigFromEnv() (Config, error) {
	appConfig, err := common.LoadConfig()
	if err != nil {
		return Config{}, err
	}
	return ConfigFrom(appConfig), nil
}

// ConfigFrom은 이미 로드된 애플리케이션 설정에서 Config를 만듭니다.
func ConfigFrom(appConfig *common.Config) Config {
	return Config{
		DSN:             appConfig.Database.DSN,
		LogLevel:        appConfig.Database.LogLevel,
		MaxIdleConns:    appConfig.Database.MaxIdleConns,
		MaxOpenConns:    appConfig.Database.MaxOpenConns,
		ConnMaxLifetime: appConfig.Database.ConnMaxLifetime,
		SkipDefaultTxn:  appConfig.Database.SkipDefaultTxn,
		PrepareStmt:     appConfig.Database.PrepareStmt,
	}
}
