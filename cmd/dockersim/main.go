package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dockersim/app/internal/common"
	"github.com/dockersim/app/internal/connector"
	"github.com/dockersim/app/internal/dispatch"
	"github.com/dockersim/app/internal/simulator"
	"github.com/dockersim/app/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// errReported는 이미 사용자에게 출력한 실패를 나타냅니다. main은 종료 코드만 설정합니다.
var errReported = errors.New("command failed")

// app은 모든 하위 명령이 공유하는 설정과 로거를 보관합니다.
type app struct {
	configPath string
	verbose    bool
	config     *common.Config
	logger     *zap.Logger
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "dockersim",
		Short:         "dockersim - Docker CLI simulator",
		Long:          `dockersim parses Docker CLI commands and runs them against a simulated, database-backed Docker engine.`,
		Version:       fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "설정 파일 경로 (기본값: ${DOCKERSIM_DIR}/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "info 레벨 로그 출력")

	// start 명령어
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Discord connector",
		Long:  `Start the Discord bot that executes docker commands posted in simulation threads.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStart()
		},
	}

	// health 명령어
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check application health status",
		Long:  `Check that the database is reachable and migrated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := a.initStorage()
			if err != nil {
				return err
			}
			cleanup()
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(buildExecCommand(a))
	rootCmd.AddCommand(buildShellCommand(a))
	rootCmd.AddCommand(buildSimulationCommands(a))

	err := rootCmd.Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// setup은 설정을 읽고 로거를 만듭니다.
func (a *app) setup() error {
	if err := common.InitConfig(a.configPath); err != nil {
		return fmt.Errorf("설정 초기화 실패: %w", err)
	}
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	a.config = cfg

	logger, err := common.NewCLILogger("dockersim", cfg, a.verbose)
	if err != nil {
		return fmt.Errorf("로거 초기화 실패: %w", err)
	}
	a.logger = logger
	return nil
}

// runStart는 connector 서버를 시작하고 종료 신호를 기다립니다.
func (a *app) runStart() error {
	a.logger.Info("Starting dockersim connector",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	d, cleanup, err := a.newDispatcher()
	if err != nil {
		a.logger.Error("Failed to initialize dispatcher", zap.Error(err))
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	connectorServer := connector.NewServer(a.logger, d)

	errChan := make(chan error, 1)
	go func() {
		if err := connectorServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- fmt.Errorf("connector error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-sigChan:
		a.logger.Info("Shutdown signal received")
		cancel()
	case err, ok := <-errChan:
		if ok {
			a.logger.Error("Server error", zap.Error(err))
			return err
		}
		return nil
	}

	// Start는 컨텍스트 취소 후 스스로 Stop을 호출하므로 종료만 기다립니다.
	select {
	case err := <-errChan:
		if err != nil {
			a.logger.Error("Shutdown error", zap.Error(err))
		}
	case <-time.After(30 * time.Second):
		a.logger.Warn("Connector did not stop within timeout")
	}

	a.logger.Info("Connector stopped gracefully")
	return nil
}

func (a *app) initStorage() (*storage.Repository, func(), error) {
	db, err := storage.Open(storage.ConfigFrom(a.config))
	if err != nil {
		return nil, func() {}, err
	}

	if err := storage.AutoMigrate(db); err != nil {
		_ = storage.Close(db)
		return nil, func() {}, err
	}

	repo, err := storage.NewRepository(db)
	if err != nil {
		_ = storage.Close(db)
		return nil, func() {}, err
	}

	cleanup := func() {
		if err := storage.Close(db); err != nil {
			a.logger.Warn("Failed to close storage", zap.Error(err))
		}
	}

	return repo, cleanup, nil
}

// newDispatcher는 저장소, 시뮬레이터, 디스패처를 차례로 조립합니다.
func (a *app) newDispatcher() (*dispatch.Dispatcher, func(), error) {
	repo, cleanup, err := a.initStorage()
	if err != nil {
		return nil, func() {}, err
	}

	sim, err := simulator.NewSimulator(a.logger.Named("simulator"), repo)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	d, err := dispatch.NewDispatcher(a.logger.Named("dispatch"), sim)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return d, cleanup, nil
}
