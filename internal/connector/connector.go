package connector

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/dockersim/app/internal/common"
	"github.com/dockersim/app/internal/connector/handlers"
	"github.com/dockersim/app/internal/dispatch"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Connector는 Discord 봇 세션과 명령 실행기를 묶어 관리하는 구조체입니다.
type Connector struct {
	logger         *zap.Logger
	session        *discordgo.Session
	dispatcher     *dispatch.Dispatcher
	discordHandler *handlers.DiscordHandler
	config         *common.Config
}

// NewServer는 새로운 connector 서버를 생성합니다.
func NewServer(logger *zap.Logger, d *dispatch.Dispatcher) *Connector {
	return &Connector{
		logger:     logger.Named("connector"),
		dispatcher: d,
	}
}

// Start는 Discord 봇을 시작하고 컨텍스트가 취소될 때까지 대기합니다.
func (s *Connector) Start(ctx context.Context) error {
	s.logger.Info("Starting connector server (Discord Bot)")

	if s.dispatcher == nil {
		return fmt.Errorf("connector: dispatcher is not configured")
	}

	if err := godotenv.Load(); err != nil {
		s.logger.Warn("Could not load .env file", zap.Error(err))
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	s.config = cfg

	if cfg.Discord.Token == "" {
		return fmt.Errorf("DOCKERSIM_DISCORD_TOKEN environment variable not set")
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}
	s.session = dg
	s.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	s.discordHandler = handlers.NewDiscordHandler(s.logger, s.session, s.dispatcher, cfg.Simulator.HistoryLimit)
	s.discordHandler.RegisterHandlers()

	if err := s.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	s.logger.Info("Bot is now running.")

	<-ctx.Done()
	s.logger.Info("Connector server shutting down")
	return s.Stop(context.Background())
}

// Stop은 Discord 세션을 닫습니다.
func (s *Connector) Stop(ctx context.Context) error {
	s.logger.Info("Stopping connector server")
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			s.logger.Error("Error closing discord session", zap.Error(err))
			return err
		}
	}
	s.logger.Info("Connector server stopped")
	return nil
}
