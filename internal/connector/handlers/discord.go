package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/dockersim/app/internal/dispatch"
	"github.com/dockersim/app/internal/simulator"
	"go.uber.org/zap"
)

// Discord 명령어 및 UI 요소에 사용될 상수들을 정의합니다.
const (
	cmdSimulation  = "simulation"
	subCmdCreate   = "create"
	subCmdList     = "list"
	subCmdHistory  = "history"
	subCmdDelete   = "delete"
	optTitle       = "title"
	optSimulation  = "simulation"
	commandPrefix  = "docker"
	maxChoices     = 25
	maxChoiceName  = 100
	colorInfo      = 0x0099ff
	threadArchive  = 1440
	defaultHistory = 20
)

// DiscordHandler는 Discord 이벤트 및 상호작용을 처리합니다.
type DiscordHandler struct {
	logger        *zap.Logger
	session       *discordgo.Session
	dispatcher    *dispatch.Dispatcher
	historyLimit  int
	threadsMutex  sync.RWMutex
	activeThreads map[string]string // key: thread ID, value: simulation ID
}

// NewDiscordHandler는 새로운 DiscordHandler를 생성합니다.
func NewDiscordHandler(logger *zap.Logger, session *discordgo.Session, d *dispatch.Dispatcher, historyLimit int) *DiscordHandler {
	if historyLimit <= 0 {
		historyLimit = defaultHistory
	}
	return &DiscordHandler{
		logger:        logger.With(zap.String("handler", "discord")),
		session:       session,
		dispatcher:    d,
		historyLimit:  historyLimit,
		activeThreads: make(map[string]string),
	}
}

// RegisterHandlers는 Discord 세션에 이벤트 핸들러를 등록합니다.
func (h *DiscordHandler) RegisterHandlers() {
	h.session.AddHandler(h.readyHandler)
	h.session.AddHandler(h.interactionRouter)
	h.session.AddHandler(h.messageCreateHandler)
}

// readyHandler는 봇이 Discord에 연결되었을 때 전역 애플리케이션 명령어를 등록합니다.
func (h *DiscordHandler) readyHandler(_ *discordgo.Session, r *discordgo.Ready) {
	h.logger.Info("Bot is ready! Registering commands...", zap.String("username", r.User.Username))

	simulationOption := func(required bool, desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: optSimulation, Description: desc, Required: required, Autocomplete: true}
	}
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        cmdSimulation,
			Description: "Docker 시뮬레이션 관리 명령어",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: subCmdCreate, Description: "새 시뮬레이션 스레드를 엽니다.", Options: []*discordgo.ApplicationCommandOption{{Type: discordgo.ApplicationCommandOptionString, Name: optTitle, Description: "시뮬레이션 제목"}}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: subCmdList, Description: "내 시뮬레이션 목록을 봅니다."},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: subCmdHistory, Description: "최근 실행한 명령을 봅니다.", Options: []*discordgo.ApplicationCommandOption{simulationOption(false, "조회할 시뮬레이션 (생략하면 현재 스레드)")}},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: subCmdDelete, Description: "시뮬레이션과 모든 리소스를 삭제합니다.", Options: []*discordgo.ApplicationCommandOption{simulationOption(true, "삭제할 시뮬레이션")}},
			},
		},
	}

	_, err := h.session.ApplicationCommandBulkOverwrite(h.session.State.User.ID, "", commands)
	if err != nil {
		h.logger.Error("Could not register commands", zap.Error(err))
	} else {
		h.logger.Info("Successfully registered commands.")
	}
}

// interactionRouter는 Discord 상호작용을 적절한 핸들러로 라우팅합니다.
func (h *DiscordHandler) interactionRouter(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleSlashCommand(i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		h.handleAutocomplete(i)
	}
}

// handleAutocomplete는 사용자의 시뮬레이션 목록으로 자동 완성 후보를 채웁니다.
func (h *DiscordHandler) handleAutocomplete(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	var focused *discordgo.ApplicationCommandInteractionDataOption
	for _, opt := range data.Options[0].Options {
		if opt.Focused {
			focused = opt
		}
	}
	if focused == nil {
		return
	}

	choices := []*discordgo.ApplicationCommandOptionChoice{}
	sims, err := h.dispatcher.Simulator().ListSimulations(context.Background(), interactionUserID(i))
	if err != nil {
		// 자동 완성에는 오류를 보여줄 수 없으므로 빈 후보로 응답합니다.
		h.logger.Error("Failed to list simulations for autocomplete", zap.Error(err))
	}
	prefix := strings.ToLower(focused.StringValue())
	for _, sim := range sims {
		if !strings.HasPrefix(strings.ToLower(sim.Title), prefix) && !strings.HasPrefix(sim.SimulationID, prefix) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: choiceName(sim.Title, sim.SimulationID), Value: sim.SimulationID})
		if len(choices) == maxChoices {
			break
		}
	}

	if err := h.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{Type: discordgo.InteractionApplicationCommandAutocompleteResult, Data: &discordgo.InteractionResponseData{Choices: choices}}); err != nil {
		h.logger.Error("Failed to send autocomplete response", zap.Error(err))
	}
}

// startSimulationThread는 새 시뮬레이션을 만들고 전용 스레드에 연결합니다.
func (h *DiscordHandler) startSimulationThread(i *discordgo.InteractionCreate, title string) {
	ctx := context.Background()
	userID := interactionUserID(i)
	sim, err := h.dispatcher.Simulator().CreateSimulation(ctx, title, userID)
	if err != nil {
		h.logger.Error("Failed to create simulation", zap.Error(err), zap.String("user_id", userID))
		h.respondEphemeral(i, fmt.Sprintf("오류: 시뮬레이션을 만들지 못했어요. 에러: %v", err))
		return
	}

	h.respondEphemeral(i, fmt.Sprintf("'**%s**' 시뮬레이션 스레드를 생성 중...", sim.Title))

	thread, err := h.session.ThreadStart(i.ChannelID, fmt.Sprintf("[docker] %s", sim.Title), discordgo.ChannelTypeGuildPublicThread, threadArchive)
	if err != nil {
		h.logger.Error("Failed to create thread", zap.Error(err), zap.String("simulation_id", sim.SimulationID))
		return
	}
	if err := h.dispatcher.Simulator().BindChannel(ctx, sim.SimulationID, thread.ID); err != nil {
		h.logger.Error("Failed to bind thread to simulation", zap.Error(err),
			zap.String("simulation_id", sim.SimulationID),
			zap.String("thread_id", thread.ID),
		)
		return
	}

	h.threadsMutex.Lock()
	h.activeThreads[thread.ID] = sim.SimulationID
	h.threadsMutex.Unlock()

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("'%s' 시뮬레이션 시작", sim.Title),
		Description: "이 스레드에 `docker`로 시작하는 명령을 입력하세요. 예: `docker run -d --name web -p 8080:80 nginx`",
		Color:       colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "시뮬레이션 ID", Value: sim.SimulationID, Inline: true},
			{Name: "기본 네트워크", Value: "bridge, host, none", Inline: true},
		},
	}
	if _, err := h.session.ChannelMessageSendEmbed(thread.ID, embed); err != nil {
		h.logger.Error("Failed to send initial thread message", zap.Error(err), zap.String("thread_id", thread.ID))
	}
}

// showSimulationList는 요청한 사용자의 시뮬레이션 목록을 표시합니다.
func (h *DiscordHandler) showSimulationList(i *discordgo.InteractionCreate) {
	sims, err := h.dispatcher.Simulator().ListSimulations(context.Background(), interactionUserID(i))
	if err != nil {
		h.logger.Error("Failed to list simulations", zap.Error(err))
		h.respondEphemeral(i, fmt.Sprintf("오류: 시뮬레이션 목록을 불러오는 데 실패했어요. 에러: %v", err))
		return
	}
	if len(sims) == 0 {
		h.respondEphemeral(i, "만든 시뮬레이션이 아직 없어요. `/simulation create`로 먼저 생성해주세요!")
		return
	}

	fields := []*discordgo.MessageEmbedField{}
	for _, sim := range sims {
		if len(fields) == maxChoices {
			break
		}
		value := fmt.Sprintf("`%s`", sim.SimulationID)
		if sim.ChannelID != "" {
			value += fmt.Sprintf(" · <#%s>", sim.ChannelID)
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: sim.Title, Value: value})
	}
	err = h.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{Title: "내 시뮬레이션 목록", Fields: fields, Color: colorInfo}},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Error("Failed to show simulation list", zap.Error(err))
	}
}

// showHistory는 시뮬레이션의 최근 명령 기록을 표시합니다. simulationID가 비어 있으면 현재 스레드의 시뮬레이션입니다.
func (h *DiscordHandler) showHistory(i *discordgo.InteractionCreate, simulationID string) {
	ctx := context.Background()
	if simulationID == "" {
		simulationID = h.resolveSimulation(ctx, i.ChannelID)
	}
	if simulationID == "" {
		h.respondEphemeral(i, "이 채널에는 연결된 시뮬레이션이 없어요. 시뮬레이션을 지정해주세요.")
		return
	}

	rows, err := h.dispatcher.Simulator().History(ctx, simulationID, h.historyLimit)
	if err != nil {
		code, msg := dispatch.Describe(err)
		h.respondEphemeral(i, formatError(code, msg))
		return
	}
	h.respondEphemeral(i, formatHistory(rows))
}

// deleteSimulation은 사용자가 소유한 시뮬레이션을 삭제합니다.
func (h *DiscordHandler) deleteSimulation(i *discordgo.InteractionCreate, simulationID string) {
	ctx := context.Background()
	sim, err := h.dispatcher.Simulator().GetSimulation(ctx, simulationID)
	if err != nil {
		code, msg := dispatch.Describe(err)
		h.respondEphemeral(i, formatError(code, msg))
		return
	}
	if sim.OwnerID != interactionUserID(i) {
		h.respondEphemeral(i, "다른 사용자의 시뮬레이션은 삭제할 수 없어요.")
		return
	}
	if err := h.dispatcher.Simulator().DeleteSimulation(ctx, simulationID); err != nil {
		h.logger.Error("Failed to delete simulation", zap.Error(err), zap.String("simulation_id", simulationID))
		h.respondEphemeral(i, fmt.Sprintf("오류: 시뮬레이션 '**%s**'을(를) 삭제하는 데 실패했어요. 에러: %v", sim.Title, err))
		return
	}

	h.threadsMutex.Lock()
	for threadID, id := range h.activeThreads {
		if id == simulationID {
			delete(h.activeThreads, threadID)
		}
	}
	h.threadsMutex.Unlock()
	h.respondEphemeral(i, fmt.Sprintf("시뮬레이션 '**%s**'이(가) 삭제되었어요.", sim.Title))
}

// messageCreateHandler는 시뮬레이션 스레드에 올라온 docker 명령을 실행합니다.
func (h *DiscordHandler) messageCreateHandler(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == h.session.State.User.ID {
		return
	}
	input := strings.TrimSpace(m.Content)
	if !isDockerCommand(input) {
		return
	}

	ctx := context.Background()
	simulationID := h.resolveSimulation(ctx, m.ChannelID)
	if simulationID == "" {
		return
	}
	h.runInThread(ctx, m.Message, simulationID, input)
}

// runInThread는 명령을 실행하고 결과를 코드 블록으로 답장합니다.
func (h *DiscordHandler) runInThread(ctx context.Context, m *discordgo.Message, simulationID, input string) {
	h.logger.Info("Processing command in thread",
		zap.String("simulation_id", simulationID),
		zap.String("thread_id", m.ChannelID),
		zap.String("user_id", m.Author.ID),
		zap.String("command", input),
	)

	res, err := h.dispatcher.Execute(ctx, dispatch.Principal{UserID: m.Author.ID, SimulationID: simulationID}, input)
	for idx, chunk := range formatReply(res, err) {
		var sendErr error
		if idx == 0 {
			_, sendErr = h.session.ChannelMessageSendReply(m.ChannelID, chunk, m.Reference())
		} else {
			_, sendErr = h.session.ChannelMessageSend(m.ChannelID, chunk)
		}
		if sendErr != nil {
			h.logger.Error("Failed to send command output to Discord",
				zap.String("thread_id", m.ChannelID),
				zap.Int("chunk_index", idx),
				zap.Error(sendErr),
			)
			return
		}
	}
}

// resolveSimulation은 채널에 연결된 시뮬레이션 ID를 찾습니다. 캐시에 없으면 저장소를 조회합니다.
func (h *DiscordHandler) resolveSimulation(ctx context.Context, channelID string) string {
	h.threadsMutex.RLock()
	simulationID, ok := h.activeThreads[channelID]
	h.threadsMutex.RUnlock()
	if ok {
		return simulationID
	}

	sim, err := h.dispatcher.Simulator().SimulationForChannel(ctx, channelID)
	if err != nil {
		if !errors.Is(err, simulator.ErrSimulationNotFound) {
			h.logger.Error("Failed to look up simulation for channel", zap.Error(err), zap.String("channel_id", channelID))
		}
		return ""
	}

	h.threadsMutex.Lock()
	h.activeThreads[channelID] = sim.SimulationID
	h.threadsMutex.Unlock()
	return sim.SimulationID
}

// respondEphemeral은 사용자에게만 보이는 임시 메시지를 전송합니다.
func (h *DiscordHandler) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := h.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseChannelMessageWithSource, Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral}})
	if err != nil {
		h.logger.Error("Failed to send ephemeral message", zap.Error(err))
	}
}

// interactionUserID는 길드와 DM 상호작용 모두에서 호출한 사용자 ID를 꺼냅니다.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// isDockerCommand는 메시지가 docker 명령으로 시작하는지 확인합니다.
func isDockerCommand(input string) bool {
	if !strings.HasPrefix(input, commandPrefix) {
		return false
	}
	rest := input[len(commandPrefix):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n'
}

func choiceName(title, simulationID string) string {
	short := simulationID
	if len(short) > 8 {
		short = short[:8]
	}
	suffix := " (" + short + ")"
	budget := maxChoiceName - len(suffix)
	if len(title) > budget {
		title = truncateRunes(title, budget)
	}
	return title + suffix
}
