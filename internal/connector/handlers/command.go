package handlers

import "github.com/bwmarrin/discordgo"

// handleSlashCommand는 '/simulation' 슬래시 명령어를 처리합니다.
func (h *DiscordHandler) handleSlashCommand(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != cmdSimulation || len(data.Options) == 0 {
		return
	}
	subCommand := data.Options[0]
	switch subCommand.Name {
	case subCmdCreate:
		h.startSimulationThread(i, stringOption(subCommand, optTitle))
	case subCmdList:
		h.showSimulationList(i)
	case subCmdHistory:
		h.showHistory(i, stringOption(subCommand, optSimulation))
	case subCmdDelete:
		h.deleteSimulation(i, stringOption(subCommand, optSimulation))
	}
}

// stringOption은 하위 명령어의 문자열 옵션 값을 찾습니다. 없으면 빈 문자열입니다.
func stringOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}
