package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dockersim/app/internal/dispatch"
	"github.com/dockersim/app/internal/simulator"
	"github.com/dockersim/app/internal/storage"
	"github.com/spf13/cobra"
)

func buildSimulationCommands(a *app) *cobra.Command {
	simCmd := &cobra.Command{
		Use:     "simulation",
		Aliases: []string{"sim"},
		Short:   "시뮬레이션 관리 명령어",
		Long:    "시뮬레이션 생성, 조회, 삭제와 명령 기록 조회 기능을 제공합니다.",
	}

	var owner string

	// simulation create
	simCreateCmd := &cobra.Command{
		Use:   "create [title]",
		Short: "새로운 시뮬레이션 생성",
		Long:  "기본 네트워크(bridge, host, none)가 준비된 빈 시뮬레이션을 만듭니다.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) == 1 {
				title = normalizeInput(strings.TrimSpace(args[0]))
			}
			return a.runSimulationCreate(cmd.OutOrStdout(), title, owner)
		},
	}
	simCreateCmd.Flags().StringVar(&owner, "owner", "", "소유자 ID (기본값: 설정의 default_user)")

	// simulation list
	simListCmd := &cobra.Command{
		Use:   "list",
		Short: "시뮬레이션 목록 조회",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulationList(cmd.OutOrStdout(), owner)
		},
	}
	simListCmd.Flags().StringVar(&owner, "owner", "", "소유자 ID (기본값: 설정의 default_user)")

	// simulation view
	simViewCmd := &cobra.Command{
		Use:   "view <simulation-id>",
		Short: "시뮬레이션 상세 정보 조회",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulationView(cmd.OutOrStdout(), args[0])
		},
	}

	// simulation delete
	var yes bool
	simDeleteCmd := &cobra.Command{
		Use:   "delete <simulation-id>",
		Short: "시뮬레이션 삭제",
		Long:  "시뮬레이션과 그 안의 모든 이미지, 컨테이너, 네트워크, 볼륨을 삭제합니다.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulationDelete(cmd.InOrStdin(), cmd.OutOrStdout(), args[0], yes)
		},
	}
	simDeleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "확인 없이 삭제")

	// simulation history
	var limit int
	simHistoryCmd := &cobra.Command{
		Use:   "history <simulation-id>",
		Short: "명령 기록 조회",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulationHistory(cmd.OutOrStdout(), args[0], limit)
		},
	}
	simHistoryCmd.Flags().IntVarP(&limit, "limit", "n", 0, "보여줄 명령 수 (기본값: 설정의 history_limit)")

	simCmd.AddCommand(simCreateCmd)
	simCmd.AddCommand(simListCmd)
	simCmd.AddCommand(simViewCmd)
	simCmd.AddCommand(simDeleteCmd)
	simCmd.AddCommand(simHistoryCmd)

	return simCmd
}

func (a *app) ownerOrDefault(owner string) string {
	if owner == "" {
		return a.config.Simulator.DefaultUser
	}
	return owner
}

func (a *app) runSimulationCreate(out io.Writer, title, owner string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	d, cleanup, err := a.newDispatcher()
	if err != nil {
		return fmt.Errorf("디스패처 초기화 실패: %w", err)
	}
	defer cleanup()

	sim, err := d.Simulator().CreateSimulation(ctx, title, a.ownerOrDefault(owner))
	if err != nil {
		return fmt.Errorf("시뮬레이션 생성 실패: %w", err)
	}

	fmt.Fprintf(out, "✓ 시뮬레이션 '%s' 생성 완료\n", sim.Title)
	fmt.Fprintf(out, "ID: %s\n", sim.SimulationID)
	return nil
}

func (a *app) runSimulationList(out io.Writer, owner string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	d, cleanup, err := a.newDispatcher()
	if err != nil {
		return fmt.Errorf("디스패처 초기화 실패: %w", err)
	}
	defer cleanup()

	sims, err := d.Simulator().ListSimulations(ctx, a.ownerOrDefault(owner))
	if err != nil {
		return fmt.Errorf("시뮬레이션 목록 조회 실패: %w", err)
	}

	if len(sims) == 0 {
		fmt.Fprintln(out, "등록된 시뮬레이션이 없습니다.")
		return nil
	}

	writeSimulationTable(out, sims)
	return nil
}

// writeSimulationTable은 시뮬레이션 목록을 표 형식으로 출력합니다.
func writeSimulationTable(out io.Writer, sims []storage.Simulation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tCHANNEL\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t-------\t-------")

	for _, sim := range sims {
		title := sim.Title
		if len([]rune(title)) > 40 {
			title = string([]rune(title)[:37]) + "..."
		}
		channel := sim.ChannelID
		if channel == "" {
			channel = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			sim.SimulationID,
			title,
			channel,
			sim.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func (a *app) runSimulationView(out io.Writer, simulationID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	d, cleanup, err := a.newDispatcher()
	if err != nil {
		return fmt.Errorf("디스패처 초기화 실패: %w", err)
	}
	defer cleanup()

	s := d.Simulator()
	sim, err := s.GetSimulation(ctx, simulationID)
	if err != nil {
		return fmt.Errorf("시뮬레이션 조회 실패: %w", err)
	}

	counts, err := resourceCounts(ctx, s, simulationID)
	if err != nil {
		return fmt.Errorf("리소스 조회 실패: %w", err)
	}

	fmt.Fprintf(out, "=== 시뮬레이션 정보: %s ===\n\n", sim.Title)
	fmt.Fprintf(out, "ID:          %s\n", sim.SimulationID)
	fmt.Fprintf(out, "소유자:      %s\n", sim.OwnerID)
	if sim.ChannelID != "" {
		fmt.Fprintf(out, "채널:        %s\n", sim.ChannelID)
	}
	fmt.Fprintf(out, "컨테이너:    %d\n", counts.containers)
	fmt.Fprintf(out, "이미지:      %d\n", counts.images)
	fmt.Fprintf(out, "네트워크:    %d\n", counts.networks)
	fmt.Fprintf(out, "볼륨:        %d\n", counts.volumes)
	fmt.Fprintf(out, "생성일:      %s\n", sim.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "수정일:      %s\n", sim.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

type simulationCounts struct {
	containers, images, networks, volumes int
}

// resourceCounts는 quiet 목록 출력의 줄 수로 리소스 개수를 셉니다. 명령 기록에는 남지 않습니다.
func resourceCounts(ctx context.Context, s *simulator.Simulator, simulationID string) (simulationCounts, error) {
	var counts simulationCounts

	containers, err := s.ListContainers(ctx, simulationID, simulator.ContainerListOptions{All: true, Quiet: true})
	if err != nil {
		return counts, err
	}
	images, err := s.ListImages(ctx, simulationID, simulator.ImageListOptions{All: true, Quiet: true})
	if err != nil {
		return counts, err
	}
	networks, err := s.ListNetworks(ctx, simulationID, simulator.ListOptions{Quiet: true})
	if err != nil {
		return counts, err
	}
	volumes, err := s.ListVolumes(ctx, simulationID, simulator.ListOptions{Quiet: true})
	if err != nil {
		return counts, err
	}

	counts.containers = len(containers.Lines)
	counts.images = len(images.Lines)
	counts.networks = len(networks.Lines)
	counts.volumes = len(volumes.Lines)
	return counts, nil
}

func (a *app) runSimulationDelete(in io.Reader, out io.Writer, simulationID string, yes bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	d, cleanup, err := a.newDispatcher()
	if err != nil {
		return fmt.Errorf("디스패처 초기화 실패: %w", err)
	}
	defer cleanup()

	sim, err := d.Simulator().GetSimulation(ctx, simulationID)
	if err != nil {
		return fmt.Errorf("시뮬레이션 조회 실패: %w", err)
	}

	if !yes {
		fmt.Fprintf(out, "시뮬레이션 '%s'을(를) 삭제하시겠습니까? (y/N): ", sim.Title)
		reader := bufio.NewReader(in)
		confirm, _ := reader.ReadString('\n')
		confirm = strings.TrimSpace(strings.ToLower(confirm))

		if confirm != "y" && confirm != "yes" {
			fmt.Fprintln(out, "취소되었습니다.")
			return nil
		}
	}

	if err := d.Simulator().DeleteSimulation(ctx, simulationID); err != nil {
		return fmt.Errorf("시뮬레이션 삭제 실패: %w", err)
	}

	fmt.Fprintf(out, "✓ 시뮬레이션 '%s' 삭제 완료\n", sim.Title)
	return nil
}

func (a *app) runSimulationHistory(out io.Writer, simulationID string, limit int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	if limit <= 0 {
		limit = a.config.Simulator.HistoryLimit
	}

	d, cleanup, err := a.newDispatcher()
	if err != nil {
		return fmt.Errorf("디스패처 초기화 실패: %w", err)
	}
	defer cleanup()

	rows, err := d.Simulator().History(ctx, simulationID, limit)
	if err != nil {
		code, msg := dispatch.Describe(err)
		return fmt.Errorf("기록 조회 실패 [%s]: %s", code, msg)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "실행한 명령이 없습니다.")
		return nil
	}

	writeHistoryTable(out, rows)
	return nil
}

// writeHistoryTable은 명령 기록을 실행 순서대로 표 형식으로 출력합니다.
func writeHistoryTable(out io.Writer, rows []storage.CommandHistory) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tUSER\tRESULT\tCOMMAND")
	_, _ = fmt.Fprintln(w, "----\t----\t------\t-------")

	for _, row := range rows {
		result := "ok"
		if !row.Success {
			result = row.ErrorCode
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			row.CreatedAt.Format("2006-01-02 15:04:05"),
			row.UserID,
			result,
			row.Command,
		)
	}
	_ = w.Flush()
}
