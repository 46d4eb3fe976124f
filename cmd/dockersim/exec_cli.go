package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dockersim/app/internal/dispatch"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"
)

// normalizeInput은 입력 문자열을 유니코드 NFC로 정규화합니다.
// 조합 중인 한글을 완성된 음절로 바꾸고, 단독 자음/모음(U+1100-U+11FF, U+3131-U+318E)은 제거합니다.
func normalizeInput(s string) string {
	normalized := norm.NFC.String(s)

	var filtered []rune
	for _, r := range normalized {
		if (r >= 0x1100 && r <= 0x11FF) || (r >= 0x3131 && r <= 0x318E) {
			continue
		}
		filtered = append(filtered, r)
	}

	return string(filtered)
}

// joinArgs는 셸이 이미 나눈 인자들을 토크나이저가 같은 토큰으로 다시 읽을 수 있는 문자열로 합칩니다.
func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg != "" && !strings.ContainsAny(arg, " \t\n\r\v\f'\"\\") {
			quoted[i] = arg
			continue
		}
		escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(arg)
		quoted[i] = "'" + escaped + "'"
	}
	return strings.Join(quoted, " ")
}

// commandInput은 exec 인자를 명령 문자열로 바꿉니다. 인자가 하나면 그대로 명령 문자열로 씁니다.
func commandInput(args []string) string {
	if len(args) == 1 {
		return normalizeInput(strings.TrimSpace(args[0]))
	}
	return normalizeInput(joinArgs(args))
}

func buildExecCommand(a *app) *cobra.Command {
	var simulationID, userID string

	execCmd := &cobra.Command{
		Use:   "exec --simulation <id> -- <docker command...>",
		Short: "docker 명령 한 번 실행",
		Long: `시뮬레이션에서 docker 명령을 한 번 실행하고 콘솔 출력을 보여줍니다.
명령은 하나의 따옴표 문자열로 주거나 -- 뒤에 이어서 쓸 수 있습니다.

  dockersim exec -s <id> "docker run -d --name web nginx"
  dockersim exec -s <id> -- docker ps -a`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExec(cmd.OutOrStdout(), cmd.ErrOrStderr(), simulationID, userID, commandInput(args))
		},
	}
	execCmd.Flags().StringVarP(&simulationID, "simulation", "s", "", "시뮬레이션 ID")
	execCmd.Flags().StringVarP(&userID, "user", "u", "", "명령 기록에 남길 사용자 ID (기본값: 설정의 default_user)")
	_ = execCmd.MarkFlagRequired("simulation")

	return execCmd
}

func buildShellCommand(a *app) *cobra.Command {
	var simulationID, userID string

	shellCmd := &cobra.Command{
		Use:   "shell --simulation <id>",
		Short: "대화형 docker 셸",
		Long:  "시뮬레이션에 연결된 대화형 셸을 엽니다. exit 또는 quit로 종료합니다.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), simulationID, userID)
		},
	}
	shellCmd.Flags().StringVarP(&simulationID, "simulation", "s", "", "시뮬레이션 ID")
	shellCmd.Flags().StringVarP(&userID, "user", "u", "", "명령 기록에 남길 사용자 ID (기본값: 설정의 default_user)")
	_ = shellCmd.MarkFlagRequired("simulation")

	return shellCmd
}

func (a *app) principal(simulationID, userID string) dispatch.Principal {
	if userID == "" {
		userID = a.config.Simulator.DefaultUser
	}
	return dispatch.Principal{UserID: userID, SimulationID: simulationID}
}

func (a *app) runExec(stdout, stderr io.Writer, simulationID, userID, input string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	d, cleanup, err := a.newDispatcher()
	if err != nil {
		return fmt.Errorf("디스패처 초기화 실패: %w", err)
	}
	defer cleanup()

	if !printResult(ctx, d, a.principal(simulationID, userID), input, stdout, stderr) {
		return errReported
	}
	return nil
}

func (a *app) runShell(stdin io.Reader, stdout, stderr io.Writer, simulationID, userID string) error {
	d, cleanup, err := a.newDispatcher()
	if err != nil {
		return fmt.Errorf("디스패처 초기화 실패: %w", err)
	}
	defer cleanup()

	sim, err := d.Simulator().GetSimulation(context.Background(), simulationID)
	if err != nil {
		code, msg := dispatch.Describe(err)
		fmt.Fprintf(stderr, "Error [%s]: %s\n", code, msg)
		return errReported
	}

	principal := a.principal(simulationID, userID)
	fmt.Fprintf(stdout, "'%s' 시뮬레이션에 연결되었습니다. exit 또는 quit로 종료합니다.\n", sim.Title)

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprintf(stdout, "%s$ ", sim.Title)
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			break
		}
		line := normalizeInput(strings.TrimSpace(scanner.Text()))
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		printResult(ctx, d, principal, line, stdout, stderr)
		cancel()
	}
	return scanner.Err()
}

// printResult는 명령을 실행해 콘솔 출력은 stdout에, 오류는 stderr에 씁니다. 성공 여부를 반환합니다.
func printResult(ctx context.Context, d *dispatch.Dispatcher, principal dispatch.Principal, input string, stdout, stderr io.Writer) bool {
	res, err := d.Execute(ctx, principal, input)
	if err != nil {
		code, msg := dispatch.Describe(err)
		fmt.Fprintf(stderr, "Error [%s]: %s\n", code, msg)
		return false
	}
	for _, line := range res.Console {
		fmt.Fprintln(stdout, line)
	}
	return true
}
