package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dockersim/app/internal/command"
	"github.com/dockersim/app/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	return &app{
		config: &common.Config{
			Database: common.DatabaseConfig{
				DSN:          filepath.Join(t.TempDir(), "dockersim.db"),
				MaxOpenConns: 1,
			},
			Simulator: common.SimulatorConfig{HistoryLimit: 20, DefaultUser: "local"},
		},
		logger: zaptest.NewLogger(t),
	}
}

func TestNormalizeInput(t *testing.T) {
	decomposed := "\u1100\u1161"
	assert.Equal(t, "가", normalizeInput(decomposed))
	assert.Equal(t, "docker ps", normalizeInput("docker ps"))
	assert.Equal(t, "웹", normalizeInput("웹\u3142"))
}

func TestJoinArgs_RoundTrip(t *testing.T) {
	tests := [][]string{
		{"docker", "ps", "-a"},
		{"docker", "exec", "web", "sh", "-c", "echo $HOSTNAME"},
		{"docker", "run", "-e", "MSG=it's ok", "alpine"},
		{"docker", "run", "alpine", "echo", `a\b "c"`},
	}
	for _, args := range tests {
		tokens, err := command.Tokenize(joinArgs(args))
		require.NoError(t, err, args)
		assert.Equal(t, args, tokens)
	}
}

func TestCommandInput(t *testing.T) {
	assert.Equal(t, "docker run -d nginx", commandInput([]string{"  docker run -d nginx "}))
	assert.Equal(t, "docker exec web sh -c 'echo hi'", commandInput([]string{"docker", "exec", "web", "sh", "-c", "echo hi"}))
}

func TestSimulationLifecycle(t *testing.T) {
	a := newTestApp(t)

	var out bytes.Buffer
	require.NoError(t, a.runSimulationCreate(&out, "실습", ""))
	assert.Contains(t, out.String(), "✓ 시뮬레이션 '실습' 생성 완료")
	var simulationID string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "ID: ") {
			simulationID = strings.TrimPrefix(line, "ID: ")
		}
	}
	require.NotEmpty(t, simulationID)

	out.Reset()
	var errOut bytes.Buffer
	require.NoError(t, a.runExec(&out, &errOut, simulationID, "", "docker volume create data"))
	assert.Equal(t, "data\n", out.String())
	assert.Empty(t, errOut.String())

	out.Reset()
	err := a.runExec(&out, &errOut, simulationID, "", "docker volume rm ghost")
	assert.ErrorIs(t, err, errReported)
	assert.True(t, strings.HasPrefix(errOut.String(), "Error [V001]: "))

	out.Reset()
	require.NoError(t, a.runSimulationView(&out, simulationID))
	assert.Contains(t, out.String(), "볼륨:        1")
	assert.Contains(t, out.String(), "네트워크:    3")
	assert.Contains(t, out.String(), "소유자:      local")

	out.Reset()
	require.NoError(t, a.runSimulationHistory(&out, simulationID, 0))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "TIME"))
	assert.Contains(t, lines[2], "ok")
	assert.Contains(t, lines[2], "docker volume create data")
	assert.Contains(t, lines[3], "V001")

	out.Reset()
	require.NoError(t, a.runSimulationList(&out, ""))
	assert.Contains(t, out.String(), simulationID)

	out.Reset()
	require.NoError(t, a.runSimulationDelete(strings.NewReader("n\n"), &out, simulationID, false))
	assert.Contains(t, out.String(), "취소되었습니다.")

	out.Reset()
	require.NoError(t, a.runSimulationDelete(nil, &out, simulationID, true))
	assert.Contains(t, out.String(), "삭제 완료")

	out.Reset()
	require.NoError(t, a.runSimulationList(&out, ""))
	assert.Equal(t, "등록된 시뮬레이션이 없습니다.\n", out.String())
}

func TestRunShell(t *testing.T) {
	a := newTestApp(t)

	var out bytes.Buffer
	require.NoError(t, a.runSimulationCreate(&out, "shell", "local"))
	simulationID := strings.TrimPrefix(strings.Split(strings.TrimSpace(out.String()), "\n")[1], "ID: ")

	out.Reset()
	var errOut bytes.Buffer
	input := strings.NewReader("docker network create app\n\ndocker network create app\nexit\ndocker ps\n")
	require.NoError(t, a.runShell(input, &out, &errOut, simulationID, ""))

	assert.Contains(t, out.String(), "'shell' 시뮬레이션에 연결되었습니다.")
	assert.Contains(t, errOut.String(), "Error [N002]: ")
	assert.Equal(t, 1, strings.Count(errOut.String(), "Error ["))

	var errOut2 bytes.Buffer
	err := a.runShell(strings.NewReader(""), &out, &errOut2, "missing", "")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut2.String(), "S001")
}
