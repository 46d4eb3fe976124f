package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dockersim/app/internal/command"
	"github.com/dockersim/app/internal/dispatch"
	"github.com/dockersim/app/internal/simulator"
	"github.com/dockersim/app/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestChunkMessage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int
		want    []string
	}{
		{"짧은 메시지", "hello", 10, []string{"hello"}},
		{"줄 경계에서 분할", "aaaa\nbbbb\ncccc", 9, []string{"aaaa\nbbbb", "cccc"}},
		{"긴 한 줄", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"한글은 문자 경계에서 분할", "가나다라", 7, []string{"가나", "다라"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkMessage(tt.content, tt.limit))
		})
	}
}

func TestChunkMessage_RespectsLimit(t *testing.T) {
	var lines []string
	for i := 0; i < 300; i++ {
		lines = append(lines, fmt.Sprintf("line %03d 컨테이너 로그", i))
	}
	content := strings.Join(lines, "\n")

	chunks := chunkMessage(content, maxMessageLength)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), maxMessageLength)
		assert.True(t, utf8.ValidString(chunk))
	}
	assert.Equal(t, content, strings.Join(chunks, "\n"))
}

func TestCodeBlocks(t *testing.T) {
	blocks := codeBlocks(strings.Repeat("x\n", 1500), maxMessageLength)
	require.Len(t, blocks, 2)
	for _, block := range blocks {
		assert.True(t, strings.HasPrefix(block, "```\n"))
		assert.True(t, strings.HasSuffix(block, "\n```"))
		assert.LessOrEqual(t, len(block), maxMessageLength)
	}

	escaped := codeBlocks("echo ```", maxMessageLength)
	require.Len(t, escaped, 1)
	assert.Equal(t, 2, strings.Count(escaped[0], "```"))
}

func TestFormatReply(t *testing.T) {
	out := formatReply(&dispatch.Result{Console: []string{"CONTAINER ID   IMAGE", "abc   nginx"}}, nil)
	assert.Equal(t, []string{"```\nCONTAINER ID   IMAGE\nabc   nginx\n```"}, out)

	assert.Equal(t, []string{noOutput}, formatReply(&dispatch.Result{Console: []string{}}, nil))

	parseErr := &command.Error{Code: command.CodeEmptyCommand}
	out = formatReply(nil, parseErr)
	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0], "❌ **EMPTY_COMMAND**: "))

	out = formatReply(nil, errors.New("boom"))
	assert.Contains(t, out[0], dispatch.CodeInternal)
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "아직 실행한 명령이 없어요.", formatHistory(nil))

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := []storage.CommandHistory{
		{Command: "docker ps", Success: true, CreatedAt: at},
		{Command: "docker stop ghost", ErrorCode: "C001", CreatedAt: at},
	}
	got := formatHistory(rows)
	assert.Contains(t, got, "03-01 09:30:00  ✔ docker ps")
	assert.Contains(t, got, "✘ docker stop ghost [C001]")

	var many []storage.CommandHistory
	for i := 0; i < 200; i++ {
		many = append(many, storage.CommandHistory{Command: "docker logs --tail 100 my-long-container-name", Success: true, CreatedAt: at})
	}
	got = formatHistory(many)
	assert.LessOrEqual(t, len(got), maxMessageLength)
	assert.Contains(t, got, "더 있음")
}

func TestIsDockerCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"docker ps", true},
		{"docker", true},
		{"docker\tps", true},
		{"dockerfile 좀 봐주세요", false},
		{"hello docker ps", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isDockerCommand(tt.input), tt.input)
	}
}

func TestChoiceName(t *testing.T) {
	assert.Equal(t, "demo (0123abcd)", choiceName("demo", "0123abcd-ef45"))

	long := choiceName(strings.Repeat("가", 60), "0123abcd-ef45")
	assert.LessOrEqual(t, len(long), maxChoiceName)
	assert.True(t, utf8.ValidString(long))
	assert.True(t, strings.HasSuffix(long, " (0123abcd)"))
}

func TestResolveSimulation(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:TestResolveSimulation?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, storage.AutoMigrate(db))
	t.Cleanup(func() { _ = storage.Close(db) })

	repo, err := storage.NewRepository(db)
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	sim, err := simulator.NewSimulator(logger, repo)
	require.NoError(t, err)
	d, err := dispatch.NewDispatcher(logger, sim)
	require.NoError(t, err)

	ctx := context.Background()
	created, err := sim.CreateSimulation(ctx, "thread", "alice")
	require.NoError(t, err)
	require.NoError(t, sim.BindChannel(ctx, created.SimulationID, "thread-1"))

	h := NewDiscordHandler(logger, nil, d, 0)
	assert.Equal(t, defaultHistory, h.historyLimit)
	assert.Equal(t, created.SimulationID, h.resolveSimulation(ctx, "thread-1"))
	assert.Equal(t, created.SimulationID, h.activeThreads["thread-1"])
	assert.Empty(t, h.resolveSimulation(ctx, "elsewhere"))
}
