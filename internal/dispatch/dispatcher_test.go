package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

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

func newTestDispatcher(t *testing.T) (*dispatch.Dispatcher, dispatch.Principal) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
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

	created, err := sim.CreateSimulation(context.Background(), "dispatch", "alice")
	require.NoError(t, err)
	return d, dispatch.Principal{UserID: "alice", SimulationID: created.SimulationID}
}

func mustExecute(t *testing.T, d *dispatch.Dispatcher, p dispatch.Principal, raw string) *dispatch.Result {
	t.Helper()
	res, err := d.Execute(context.Background(), p, raw)
	require.NoError(t, err, raw)
	require.NotNil(t, res)
	return res
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	got, _ := dispatch.Describe(err)
	assert.Equal(t, code, got, err.Error())
}

func TestNewDispatcher_RequiresSimulator(t *testing.T) {
	_, err := dispatch.NewDispatcher(zaptest.NewLogger(t), nil)
	assert.Error(t, err)
}

func TestDispatcher_HandlesEveryGrammarVerb(t *testing.T) {
	d, _ := newTestDispatcher(t)
	for _, group := range command.Groups() {
		for _, verb := range command.GroupVerbs(group) {
			assert.True(t, d.Handles(group, verb), "%s %s", group, verb)
		}
	}
}

func TestExecute_RunScenario(t *testing.T) {
	d, p := newTestDispatcher(t)

	res := mustExecute(t, d, p, "docker run -d --name web -p 8080:80 nginx:latest")
	assert.Equal(t, dispatch.StatusCreate, res.Status)
	require.NotEmpty(t, res.Console)
	hexID := res.Console[len(res.Console)-1]
	assert.Len(t, hexID, 64)
	assert.Equal(t, "Unable to find image 'nginx:latest' locally", res.Console[0])

	require.Len(t, res.Changed, 2)
	assert.Equal(t, simulator.KindImage, res.Changed[0].Kind)
	assert.Equal(t, simulator.KindContainer, res.Changed[1].Kind)
	assert.Equal(t, "web", res.Changed[1].Name)
	assert.Equal(t, hexID[:12], res.Changed[1].ID)

	ps := mustExecute(t, d, p, "docker ps")
	assert.Equal(t, dispatch.StatusRead, ps.Status)
	require.Len(t, ps.Console, 2)
	assert.Contains(t, ps.Console[1], "0.0.0.0:8080->80/tcp")
	assert.True(t, strings.HasSuffix(ps.Console[1], "web"))

	exec := mustExecute(t, d, p, "docker exec web sh -c 'echo $HOSTNAME'")
	assert.Equal(t, []string{hexID[:12]}, exec.Console)
}

func TestExecute_AnonymousVolumeCreate(t *testing.T) {
	d, p := newTestDispatcher(t)

	res := mustExecute(t, d, p, "docker volume create")
	assert.Equal(t, dispatch.StatusCreate, res.Status)
	require.Len(t, res.Console, 1)
	assert.Len(t, res.Console[0], 64)
	require.Len(t, res.Changed, 1)
	assert.Equal(t, simulator.KindVolume, res.Changed[0].Kind)

	named := mustExecute(t, d, p, "docker volume create --name data")
	assert.Equal(t, []string{"data"}, named.Console)
}

func TestExecute_ParseErrors(t *testing.T) {
	d, p := newTestDispatcher(t)

	tests := []struct {
		name     string
		input    string
		code     string
		contains string
	}{
		{"빈 명령", "", "EMPTY_COMMAND", "명령어가 입력되지 않았습니다"},
		{"docker 없음", "kubectl get pods", "NOT_START_WITH_DOCKER", "'docker'"},
		{"connect 인자 부족", "docker network connect net1", "MISSING_ARGUMENT", "네트워크 이름과 컨테이너 이름이"},
		{"exec 인자 부족", "docker exec mycontainer", "MISSING_ARGUMENT", "컨테이너 이름과 실행할 명령어가"},
		{"알 수 없는 하위 명령", "docker volume mount x", "UNKNOWN_SUBCOMMAND", "create, rm, ls, inspect, prune"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := d.Execute(context.Background(), p, tt.input)
			assert.Nil(t, res)
			requireCode(t, err, tt.code)
			_, msg := dispatch.Describe(err)
			assert.Contains(t, msg, tt.contains)
			assert.Equal(t, http.StatusBadRequest, dispatch.HTTPStatus(err))
		})
	}
}

func TestExecute_DomainErrors(t *testing.T) {
	d, p := newTestDispatcher(t)

	_, err := d.Execute(context.Background(), p, "docker stop ghost")
	requireCode(t, err, "C001")
	assert.Equal(t, http.StatusNotFound, dispatch.HTTPStatus(err))

	mustExecute(t, d, p, "docker create --name idle alpine")
	_, err = d.Execute(context.Background(), p, "docker pause idle")
	requireCode(t, err, "C003")
	assert.Equal(t, http.StatusConflict, dispatch.HTTPStatus(err))
	_, msg := dispatch.Describe(err)
	assert.Contains(t, msg, "created")

	_, err = d.Execute(context.Background(), p, "docker network rm bridge")
	requireCode(t, err, "N004")
	assert.Equal(t, http.StatusForbidden, dispatch.HTTPStatus(err))
}

func TestExecute_UnknownSimulation(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Execute(context.Background(), dispatch.Principal{UserID: "bob", SimulationID: "missing"}, "docker ps")
	requireCode(t, err, "S001")
	assert.Equal(t, http.StatusNotFound, dispatch.HTTPStatus(err))
}

func TestExecute_Statuses(t *testing.T) {
	d, p := newTestDispatcher(t)

	tests := []struct {
		input  string
		status dispatch.Status
	}{
		{"docker pull alpine", dispatch.StatusCreate},
		{"docker images", dispatch.StatusRead},
		{"docker network create app", dispatch.StatusCreate},
		{"docker run -d --name web --network app nginx", dispatch.StatusCreate},
		{"docker pause web", dispatch.StatusUpdate},
		{"docker unpause web", dispatch.StatusUpdate},
		{"docker logs -n 1 web", dispatch.StatusRead},
		{"docker rename web site", dispatch.StatusUpdate},
		{"docker rm -f site", dispatch.StatusDelete},
		{"docker network rm app", dispatch.StatusDelete},
		{"docker tag alpine me/alpine:1", dispatch.StatusCreate},
		{"docker push me/alpine:1", dispatch.StatusUpdate},
		{"docker build -t app:1 .", dispatch.StatusCreate},
		{"docker image history app:1", dispatch.StatusRead},
		{"docker image prune -a", dispatch.StatusDelete},
		{"docker volume ls -q", dispatch.StatusRead},
	}
	for _, tt := range tests {
		res := mustExecute(t, d, p, tt.input)
		assert.Equal(t, tt.status, res.Status, tt.input)
	}
}

func TestExecute_FlatInspectFallsBack(t *testing.T) {
	d, p := newTestDispatcher(t)
	mustExecute(t, d, p, "docker pull redis:7")

	res := mustExecute(t, d, p, "docker inspect redis:7")
	assert.Contains(t, res.Text(), `"redis:7"`)

	res = mustExecute(t, d, p, "docker inspect bridge")
	assert.Contains(t, res.Text(), `"Name": "bridge"`)

	_, err := d.Execute(context.Background(), p, "docker inspect ghost")
	requireCode(t, err, "C001")

	_, err = d.Execute(context.Background(), p, "docker container inspect redis:7")
	requireCode(t, err, "C001")
}

func TestExecute_RecordsHistory(t *testing.T) {
	d, p := newTestDispatcher(t)
	ctx := context.Background()

	mustExecute(t, d, p, "docker volume create data")
	_, err := d.Execute(ctx, p, "docker volume rm ghost")
	require.Error(t, err)
	_, err = d.Execute(ctx, p, "docker")
	require.Error(t, err)

	rows, err := d.Simulator().History(ctx, p.SimulationID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "docker volume create data", rows[0].Command)
	assert.True(t, rows[0].Success)
	assert.Equal(t, "data", rows[0].Output)
	assert.Equal(t, "alice", rows[0].UserID)

	assert.False(t, rows[1].Success)
	assert.Equal(t, "V001", rows[1].ErrorCode)

	assert.False(t, rows[2].Success)
	assert.Equal(t, "MISSING_SUBCOMMAND", rows[2].ErrorCode)
}

func TestDispatch_RejectsInvalidCommand(t *testing.T) {
	d, p := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), p, command.Parse("docker container"))
	requireCode(t, err, "INCOMPLETE_GROUP_COMMAND")

	_, err = d.Dispatch(context.Background(), p, nil)
	requireCode(t, err, "EMPTY_COMMAND")
}

func TestDescribe(t *testing.T) {
	code, msg := dispatch.Describe(nil)
	assert.Empty(t, code)
	assert.Empty(t, msg)
	assert.Equal(t, http.StatusOK, dispatch.HTTPStatus(nil))

	code, _ = dispatch.Describe(errors.New("boom"))
	assert.Equal(t, dispatch.CodeInternal, code)
	assert.Equal(t, http.StatusInternalServerError, dispatch.HTTPStatus(errors.New("boom")))

	wrapped := fmt.Errorf("wrapped: %w", dispatch.ErrNoHandler)
	code, _ = dispatch.Describe(wrapped)
	assert.Equal(t, dispatch.CodeNoHandler, code)
	assert.Equal(t, http.StatusNotImplemented, dispatch.HTTPStatus(wrapped))
}

func TestResultText(t *testing.T) {
	var nilResult *dispatch.Result
	assert.Empty(t, nilResult.Text())

	res := &dispatch.Result{Console: []string{"a", "b"}}
	assert.Equal(t, "a\nb", res.Text())
}
