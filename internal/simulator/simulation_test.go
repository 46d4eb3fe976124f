package simulator_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dockersim/app/internal/simulator"
	"github.com/dockersim/app/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestSimulator(t *testing.T) (*simulator.Simulator, string) {
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

	sim, err := simulator.NewSimulator(zaptest.NewLogger(t), repo)
	require.NoError(t, err)

	created, err := sim.CreateSimulation(context.Background(), "test", "alice")
	require.NoError(t, err)
	return sim, created.SimulationID
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var simErr *simulator.Error
	require.True(t, errors.As(err, &simErr), "unexpected error type: %v", err)
	assert.Equal(t, code, simErr.Code(), simErr.Error())
}

func TestNewSimulator_RequiresRepository(t *testing.T) {
	_, err := simulator.NewSimulator(zaptest.NewLogger(t), nil)
	assert.Error(t, err)
}

func TestCreateSimulation_SeedsBuiltinNetworks(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	out, err := sim.ListNetworks(ctx, id, simulator.ListOptions{})
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)
	assert.True(t, strings.HasPrefix(out.Lines[0], "NETWORK ID"))
	assert.Contains(t, out.Lines[1], "bridge")
	assert.Contains(t, out.Lines[2], "host")
	assert.Contains(t, out.Lines[3], "none")
	assert.Contains(t, out.Lines[3], "null")

	got, err := sim.GetSimulation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "test", got.Title)
	assert.Equal(t, "alice", got.OwnerID)
}

func TestSimulationLookupAndDelete(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.GetSimulation(ctx, "missing")
	requireCode(t, err, "S001")
	assert.True(t, simulator.IsNotFound(err))

	require.NoError(t, sim.BindChannel(ctx, id, "thread-1"))
	bound, err := sim.SimulationForChannel(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, id, bound.SimulationID)

	requireCode(t, sim.BindChannel(ctx, "missing", "thread-2"), "S001")

	sims, err := sim.ListSimulations(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, sims, 1)

	_, err = sim.CreateVolume(ctx, id, "data", "")
	require.NoError(t, err)
	require.NoError(t, sim.DeleteSimulation(ctx, id))

	_, err = sim.GetSimulation(ctx, id)
	requireCode(t, err, "S001")
	requireCode(t, sim.DeleteSimulation(ctx, id), "S001")
}

func TestHistory(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	for i, cmd := range []string{"docker ps", "docker images", "docker volume ls"} {
		require.NoError(t, sim.RecordHistory(ctx, &storage.CommandHistory{
			SimulationID: id,
			UserID:       "alice",
			Command:      cmd,
			Success:      i != 1,
		}))
	}

	rows, err := sim.History(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "docker images", rows[0].Command)
	assert.False(t, rows[0].Success)
	assert.Equal(t, "docker volume ls", rows[1].Command)

	_, err = sim.History(ctx, "missing", 10)
	requireCode(t, err, "S001")
}
