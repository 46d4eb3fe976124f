package simulator_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dockersim/app/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageRows(t *testing.T, sim *simulator.Simulator, id string) []string {
	t.Helper()
	out, err := sim.ListImages(context.Background(), id, simulator.ImageListOptions{})
	require.NoError(t, err)
	return out.Lines[1:]
}

func TestPullImage(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	out, err := sim.PullImage(ctx, id, "redis:7")
	require.NoError(t, err)
	assert.Equal(t, "7: Pulling from library/redis", out.Lines[0])
	pulled := 0
	for _, line := range out.Lines {
		if strings.HasSuffix(line, ": Pull complete") {
			pulled++
		}
	}
	assert.Equal(t, 8, pulled)
	assert.Equal(t, "docker.io/library/redis:7", out.Lines[len(out.Lines)-1])

	again, err := sim.PullImage(ctx, id, "docker.io/library/redis:7")
	require.NoError(t, err)
	assert.Contains(t, again.Lines, "Status: Image is up to date for redis:7")
	assert.Empty(t, again.Changes)

	rows := imageRows(t, sim, id)
	require.Len(t, rows, 1)
	assert.True(t, strings.HasPrefix(rows[0], "redis"))
}

func TestPullImage_Errors(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
		code string
	}{
		{"카탈로그에 없는 이미지", "nosuch", "D005"},
		{"없는 태그", "nginx:9.9", "D005"},
		{"push되지 않은 사용자 이미지", "alice/app", "D005"},
		{"대문자 저장소", "NGINX", "D004"},
		{"digest 참조", "nginx@sha256:" + strings.Repeat("a", 64), "D004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.PullImage(ctx, id, tt.ref)
			requireCode(t, err, tt.code)
		})
	}
}

func TestTagAndRemoveImage(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.PullImage(ctx, id, "nginx")
	require.NoError(t, err)
	_, err = sim.TagImage(ctx, id, "nginx", "myweb:v1")
	require.NoError(t, err)
	require.Len(t, imageRows(t, sim, id), 2)

	quiet, err := sim.ListImages(ctx, id, simulator.ImageListOptions{Quiet: true})
	require.NoError(t, err)
	require.Len(t, quiet.Lines, 1, "tags of the same image share one ID")
	shortID := quiet.Lines[0]

	_, err = sim.RemoveImages(ctx, id, []string{shortID}, false)
	requireCode(t, err, "D003")

	out, err := sim.RemoveImages(ctx, id, []string{"myweb:v1"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Untagged: myweb:v1"}, out.Lines)

	runDetached(t, sim, id, simulator.RunOptions{Image: "nginx", Name: "web"})

	_, err = sim.RemoveImages(ctx, id, []string{"nginx"}, false)
	requireCode(t, err, "D002")
	_, err = sim.RemoveImages(ctx, id, []string{"nginx"}, true)
	requireCode(t, err, "D002")

	_, err = sim.StopContainers(ctx, id, []string{"web"})
	require.NoError(t, err)

	out, err = sim.RemoveImages(ctx, id, []string{"nginx"}, true)
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, "Untagged: nginx:latest", out.Lines[0])
	assert.True(t, strings.HasPrefix(out.Lines[1], "Deleted: sha256:"))
	assert.Empty(t, imageRows(t, sim, id))

	_, err = sim.RemoveImages(ctx, id, []string{"nginx"}, false)
	requireCode(t, err, "D001")
}

func TestPushAndPullUserImage(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.PullImage(ctx, id, "alpine")
	require.NoError(t, err)

	_, err = sim.PushImage(ctx, id, "alpine")
	requireCode(t, err, "D006")
	_, err = sim.PushImage(ctx, id, "alice/tools:1")
	requireCode(t, err, "D001")

	_, err = sim.TagImage(ctx, id, "alpine", "alice/tools:1")
	require.NoError(t, err)

	out, err := sim.PushImage(ctx, id, "alice/tools:1")
	require.NoError(t, err)
	assert.Equal(t, "The push refers to repository [docker.io/alice/tools]", out.Lines[0])
	assert.True(t, strings.HasSuffix(out.Lines[1], ": Pushed"))
	assert.True(t, strings.HasPrefix(out.Lines[len(out.Lines)-1], "1: digest: sha256:"))

	again, err := sim.PushImage(ctx, id, "alice/tools:1")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(again.Lines[1], ": Layer already exists"))

	_, err = sim.RemoveImages(ctx, id, []string{"alice/tools:1"}, false)
	require.NoError(t, err)

	pulled, err := sim.PullImage(ctx, id, "alice/tools:1")
	require.NoError(t, err)
	assert.Contains(t, pulled.Lines, "Status: Downloaded newer image for alice/tools:1")
}

func TestBuildImage_RetagLeavesDangling(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	first, err := sim.BuildImage(ctx, id, simulator.BuildOptions{Context: ".", Tags: []string{"app:1"}})
	require.NoError(t, err)
	assert.Contains(t, first.Lines, " => => naming to docker.io/library/app:1")

	_, err = sim.BuildImage(ctx, id, simulator.BuildOptions{Context: ".", Tags: []string{"app:1"}})
	require.NoError(t, err)

	rows := imageRows(t, sim, id)
	require.Len(t, rows, 2)
	joined := strings.Join(rows, "\n")
	assert.Contains(t, joined, "app")
	assert.Contains(t, joined, "<none>")

	pruned, err := sim.PruneImages(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, "Deleted Images:", pruned.Lines[0])
	assert.True(t, strings.HasPrefix(pruned.Lines[1], "deleted: sha256:"))
	assert.True(t, strings.HasPrefix(pruned.Lines[len(pruned.Lines)-1], "Total reclaimed space: "))
	require.Len(t, imageRows(t, sim, id), 1)

	all, err := sim.PruneImages(ctx, id, true)
	require.NoError(t, err)
	assert.Contains(t, all.Lines, "untagged: app:1")
	assert.Empty(t, imageRows(t, sim, id))
}

func TestBuildImage_WithoutTag(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.BuildImage(ctx, id, simulator.BuildOptions{Context: "."})
	require.NoError(t, err)

	rows := imageRows(t, sim, id)
	require.Len(t, rows, 1)
	assert.True(t, strings.HasPrefix(rows[0], "<none>"))

	_, err = sim.BuildImage(ctx, id, simulator.BuildOptions{Context: ".", Tags: []string{"Bad:Tag"}})
	requireCode(t, err, "D004")
}

func TestImageHistoryAndInspect(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.PullImage(ctx, id, "nginx:1.27")
	require.NoError(t, err)

	history, err := sim.ImageHistory(ctx, id, "nginx:1.27", false)
	require.NoError(t, err)
	require.Len(t, history.Lines, 8)
	assert.True(t, strings.HasPrefix(history.Lines[0], "IMAGE"))
	assert.Contains(t, history.Lines[1], "CMD [")
	assert.True(t, strings.HasPrefix(history.Lines[2], "<missing>"))

	inspect, err := sim.InspectImages(ctx, id, []string{"nginx:1.27"})
	require.NoError(t, err)
	doc := strings.Join(inspect.Lines, "\n")
	assert.Contains(t, doc, `"nginx:1.27"`)
	assert.Contains(t, doc, `"80/tcp"`)

	_, err = sim.InspectImages(ctx, id, []string{"nginx:latest"})
	requireCode(t, err, "D001")
}

func TestListImages_Filter(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	for _, ref := range []string{"nginx", "redis", "nginx:alpine"} {
		_, err := sim.PullImage(ctx, id, ref)
		require.NoError(t, err)
	}

	out, err := sim.ListImages(ctx, id, simulator.ImageListOptions{Filter: "nginx"})
	require.NoError(t, err)
	assert.Len(t, out.Lines, 3)

	out, err = sim.ListImages(ctx, id, simulator.ImageListOptions{Filter: "nginx:alpine"})
	require.NoError(t, err)
	assert.Len(t, out.Lines, 2)
}
