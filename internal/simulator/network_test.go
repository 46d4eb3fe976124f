package simulator_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dockersim/app/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNetwork(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	out, err := sim.CreateNetwork(ctx, id, simulator.NetworkCreateOptions{Name: "app"})
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)
	assert.Len(t, out.Lines[0], 64)

	_, err = sim.CreateNetwork(ctx, id, simulator.NetworkCreateOptions{Name: "app"})
	requireCode(t, err, "N002")

	inspect, err := sim.InspectNetworks(ctx, id, []string{"app"})
	require.NoError(t, err)
	doc := strings.Join(inspect.Lines, "\n")
	assert.Contains(t, doc, `"Subnet": "172.18.0.0/16"`)
	assert.Contains(t, doc, `"Gateway": "172.18.0.1"`)
	assert.Contains(t, doc, `"Driver": "bridge"`)

	_, err = sim.CreateNetwork(ctx, id, simulator.NetworkCreateOptions{Name: "second"})
	require.NoError(t, err)
	inspect, err = sim.InspectNetworks(ctx, id, []string{"second"})
	require.NoError(t, err)
	assert.Contains(t, strings.Join(inspect.Lines, "\n"), `"Subnet": "172.19.0.0/16"`)
}

func TestCreateNetwork_Subnet(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		opts   simulator.NetworkCreateOptions
		code   string
		subnet string
	}{
		{"지정한 서브넷", simulator.NetworkCreateOptions{Name: "a", Subnet: "10.10.0.0/24"}, "", "10.10.0.0/24"},
		{"겹치는 서브넷", simulator.NetworkCreateOptions{Name: "b", Subnet: "10.10.0.128/25"}, "N007", ""},
		{"잘못된 서브넷", simulator.NetworkCreateOptions{Name: "c", Subnet: "bogus"}, "N007", ""},
		{"서브넷 밖 게이트웨이", simulator.NetworkCreateOptions{Name: "d", Subnet: "10.20.0.0/24", Gateway: "10.30.0.1"}, "N007", ""},
		{"기본 bridge와 겹침", simulator.NetworkCreateOptions{Name: "e", Subnet: "172.17.5.0/24"}, "N007", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.CreateNetwork(ctx, id, tt.opts)
			if tt.code != "" {
				requireCode(t, err, tt.code)
				return
			}
			require.NoError(t, err)
			inspect, err := sim.InspectNetworks(ctx, id, []string{tt.opts.Name})
			require.NoError(t, err)
			assert.Contains(t, strings.Join(inspect.Lines, "\n"), `"Subnet": "`+tt.subnet+`"`)
		})
	}
}

func TestRemoveNetwork_Protection(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.CreateNetwork(ctx, id, simulator.NetworkCreateOptions{Name: "app"})
	require.NoError(t, err)
	runDetached(t, sim, id, simulator.RunOptions{Image: "nginx", Name: "web", Network: "app"})

	_, err = sim.RemoveNetworks(ctx, id, []string{"bridge"})
	requireCode(t, err, "N004")

	_, err = sim.RemoveNetworks(ctx, id, []string{"app"})
	requireCode(t, err, "N003")
	assert.Contains(t, err.Error(), "app")

	_, err = sim.RemoveNetworks(ctx, id, []string{"ghost"})
	requireCode(t, err, "N001")

	_, err = sim.RemoveContainers(ctx, id, []string{"web"}, true, false)
	require.NoError(t, err)

	out, err := sim.RemoveNetworks(ctx, id, []string{"app"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, out.Lines)
}

func TestConnectAndDisconnect(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.CreateNetwork(ctx, id, simulator.NetworkCreateOptions{Name: "app"})
	require.NoError(t, err)
	runDetached(t, sim, id, simulator.RunOptions{Image: "nginx", Name: "web", Network: "app"})
	runDetached(t, sim, id, simulator.RunOptions{Image: "nginx", Name: "api", Network: "app"})

	inspect, err := sim.InspectNetworks(ctx, id, []string{"app"})
	require.NoError(t, err)
	doc := strings.Join(inspect.Lines, "\n")
	assert.Contains(t, doc, `"IPv4Address": "172.18.0.2/16"`)
	assert.Contains(t, doc, `"IPv4Address": "172.18.0.3/16"`)

	_, err = sim.ConnectNetwork(ctx, id, "bridge", "web")
	require.NoError(t, err)

	_, err = sim.ConnectNetwork(ctx, id, "bridge", "web")
	requireCode(t, err, "N005")
	assert.Contains(t, err.Error(), "web")

	_, err = sim.ConnectNetwork(ctx, id, "bridge", "ghost")
	requireCode(t, err, "C001")

	_, err = sim.DisconnectNetwork(ctx, id, "app", "web", false)
	require.NoError(t, err)

	_, err = sim.DisconnectNetwork(ctx, id, "app", "web", false)
	requireCode(t, err, "N006")

	out, err := sim.DisconnectNetwork(ctx, id, "app", "web", true)
	require.NoError(t, err)
	assert.Empty(t, out.Lines)
}

func TestListAndPruneNetworks(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	for _, name := range []string{"used", "idle"} {
		_, err := sim.CreateNetwork(ctx, id, simulator.NetworkCreateOptions{Name: name})
		require.NoError(t, err)
	}
	runDetached(t, sim, id, simulator.RunOptions{Image: "nginx", Network: "used"})

	quiet, err := sim.ListNetworks(ctx, id, simulator.ListOptions{Quiet: true})
	require.NoError(t, err)
	assert.Len(t, quiet.Lines, 5)
	for _, line := range quiet.Lines {
		assert.Len(t, line, 12)
	}

	out, err := sim.PruneNetworks(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Deleted Networks:", "idle"}, out.Lines)

	again, err := sim.PruneNetworks(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, again.Lines)
}

func TestVolumes(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	t.Run("익명 볼륨", func(t *testing.T) {
		out, err := sim.CreateVolume(ctx, id, "", "")
		require.NoError(t, err)
		require.Len(t, out.Lines, 1)
		assert.Len(t, out.Lines[0], 64)
	})

	t.Run("이름 중복", func(t *testing.T) {
		out, err := sim.CreateVolume(ctx, id, "data", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"data"}, out.Lines)

		_, err = sim.CreateVolume(ctx, id, "data", "")
		requireCode(t, err, "V002")
	})

	t.Run("목록", func(t *testing.T) {
		out, err := sim.ListVolumes(ctx, id, simulator.ListOptions{})
		require.NoError(t, err)
		require.Len(t, out.Lines, 3)
		assert.True(t, strings.HasPrefix(out.Lines[0], "DRIVER"))
		assert.True(t, strings.HasPrefix(out.Lines[2], "local"))
		assert.True(t, strings.HasSuffix(out.Lines[2], "data"))
	})

	t.Run("inspect", func(t *testing.T) {
		out, err := sim.InspectVolumes(ctx, id, []string{"data"})
		require.NoError(t, err)
		assert.Contains(t, strings.Join(out.Lines, "\n"), `"Mountpoint": "/var/lib/docker/volumes/data/_data"`)

		_, err = sim.InspectVolumes(ctx, id, []string{"ghost"})
		requireCode(t, err, "V001")
	})
}

func TestVolumeInUse(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	runDetached(t, sim, id, simulator.RunOptions{
		Image:   "nginx",
		Name:    "web",
		Volumes: []string{"data:/var/lib/data", "/cache", "./site:/usr/share/nginx/html:ro"},
	})

	names, err := sim.ListVolumes(ctx, id, simulator.ListOptions{Quiet: true})
	require.NoError(t, err)
	require.Len(t, names.Lines, 2, "bind mounts do not create volumes")
	assert.Equal(t, "data", names.Lines[0])
	assert.Len(t, names.Lines[1], 64)

	_, err = sim.RemoveVolumes(ctx, id, []string{"data"}, false)
	requireCode(t, err, "V003")

	pruned, err := sim.PruneVolumes(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total reclaimed space: 0B"}, pruned.Lines)

	_, err = sim.RemoveContainers(ctx, id, []string{"web"}, true, true)
	require.NoError(t, err)

	names, err = sim.ListVolumes(ctx, id, simulator.ListOptions{Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"data"}, names.Lines, "rm -v removes anonymous volumes only")

	out, err := sim.RemoveVolumes(ctx, id, []string{"ghost", "data"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"data"}, out.Lines)

	_, err = sim.RemoveVolumes(ctx, id, []string{"ghost"}, false)
	requireCode(t, err, "V001")
}

func TestPruneVolumes(t *testing.T) {
	sim, id := newTestSimulator(t)
	ctx := context.Background()

	_, err := sim.CreateVolume(ctx, id, "named", "")
	require.NoError(t, err)
	anon, err := sim.CreateVolume(ctx, id, "", "")
	require.NoError(t, err)

	out, err := sim.PruneVolumes(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Deleted Volumes:", anon.Lines[0], "", "Total reclaimed space: 0B"}, out.Lines)

	out, err = sim.PruneVolumes(ctx, id, true)
	require.NoError(t, err)
	assert.Contains(t, out.Lines, "named")
}
