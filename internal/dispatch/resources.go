package dispatch

import (
	"context"

	"github.com/dockersim/app/internal/command"
	"github.com/dockersim/app/internal/simulator"
)

func (d *Dispatcher) registerImage() {
	const g = command.GroupImage

	d.register(g, "pull", StatusCreate, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.PullImage(ctx, simulationID, p.Arguments[0])
	})
	d.register(g, "push", StatusUpdate, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.PushImage(ctx, simulationID, p.Arguments[0])
	})
	d.register(g, "ls", StatusRead, d.imageList)
	d.register(g, "rm", StatusDelete, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.RemoveImages(ctx, simulationID, p.Arguments, p.HasFlag("f", "force"))
	})
	d.register(g, "build", StatusCreate, d.imageBuild)
	d.register(g, "tag", StatusCreate, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.TagImage(ctx, simulationID, p.Arguments[0], p.Arguments[1])
	})
	d.register(g, "history", StatusRead, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.ImageHistory(ctx, simulationID, p.Arguments[0], p.HasFlag("no-trunc"))
	})
	d.register(g, "inspect", StatusRead, d.eachRef(d.sim.InspectImages))
	d.register(g, "prune", StatusDelete, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.PruneImages(ctx, simulationID, p.HasFlag("a", "all"))
	})
}

func (d *Dispatcher) imageList(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	opts := simulator.ImageListOptions{
		All:     p.HasFlag("a", "all"),
		Quiet:   p.HasFlag("q", "quiet"),
		NoTrunc: p.HasFlag("no-trunc"),
	}
	if len(p.Arguments) > 0 {
		opts.Filter = p.Arguments[0]
	}
	return d.sim.ListImages(ctx, simulationID, opts)
}

func (d *Dispatcher) imageBuild(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	opts := simulator.BuildOptions{
		Context: p.Arguments[0],
		Tags:    p.OptionValues("t", "tag"),
		NoCache: p.HasFlag("no-cache"),
	}
	opts.Dockerfile, _ = p.Option("f", "file")
	return d.sim.BuildImage(ctx, simulationID, opts)
}

func (d *Dispatcher) registerNetwork() {
	const g = command.GroupNetwork

	d.register(g, "create", StatusCreate, d.networkCreate)
	d.register(g, "rm", StatusDelete, d.eachRef(d.sim.RemoveNetworks))
	d.register(g, "ls", StatusRead, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.ListNetworks(ctx, simulationID, listOptions(p))
	})
	d.register(g, "inspect", StatusRead, d.eachRef(d.sim.InspectNetworks))
	d.register(g, "connect", StatusUpdate, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.ConnectNetwork(ctx, simulationID, p.Arguments[0], p.Arguments[1])
	})
	d.register(g, "disconnect", StatusUpdate, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.DisconnectNetwork(ctx, simulationID, p.Arguments[0], p.Arguments[1], p.HasFlag("f", "force"))
	})
	d.register(g, "prune", StatusDelete, func(ctx context.Context, simulationID string, _ *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.PruneNetworks(ctx, simulationID)
	})
}

func (d *Dispatcher) networkCreate(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	opts := simulator.NetworkCreateOptions{
		Name:     p.Arguments[0],
		Internal: p.HasFlag("internal"),
	}
	opts.Driver, _ = p.Option("d", "driver")
	opts.Subnet, _ = p.Option("subnet")
	opts.Gateway, _ = p.Option("gateway")
	return d.sim.CreateNetwork(ctx, simulationID, opts)
}

func (d *Dispatcher) registerVolume() {
	const g = command.GroupVolume

	d.register(g, "create", StatusCreate, d.volumeCreate)
	d.register(g, "rm", StatusDelete, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.RemoveVolumes(ctx, simulationID, p.Arguments, p.HasFlag("f", "force"))
	})
	d.register(g, "ls", StatusRead, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.ListVolumes(ctx, simulationID, listOptions(p))
	})
	d.register(g, "inspect", StatusRead, d.eachRef(d.sim.InspectVolumes))
	d.register(g, "prune", StatusDelete, func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.PruneVolumes(ctx, simulationID, p.HasFlag("a", "all"))
	})
}

// volumeCreate는 이름 없이 호출되면 익명 볼륨을 만듭니다.
func (d *Dispatcher) volumeCreate(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	name, _ := p.Option("name")
	if len(p.Arguments) > 0 {
		name = p.Arguments[0]
	}
	driver, _ := p.Option("d", "driver")
	return d.sim.CreateVolume(ctx, simulationID, name, driver)
}

func listOptions(p *command.ParsedCommand) simulator.ListOptions {
	return simulator.ListOptions{
		Quiet:   p.HasFlag("q", "quiet"),
		NoTrunc: p.HasFlag("no-trunc"),
	}
}
