package dispatch

import (
	"context"
	"strconv"

	"github.com/dockersim/app/internal/command"
	"github.com/dockersim/app/internal/simulator"
)

func (d *Dispatcher) registerContainer() {
	const g = command.GroupContainer

	d.register(g, "create", StatusCreate, d.containerCreate)
	d.register(g, "run", StatusCreate, d.containerRun)
	d.register(g, "start", StatusUpdate, d.eachRef(d.sim.StartContainers))
	d.register(g, "stop", StatusUpdate, d.eachRef(d.sim.StopContainers))
	d.register(g, "restart", StatusUpdate, d.eachRef(d.sim.RestartContainers))
	d.register(g, "pause", StatusUpdate, d.eachRef(d.sim.PauseContainers))
	d.register(g, "unpause", StatusUpdate, d.eachRef(d.sim.UnpauseContainers))
	d.register(g, "kill", StatusUpdate, d.eachRef(d.sim.KillContainers))
	d.register(g, "rm", StatusDelete, d.containerRemove)
	d.register(g, "ls", StatusRead, d.containerList)
	d.register(g, "exec", StatusRead, d.containerExec)
	d.register(g, "logs", StatusRead, d.containerLogs)
	d.register(g, "inspect", StatusRead, d.inspect)
	d.register(g, "rename", StatusUpdate, d.containerRename)
	d.register(g, "prune", StatusDelete, func(ctx context.Context, simulationID string, _ *command.ParsedCommand) (*simulator.Output, error) {
		return d.sim.PruneContainers(ctx, simulationID)
	})
}

// eachRef는 위치 인자 전체를 대상 목록으로 받는 시뮬레이터 메서드를 처리기로 감쌉니다.
func (d *Dispatcher) eachRef(fn func(ctx context.Context, simulationID string, refs []string) (*simulator.Output, error)) handlerFunc {
	return func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
		return fn(ctx, simulationID, p.Arguments)
	}
}

func runOptions(p *command.ParsedCommand) simulator.RunOptions {
	opts := simulator.RunOptions{
		Image:       p.Arguments[0],
		Command:     p.Arguments[1:],
		Ports:       p.OptionValues("p", "publish"),
		PublishAll:  p.HasFlag("P", "publish-all"),
		Env:         p.OptionValues("e", "env"),
		Volumes:     p.OptionValues("v", "volume"),
		AutoRemove:  p.HasFlag("rm"),
		Detach:      p.HasFlag("d", "detach"),
		Interactive: p.HasFlag("i", "interactive"),
		TTY:         p.HasFlag("t", "tty"),
	}
	opts.Name, _ = p.Option("name")
	opts.Network, _ = p.Option("network", "net")
	return opts
}

func (d *Dispatcher) containerCreate(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	return d.sim.CreateContainer(ctx, simulationID, runOptions(p))
}

func (d *Dispatcher) containerRun(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	return d.sim.RunContainer(ctx, simulationID, runOptions(p))
}

func (d *Dispatcher) containerRemove(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	return d.sim.RemoveContainers(ctx, simulationID, p.Arguments, p.HasFlag("f", "force"), p.HasFlag("v", "volumes"))
}

func (d *Dispatcher) containerList(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	return d.sim.ListContainers(ctx, simulationID, simulator.ContainerListOptions{
		All:     p.HasFlag("a", "all"),
		Quiet:   p.HasFlag("q", "quiet"),
		NoTrunc: p.HasFlag("no-trunc"),
	})
}

func (d *Dispatcher) containerExec(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	opts := simulator.ExecOptions{
		Interactive: p.HasFlag("i", "interactive"),
		TTY:         p.HasFlag("t", "tty"),
		Env:         p.OptionValues("e", "env"),
	}
	opts.User, _ = p.Option("u", "user")
	opts.WorkDir, _ = p.Option("w", "workdir")
	return d.sim.ExecContainer(ctx, simulationID, p.Arguments[0], p.Arguments[1:], opts)
}

func (d *Dispatcher) containerLogs(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	opts := simulator.LogOptions{Timestamps: p.HasFlag("t", "timestamps")}
	if tail, ok := p.Option("n", "tail"); ok && tail != "all" {
		n, err := strconv.Atoi(tail)
		if err == nil && n >= 0 {
			opts.Tail = n
		}
	}
	return d.sim.ContainerLogs(ctx, simulationID, p.Arguments[0], opts)
}

func (d *Dispatcher) containerRename(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	return d.sim.RenameContainer(ctx, simulationID, p.Arguments[0], p.Arguments[1])
}

// inspect는 최상위 docker inspect를 처리합니다. 컨테이너에서 찾지 못한 단일 대상은
// 이미지, 네트워크, 볼륨 순서로 다시 찾습니다.
func (d *Dispatcher) inspect(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error) {
	out, err := d.sim.InspectContainers(ctx, simulationID, p.Arguments)
	if err == nil || p.Group != "" || len(p.Arguments) != 1 || !simulator.IsNotFound(err) {
		return out, err
	}

	fallbacks := []func(ctx context.Context, simulationID string, refs []string) (*simulator.Output, error){
		d.sim.InspectImages,
		d.sim.InspectNetworks,
		d.sim.InspectVolumes,
	}
	for _, fn := range fallbacks {
		if alt, altErr := fn(ctx, simulationID, p.Arguments); altErr == nil {
			return alt, nil
		}
	}
	return nil, err
}
