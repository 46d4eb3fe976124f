package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	units "github.com/docker/go-units"
	"github.com/dockersim/app/internal/storage"
	"go.uber.org/zap"
)

const (
	ephemeralPortStart = 32768
	killExitCode       = 137
	notFoundExitCode   = 127
)

// RunOptions는 docker run / docker create 옵션입니다.
type RunOptions struct {
	Image       string
	Name        string
	Command     []string
	Ports       []string
	PublishAll  bool
	Env         []string
	Volumes     []string
	Network     string
	AutoRemove  bool
	Detach      bool
	Interactive bool
	TTY         bool
}

// ContainerListOptions는 docker ps 옵션입니다.
type ContainerListOptions struct {
	All     bool
	Quiet   bool
	NoTrunc bool
}

// LogOptions는 docker logs 옵션입니다.
type LogOptions struct {
	Tail       int
	Timestamps bool
}

// allowedFrom은 작업별로 허용되는 현재 상태입니다.
var allowedFrom = map[string][]string{
	"start":   {storage.ContainerStatusCreated, storage.ContainerStatusExited},
	"restart": {storage.ContainerStatusCreated, storage.ContainerStatusExited, storage.ContainerStatusRunning},
	"stop":    {storage.ContainerStatusRunning, storage.ContainerStatusPaused},
	"kill":    {storage.ContainerStatusRunning, storage.ContainerStatusPaused},
	"pause":   {storage.ContainerStatusRunning},
	"unpause": {storage.ContainerStatusPaused},
	"rm":      {storage.ContainerStatusCreated, storage.ContainerStatusExited},
}

func checkTransition(op string, c *storage.Container) error {
	for _, status := range allowedFrom[op] {
		if c.Status == status {
			return nil
		}
	}
	return stateError(op, c.Name, c.Status)
}

func (s *Simulator) findContainer(ctx context.Context, tx *storage.Repository, op, simulationID, ref string) (*storage.Container, error) {
	c, err := tx.FindContainer(ctx, simulationID, ref)
	if err != nil {
		return nil, translate(op, KindContainer, ref, err, ErrContainerNotFound)
	}
	return c, nil
}

// CreateContainer는 컨테이너를 만들고 전체 ID를 출력합니다. 이미지가 없으면 먼저 받아옵니다.
func (s *Simulator) CreateContainer(ctx context.Context, simulationID string, opts RunOptions) (*Output, error) {
	s.logger.Info("Creating container",
		zap.String("simulation_id", simulationID),
		zap.String("image", opts.Image),
		zap.String("name", opts.Name),
	)

	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		c, err := s.createContainer(ctx, tx, "create", simulationID, opts, out)
		if err != nil {
			return err
		}
		out.println(c.HexID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunContainer는 컨테이너를 만들고 바로 시작합니다.
// 분리 모드(-d)면 전체 ID를, 아니면 컨테이너 출력을 보여줍니다.
func (s *Simulator) RunContainer(ctx context.Context, simulationID string, opts RunOptions) (*Output, error) {
	s.logger.Info("Running container",
		zap.String("simulation_id", simulationID),
		zap.String("image", opts.Image),
		zap.String("name", opts.Name),
		zap.Bool("detach", opts.Detach),
	)

	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		c, err := s.createContainer(ctx, tx, "run", simulationID, opts, out)
		if err != nil {
			return err
		}
		result, err := s.start(ctx, tx, "run", simulationID, c)
		if err != nil {
			return err
		}
		if opts.Detach {
			out.println(c.HexID)
		} else {
			out.println(result.lines...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Simulator) createContainer(ctx context.Context, tx *storage.Repository, op, simulationID string, opts RunOptions, out *Output) (*storage.Container, error) {
	if opts.Name != "" {
		exists, err := tx.ContainerNameExists(ctx, simulationID, opts.Name)
		if err != nil {
			return nil, internalError(op, KindContainer, err)
		}
		if exists {
			return nil, NewError(op, KindContainer, opts.Name, ErrContainerNameConflict)
		}
	}

	img, err := s.imageForRun(ctx, tx, op, simulationID, opts.Image, out)
	if err != nil {
		return nil, err
	}
	prof := s.profileFor(img.HexID)

	mounts, err := parseMounts(op, opts.Volumes)
	if err != nil {
		return nil, err
	}

	networkName := opts.Network
	if networkName == "" {
		networkName = storage.NetworkBridge
	}
	network, err := s.findNetwork(ctx, tx, op, simulationID, networkName)
	if err != nil {
		return nil, err
	}

	taken, err := s.hostPortsInUse(ctx, tx, simulationID, "")
	if err != nil {
		return nil, internalError(op, KindContainer, err)
	}
	ports, err := publishPorts(op, opts.Ports, opts.PublishAll, prof.Ports, taken)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name, err = randomName(func(n string) (bool, error) {
			return tx.ContainerNameExists(ctx, simulationID, n)
		})
		if err != nil {
			return nil, internalError(op, KindContainer, err)
		}
	}

	args := opts.Command
	if len(args) == 0 {
		args = prof.Command
	}

	hexID, shortID := newID()
	c := &storage.Container{
		SimulationID: simulationID,
		HexID:        hexID,
		ShortID:      shortID,
		Name:         name,
		ImageHexID:   img.HexID,
		ImageRef:     opts.Image,
		Command:      encodeArgs(args),
		Status:       storage.ContainerStatusCreated,
		Ports:        strings.Join(ports, ", "),
		Envs:         strings.Join(opts.Env, "\n"),
		AutoRemove:   opts.AutoRemove,
		Interactive:  opts.Interactive || opts.TTY,
		CreatedAt:    s.now(),
	}
	if err := tx.CreateContainer(ctx, c); err != nil {
		return nil, internalError(op, KindContainer, err)
	}

	for _, m := range mounts {
		if m.Type == storage.MountTypeVolume {
			if _, err := ensureVolume(ctx, tx, simulationID, m.Source, m.Anonymous); err != nil {
				return nil, internalError(op, KindVolume, err)
			}
		}
		if err := tx.AddContainerMount(ctx, &storage.ContainerMount{
			SimulationID:   simulationID,
			ContainerHexID: c.HexID,
			Type:           m.Type,
			Source:         m.Source,
			Destination:    m.Destination,
			ReadOnly:       m.ReadOnly,
		}); err != nil {
			return nil, internalError(op, KindContainer, err)
		}
	}

	if err := s.attach(ctx, tx, op, simulationID, c, network); err != nil {
		return nil, err
	}

	out.changed(KindContainer, c.ShortID, c.Name)
	return c, nil
}

// imageForRun은 run/create에 쓸 이미지를 찾고, 로컬에 없으면 받아옵니다.
func (s *Simulator) imageForRun(ctx context.Context, tx *storage.Repository, op, simulationID, raw string, out *Output) (*storage.Image, error) {
	img, _, err := s.resolveImage(ctx, tx, op, simulationID, raw)
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, ErrImageNotFound) {
		return nil, err
	}
	ref, perr := parseImageRef(raw)
	if perr != nil {
		return nil, NewError(op, KindImage, raw, ErrInvalidReference)
	}
	out.printf("Unable to find image '%s' locally", ref.Familiar())
	return s.pull(ctx, tx, simulationID, raw, out)
}

// imageProfile은 컨테이너가 시작될 때의 동작입니다.
type imageProfile struct {
	Command []string
	Daemon  bool
	Ports   []string
	WorkDir string
	Logs    []string
}

// profileFor는 이미지 ID에 맞는 동작을 찾습니다. 카탈로그에 없는 이미지(build, push)는 서비스로 간주합니다.
func (s *Simulator) profileFor(imageHexID string) imageProfile {
	if hub, ok := s.catalog.ByImageID(imageHexID); ok {
		return imageProfile{
			Command: hub.Command,
			Daemon:  hub.Daemon,
			Ports:   hub.Ports,
			WorkDir: hub.WorkDir,
			Logs:    hub.Logs,
		}
	}
	return imageProfile{
		Command: []string{"/docker-entrypoint.sh"},
		Daemon:  true,
		WorkDir: "/app",
		Logs:    []string{"Application started"},
	}
}

type mountSpec struct {
	Type        string
	Source      string
	Destination string
	ReadOnly    bool
	Anonymous   bool
}

// parseMounts는 -v 값을 해석합니다.
// "/data"는 익명 볼륨, "name:/data"는 이름 있는 볼륨, "/host:/data"나 "./dir:/data"는 바인드 마운트입니다.
func parseMounts(op string, specs []string) ([]mountSpec, error) {
	mounts := make([]mountSpec, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		var m mountSpec
		switch len(parts) {
		case 1:
			anon, _ := newID()
			m = mountSpec{Type: storage.MountTypeVolume, Source: anon, Destination: parts[0], Anonymous: true}
		case 2, 3:
			m = mountSpec{Source: parts[0], Destination: parts[1]}
			if len(parts) == 3 {
				switch parts[2] {
				case "ro":
					m.ReadOnly = true
				case "rw":
				default:
					return nil, NewError(op, KindContainer, spec, ErrInvalidMount)
				}
			}
			if isBindSource(m.Source) {
				m.Type = storage.MountTypeBind
			} else {
				m.Type = storage.MountTypeVolume
				if !validVolumeName(m.Source) {
					return nil, NewError(op, KindContainer, spec, ErrInvalidMount)
				}
			}
		default:
			return nil, NewError(op, KindContainer, spec, ErrInvalidMount)
		}
		if !strings.HasPrefix(m.Destination, "/") {
			return nil, NewError(op, KindContainer, spec, ErrInvalidMount)
		}
		mounts = append(mounts, m)
	}
	return mounts, nil
}

func isBindSource(src string) bool {
	return strings.HasPrefix(src, "/") || strings.HasPrefix(src, ".") || strings.HasPrefix(src, "~")
}

// validVolumeName은 [a-zA-Z0-9][a-zA-Z0-9_.-]* 형식인지 확인합니다.
func validVolumeName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if alnum {
			continue
		}
		if i == 0 || (r != '_' && r != '.' && r != '-') {
			return false
		}
	}
	return true
}

// publishPorts는 -p/-P 값을 "0.0.0.0:8080->80/tcp" 형식으로 바꿉니다.
// 게시하지 않은 이미지 노출 포트는 "80/tcp"로 남깁니다.
func publishPorts(op string, specs []string, publishAll bool, exposed []string, taken map[string]bool) ([]string, error) {
	nextEphemeral := func() string {
		for p := ephemeralPortStart; ; p++ {
			port := strconv.Itoa(p)
			if !taken[port] {
				taken[port] = true
				return port
			}
		}
	}

	var ports []string
	published := make(map[nat.Port]bool)
	for _, spec := range specs {
		mappings, err := nat.ParsePortSpec(spec)
		if err != nil {
			return nil, NewError(op, KindContainer, spec, ErrInvalidPortSpec)
		}
		for _, m := range mappings {
			hostIP := m.Binding.HostIP
			if hostIP == "" {
				hostIP = "0.0.0.0"
			}
			hostPort := m.Binding.HostPort
			if hostPort == "" {
				hostPort = nextEphemeral()
			}
			published[m.Port] = true
			ports = append(ports, fmt.Sprintf("%s:%s->%s", hostIP, hostPort, m.Port))
		}
	}

	for _, raw := range exposed {
		proto, port := nat.SplitProtoPort(raw)
		p, err := nat.NewPort(proto, port)
		if err != nil || published[p] {
			continue
		}
		if publishAll {
			ports = append(ports, fmt.Sprintf("0.0.0.0:%s->%s", nextEphemeral(), p))
		} else {
			ports = append(ports, string(p))
		}
	}
	return ports, nil
}

// hostPorts는 컨테이너 Ports 필드에서 게시된 호스트 포트를 꺼냅니다.
func hostPorts(ports string) []string {
	var out []string
	for _, entry := range strings.Split(ports, ", ") {
		host, _, ok := strings.Cut(entry, "->")
		if !ok {
			continue
		}
		if i := strings.LastIndex(host, ":"); i >= 0 {
			out = append(out, host[i+1:])
		}
	}
	return out
}

// hostPortsInUse는 exceptHexID를 제외한 컨테이너들이 게시한 호스트 포트 집합입니다.
func (s *Simulator) hostPortsInUse(ctx context.Context, tx *storage.Repository, simulationID, exceptHexID string, statuses ...string) (map[string]bool, error) {
	containers, err := tx.ListContainers(ctx, simulationID, statuses...)
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool)
	for _, c := range containers {
		if c.HexID == exceptHexID {
			continue
		}
		for _, p := range hostPorts(c.Ports) {
			used[p] = true
		}
	}
	return used, nil
}

type launchResult struct {
	lines    []string
	running  bool
	exitCode int
}

// start는 컨테이너를 시작합니다. 서비스나 대화형 셸은 running으로 남고,
// 한 번 실행되는 명령은 출력을 남긴 뒤 exited가 됩니다.
func (s *Simulator) start(ctx context.Context, tx *storage.Repository, op, simulationID string, c *storage.Container) (*launchResult, error) {
	if err := checkTransition("start", c); err != nil {
		return nil, stateError(op, c.Name, c.Status)
	}

	running, err := s.hostPortsInUse(ctx, tx, simulationID, c.HexID, storage.ContainerStatusRunning, storage.ContainerStatusPaused)
	if err != nil {
		return nil, internalError(op, KindContainer, err)
	}
	for _, p := range hostPorts(c.Ports) {
		if running[p] {
			return nil, NewError(op, KindContainer, p, ErrPortAllocated)
		}
	}

	result, err := s.launch(ctx, tx, simulationID, c)
	if err != nil {
		return nil, err
	}

	c.StartedAt = s.timePtr()
	c.FinishedAt = nil
	c.ExitCode = 0
	c.Status = storage.ContainerStatusRunning
	if !result.running {
		c.Status = storage.ContainerStatusExited
		c.ExitCode = result.exitCode
		c.FinishedAt = s.timePtr()
	}
	if err := tx.UpdateContainer(ctx, c); err != nil {
		return nil, internalError(op, KindContainer, err)
	}
	if err := tx.AppendContainerLogs(ctx, simulationID, c.HexID, result.lines...); err != nil {
		return nil, internalError(op, KindContainer, err)
	}

	if c.Status == storage.ContainerStatusExited && c.AutoRemove {
		if err := s.removeContainer(ctx, tx, simulationID, c, true); err != nil {
			return nil, internalError(op, KindContainer, err)
		}
	}
	return result, nil
}

// launch는 컨테이너 명령이 무엇을 출력하고 계속 실행되는지 결정합니다.
func (s *Simulator) launch(ctx context.Context, tx *storage.Repository, simulationID string, c *storage.Container) (*launchResult, error) {
	prof := s.profileFor(c.ImageHexID)
	args := decodeArgs(c.Command)

	if equalArgs(args, prof.Command) {
		switch {
		case prof.Daemon:
			return &launchResult{lines: prof.Logs, running: true}, nil
		case c.Interactive:
			return &launchResult{running: true}, nil
		default:
			return &launchResult{lines: prof.Logs}, nil
		}
	}

	if len(args) == 0 {
		return &launchResult{}, nil
	}
	if keepsRunning(args, c.Interactive) {
		return &launchResult{running: true}, nil
	}

	env, err := s.execEnv(ctx, tx, simulationID, c, ExecOptions{})
	if err != nil {
		return nil, err
	}
	lines, code, found := runBuiltin(env, args)
	if !found {
		return &launchResult{
			lines:    []string{fmt.Sprintf("exec: %q: executable file not found in $PATH", args[0])},
			exitCode: notFoundExitCode,
		}, nil
	}
	return &launchResult{lines: lines, exitCode: code}, nil
}

// keepsRunning은 종료되지 않는 명령(대화형 셸, sleep, tail -f)인지 확인합니다.
func keepsRunning(args []string, interactive bool) bool {
	switch baseName(args[0]) {
	case "sh", "bash", "ash", "zsh":
		return interactive && len(args) == 1
	case "sleep":
		return len(args) > 1 && args[1] != "0"
	case "tail":
		for _, a := range args[1:] {
			if a == "-f" || a == "-F" {
				return true
			}
		}
	}
	return false
}

// StartContainers는 멈춘 컨테이너를 시작합니다.
func (s *Simulator) StartContainers(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	return s.eachContainer(ctx, "start", simulationID, refs, func(tx *storage.Repository, c *storage.Container) error {
		_, err := s.start(ctx, tx, "start", simulationID, c)
		return err
	})
}

// StopContainers는 실행 중인 컨테이너를 정지합니다.
func (s *Simulator) StopContainers(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	return s.eachContainer(ctx, "stop", simulationID, refs, func(tx *storage.Repository, c *storage.Container) error {
		return s.halt(ctx, tx, "stop", simulationID, c, 0)
	})
}

// KillContainers는 컨테이너를 강제로 종료합니다. 종료 코드는 137입니다.
func (s *Simulator) KillContainers(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	return s.eachContainer(ctx, "kill", simulationID, refs, func(tx *storage.Repository, c *storage.Container) error {
		return s.halt(ctx, tx, "kill", simulationID, c, killExitCode)
	})
}

// RestartContainers는 컨테이너를 다시 시작합니다.
func (s *Simulator) RestartContainers(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	return s.eachContainer(ctx, "restart", simulationID, refs, func(tx *storage.Repository, c *storage.Container) error {
		if err := checkTransition("restart", c); err != nil {
			return err
		}
		if c.Status == storage.ContainerStatusRunning {
			c.Status = storage.ContainerStatusExited
			c.FinishedAt = s.timePtr()
		}
		_, err := s.start(ctx, tx, "restart", simulationID, c)
		return err
	})
}

// PauseContainers는 실행 중인 컨테이너를 일시 정지합니다.
func (s *Simulator) PauseContainers(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	return s.eachContainer(ctx, "pause", simulationID, refs, func(tx *storage.Repository, c *storage.Container) error {
		return s.transition(ctx, tx, "pause", c, storage.ContainerStatusPaused)
	})
}

// UnpauseContainers는 일시 정지된 컨테이너를 재개합니다.
func (s *Simulator) UnpauseContainers(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	return s.eachContainer(ctx, "unpause", simulationID, refs, func(tx *storage.Repository, c *storage.Container) error {
		return s.transition(ctx, tx, "unpause", c, storage.ContainerStatusRunning)
	})
}

func (s *Simulator) transition(ctx context.Context, tx *storage.Repository, op string, c *storage.Container, to string) error {
	if err := checkTransition(op, c); err != nil {
		return err
	}
	c.Status = to
	if err := tx.UpdateContainer(ctx, c); err != nil {
		return internalError(op, KindContainer, err)
	}
	return nil
}

// halt는 컨테이너를 exited로 바꾸고 --rm 컨테이너는 삭제합니다.
func (s *Simulator) halt(ctx context.Context, tx *storage.Repository, op, simulationID string, c *storage.Container, exitCode int) error {
	if err := checkTransition(op, c); err != nil {
		return err
	}
	c.Status = storage.ContainerStatusExited
	c.ExitCode = exitCode
	c.FinishedAt = s.timePtr()
	if err := tx.UpdateContainer(ctx, c); err != nil {
		return internalError(op, KindContainer, err)
	}
	if c.AutoRemove {
		if err := s.removeContainer(ctx, tx, simulationID, c, true); err != nil {
			return internalError(op, KindContainer, err)
		}
	}
	return nil
}

// eachContainer는 refs 각각을 별도 트랜잭션으로 처리하고 성공한 ref를 출력합니다.
// 첫 번째 실패에서 멈추며 그 전에 처리한 컨테이너는 되돌리지 않습니다.
func (s *Simulator) eachContainer(ctx context.Context, op, simulationID string, refs []string, fn func(tx *storage.Repository, c *storage.Container) error) (*Output, error) {
	s.logger.Info("Container lifecycle",
		zap.String("op", op),
		zap.String("simulation_id", simulationID),
		zap.Strings("containers", refs),
	)

	out := &Output{}
	for _, ref := range refs {
		err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
			c, err := s.findContainer(ctx, tx, op, simulationID, ref)
			if err != nil {
				return err
			}
			if err := fn(tx, c); err != nil {
				return err
			}
			out.println(ref)
			out.changed(KindContainer, c.ShortID, c.Name)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RemoveContainers는 컨테이너를 삭제합니다. 실행 중인 컨테이너는 force가 있어야 삭제합니다.
// volumes가 true면 컨테이너의 익명 볼륨도 함께 삭제합니다.
func (s *Simulator) RemoveContainers(ctx context.Context, simulationID string, refs []string, force, volumes bool) (*Output, error) {
	return s.eachContainer(ctx, "rm", simulationID, refs, func(tx *storage.Repository, c *storage.Container) error {
		if !force {
			if err := checkTransition("rm", c); err != nil {
				return err
			}
		}
		if err := s.removeContainer(ctx, tx, simulationID, c, volumes); err != nil {
			return internalError("rm", KindContainer, err)
		}
		return nil
	})
}

func (s *Simulator) removeContainer(ctx context.Context, tx *storage.Repository, simulationID string, c *storage.Container, volumes bool) error {
	mounts, err := tx.ListContainerMounts(ctx, simulationID, c.HexID)
	if err != nil {
		return err
	}
	if err := tx.DeleteContainer(ctx, simulationID, c.HexID); err != nil {
		return err
	}
	if !volumes {
		return nil
	}
	for _, m := range mounts {
		if m.Type != storage.MountTypeVolume {
			continue
		}
		v, err := tx.GetVolume(ctx, simulationID, m.Source)
		if err != nil || !v.Anonymous {
			continue
		}
		users, err := tx.CountVolumeUsers(ctx, simulationID, v.Name)
		if err != nil {
			return err
		}
		if users == 0 {
			if err := tx.DeleteVolume(ctx, simulationID, v.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListContainers는 docker ps 형식으로 컨테이너 목록을 출력합니다.
// All이 false면 실행 중이거나 일시 정지된 컨테이너만 보여줍니다.
func (s *Simulator) ListContainers(ctx context.Context, simulationID string, opts ContainerListOptions) (*Output, error) {
	var statuses []string
	if !opts.All {
		statuses = []string{storage.ContainerStatusRunning, storage.ContainerStatusPaused}
	}
	containers, err := s.repo.ListContainers(ctx, simulationID, statuses...)
	if err != nil {
		return nil, internalError("ps", KindContainer, err)
	}

	id := func(c storage.Container) string {
		if opts.NoTrunc {
			return c.HexID
		}
		return c.ShortID
	}

	out := &Output{}
	if opts.Quiet {
		for _, c := range containers {
			out.println(id(c))
		}
		return out, nil
	}

	now := s.now()
	t := newTable("CONTAINER ID", "IMAGE", "COMMAND", "CREATED", "STATUS", "PORTS", "NAMES")
	for _, c := range containers {
		command := commandLine(decodeArgs(c.Command))
		if !opts.NoTrunc {
			command = truncate(command, 20)
		}
		t.row(id(c), c.ImageRef, strconv.Quote(command), ago(now, c.CreatedAt), statusText(now, c), c.Ports, c.Name)
	}
	out.println(t.lines()...)
	return out, nil
}

// statusText는 docker ps의 STATUS 열입니다.
func statusText(now time.Time, c storage.Container) string {
	switch c.Status {
	case storage.ContainerStatusRunning:
		return "Up " + units.HumanDuration(now.Sub(since(c.StartedAt, c.CreatedAt)))
	case storage.ContainerStatusPaused:
		return "Up " + units.HumanDuration(now.Sub(since(c.StartedAt, c.CreatedAt))) + " (Paused)"
	case storage.ContainerStatusExited:
		return fmt.Sprintf("Exited (%d) %s", c.ExitCode, ago(now, since(c.FinishedAt, c.CreatedAt)))
	default:
		return "Created"
	}
}

func since(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}
	return *t
}

// ContainerLogs는 컨테이너가 남긴 출력을 보여줍니다.
func (s *Simulator) ContainerLogs(ctx context.Context, simulationID, ref string, opts LogOptions) (*Output, error) {
	c, err := s.findContainer(ctx, s.repo, "logs", simulationID, ref)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListContainerLogs(ctx, simulationID, c.HexID, opts.Tail)
	if err != nil {
		return nil, internalError("logs", KindContainer, err)
	}

	out := &Output{}
	for _, row := range rows {
		if opts.Timestamps {
			out.printf("%s %s", row.CreatedAt.UTC().Format(time.RFC3339Nano), row.Line)
			continue
		}
		out.println(row.Line)
	}
	return out, nil
}

// RenameContainer는 컨테이너 이름을 바꿉니다.
func (s *Simulator) RenameContainer(ctx context.Context, simulationID, ref, newName string) (*Output, error) {
	s.logger.Info("Renaming container",
		zap.String("simulation_id", simulationID),
		zap.String("container", ref),
		zap.String("new_name", newName),
	)

	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		c, err := s.findContainer(ctx, tx, "rename", simulationID, ref)
		if err != nil {
			return err
		}
		exists, err := tx.ContainerNameExists(ctx, simulationID, newName)
		if err != nil {
			return internalError("rename", KindContainer, err)
		}
		if exists {
			return NewError("rename", KindContainer, newName, ErrContainerNameConflict)
		}
		c.Name = newName
		if err := tx.UpdateContainer(ctx, c); err != nil {
			return internalError("rename", KindContainer, err)
		}
		out.changed(KindContainer, c.ShortID, newName)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PruneContainers는 멈춘 컨테이너(created, exited)를 모두 삭제합니다.
func (s *Simulator) PruneContainers(ctx context.Context, simulationID string) (*Output, error) {
	s.logger.Info("Pruning containers", zap.String("simulation_id", simulationID))

	out := &Output{}
	var deleted []string
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		containers, err := tx.ListContainers(ctx, simulationID, storage.ContainerStatusCreated, storage.ContainerStatusExited)
		if err != nil {
			return internalError("container prune", KindContainer, err)
		}
		for i := range containers {
			c := &containers[i]
			if err := s.removeContainer(ctx, tx, simulationID, c, false); err != nil {
				return internalError("container prune", KindContainer, err)
			}
			deleted = append(deleted, c.HexID)
			out.changed(KindContainer, c.ShortID, c.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(deleted) > 0 {
		out.println("Deleted Containers:")
		out.println(deleted...)
		out.println("")
	}
	out.println(reclaimed(0))
	return out, nil
}

func encodeArgs(args []string) string {
	if len(args) == 0 {
		return ""
	}
	data, _ := json.Marshal(args)
	return string(data)
}

func decodeArgs(raw string) []string {
	if raw == "" {
		return nil
	}
	var args []string
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return strings.Fields(raw)
	}
	return args
}

func equalArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// commandLine은 인자를 셸 명령 한 줄로 합칩니다. 공백이 있는 인자는 작은따옴표로 감쌉니다.
func commandLine(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t") {
			a = "'" + a + "'"
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
