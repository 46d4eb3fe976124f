package simulator

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dockersim/app/internal/storage"
)

type imageInspect struct {
	ID           string      `json:"Id"`
	RepoTags     []string    `json:"RepoTags"`
	Created      string      `json:"Created"`
	Size         int64       `json:"Size"`
	Config       imageConfig `json:"Config"`
	RootFS       rootFS      `json:"RootFS"`
	Os           string      `json:"Os"`
	Architecture string      `json:"Architecture"`
}

type imageConfig struct {
	Cmd          []string            `json:"Cmd"`
	WorkingDir   string              `json:"WorkingDir"`
	ExposedPorts map[string]struct{} `json:"ExposedPorts,omitempty"`
}

type rootFS struct {
	Type   string   `json:"Type"`
	Layers []string `json:"Layers"`
}

type containerInspect struct {
	ID              string                   `json:"Id"`
	Created         string                   `json:"Created"`
	Path            string                   `json:"Path"`
	Args            []string                 `json:"Args"`
	State           containerState           `json:"State"`
	Image           string                   `json:"Image"`
	Name            string                   `json:"Name"`
	Config          containerConfig          `json:"Config"`
	Mounts          []mountInspect           `json:"Mounts"`
	NetworkSettings containerNetworkSettings `json:"NetworkSettings"`
}

type containerState struct {
	Status     string `json:"Status"`
	Running    bool   `json:"Running"`
	Paused     bool   `json:"Paused"`
	ExitCode   int    `json:"ExitCode"`
	StartedAt  string `json:"StartedAt"`
	FinishedAt string `json:"FinishedAt"`
}

type containerConfig struct {
	Hostname   string   `json:"Hostname"`
	Env        []string `json:"Env"`
	Cmd        []string `json:"Cmd"`
	Image      string   `json:"Image"`
	WorkingDir string   `json:"WorkingDir"`
	Tty        bool     `json:"Tty"`
	OpenStdin  bool     `json:"OpenStdin"`
	AutoRemove bool     `json:"AutoRemove"`
}

type mountInspect struct {
	Type        string `json:"Type"`
	Name        string `json:"Name,omitempty"`
	Source      string `json:"Source"`
	Destination string `json:"Destination"`
	RW          bool   `json:"RW"`
}

type containerNetworkSettings struct {
	Ports    []string                    `json:"Ports"`
	Networks map[string]endpointSettings `json:"Networks"`
}

type endpointSettings struct {
	NetworkID string `json:"NetworkID"`
	IPAddress string `json:"IPAddress"`
	Gateway   string `json:"Gateway"`
}

type networkInspect struct {
	Name       string                     `json:"Name"`
	ID         string                     `json:"Id"`
	Created    string                     `json:"Created"`
	Scope      string                     `json:"Scope"`
	Driver     string                     `json:"Driver"`
	IPAM       networkIPAM                `json:"IPAM"`
	Internal   bool                       `json:"Internal"`
	Containers map[string]networkEndpoint `json:"Containers"`
}

type networkIPAM struct {
	Driver string              `json:"Driver"`
	Config []map[string]string `json:"Config"`
}

type networkEndpoint struct {
	Name        string `json:"Name"`
	IPv4Address string `json:"IPv4Address"`
}

type volumeInspect struct {
	CreatedAt  string `json:"CreatedAt"`
	Driver     string `json:"Driver"`
	Mountpoint string `json:"Mountpoint"`
	Name       string `json:"Name"`
	Scope      string `json:"Scope"`
}

// jsonOutput은 docker inspect처럼 들여쓴 JSON 배열을 줄 단위로 출력합니다.
func jsonOutput(docs interface{}) (*Output, error) {
	data, err := json.MarshalIndent(docs, "", "    ")
	if err != nil {
		return nil, internalError("inspect", "", err)
	}
	return &Output{Lines: strings.Split(string(data), "\n")}, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalTimestamp(t *time.Time) string {
	if t == nil {
		return "0001-01-01T00:00:00Z"
	}
	return timestamp(*t)
}

func (s *Simulator) inspectImage(img *storage.Image, siblings []storage.Image) imageInspect {
	tags := make([]string, 0, len(siblings))
	for _, sib := range siblings {
		if !sib.Dangling() {
			tags = append(tags, sib.Reference())
		}
	}
	layers := make([]string, img.Layers)
	for i := range layers {
		layers[i] = "sha256:" + layerDigest(img.HexID, i)
	}

	prof := s.profileFor(img.HexID)
	cfg := imageConfig{Cmd: prof.Command, WorkingDir: prof.WorkDir}
	if len(prof.Ports) > 0 {
		cfg.ExposedPorts = make(map[string]struct{}, len(prof.Ports))
		for _, p := range prof.Ports {
			cfg.ExposedPorts[p] = struct{}{}
		}
	}

	return imageInspect{
		ID:           "sha256:" + img.HexID,
		RepoTags:     tags,
		Created:      timestamp(img.CreatedAt),
		Size:         img.Size,
		Config:       cfg,
		RootFS:       rootFS{Type: "layers", Layers: layers},
		Os:           "linux",
		Architecture: "amd64",
	}
}

// InspectContainers는 컨테이너 상세 정보를 JSON으로 출력합니다.
func (s *Simulator) InspectContainers(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	var docs []containerInspect
	for _, ref := range refs {
		c, err := s.findContainer(ctx, s.repo, "inspect", simulationID, ref)
		if err != nil {
			return nil, err
		}
		doc, err := s.inspectContainer(ctx, simulationID, c)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return jsonOutput(docs)
}

func (s *Simulator) inspectContainer(ctx context.Context, simulationID string, c *storage.Container) (containerInspect, error) {
	mounts, err := s.repo.ListContainerMounts(ctx, simulationID, c.HexID)
	if err != nil {
		return containerInspect{}, internalError("inspect", KindContainer, err)
	}
	links, err := s.repo.ListContainerNetworks(ctx, simulationID, c.HexID)
	if err != nil {
		return containerInspect{}, internalError("inspect", KindContainer, err)
	}

	args := decodeArgs(c.Command)
	doc := containerInspect{
		ID:      c.HexID,
		Created: timestamp(c.CreatedAt),
		Args:    []string{},
		State: containerState{
			Status:     c.Status,
			Running:    c.Status == storage.ContainerStatusRunning || c.Status == storage.ContainerStatusPaused,
			Paused:     c.Status == storage.ContainerStatusPaused,
			ExitCode:   c.ExitCode,
			StartedAt:  optionalTimestamp(c.StartedAt),
			FinishedAt: optionalTimestamp(c.FinishedAt),
		},
		Image: "sha256:" + c.ImageHexID,
		Name:  "/" + c.Name,
		Config: containerConfig{
			Hostname:   c.ShortID,
			Env:        []string{"PATH=" + defaultPath},
			Cmd:        args,
			Image:      c.ImageRef,
			WorkingDir: s.profileFor(c.ImageHexID).WorkDir,
			Tty:        c.Interactive,
			OpenStdin:  c.Interactive,
			AutoRemove: c.AutoRemove,
		},
		Mounts: []mountInspect{},
		NetworkSettings: containerNetworkSettings{
			Ports:    []string{},
			Networks: make(map[string]endpointSettings),
		},
	}
	if len(args) > 0 {
		doc.Path = args[0]
		doc.Args = args[1:]
	}
	if c.Envs != "" {
		doc.Config.Env = append(doc.Config.Env, strings.Split(c.Envs, "\n")...)
	}
	if c.Ports != "" {
		doc.NetworkSettings.Ports = strings.Split(c.Ports, ", ")
	}

	for _, m := range mounts {
		mi := mountInspect{Type: m.Type, Source: m.Source, Destination: m.Destination, RW: !m.ReadOnly}
		if m.Type == storage.MountTypeVolume {
			mi.Name = m.Source
			mi.Source = storage.Volume{Name: m.Source}.Mountpoint()
		}
		doc.Mounts = append(doc.Mounts, mi)
	}

	for _, l := range links {
		n, err := s.repo.FindNetwork(ctx, simulationID, l.NetworkHexID)
		if err != nil {
			continue
		}
		doc.NetworkSettings.Networks[n.Name] = endpointSettings{
			NetworkID: n.HexID,
			IPAddress: l.IPAddress,
			Gateway:   n.Gateway,
		}
	}
	return doc, nil
}

func (s *Simulator) inspectNetwork(ctx context.Context, simulationID string, n *storage.Network) (networkInspect, error) {
	links, err := s.repo.ListNetworkContainers(ctx, simulationID, n.HexID)
	if err != nil {
		return networkInspect{}, internalError("network inspect", KindNetwork, err)
	}

	doc := networkInspect{
		Name:       n.Name,
		ID:         n.HexID,
		Created:    timestamp(n.CreatedAt),
		Scope:      "local",
		Driver:     n.Driver,
		IPAM:       networkIPAM{Driver: "default", Config: []map[string]string{}},
		Internal:   n.Internal,
		Containers: make(map[string]networkEndpoint),
	}
	if n.Subnet != "" {
		doc.IPAM.Config = append(doc.IPAM.Config, map[string]string{"Subnet": n.Subnet, "Gateway": n.Gateway})
	}
	for _, l := range links {
		c, err := s.repo.FindContainer(ctx, simulationID, l.ContainerHexID)
		if err != nil {
			continue
		}
		ep := networkEndpoint{Name: c.Name}
		if l.IPAddress != "" {
			ep.IPv4Address = l.IPAddress + "/" + prefixBits(n.Subnet)
		}
		doc.Containers[c.HexID] = ep
	}
	return doc, nil
}

func prefixBits(subnet string) string {
	if _, bits, ok := strings.Cut(subnet, "/"); ok {
		return bits
	}
	return "32"
}

func inspectVolume(v *storage.Volume) volumeInspect {
	return volumeInspect{
		CreatedAt:  timestamp(v.CreatedAt),
		Driver:     v.Driver,
		Mountpoint: v.Mountpoint(),
		Name:       v.Name,
		Scope:      "local",
	}
}
