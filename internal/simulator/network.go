package simulator

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/dockersim/app/internal/storage"
	"go.uber.org/zap"
)

// 사용자 네트워크 기본 서브넷은 172.18.0.0/16부터 차례로 할당합니다.
const (
	firstUserSubnet = 18
	lastUserSubnet  = 31
)

// NetworkCreateOptions는 docker network create 옵션입니다.
type NetworkCreateOptions struct {
	Name     string
	Driver   string
	Subnet   string
	Gateway  string
	Internal bool
}

// ListOptions는 ls 계열 명령의 공통 옵션입니다.
type ListOptions struct {
	Quiet   bool
	NoTrunc bool
}

// CreateNetwork는 사용자 정의 네트워크를 만들고 전체 ID를 출력합니다.
func (s *Simulator) CreateNetwork(ctx context.Context, simulationID string, opts NetworkCreateOptions) (*Output, error) {
	s.logger.Info("Creating network",
		zap.String("simulation_id", simulationID),
		zap.String("name", opts.Name),
		zap.String("driver", opts.Driver),
	)

	driver := opts.Driver
	if driver == "" {
		driver = storage.NetworkDriverBridge
	}

	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		networks, err := tx.ListNetworks(ctx, simulationID)
		if err != nil {
			return internalError("network create", KindNetwork, err)
		}
		for _, n := range networks {
			if n.Name == opts.Name {
				return NewError("network create", KindNetwork, opts.Name, ErrNetworkNameConflict)
			}
		}

		subnet, gateway, err := chooseSubnet(networks, opts.Subnet, opts.Gateway)
		if err != nil {
			return err
		}

		hexID, shortID := newID()
		n := &storage.Network{
			SimulationID: simulationID,
			HexID:        hexID,
			ShortID:      shortID,
			Name:         opts.Name,
			Driver:       driver,
			Subnet:       subnet,
			Gateway:      gateway,
			Internal:     opts.Internal,
		}
		if err := tx.CreateNetwork(ctx, n); err != nil {
			return internalError("network create", KindNetwork, err)
		}
		out.println(hexID)
		out.changed(KindNetwork, shortID, n.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// chooseSubnet은 요청한 서브넷을 검증하거나 겹치지 않는 서브넷을 고릅니다.
func chooseSubnet(existing []storage.Network, subnet, gateway string) (string, string, error) {
	taken := make([]netip.Prefix, 0, len(existing))
	for _, n := range existing {
		if p, err := netip.ParsePrefix(n.Subnet); err == nil {
			taken = append(taken, p)
		}
	}
	overlaps := func(p netip.Prefix) bool {
		for _, t := range taken {
			if t.Overlaps(p) {
				return true
			}
		}
		return false
	}

	var prefix netip.Prefix
	if subnet != "" {
		p, err := netip.ParsePrefix(subnet)
		if err != nil || !p.Addr().Is4() {
			return "", "", NewError("network create", KindNetwork, subnet, ErrInvalidSubnet)
		}
		prefix = p.Masked()
		if overlaps(prefix) {
			return "", "", NewError("network create", KindNetwork, subnet, ErrInvalidSubnet)
		}
	} else {
		for octet := firstUserSubnet; octet <= lastUserSubnet; octet++ {
			p := netip.MustParsePrefix(fmt.Sprintf("172.%d.0.0/16", octet))
			if !overlaps(p) {
				prefix = p
				break
			}
		}
		if !prefix.IsValid() {
			return "", "", NewError("network create", KindNetwork, "172.16.0.0/12", ErrInvalidSubnet)
		}
	}

	gw := prefix.Addr().Next()
	if gateway != "" {
		addr, err := netip.ParseAddr(gateway)
		if err != nil || !prefix.Contains(addr) {
			return "", "", NewError("network create", KindNetwork, gateway, ErrInvalidSubnet)
		}
		gw = addr
	}
	return prefix.String(), gw.String(), nil
}

// allocateIP는 네트워크 서브넷에서 비어 있는 첫 번째 주소를 고릅니다.
// 서브넷이 없는 네트워크(host, none)는 빈 문자열을 반환합니다.
func allocateIP(ctx context.Context, tx *storage.Repository, simulationID string, n *storage.Network) (string, error) {
	prefix, err := netip.ParsePrefix(n.Subnet)
	if err != nil {
		return "", nil
	}
	links, err := tx.ListNetworkContainers(ctx, simulationID, n.HexID)
	if err != nil {
		return "", err
	}
	used := map[string]bool{n.Gateway: true}
	for _, l := range links {
		used[l.IPAddress] = true
	}
	for addr := prefix.Addr().Next(); prefix.Contains(addr); addr = addr.Next() {
		if !used[addr.String()] {
			return addr.String(), nil
		}
	}
	return "", fmt.Errorf("no available addresses in %s", n.Subnet)
}

func (s *Simulator) findNetwork(ctx context.Context, tx *storage.Repository, op, simulationID, ref string) (*storage.Network, error) {
	n, err := tx.FindNetwork(ctx, simulationID, ref)
	if err != nil {
		return nil, translate(op, KindNetwork, ref, err, ErrNetworkNotFound)
	}
	return n, nil
}

// RemoveNetworks는 네트워크를 삭제합니다. 기본 네트워크나 컨테이너가 연결된 네트워크는 삭제할 수 없습니다.
func (s *Simulator) RemoveNetworks(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	s.logger.Info("Removing networks",
		zap.String("simulation_id", simulationID),
		zap.Strings("networks", refs),
	)

	out := &Output{}
	for _, ref := range refs {
		err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
			n, err := s.findNetwork(ctx, tx, "network rm", simulationID, ref)
			if err != nil {
				return err
			}
			if n.Builtin {
				return NewError("network rm", KindNetwork, n.Name, ErrNetworkBuiltin)
			}
			links, err := tx.ListNetworkContainers(ctx, simulationID, n.HexID)
			if err != nil {
				return internalError("network rm", KindNetwork, err)
			}
			if len(links) > 0 {
				return NewError("network rm", KindNetwork, n.Name, ErrNetworkInUse)
			}
			if err := tx.DeleteNetwork(ctx, simulationID, n.HexID); err != nil {
				return internalError("network rm", KindNetwork, err)
			}
			out.println(ref)
			out.changed(KindNetwork, n.ShortID, n.Name)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListNetworks는 네트워크 목록을 docker network ls 형식으로 출력합니다.
func (s *Simulator) ListNetworks(ctx context.Context, simulationID string, opts ListOptions) (*Output, error) {
	networks, err := s.repo.ListNetworks(ctx, simulationID)
	if err != nil {
		return nil, internalError("network ls", KindNetwork, err)
	}

	out := &Output{}
	id := func(n storage.Network) string {
		if opts.NoTrunc {
			return n.HexID
		}
		return n.ShortID
	}
	if opts.Quiet {
		for _, n := range networks {
			out.println(id(n))
		}
		return out, nil
	}

	t := newTable("NETWORK ID", "NAME", "DRIVER", "SCOPE")
	for _, n := range networks {
		t.row(id(n), n.Name, n.Driver, "local")
	}
	out.println(t.lines()...)
	return out, nil
}

// InspectNetworks는 네트워크 상세 정보를 JSON으로 출력합니다.
func (s *Simulator) InspectNetworks(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	var docs []networkInspect
	for _, ref := range refs {
		n, err := s.findNetwork(ctx, s.repo, "network inspect", simulationID, ref)
		if err != nil {
			return nil, err
		}
		doc, err := s.inspectNetwork(ctx, simulationID, n)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return jsonOutput(docs)
}

// ConnectNetwork는 컨테이너를 네트워크에 연결합니다.
func (s *Simulator) ConnectNetwork(ctx context.Context, simulationID, networkRef, containerRef string) (*Output, error) {
	s.logger.Info("Connecting container to network",
		zap.String("simulation_id", simulationID),
		zap.String("network", networkRef),
		zap.String("container", containerRef),
	)

	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		n, err := s.findNetwork(ctx, tx, "network connect", simulationID, networkRef)
		if err != nil {
			return err
		}
		c, err := s.findContainer(ctx, tx, "network connect", simulationID, containerRef)
		if err != nil {
			return err
		}
		if err := s.attach(ctx, tx, "network connect", simulationID, c, n); err != nil {
			return err
		}
		out.changed(KindNetwork, n.ShortID, n.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// attach는 IP를 할당해 컨테이너를 네트워크에 연결합니다.
func (s *Simulator) attach(ctx context.Context, tx *storage.Repository, op, simulationID string, c *storage.Container, n *storage.Network) error {
	ip, err := allocateIP(ctx, tx, simulationID, n)
	if err != nil {
		return internalError(op, KindNetwork, err)
	}
	created, err := tx.ConnectNetwork(ctx, &storage.ContainerNetwork{
		SimulationID:   simulationID,
		ContainerHexID: c.HexID,
		NetworkHexID:   n.HexID,
		IPAddress:      ip,
	})
	if err != nil {
		return internalError(op, KindNetwork, err)
	}
	if !created {
		e := NewError(op, KindNetwork, n.Name, ErrNetworkAlreadyConnected)
		e.State = c.Name
		return e
	}
	return nil
}

// DisconnectNetwork는 컨테이너를 네트워크에서 분리합니다.
// force가 true면 연결되어 있지 않아도 오류 없이 넘어갑니다.
func (s *Simulator) DisconnectNetwork(ctx context.Context, simulationID, networkRef, containerRef string, force bool) (*Output, error) {
	s.logger.Info("Disconnecting container from network",
		zap.String("simulation_id", simulationID),
		zap.String("network", networkRef),
		zap.String("container", containerRef),
	)

	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		n, err := s.findNetwork(ctx, tx, "network disconnect", simulationID, networkRef)
		if err != nil {
			return err
		}
		c, err := s.findContainer(ctx, tx, "network disconnect", simulationID, containerRef)
		if err != nil {
			return err
		}
		removed, err := tx.DisconnectNetwork(ctx, simulationID, c.HexID, n.HexID)
		if err != nil {
			return internalError("network disconnect", KindNetwork, err)
		}
		if !removed {
			if force {
				return nil
			}
			e := NewError("network disconnect", KindNetwork, n.Name, ErrNetworkNotConnected)
			e.State = c.Name
			return e
		}
		out.changed(KindNetwork, n.ShortID, n.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PruneNetworks는 컨테이너가 연결되지 않은 사용자 네트워크를 삭제합니다.
func (s *Simulator) PruneNetworks(ctx context.Context, simulationID string) (*Output, error) {
	s.logger.Info("Pruning networks", zap.String("simulation_id", simulationID))

	out := &Output{}
	var deleted []string
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		networks, err := tx.ListNetworks(ctx, simulationID)
		if err != nil {
			return internalError("network prune", KindNetwork, err)
		}
		for _, n := range networks {
			if n.Builtin {
				continue
			}
			links, err := tx.ListNetworkContainers(ctx, simulationID, n.HexID)
			if err != nil {
				return internalError("network prune", KindNetwork, err)
			}
			if len(links) > 0 {
				continue
			}
			if err := tx.DeleteNetwork(ctx, simulationID, n.HexID); err != nil {
				return internalError("network prune", KindNetwork, err)
			}
			deleted = append(deleted, n.Name)
			out.changed(KindNetwork, n.ShortID, n.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(deleted) > 0 {
		out.println("Deleted Networks:")
		out.println(deleted...)
	}
	return out, nil
}
