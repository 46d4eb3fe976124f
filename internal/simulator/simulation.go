package simulator

import (
	"context"
	"strings"

	"github.com/dockersim/app/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// builtinNetworks는 모든 시뮬레이션에 미리 만들어지는 네트워크입니다.
var builtinNetworks = []storage.Network{
	{Name: storage.NetworkBridge, Driver: storage.NetworkDriverBridge, Subnet: "172.17.0.0/16", Gateway: "172.17.0.1"},
	{Name: storage.NetworkHost, Driver: storage.NetworkDriverHost},
	{Name: storage.NetworkNone, Driver: storage.NetworkDriverNull},
}

// CreateSimulation은 새 시뮬레이션을 만들고 기본 네트워크를 준비합니다.
func (s *Simulator) CreateSimulation(ctx context.Context, title, ownerID string) (*storage.Simulation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled"
	}
	sim := &storage.Simulation{
		SimulationID: uuid.NewString(),
		Title:        title,
		OwnerID:      ownerID,
	}

	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		if err := tx.CreateSimulation(ctx, sim); err != nil {
			return err
		}
		for _, tmpl := range builtinNetworks {
			hexID, shortID := newID()
			n := tmpl
			n.SimulationID = sim.SimulationID
			n.HexID = hexID
			n.ShortID = shortID
			n.Builtin = true
			if err := tx.CreateNetwork(ctx, &n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create simulation", zap.Error(err))
		return nil, internalError("create", KindSimulation, err)
	}

	s.logger.Info("Simulation created",
		zap.String("simulation_id", sim.SimulationID),
		zap.String("owner_id", ownerID),
	)
	return sim, nil
}

// GetSimulation은 시뮬레이션을 조회합니다.
func (s *Simulator) GetSimulation(ctx context.Context, simulationID string) (*storage.Simulation, error) {
	if simulationID == "" {
		return nil, NewError("get", KindSimulation, simulationID, ErrSimulationNotFound)
	}
	sim, err := s.repo.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, translate("get", KindSimulation, simulationID, err, ErrSimulationNotFound)
	}
	return sim, nil
}

// SimulationForChannel은 Discord 채널에 연결된 시뮬레이션을 조회합니다.
func (s *Simulator) SimulationForChannel(ctx context.Context, channelID string) (*storage.Simulation, error) {
	if channelID == "" {
		return nil, NewError("get", KindSimulation, channelID, ErrSimulationNotFound)
	}
	sim, err := s.repo.GetSimulationByChannel(ctx, channelID)
	if err != nil {
		return nil, translate("get", KindSimulation, channelID, err, ErrSimulationNotFound)
	}
	return sim, nil
}

// ListSimulations는 소유자의 시뮬레이션 목록을 반환합니다. ownerID가 비어 있으면 전체를 반환합니다.
func (s *Simulator) ListSimulations(ctx context.Context, ownerID string) ([]storage.Simulation, error) {
	sims, err := s.repo.ListSimulations(ctx, ownerID)
	if err != nil {
		return nil, internalError("list", KindSimulation, err)
	}
	return sims, nil
}

// BindChannel은 시뮬레이션을 Discord 채널(스레드)에 연결합니다.
func (s *Simulator) BindChannel(ctx context.Context, simulationID, channelID string) error {
	if err := s.repo.BindSimulationChannel(ctx, simulationID, channelID); err != nil {
		return translate("bind", KindSimulation, simulationID, err, ErrSimulationNotFound)
	}
	s.logger.Info("Simulation bound to channel",
		zap.String("simulation_id", simulationID),
		zap.String("channel_id", channelID),
	)
	return nil
}

// DeleteSimulation은 시뮬레이션과 그 안의 모든 리소스를 삭제합니다.
func (s *Simulator) DeleteSimulation(ctx context.Context, simulationID string) error {
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		return tx.DeleteSimulation(ctx, simulationID)
	})
	if err != nil {
		return translate("delete", KindSimulation, simulationID, err, ErrSimulationNotFound)
	}
	s.logger.Info("Simulation deleted", zap.String("simulation_id", simulationID))
	return nil
}

// RecordHistory는 실행한 명령을 기록합니다.
func (s *Simulator) RecordHistory(ctx context.Context, entry *storage.CommandHistory) error {
	if err := s.repo.AppendCommandHistory(ctx, entry); err != nil {
		return internalError("history", KindSimulation, err)
	}
	return nil
}

// History는 최근 limit개의 명령 기록을 실행 순으로 반환합니다.
func (s *Simulator) History(ctx context.Context, simulationID string, limit int) ([]storage.CommandHistory, error) {
	if _, err := s.GetSimulation(ctx, simulationID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListCommandHistory(ctx, simulationID, limit)
	if err != nil {
		return nil, internalError("history", KindSimulation, err)
	}
	return rows, nil
}
