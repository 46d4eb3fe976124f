package simulator

import (
	"context"
	"errors"

	"github.com/dockersim/app/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateVolume은 볼륨을 만들고 이름을 출력합니다. name이 비어 있으면 익명 볼륨을 만듭니다.
func (s *Simulator) CreateVolume(ctx context.Context, simulationID, name, driver string) (*Output, error) {
	s.logger.Info("Creating volume",
		zap.String("simulation_id", simulationID),
		zap.String("name", name),
	)

	if driver == "" {
		driver = storage.VolumeDriverLocal
	}
	anonymous := name == ""
	if anonymous {
		name, _ = newID()
	}

	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		_, err := tx.GetVolume(ctx, simulationID, name)
		switch {
		case err == nil:
			return NewError("volume create", KindVolume, name, ErrVolumeNameConflict)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return internalError("volume create", KindVolume, err)
		}

		v := &storage.Volume{
			SimulationID: simulationID,
			Name:         name,
			Driver:       driver,
			Anonymous:    anonymous,
		}
		if err := tx.CreateVolume(ctx, v); err != nil {
			return internalError("volume create", KindVolume, err)
		}
		out.println(name)
		out.changed(KindVolume, name, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ensureVolume은 컨테이너 마운트에 쓸 볼륨을 찾고, 없으면 만듭니다.
func ensureVolume(ctx context.Context, tx *storage.Repository, simulationID, name string, anonymous bool) (*storage.Volume, error) {
	v, err := tx.GetVolume(ctx, simulationID, name)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	v = &storage.Volume{
		SimulationID: simulationID,
		Name:         name,
		Driver:       storage.VolumeDriverLocal,
		Anonymous:    anonymous,
	}
	if err := tx.CreateVolume(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// RemoveVolumes는 볼륨을 삭제합니다. 컨테이너가 마운트한 볼륨은 삭제할 수 없습니다.
// force가 true면 없는 볼륨은 건너뜁니다.
func (s *Simulator) RemoveVolumes(ctx context.Context, simulationID string, names []string, force bool) (*Output, error) {
	s.logger.Info("Removing volumes",
		zap.String("simulation_id", simulationID),
		zap.Strings("volumes", names),
		zap.Bool("force", force),
	)

	out := &Output{}
	for _, name := range names {
		err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
			v, err := tx.GetVolume(ctx, simulationID, name)
			if err != nil {
				if force && errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return translate("volume rm", KindVolume, name, err, ErrVolumeNotFound)
			}
			users, err := tx.CountVolumeUsers(ctx, simulationID, v.Name)
			if err != nil {
				return internalError("volume rm", KindVolume, err)
			}
			if users > 0 {
				return NewError("volume rm", KindVolume, v.Name, ErrVolumeInUse)
			}
			if err := tx.DeleteVolume(ctx, simulationID, v.Name); err != nil {
				return internalError("volume rm", KindVolume, err)
			}
			out.println(v.Name)
			out.changed(KindVolume, v.Name, v.Name)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListVolumes는 볼륨 목록을 docker volume ls 형식으로 출력합니다.
func (s *Simulator) ListVolumes(ctx context.Context, simulationID string, opts ListOptions) (*Output, error) {
	volumes, err := s.repo.ListVolumes(ctx, simulationID)
	if err != nil {
		return nil, internalError("volume ls", KindVolume, err)
	}

	out := &Output{}
	if opts.Quiet {
		for _, v := range volumes {
			out.println(v.Name)
		}
		return out, nil
	}

	t := newTable("DRIVER", "VOLUME NAME")
	for _, v := range volumes {
		t.row(v.Driver, v.Name)
	}
	out.println(t.lines()...)
	return out, nil
}

// InspectVolumes는 볼륨 상세 정보를 JSON으로 출력합니다.
func (s *Simulator) InspectVolumes(ctx context.Context, simulationID string, names []string) (*Output, error) {
	var docs []volumeInspect
	for _, name := range names {
		v, err := s.repo.GetVolume(ctx, simulationID, name)
		if err != nil {
			return nil, translate("volume inspect", KindVolume, name, err, ErrVolumeNotFound)
		}
		docs = append(docs, inspectVolume(v))
	}
	return jsonOutput(docs)
}

// PruneVolumes는 사용하지 않는 볼륨을 삭제합니다. all이 false면 익명 볼륨만 대상입니다.
func (s *Simulator) PruneVolumes(ctx context.Context, simulationID string, all bool) (*Output, error) {
	s.logger.Info("Pruning volumes",
		zap.String("simulation_id", simulationID),
		zap.Bool("all", all),
	)

	out := &Output{}
	var deleted []string
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		volumes, err := tx.ListVolumes(ctx, simulationID)
		if err != nil {
			return internalError("volume prune", KindVolume, err)
		}
		for _, v := range volumes {
			if !all && !v.Anonymous {
				continue
			}
			users, err := tx.CountVolumeUsers(ctx, simulationID, v.Name)
			if err != nil {
				return internalError("volume prune", KindVolume, err)
			}
			if users > 0 {
				continue
			}
			if err := tx.DeleteVolume(ctx, simulationID, v.Name); err != nil {
				return internalError("volume prune", KindVolume, err)
			}
			deleted = append(deleted, v.Name)
			out.changed(KindVolume, v.Name, v.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(deleted) > 0 {
		out.println("Deleted Volumes:")
		out.println(deleted...)
		out.println("")
	}
	out.println(reclaimed(0))
	return out, nil
}
