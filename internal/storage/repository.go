package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAmbiguousReference는 ID 접두사가 둘 이상의 리소스와 일치할 때 반환됩니다.
var ErrAmbiguousReference = errors.New("storage: ambiguous reference")

// Repository는 시뮬레이션 리소스를 위한 영속성 헬퍼를 제공합니다.
type Repository struct {
	db *gorm.DB
}

// NewRepository는 전달된 gorm DB를 이용해 Repository를 생성합니다.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: repository requires a non-nil db handle")
	}
	return &Repository{db: db}, nil
}

// DB는 내부 gorm DB 참조를 반환합니다.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Transaction은 fn을 하나의 트랜잭션 안에서 실행합니다.
// fn이 받는 Repository는 트랜잭션에 묶여 있으며 fn이 오류를 반환하면 롤백됩니다.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// ---- simulations ----

// CreateSimulation은 새로운 시뮬레이션을 저장합니다.
func (r *Repository) CreateSimulation(ctx context.Context, sim *Simulation) error {
	if sim == nil {
		return fmt.Errorf("storage: nil simulation payload")
	}
	if sim.SimulationID == "" {
		return fmt.Errorf("storage: empty simulationID")
	}
	return r.db.WithContext(ctx).Create(sim).Error
}

// GetSimulation은 식별자로 시뮬레이션을 조회합니다.
func (r *Repository) GetSimulation(ctx context.Context, simulationID string) (*Simulation, error) {
	if simulationID == "" {
		return nil, fmt.Errorf("storage: empty simulationID")
	}
	var sim Simulation
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		First(&sim).Error; err != nil {
		return nil, err
	}
	return &sim, nil
}

// GetSimulationByChannel은 Discord 채널(스레드)에 연결된 시뮬레이션을 조회합니다.
func (r *Repository) GetSimulationByChannel(ctx context.Context, channelID string) (*Simulation, error) {
	if channelID == "" {
		return nil, fmt.Errorf("storage: empty channelID")
	}
	var sim Simulation
	if err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		First(&sim).Error; err != nil {
		return nil, err
	}
	return &sim, nil
}

// ListSimulations는 소유자 필터를 적용해 시뮬레이션 목록을 반환합니다.
func (r *Repository) ListSimulations(ctx context.Context, ownerID string) ([]Simulation, error) {
	q := r.db.WithContext(ctx).Model(&Simulation{})
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	var sims []Simulation
	if err := q.Order("created_at ASC").Find(&sims).Error; err != nil {
		return nil, err
	}
	return sims, nil
}

// BindSimulationChannel은 시뮬레이션에 Discord 채널을 연결합니다.
func (r *Repository) BindSimulationChannel(ctx context.Context, simulationID, channelID string) error {
	if simulationID == "" {
		return fmt.Errorf("storage: empty simulationID")
	}
	res := r.db.WithContext(ctx).
		Model(&Simulation{}).
		Where("simulation_id = ?", simulationID).
		Updates(map[string]interface{}{
			"channel_id": channelID,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteSimulation은 시뮬레이션과 그에 속한 모든 리소스를 삭제합니다.
func (r *Repository) DeleteSimulation(ctx context.Context, simulationID string) error {
	if simulationID == "" {
		return fmt.Errorf("storage: empty simulationID")
	}
	db := r.db.WithContext(ctx)
	owned := []interface{}{
		&CommandHistory{},
		&ContainerLog{},
		&ContainerMount{},
		&ContainerNetwork{},
		&Container{},
		&Volume{},
		&Network{},
		&Image{},
	}
	for _, model := range owned {
		if err := db.Where("simulation_id = ?", simulationID).Delete(model).Error; err != nil {
			return err
		}
	}
	res := db.Where("simulation_id = ?", simulationID).Delete(&Simulation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ---- images ----

// CreateImage는 이미지 참조를 추가합니다.
func (r *Repository) CreateImage(ctx context.Context, img *Image) error {
	if img == nil {
		return fmt.Errorf("storage: nil image payload")
	}
	if img.SimulationID == "" || img.HexID == "" {
		return fmt.Errorf("storage: image requires simulationID and hexID")
	}
	return r.db.WithContext(ctx).Create(img).Error
}

// FindImageByRef는 위치와 저장소 이름, 태그가 모두 일치하는 이미지를 찾습니다.
func (r *Repository) FindImageByRef(ctx context.Context, simulationID, location, namespace, name, tag string) (*Image, error) {
	var img Image
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ? AND location = ? AND namespace = ? AND name = ? AND tag = ?",
			simulationID, location, namespace, name, tag).
		First(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// FindImagesByIDPrefix는 ID 접두사가 일치하는 로컬 이미지 참조를 모두 반환합니다.
func (r *Repository) FindImagesByIDPrefix(ctx context.Context, simulationID, prefix string) ([]Image, error) {
	if !isHexPrefix(prefix) {
		return nil, nil
	}
	var imgs []Image
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ? AND location = ? AND hex_id LIKE ?",
			simulationID, ImageLocationLocal, prefix+"%").
		Order("created_at ASC").
		Find(&imgs).Error; err != nil {
		return nil, err
	}
	return imgs, nil
}

// ListImages는 위치별 이미지 참조를 생성 시간 역순으로 반환합니다.
func (r *Repository) ListImages(ctx context.Context, simulationID, location string) ([]Image, error) {
	var imgs []Image
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ? AND location = ?", simulationID, location).
		Order("created_at DESC").
		Order("id DESC").
		Find(&imgs).Error; err != nil {
		return nil, err
	}
	return imgs, nil
}

// ListImagesByHexID는 같은 이미지에 붙은 모든 참조를 반환합니다.
func (r *Repository) ListImagesByHexID(ctx context.Context, simulationID, location, hexID string) ([]Image, error) {
	var imgs []Image
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ? AND location = ? AND hex_id = ?", simulationID, location, hexID).
		Order("id ASC").
		Find(&imgs).Error; err != nil {
		return nil, err
	}
	return imgs, nil
}

// UntagImage는 이미지 참조를 <none>:<none>으로 바꿉니다.
func (r *Repository) UntagImage(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&Image{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"namespace": "",
			"name":      NoneTag,
			"tag":       NoneTag,
		}).Error
}

// DeleteImage는 이미지 참조 한 건을 삭제합니다.
func (r *Repository) DeleteImage(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&Image{}, id).Error
}

// ---- containers ----

// CreateContainer는 새로운 컨테이너를 저장합니다.
func (r *Repository) CreateContainer(ctx context.Context, c *Container) error {
	if c == nil {
		return fmt.Errorf("storage: nil container payload")
	}
	if c.SimulationID == "" || c.HexID == "" {
		return fmt.Errorf("storage: container requires simulationID and hexID")
	}
	return r.db.WithContext(ctx).Create(c).Error
}

// FindContainer는 이름 또는 ID(접두사 포함)로 컨테이너를 찾습니다.
// 이름이 정확히 일치하면 우선하고, 접두사가 여러 컨테이너와 일치하면 ErrAmbiguousReference를 반환합니다.
func (r *Repository) FindContainer(ctx context.Context, simulationID, ref string) (*Container, error) {
	if ref == "" {
		return nil, gorm.ErrRecordNotFound
	}
	db := r.db.WithContext(ctx)

	var byName Container
	err := db.Where("simulation_id = ? AND name = ?", simulationID, ref).First(&byName).Error
	if err == nil {
		return &byName, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !isHexPrefix(ref) {
		return nil, gorm.ErrRecordNotFound
	}
	var matches []Container
	if err := db.Where("simulation_id = ? AND hex_id LIKE ?", simulationID, ref+"%").
		Limit(2).
		Find(&matches).Error; err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, gorm.ErrRecordNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, ErrAmbiguousReference
	}
}

// ContainerNameExists는 같은 이름의 컨테이너가 있는지 확인합니다.
func (r *Repository) ContainerNameExists(ctx context.Context, simulationID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&Container{}).
		Where("simulation_id = ? AND name = ?", simulationID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListContainers는 상태 필터를 적용해 컨테이너 목록을 최근 생성 순으로 반환합니다.
func (r *Repository) ListContainers(ctx context.Context, simulationID string, statuses ...string) ([]Container, error) {
	q := r.db.WithContext(ctx).Where("simulation_id = ?", simulationID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var containers []Container
	if err := q.Order("created_at DESC").Order("id DESC").Find(&containers).Error; err != nil {
		return nil, err
	}
	return containers, nil
}

// CountContainersByImage는 이미지를 사용하는 컨테이너 수를 셉니다.
func (r *Repository) CountContainersByImage(ctx context.Context, simulationID, imageHexID string, statuses ...string) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&Container{}).
		Where("simulation_id = ? AND image_hex_id = ?", simulationID, imageHexID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateContainer는 컨테이너의 변경 가능한 필드를 저장합니다.
func (r *Repository) UpdateContainer(ctx context.Context, c *Container) error {
	if c == nil {
		return fmt.Errorf("storage: nil container payload")
	}
	if c.HexID == "" {
		return fmt.Errorf("storage: empty container hexID")
	}
	return r.db.WithContext(ctx).
		Model(&Container{}).
		Where("hex_id = ?", c.HexID).
		Updates(map[string]interface{}{
			"name":        c.Name,
			"status":      c.Status,
			"exit_code":   c.ExitCode,
			"started_at":  c.StartedAt,
			"finished_at": c.FinishedAt,
		}).Error
}

// DeleteContainer는 컨테이너와 연결 정보, 로그를 삭제합니다.
func (r *Repository) DeleteContainer(ctx context.Context, simulationID, hexID string) error {
	db := r.db.WithContext(ctx)
	for _, model := range []interface{}{&ContainerLog{}, &ContainerMount{}, &ContainerNetwork{}} {
		if err := db.Where("simulation_id = ? AND container_hex_id = ?", simulationID, hexID).
			Delete(model).Error; err != nil {
			return err
		}
	}
	return db.Where("simulation_id = ? AND hex_id = ?", simulationID, hexID).Delete(&Container{}).Error
}

// ---- networks ----

// CreateNetwork는 새로운 네트워크를 저장합니다.
func (r *Repository) CreateNetwork(ctx context.Context, n *Network) error {
	if n == nil {
		return fmt.Errorf("storage: nil network payload")
	}
	if n.SimulationID == "" || n.Name == "" {
		return fmt.Errorf("storage: network requires simulationID and name")
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// FindNetwork는 이름 또는 ID(접두사 포함)로 네트워크를 찾습니다.
func (r *Repository) FindNetwork(ctx context.Context, simulationID, ref string) (*Network, error) {
	if ref == "" {
		return nil, gorm.ErrRecordNotFound
	}
	db := r.db.WithContext(ctx)

	var byName Network
	err := db.Where("simulation_id = ? AND name = ?", simulationID, ref).First(&byName).Error
	if err == nil {
		return &byName, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !isHexPrefix(ref) {
		return nil, gorm.ErrRecordNotFound
	}
	var matches []Network
	if err := db.Where("simulation_id = ? AND hex_id LIKE ?", simulationID, ref+"%").
		Limit(2).
		Find(&matches).Error; err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, gorm.ErrRecordNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, ErrAmbiguousReference
	}
}

// ListNetworks는 네트워크 목록을 생성 순으로 반환합니다.
func (r *Repository) ListNetworks(ctx context.Context, simulationID string) ([]Network, error) {
	var networks []Network
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		Order("id ASC").
		Find(&networks).Error; err != nil {
		return nil, err
	}
	return networks, nil
}

// DeleteNetwork는 네트워크를 삭제합니다.
func (r *Repository) DeleteNetwork(ctx context.Context, simulationID, hexID string) error {
	return r.db.WithContext(ctx).
		Where("simulation_id = ? AND hex_id = ?", simulationID, hexID).
		Delete(&Network{}).Error
}

// ConnectNetwork는 컨테이너를 네트워크에 연결합니다. 이미 연결되어 있으면 false를 반환합니다.
func (r *Repository) ConnectNetwork(ctx context.Context, link *ContainerNetwork) (bool, error) {
	if link == nil {
		return false, fmt.Errorf("storage: nil container network payload")
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "container_hex_id"}, {Name: "network_hex_id"}},
			DoNothing: true,
		}).
		Create(link)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DisconnectNetwork는 연결을 끊습니다. 연결이 없었으면 false를 반환합니다.
func (r *Repository) DisconnectNetwork(ctx context.Context, simulationID, containerHexID, networkHexID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("simulation_id = ? AND container_hex_id = ? AND network_hex_id = ?",
			simulationID, containerHexID, networkHexID).
		Delete(&ContainerNetwork{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListContainerNetworks는 컨테이너의 네트워크 연결을 반환합니다.
func (r *Repository) ListContainerNetworks(ctx context.Context, simulationID, containerHexID string) ([]ContainerNetwork, error) {
	var links []ContainerNetwork
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ? AND container_hex_id = ?", simulationID, containerHexID).
		Order("id ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// ListNetworkContainers는 네트워크에 연결된 컨테이너 연결을 반환합니다.
func (r *Repository) ListNetworkContainers(ctx context.Context, simulationID, networkHexID string) ([]ContainerNetwork, error) {
	var links []ContainerNetwork
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ? AND network_hex_id = ?", simulationID, networkHexID).
		Order("id ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// ---- volumes ----

// CreateVolume은 새로운 볼륨을 저장합니다.
func (r *Repository) CreateVolume(ctx context.Context, v *Volume) error {
	if v == nil {
		return fmt.Errorf("storage: nil volume payload")
	}
	if v.SimulationID == "" || v.Name == "" {
		return fmt.Errorf("storage: volume requires simulationID and name")
	}
	return r.db.WithContext(ctx).Create(v).Error
}

// GetVolume은 이름으로 볼륨을 조회합니다.
func (r *Repository) GetVolume(ctx context.Context, simulationID, name string) (*Volume, error) {
	var v Volume
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ? AND name = ?", simulationID, name).
		First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVolumes는 볼륨 목록을 생성 순으로 반환합니다.
func (r *Repository) ListVolumes(ctx context.Context, simulationID string) ([]Volume, error) {
	var volumes []Volume
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		Order("id ASC").
		Find(&volumes).Error; err != nil {
		return nil, err
	}
	return volumes, nil
}

// DeleteVolume은 볼륨을 삭제합니다.
func (r *Repository) DeleteVolume(ctx context.Context, simulationID, name string) error {
	return r.db.WithContext(ctx).
		Where("simulation_id = ? AND name = ?", simulationID, name).
		Delete(&Volume{}).Error
}

// CountVolumeUsers는 볼륨을 마운트한 컨테이너 수를 셉니다.
func (r *Repository) CountVolumeUsers(ctx context.Context, simulationID, name string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ContainerMount{}).
		Where("simulation_id = ? AND type = ? AND source = ?", simulationID, MountTypeVolume, name).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// AddContainerMount는 컨테이너 마운트를 기록합니다.
func (r *Repository) AddContainerMount(ctx context.Context, m *ContainerMount) error {
	if m == nil {
		return fmt.Errorf("storage: nil container mount payload")
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// ListContainerMounts는 컨테이너의 마운트 목록을 반환합니다.
func (r *Repository) ListContainerMounts(ctx context.Context, simulationID, containerHexID string) ([]ContainerMount, error) {
	var mounts []ContainerMount
	if err := r.db.WithContext(ctx).
		Where("simulation_id = ? AND container_hex_id = ?", simulationID, containerHexID).
		Order("id ASC").
		Find(&mounts).Error; err != nil {
		return nil, err
	}
	return mounts, nil
}

// ---- logs & history ----

// AppendContainerLogs는 컨테이너 출력 줄을 순서대로 추가합니다.
func (r *Repository) AppendContainerLogs(ctx context.Context, simulationID, containerHexID string, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]ContainerLog, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, ContainerLog{
			SimulationID:   simulationID,
			ContainerHexID: containerHexID,
			Line:           line,
			CreatedAt:      now,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ListContainerLogs는 컨테이너 로그를 기록 순으로 반환합니다. tail이 0보다 크면 마지막 tail줄만 반환합니다.
func (r *Repository) ListContainerLogs(ctx context.Context, simulationID, containerHexID string, tail int) ([]ContainerLog, error) {
	var rows []ContainerLog
	q := r.db.WithContext(ctx).
		Where("simulation_id = ? AND container_hex_id = ?", simulationID, containerHexID)
	if tail > 0 {
		if err := q.Order("id DESC").Limit(tail).Find(&rows).Error; err != nil {
			return nil, err
		}
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
		return rows, nil
	}
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendCommandHistory는 실행한 명령을 기록합니다.
func (r *Repository) AppendCommandHistory(ctx context.Context, entry *CommandHistory) error {
	if entry == nil {
		return fmt.Errorf("storage: nil command history payload")
	}
	if entry.SimulationID == "" {
		return fmt.Errorf("storage: empty simulationID")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListCommandHistory는 최근 limit개의 명령을 실행 순으로 반환합니다.
func (r *Repository) ListCommandHistory(ctx context.Context, simulationID string, limit int) ([]CommandHistory, error) {
	var rows []CommandHistory
	q := r.db.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// isHexPrefix는 ref가 ID 접두사로 쓸 수 있는 소문자 16진수 문자열인지 확인합니다.
func isHexPrefix(ref string) bool {
	if ref == "" || len(ref) > 64 {
		return false
	}
	for _, r := range ref {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
