package storage

import "time"

// Simulation은 simulations 테이블 레코드를 나타냅니다.
// 모든 리소스는 SimulationID로 구분된 하나의 시뮬레이션에 속합니다.
type Simulation struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID string    `gorm:"column:simulation_id;type:varchar(64);not null;uniqueIndex:idx_simulations_simulation_id"`
	Title        string    `gorm:"column:title;type:varchar(255)"`
	OwnerID      string    `gorm:"column:owner_id;type:varchar(64);not null;index:idx_simulations_owner"`
	ChannelID    string    `gorm:"column:channel_id;type:varchar(64);index:idx_simulations_channel"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (Simulation) TableName() string {
	return "simulations"
}

// Image는 이미지 참조(repository:tag) 한 건입니다.
// 같은 HexID를 가진 행이 여러 개면 하나의 이미지에 여러 태그가 붙은 것입니다.
type Image struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID string    `gorm:"column:simulation_id;type:varchar(64);not null;index:idx_images_sim_hex,priority:1"`
	HexID        string    `gorm:"column:hex_id;type:varchar(64);not null;index:idx_images_sim_hex,priority:2"`
	ShortID      string    `gorm:"column:short_id;type:varchar(12);not null"`
	Domain       string    `gorm:"column:domain;type:varchar(255);not null;default:'docker.io'"`
	Namespace    string    `gorm:"column:namespace;type:varchar(255);not null"`
	Name         string    `gorm:"column:name;type:varchar(255);not null"`
	Tag          string    `gorm:"column:tag;type:varchar(128);not null"`
	Location     string    `gorm:"column:location;type:varchar(16);not null;default:'local'"`
	Layers       int       `gorm:"column:layers;type:int;not null;default:1"`
	Size         int64     `gorm:"column:size;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (Image) TableName() string {
	return "images"
}

// Dangling은 태그가 떨어져 나간 이미지인지 확인합니다.
func (i Image) Dangling() bool {
	return i.Tag == NoneTag
}

// Repository는 docker images 출력에 쓰는 저장소 이름입니다.
func (i Image) Repository() string {
	if i.Dangling() {
		return NoneTag
	}
	path := i.Name
	if i.Namespace != "" && i.Namespace != DefaultNamespace {
		path = i.Namespace + "/" + i.Name
	}
	if i.Domain != "" && i.Domain != DefaultDomain {
		return i.Domain + "/" + path
	}
	return path
}

// Reference는 repository:tag 형식의 이름입니다.
func (i Image) Reference() string {
	if i.Dangling() {
		return i.ShortID
	}
	return i.Repository() + ":" + i.Tag
}

// Container는 containers 테이블 레코드를 나타냅니다.
type Container struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID string     `gorm:"column:simulation_id;type:varchar(64);not null;index:idx_containers_sim_name,priority:1"`
	HexID        string     `gorm:"column:hex_id;type:varchar(64);not null;uniqueIndex:idx_containers_hex_id"`
	ShortID      string     `gorm:"column:short_id;type:varchar(12);not null"`
	Name         string     `gorm:"column:name;type:varchar(255);not null;index:idx_containers_sim_name,priority:2"`
	ImageHexID   string     `gorm:"column:image_hex_id;type:varchar(64);not null;index:idx_containers_image"`
	ImageRef     string     `gorm:"column:image_ref;type:varchar(255);not null"`
	Command      string     `gorm:"column:command;type:text"`
	Status       string     `gorm:"column:status;type:varchar(16);not null"`
	Ports        string     `gorm:"column:ports;type:text"`
	Envs         string     `gorm:"column:envs;type:text"`
	AutoRemove   bool       `gorm:"column:auto_remove;not null;default:false"`
	Interactive  bool       `gorm:"column:interactive;not null;default:false"`
	ExitCode     int        `gorm:"column:exit_code;type:int;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	FinishedAt   *time.Time `gorm:"column:finished_at"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (Container) TableName() string {
	return "containers"
}

// Network는 networks 테이블 레코드를 나타냅니다.
type Network struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID string    `gorm:"column:simulation_id;type:varchar(64);not null;uniqueIndex:idx_networks_sim_name,priority:1"`
	HexID        string    `gorm:"column:hex_id;type:varchar(64);not null;uniqueIndex:idx_networks_hex_id"`
	ShortID      string    `gorm:"column:short_id;type:varchar(12);not null"`
	Name         string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex:idx_networks_sim_name,priority:2"`
	Driver       string    `gorm:"column:driver;type:varchar(32);not null;default:'bridge'"`
	Subnet       string    `gorm:"column:subnet;type:varchar(64)"`
	Gateway      string    `gorm:"column:gateway;type:varchar(64)"`
	Internal     bool      `gorm:"column:internal;not null;default:false"`
	Builtin      bool      `gorm:"column:builtin;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (Network) TableName() string {
	return "networks"
}

// ContainerNetwork는 컨테이너와 네트워크의 연결입니다.
type ContainerNetwork struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID   string    `gorm:"column:simulation_id;type:varchar(64);not null;index:idx_container_networks_sim"`
	ContainerHexID string    `gorm:"column:container_hex_id;type:varchar(64);not null;uniqueIndex:idx_container_networks_pair,priority:1"`
	NetworkHexID   string    `gorm:"column:network_hex_id;type:varchar(64);not null;uniqueIndex:idx_container_networks_pair,priority:2"`
	IPAddress      string    `gorm:"column:ip_address;type:varchar(64)"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (ContainerNetwork) TableName() string {
	return "container_networks"
}

// Volume은 volumes 테이블 레코드를 나타냅니다.
type Volume struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID string    `gorm:"column:simulation_id;type:varchar(64);not null;uniqueIndex:idx_volumes_sim_name,priority:1"`
	Name         string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex:idx_volumes_sim_name,priority:2"`
	Driver       string    `gorm:"column:driver;type:varchar(32);not null;default:'local'"`
	Anonymous    bool      `gorm:"column:anonymous;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (Volume) TableName() string {
	return "volumes"
}

// Mountpoint는 호스트 쪽 볼륨 경로입니다.
func (v Volume) Mountpoint() string {
	return "/var/lib/docker/volumes/" + v.Name + "/_data"
}

// ContainerMount는 컨테이너에 연결된 볼륨 또는 바인드 마운트입니다.
type ContainerMount struct {
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID   string `gorm:"column:simulation_id;type:varchar(64);not null;index:idx_container_mounts_sim_source,priority:1"`
	ContainerHexID string `gorm:"column:container_hex_id;type:varchar(64);not null;index:idx_container_mounts_container"`
	Type           string `gorm:"column:type;type:varchar(16);not null"`
	Source         string `gorm:"column:source;type:varchar(255);not null;index:idx_container_mounts_sim_source,priority:2"`
	Destination    string `gorm:"column:destination;type:varchar(255);not null"`
	ReadOnly       bool   `gorm:"column:read_only;not null;default:false"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (ContainerMount) TableName() string {
	return "container_mounts"
}

// ContainerLog는 docker logs로 보여줄 컨테이너 출력 한 줄입니다.
type ContainerLog struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID   string    `gorm:"column:simulation_id;type:varchar(64);not null"`
	ContainerHexID string    `gorm:"column:container_hex_id;type:varchar(64);not null;index:idx_container_logs_container"`
	Line           string    `gorm:"column:line;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (ContainerLog) TableName() string {
	return "container_logs"
}

// CommandHistory는 시뮬레이션에서 실행된 명령 기록입니다.
type CommandHistory struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SimulationID string    `gorm:"column:simulation_id;type:varchar(64);not null;index:idx_command_history_sim"`
	UserID       string    `gorm:"column:user_id;type:varchar(64);not null"`
	Command      string    `gorm:"column:command;type:text;not null"`
	Success      bool      `gorm:"column:success;not null"`
	ErrorCode    string    `gorm:"column:error_code;type:varchar(64)"`
	Output       string    `gorm:"column:output;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName implements gorm's tabler interface.
func (CommandHistory) TableName() string {
	return "command_history"
}
