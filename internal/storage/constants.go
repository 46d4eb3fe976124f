package storage

const (
	ContainerStatusCreated = "created"
	ContainerStatusRunning = "running"
	ContainerStatusPaused  = "paused"
	ContainerStatusExited  = "exited"

	ImageLocationLocal = "local"
	ImageLocationHub   = "hub"

	// 태그가 없는 이미지의 저장소 이름과 태그
	NoneTag          = "<none>"
	DefaultTag       = "latest"
	DefaultDomain    = "docker.io"
	DefaultNamespace = "library"

	NetworkDriverBridge = "bridge"
	NetworkDriverHost   = "host"
	NetworkDriverNull   = "null"

	NetworkBridge = "bridge"
	NetworkHost   = "host"
	NetworkNone   = "none"

	VolumeDriverLocal = "local"

	MountTypeVolume = "volume"
	MountTypeBind   = "bind"
)
