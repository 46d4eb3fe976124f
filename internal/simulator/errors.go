package simulator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// 리소스 종류
const (
	KindContainer  = "container"
	KindImage      = "image"
	KindNetwork    = "network"
	KindVolume     = "volume"
	KindSimulation = "simulation"
)

// 기본 에러 타입
var (
	// Container 관련 에러
	ErrContainerNotFound     = errors.New("컨테이너를 찾을 수 없음")
	ErrContainerNotRunning   = errors.New("컨테이너가 실행 중이 아님")
	ErrContainerInvalidState = errors.New("현재 상태에서 허용되지 않는 작업")
	ErrContainerNameConflict = errors.New("컨테이너 이름 중복")
	ErrInvalidPortSpec       = errors.New("잘못된 포트 지정")
	ErrPortAllocated         = errors.New("이미 할당된 포트")
	ErrInvalidMount          = errors.New("잘못된 볼륨 지정")
	ErrExecNotFound          = errors.New("실행 파일을 찾을 수 없음")

	// Image 관련 에러
	ErrImageNotFound      = errors.New("이미지를 찾을 수 없음")
	ErrImageInUse         = errors.New("컨테이너가 사용 중인 이미지")
	ErrImageMultipleRefs  = errors.New("여러 저장소에서 참조하는 이미지")
	ErrInvalidReference   = errors.New("잘못된 이미지 참조")
	ErrRepositoryNotFound = errors.New("원격 저장소를 찾을 수 없음")
	ErrPushDenied         = errors.New("푸시 권한 없음")

	// Network 관련 에러
	ErrNetworkNotFound         = errors.New("네트워크를 찾을 수 없음")
	ErrNetworkNameConflict     = errors.New("네트워크 이름 중복")
	ErrNetworkInUse            = errors.New("사용 중인 네트워크")
	ErrNetworkBuiltin          = errors.New("기본 네트워크")
	ErrNetworkAlreadyConnected = errors.New("이미 연결된 네트워크")
	ErrNetworkNotConnected     = errors.New("연결되지 않은 네트워크")
	ErrInvalidSubnet           = errors.New("잘못된 서브넷")

	// Volume 관련 에러
	ErrVolumeNotFound     = errors.New("볼륨을 찾을 수 없음")
	ErrVolumeNameConflict = errors.New("볼륨 이름 중복")
	ErrVolumeInUse        = errors.New("사용 중인 볼륨")

	// 공통 에러
	ErrSimulationNotFound = errors.New("시뮬레이션을 찾을 수 없음")
	ErrAmbiguousReference = errors.New("여러 리소스와 일치하는 참조")
	ErrInternal           = errors.New("내부 오류")
)

type errorSpec struct {
	code   string
	status int
	format func(e *Error) string
}

var errorSpecs = map[error]errorSpec{
	ErrContainerNotFound: {"C001", http.StatusNotFound, func(e *Error) string {
		return fmt.Sprintf("컨테이너 '%s'를 찾을 수 없습니다.", e.Name)
	}},
	ErrContainerNotRunning: {"C002", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("컨테이너 '%s'가 실행 중이 아닙니다.", e.Name)
	}},
	ErrContainerInvalidState: {"C003", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("컨테이너 '%s'는 현재 %s 상태이므로 %s 할 수 없습니다.", e.Name, e.State, e.Op)
	}},
	ErrContainerNameConflict: {"C004", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("Conflict. The container name \"/%s\" is already in use.", e.Name)
	}},
	ErrInvalidPortSpec: {"C005", http.StatusBadRequest, func(e *Error) string {
		return fmt.Sprintf("잘못된 포트 지정입니다: %s", e.Name)
	}},
	ErrPortAllocated: {"C006", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("Bind for 0.0.0.0:%s failed: port is already allocated", e.Name)
	}},
	ErrInvalidMount: {"C007", http.StatusBadRequest, func(e *Error) string {
		return fmt.Sprintf("잘못된 볼륨 지정입니다: %s", e.Name)
	}},
	ErrExecNotFound: {"C008", http.StatusBadRequest, func(e *Error) string {
		return fmt.Sprintf("OCI runtime exec failed: exec failed: unable to start container process: exec: %q: executable file not found in $PATH", e.Name)
	}},
	ErrImageNotFound: {"D001", http.StatusNotFound, func(e *Error) string {
		return fmt.Sprintf("이미지 '%s'를 찾을 수 없습니다.", e.Name)
	}},
	ErrImageInUse: {"D002", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("Error response from daemon: conflict: unable to remove repository reference %q (must force) - container %s is using its referenced image", e.Name, e.State)
	}},
	ErrImageMultipleRefs: {"D003", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("Error response from daemon: conflict: unable to delete %s (must be forced) - image is referenced in multiple repositories", e.Name)
	}},
	ErrInvalidReference: {"D004", http.StatusBadRequest, func(e *Error) string {
		return fmt.Sprintf("invalid reference format: %s", e.Name)
	}},
	ErrRepositoryNotFound: {"D005", http.StatusNotFound, func(e *Error) string {
		return fmt.Sprintf("pull access denied for %s, repository does not exist or may require 'docker login'", e.Name)
	}},
	ErrPushDenied: {"D006", http.StatusForbidden, func(e *Error) string {
		return fmt.Sprintf("denied: requested access to the resource is denied (%s)", e.Name)
	}},
	ErrNetworkNotFound: {"N001", http.StatusNotFound, func(e *Error) string {
		return fmt.Sprintf("네트워크 %s를 찾을 수 없습니다.", e.Name)
	}},
	ErrNetworkNameConflict: {"N002", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("네트워크 %s가 이미 존재합니다.", e.Name)
	}},
	ErrNetworkInUse: {"N003", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("네트워크 %s에 연결된 컨테이너가 있어 삭제할 수 없습니다.", e.Name)
	}},
	ErrNetworkBuiltin: {"N004", http.StatusForbidden, func(e *Error) string {
		return fmt.Sprintf("%s는 미리 정의된 네트워크이므로 삭제할 수 없습니다.", e.Name)
	}},
	ErrNetworkAlreadyConnected: {"N005", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("컨테이너 %s는 이미 네트워크 %s에 연결되어 있습니다.", e.State, e.Name)
	}},
	ErrNetworkNotConnected: {"N006", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("컨테이너 %s는 네트워크 %s에 연결되어 있지 않습니다.", e.State, e.Name)
	}},
	ErrInvalidSubnet: {"N007", http.StatusBadRequest, func(e *Error) string {
		return fmt.Sprintf("잘못된 서브넷입니다: %s", e.Name)
	}},
	ErrVolumeNotFound: {"V001", http.StatusNotFound, func(e *Error) string {
		return fmt.Sprintf("볼륨 %s를 찾을 수 없습니다.", e.Name)
	}},
	ErrVolumeNameConflict: {"V002", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("볼륨 %s가 이미 존재합니다.", e.Name)
	}},
	ErrVolumeInUse: {"V003", http.StatusConflict, func(e *Error) string {
		return fmt.Sprintf("볼륨 %s를 사용 중인 컨테이너가 있어 삭제할 수 없습니다.", e.Name)
	}},
	ErrSimulationNotFound: {"S001", http.StatusNotFound, func(e *Error) string {
		return fmt.Sprintf("시뮬레이션 %s를 찾을 수 없습니다.", e.Name)
	}},
	ErrAmbiguousReference: {"R001", http.StatusBadRequest, func(e *Error) string {
		return fmt.Sprintf("'%s'와 일치하는 %s가 여러 개입니다. 더 긴 ID를 입력하세요.", e.Name, kindLabel(e.Kind))
	}},
}

var internalSpec = errorSpec{"E500", http.StatusInternalServerError, func(e *Error) string {
	return "명령을 처리하는 중 내부 오류가 발생했습니다."
}}

// Error는 시뮬레이터 작업 실패를 래핑합니다.
type Error struct {
	Op    string // 작업명 (예: "start", "rm")
	Kind  string // 리소스 종류
	Name  string // 사용자가 입력한 이름 또는 ID
	State string // 현재 상태 등 메시지에 필요한 부가 정보
	Err   error  // 원본 에러
}

func (e *Error) Error() string {
	return e.spec().format(e)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code는 안정적인 에러 코드를 반환합니다 (예: "C001").
func (e *Error) Code() string {
	return e.spec().code
}

// HTTPStatus는 에러에 대응하는 HTTP 상태 코드를 반환합니다.
func (e *Error) HTTPStatus() int {
	return e.spec().status
}

func (e *Error) spec() errorSpec {
	for sentinel, spec := range errorSpecs {
		if errors.Is(e.Err, sentinel) {
			return spec
		}
	}
	return internalSpec
}

// NewError는 새 Error를 생성합니다.
func NewError(op, kind, name string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: kind,
		Name: name,
		Err:  err,
	}
}

// stateError는 상태 전이 오류를 만듭니다.
func stateError(op, name, state string) *Error {
	return &Error{
		Op:    op,
		Kind:  KindContainer,
		Name:  name,
		State: state,
		Err:   ErrContainerInvalidState,
	}
}

// internalError는 저장소 오류 등 예상하지 못한 실패를 감쌉니다.
func internalError(op, kind string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  fmt.Errorf("%w: %v", ErrInternal, err),
	}
}

// IsNotFound는 리소스를 찾지 못한 에러인지 확인합니다.
func IsNotFound(err error) bool {
	switch {
	case errors.Is(err, ErrContainerNotFound),
		errors.Is(err, ErrImageNotFound),
		errors.Is(err, ErrNetworkNotFound),
		errors.Is(err, ErrVolumeNotFound),
		errors.Is(err, ErrSimulationNotFound):
		return true
	default:
		return false
	}
}

// IsConflict는 현재 상태와 충돌하는 요청인지 확인합니다.
func IsConflict(err error) bool {
	var simErr *Error
	if errors.As(err, &simErr) {
		return simErr.HTTPStatus() == http.StatusConflict
	}
	return false
}

// kindLabel은 메시지에 쓰는 리소스 종류의 한국어 이름입니다.
func kindLabel(kind string) string {
	switch strings.ToLower(kind) {
	case KindContainer:
		return "컨테이너"
	case KindImage:
		return "이미지"
	case KindNetwork:
		return "네트워크"
	case KindVolume:
		return "볼륨"
	default:
		return "리소스"
	}
}
