package simulator

import (
	"errors"
	"fmt"
	"time"

	"github.com/dockersim/app/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Simulator는 시뮬레이션별 가상 도커 리소스(컨테이너, 이미지, 네트워크, 볼륨)를 관리합니다.
type Simulator struct {
	logger  *zap.Logger
	repo    *storage.Repository
	catalog *Catalog
	now     func() time.Time
}

// NewSimulator는 기본 카탈로그를 사용하는 Simulator를 생성합니다.
func NewSimulator(logger *zap.Logger, repo *storage.Repository) (*Simulator, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return NewSimulatorWithCatalog(logger, repo, catalog)
}

// NewSimulatorWithCatalog는 주어진 카탈로그로 Simulator를 생성합니다.
func NewSimulatorWithCatalog(logger *zap.Logger, repo *storage.Repository, catalog *Catalog) (*Simulator, error) {
	if repo == nil {
		return nil, fmt.Errorf("simulator: repository is not configured")
	}
	if catalog == nil {
		return nil, fmt.Errorf("simulator: catalog is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		logger:  logger,
		repo:    repo,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Catalog는 공식 이미지 카탈로그를 반환합니다.
func (s *Simulator) Catalog() *Catalog {
	return s.catalog
}

// Change는 명령으로 생성, 변경, 삭제된 리소스 하나입니다.
type Change struct {
	Kind string
	ID   string
	Name string
}

// Output은 명령 실행 결과로 콘솔에 보여줄 줄과 변경된 리소스 목록입니다.
type Output struct {
	Lines   []string
	Changes []Change
}

func (o *Output) printf(format string, args ...interface{}) {
	o.Lines = append(o.Lines, fmt.Sprintf(format, args...))
}

func (o *Output) println(lines ...string) {
	o.Lines = append(o.Lines, lines...)
}

func (o *Output) changed(kind, id, name string) {
	o.Changes = append(o.Changes, Change{Kind: kind, ID: id, Name: name})
}

// translate는 저장소 오류를 시뮬레이터 오류로 바꿉니다.
// notFound가 nil이 아니면 gorm.ErrRecordNotFound를 해당 에러로 바꿉니다.
func translate(op, kind, name string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	var simErr *Error
	if errors.As(err, &simErr) {
		return err
	}
	switch {
	case notFound != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return NewError(op, kind, name, notFound)
	case errors.Is(err, storage.ErrAmbiguousReference):
		return NewError(op, kind, name, ErrAmbiguousReference)
	default:
		return internalError(op, kind, err)
	}
}

func (s *Simulator) timePtr() *time.Time {
	t := s.now()
	return &t
}
