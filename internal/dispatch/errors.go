package dispatch

import (
	"errors"
	"net/http"

	"github.com/dockersim/app/internal/command"
	"github.com/dockersim/app/internal/simulator"
)

// ErrNoHandler는 문법상 올바르지만 처리기가 등록되지 않은 명령입니다.
var ErrNoHandler = errors.New("dispatch: no handler registered")

// 파싱 오류도 도메인 오류도 아닌 실패에 쓰는 코드입니다.
const (
	CodeNoHandler = "UNSUPPORTED_COMMAND"
	CodeInternal  = "E500"
)

// Describe는 파이프라인 오류를 사용자에게 보여줄 (코드, 메시지) 쌍으로 바꿉니다.
func Describe(err error) (string, string) {
	if err == nil {
		return "", ""
	}

	var parseErr *command.Error
	if errors.As(err, &parseErr) {
		return string(parseErr.Code), command.Message(parseErr)
	}

	var simErr *simulator.Error
	if errors.As(err, &simErr) {
		return simErr.Code(), simErr.Error()
	}

	if errors.Is(err, ErrNoHandler) {
		return CodeNoHandler, "아직 시뮬레이터가 지원하지 않는 명령어입니다."
	}
	return CodeInternal, "명령을 처리하는 중 내부 오류가 발생했습니다."
}

// HTTPStatus는 오류에 대응하는 HTTP 상태 코드입니다. 오류가 없으면 200입니다.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var parseErr *command.Error
	if errors.As(err, &parseErr) {
		return http.StatusBadRequest
	}

	var simErr *simulator.Error
	if errors.As(err, &simErr) {
		return simErr.HTTPStatus()
	}

	if errors.Is(err, ErrNoHandler) {
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
