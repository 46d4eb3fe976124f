package dispatch

import (
	"strings"

	"github.com/dockersim/app/internal/simulator"
)

// Status는 명령이 리소스에 미친 영향의 종류입니다.
type Status string

const (
	StatusCreate Status = "CREATE"
	StatusRead   Status = "READ"
	StatusUpdate Status = "UPDATE"
	StatusDelete Status = "DELETE"
	StatusNone   Status = "NONE"
)

// Ref는 명령으로 바뀐 리소스 하나를 가리킵니다.
type Ref struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Principal은 명령을 실행하는 사용자와 대상 시뮬레이션입니다.
type Principal struct {
	UserID       string
	SimulationID string
}

// Result는 명령 실행 결과 봉투입니다.
type Result struct {
	Console []string `json:"console"`
	Status  Status   `json:"status"`
	Changed []Ref    `json:"changed,omitempty"`
}

// Text는 콘솔 출력을 한 덩어리 문자열로 합칩니다.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Console, "\n")
}

func newResult(status Status, out *simulator.Output) *Result {
	res := &Result{Console: []string{}, Status: status}
	if out == nil {
		return res
	}
	if out.Lines != nil {
		res.Console = out.Lines
	}
	for _, c := range out.Changes {
		res.Changed = append(res.Changed, Ref{Kind: c.Kind, ID: c.ID, Name: c.Name})
	}
	return res
}
