package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dockersim/app/internal/command"
	"github.com/dockersim/app/internal/simulator"
	"github.com/dockersim/app/internal/storage"
	"go.uber.org/zap"
)

// 기록에 남기는 출력은 이 길이까지만 저장합니다.
const maxHistoryOutput = 4000

// handlerFunc는 검증을 통과한 명령 하나를 시뮬레이터 호출로 옮깁니다.
type handlerFunc func(ctx context.Context, simulationID string, p *command.ParsedCommand) (*simulator.Output, error)

type key struct {
	domain string
	verb   string
}

type route struct {
	status Status
	handle handlerFunc
}

// Dispatcher는 파싱된 명령을 (도메인, 명령어) 표에 따라 시뮬레이터로 보냅니다.
type Dispatcher struct {
	logger *zap.Logger
	sim    *simulator.Simulator
	routes map[key]route
}

// NewDispatcher는 처리기 표를 채운 Dispatcher를 생성합니다.
func NewDispatcher(logger *zap.Logger, sim *simulator.Simulator) (*Dispatcher, error) {
	if sim == nil {
		return nil, fmt.Errorf("dispatch: simulator is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		logger: logger,
		sim:    sim,
		routes: make(map[key]route),
	}
	d.registerContainer()
	d.registerImage()
	d.registerNetwork()
	d.registerVolume()
	return d, nil
}

func (d *Dispatcher) register(domain, verb string, status Status, h handlerFunc) {
	d.routes[key{domain, verb}] = route{status: status, handle: h}
}

// Handles는 (domain, verb) 조합에 처리기가 있는지 확인합니다. verb는 별칭이어도 됩니다.
func (d *Dispatcher) Handles(domain, verb string) bool {
	_, ok := d.routes[key{domain, command.CanonicalVerb(verb)}]
	return ok
}

// Simulator는 Dispatcher가 사용하는 시뮬레이터를 반환합니다.
func (d *Dispatcher) Simulator() *simulator.Simulator {
	return d.sim
}

// Execute는 명령 문자열을 파싱하고 실행한 뒤 결과를 명령 기록에 남깁니다.
// 파싱 실패는 *command.Error, 실행 실패는 *simulator.Error로 반환됩니다.
func (d *Dispatcher) Execute(ctx context.Context, principal Principal, raw string) (*Result, error) {
	start := time.Now()
	parsed := command.Parse(raw)

	var (
		res *Result
		err error
	)
	if parsed.Valid {
		res, err = d.Dispatch(ctx, principal, parsed)
	} else {
		err = parseError(parsed)
	}

	code, _ := Describe(err)
	d.logger.Info("Command executed",
		zap.String("simulation_id", principal.SimulationID),
		zap.String("user_id", principal.UserID),
		zap.String("command", raw),
		zap.Bool("success", err == nil),
		zap.String("code", code),
		zap.Duration("elapsed", time.Since(start)),
	)
	d.record(ctx, principal, raw, res, err)
	return res, err
}

// Dispatch는 검증된 명령을 처리기로 보냅니다. 시뮬레이션이 없으면 S001을 반환합니다.
func (d *Dispatcher) Dispatch(ctx context.Context, principal Principal, parsed *command.ParsedCommand) (*Result, error) {
	if parsed == nil || !parsed.Valid {
		return nil, parseError(parsed)
	}
	if _, err := d.sim.GetSimulation(ctx, principal.SimulationID); err != nil {
		return nil, err
	}

	r, ok := d.routes[key{parsed.Domain(), parsed.Canonical()}]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNoHandler, parsed.Domain(), parsed.Verb)
	}

	out, err := r.handle(ctx, principal.SimulationID, parsed)
	if err != nil {
		return nil, err
	}
	return newResult(r.status, out), nil
}

func parseError(parsed *command.ParsedCommand) error {
	if parsed != nil && parsed.Err != nil {
		return parsed.Err
	}
	return &command.Error{Code: command.CodeEmptyCommand}
}

// record는 명령 기록을 남깁니다. 기록 실패는 명령 결과에 영향을 주지 않습니다.
func (d *Dispatcher) record(ctx context.Context, principal Principal, raw string, res *Result, err error) {
	if principal.SimulationID == "" {
		return
	}
	entry := &storage.CommandHistory{
		SimulationID: principal.SimulationID,
		UserID:       principal.UserID,
		Command:      raw,
		Success:      err == nil,
	}
	if err != nil {
		if errors.Is(err, simulator.ErrSimulationNotFound) {
			return
		}
		entry.ErrorCode, entry.Output = Describe(err)
	} else {
		entry.Output = truncateOutput(res.Text())
	}
	if recErr := d.sim.RecordHistory(ctx, entry); recErr != nil {
		d.logger.Warn("Failed to record command history",
			zap.String("simulation_id", principal.SimulationID),
			zap.Error(recErr),
		)
	}
}

func truncateOutput(s string) string {
	if len(s) <= maxHistoryOutput {
		return s
	}
	cut := maxHistoryOutput
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], "\n") + "\n…"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
