package simulator

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
)

// table은 docker CLI와 같은 방식으로 열을 맞춘 표를 만듭니다.
type table struct {
	buf bytes.Buffer
	w   *tabwriter.Writer
}

func newTable(headers ...string) *table {
	t := &table{}
	t.w = tabwriter.NewWriter(&t.buf, 10, 1, 3, ' ', 0)
	if len(headers) > 0 {
		t.row(headers...)
	}
	return t
}

func (t *table) row(cols ...string) {
	_, _ = fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

// lines는 표를 줄 단위로 반환합니다. 각 줄 끝의 공백은 제거합니다.
func (t *table) lines() []string {
	_ = t.w.Flush()
	raw := strings.Split(strings.TrimRight(t.buf.String(), "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		out = append(out, strings.TrimRight(line, " "))
	}
	return out
}

// ago는 "5 minutes ago" 형식의 경과 시간입니다.
func ago(now, then time.Time) string {
	return units.HumanDuration(now.Sub(then)) + " ago"
}

// humanSize는 docker images의 SIZE 열 형식입니다.
func humanSize(size int64) string {
	return units.HumanSizeWithPrecision(float64(size), 3)
}

// truncate는 s가 max보다 길면 줄임표로 자릅니다.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// reclaimed는 prune 명령 마지막 줄입니다.
func reclaimed(size int64) string {
	return "Total reclaimed space: " + units.HumanSize(float64(size))
}
