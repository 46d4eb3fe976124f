package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dockersim/app/internal/dispatch"
	"github.com/dockersim/app/internal/storage"
)

// Discord 메시지 하나에 담을 수 있는 최대 길이입니다.
const maxMessageLength = 2000

const (
	fenceOpen  = "```\n"
	fenceClose = "\n```"
	noOutput   = "(출력 없음)"

	historyTailReserve = 32
)

// formatReply는 명령 실행 결과를 Discord 메시지 목록으로 만듭니다.
// 성공하면 콘솔 출력을 코드 블록으로, 실패하면 "코드: 메시지" 형식으로 보냅니다.
func formatReply(res *dispatch.Result, err error) []string {
	if err != nil {
		code, msg := dispatch.Describe(err)
		return chunkMessage(formatError(code, msg), maxMessageLength)
	}
	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return []string{noOutput}
	}
	return codeBlocks(text, maxMessageLength)
}

func formatError(code, msg string) string {
	return fmt.Sprintf("❌ **%s**: %s", code, msg)
}

// formatHistory는 명령 기록을 한 메시지 분량의 목록으로 만듭니다.
func formatHistory(rows []storage.CommandHistory) string {
	if len(rows) == 0 {
		return "아직 실행한 명령이 없어요."
	}
	var b strings.Builder
	b.WriteString(fenceOpen)
	for idx, row := range rows {
		line := fmt.Sprintf("%s  ✔ %s", row.CreatedAt.Format("01-02 15:04:05"), row.Command)
		if !row.Success {
			line = fmt.Sprintf("%s  ✘ %s [%s]", row.CreatedAt.Format("01-02 15:04:05"), row.Command, row.ErrorCode)
		}
		if b.Len()+len(line)+len(fenceClose)+historyTailReserve > maxMessageLength {
			fmt.Fprintf(&b, "\n… %d개 더 있음", len(rows)-idx)
			break
		}
		if idx > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	b.WriteString(fenceClose)
	return b.String()
}

// codeBlocks는 텍스트를 줄 단위로 나눠 각 조각을 코드 블록으로 감쌉니다.
func codeBlocks(text string, limit int) []string {
	budget := limit - len(fenceOpen) - len(fenceClose)
	chunks := chunkMessage(strings.ReplaceAll(text, "```", "`\u200b``"), budget)
	for idx, chunk := range chunks {
		chunks[idx] = fenceOpen + chunk + fenceClose
	}
	return chunks
}

// chunkMessage는 content를 limit 바이트 이하의 조각으로 나눕니다.
// 가능하면 줄 경계에서 자르고, 한 줄이 limit보다 길면 UTF-8 문자 경계에서 자릅니다.
func chunkMessage(content string, limit int) []string {
	if len(content) <= limit {
		return []string{content}
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	for _, line := range strings.Split(content, "\n") {
		for len(line) > limit {
			flush()
			head := truncateRunes(line, limit)
			chunks = append(chunks, head)
			line = line[len(head):]
		}
		sep := 0
		if current.Len() > 0 {
			sep = 1
		}
		if current.Len()+sep+len(line) > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	flush()
	return chunks
}

// truncateRunes는 s를 최대 n 바이트로 자르되 UTF-8 문자를 쪼개지 않습니다.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
