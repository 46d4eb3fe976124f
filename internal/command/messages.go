package command

import (
	"fmt"
	"strings"
)

var needPhrases = map[Need]string{
	NeedImage:               "이미지 이름이",
	NeedContainer:           "컨테이너 이름 또는 ID가",
	NeedExecCommand:         "컨테이너 이름과 실행할 명령어가",
	NeedRename:              "기존 컨테이너 이름과 새 이름이",
	NeedTagPair:             "원본 이미지와 새 태그가",
	NeedBuildContext:        "빌드 컨텍스트가",
	NeedNetwork:             "네트워크 이름이",
	NeedNetworkAndContainer: "네트워크 이름과 컨테이너 이름이",
	NeedVolume:              "볼륨 이름이",
}

// Message는 파싱 오류를 사용자에게 보여줄 문장으로 바꿉니다.
func Message(e *Error) string {
	if e == nil {
		return ""
	}
	switch e.Code {
	case CodeEmptyCommand:
		return "명령어가 입력되지 않았습니다."
	case CodeNotStartWithDocker:
		return "명령어는 'docker'로 시작해야 합니다."
	case CodeMissingSubcommand:
		return "docker 명령어 뒤에 실행할 명령이 없습니다."
	case CodeUnsupportedCommand:
		return fmt.Sprintf("지원하지 않는 명령어입니다: %s", e.Verb)
	case CodeIncompleteGroupCommand:
		return fmt.Sprintf("도커 그룹 명령 뒤에 명령어가 누락되었습니다: docker %s. 사용 가능한 명령어: %s",
			e.Group, strings.Join(e.Valid, ", "))
	case CodeUnterminatedQuote:
		return fmt.Sprintf("닫히지 않은 따옴표(%s)가 있습니다.", e.Token)
	case CodeUnknownSubcommand:
		return fmt.Sprintf("알 수 없는 %s 명령어입니다: %s. 사용 가능한 명령어: %s",
			e.Group, e.Verb, strings.Join(e.Valid, ", "))
	case CodeMissingArgument:
		msg := fmt.Sprintf("%s 명령어에는 %s 필요합니다.", commandPath(e), needPhrases[e.Need])
		if e.Example != "" {
			msg += " 예: " + e.Example
		}
		return msg
	case CodeTooManyArguments:
		return fmt.Sprintf("%s 명령어의 인자가 너무 많습니다 (최대 %d개).", commandPath(e), e.Limit)
	default:
		return fmt.Sprintf("명령어를 해석할 수 없습니다: %s", e.Code)
	}
}

func commandPath(e *Error) string {
	if e.Group != "" {
		return fmt.Sprintf("%s %s %s", Program, e.Group, e.Verb)
	}
	return fmt.Sprintf("%s %s", Program, e.Verb)
}
