package command

import "errors"

// Code는 파싱 단계 오류를 구분하는 안정적인 식별자입니다.
type Code string

const (
	CodeEmptyCommand           Code = "EMPTY_COMMAND"
	CodeNotStartWithDocker     Code = "NOT_START_WITH_DOCKER"
	CodeMissingSubcommand      Code = "MISSING_SUBCOMMAND"
	CodeUnsupportedCommand     Code = "UNSUPPORTED_COMMAND"
	CodeIncompleteGroupCommand Code = "INCOMPLETE_GROUP_COMMAND"
	CodeUnterminatedQuote      Code = "UNTERMINATED_QUOTE"
	CodeUnknownSubcommand      Code = "UNKNOWN_SUBCOMMAND"
	CodeMissingArgument        Code = "MISSING_ARGUMENT"
	CodeTooManyArguments       Code = "TOO_MANY_ARGUMENTS"
)

// Need는 명령어에 빠진 인자의 종류입니다.
type Need int

const (
	NeedNone Need = iota
	NeedImage
	NeedContainer
	NeedExecCommand
	NeedRename
	NeedTagPair
	NeedBuildContext
	NeedNetwork
	NeedNetworkAndContainer
	NeedVolume
)

// Error는 토큰화, 분류, 검증 단계에서 발생한 오류입니다.
// 메시지 문구는 messages.go에서만 만들어집니다.
type Error struct {
	Code    Code
	Group   string   // 입력된 그룹 (없으면 빈 문자열)
	Verb    string   // 입력된 명령어
	Token   string   // 문제가 된 토큰
	Valid   []string // 사용 가능한 명령어 목록
	Need    Need     // 부족한 인자 종류
	Limit   int      // 허용된 최대 인자 수
	Example string   // 올바른 사용 예
}

func (e *Error) Error() string {
	return Message(e)
}

// CodeOf는 err에서 파싱 오류 코드를 꺼냅니다. 파싱 오류가 아니면 빈 문자열입니다.
func CodeOf(err error) Code {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// IsCode는 err가 주어진 코드의 파싱 오류인지 확인합니다.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
