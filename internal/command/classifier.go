package command

import "strings"

// Classification은 토큰을 그룹, 명령어, 나머지 토큰으로 나눈 결과입니다.
type Classification struct {
	Group string   // 그룹 명령이면 그룹 이름, 최상위 명령이면 빈 문자열
	Verb  string   // 입력된 명령어
	Rest  []string // 명령어 뒤의 토큰
}

// Domain은 명령어가 다루는 리소스 그룹을 반환합니다.
func (c Classification) Domain() string {
	if c.Group != "" {
		return c.Group
	}
	return flatVerbs[c.Verb]
}

// Classify는 토큰 열의 모양을 보고 그룹 명령인지 최상위 명령인지 판단합니다.
// 그룹의 알 수 없는 하위 명령어는 여기서 거르지 않고 Validate에서 처리합니다.
func Classify(tokens []string) (Classification, error) {
	if len(tokens) == 0 {
		return Classification{}, &Error{Code: CodeEmptyCommand}
	}
	if tokens[0] != Program {
		return Classification{}, &Error{Code: CodeNotStartWithDocker, Token: tokens[0]}
	}
	if len(tokens) < 2 || strings.HasPrefix(tokens[1], "-") {
		return Classification{}, &Error{Code: CodeMissingSubcommand}
	}

	head := tokens[1]
	if IsGroup(head) {
		if len(tokens) < 3 || strings.HasPrefix(tokens[2], "-") {
			return Classification{}, &Error{
				Code:  CodeIncompleteGroupCommand,
				Group: head,
				Valid: GroupVerbs(head),
			}
		}
		return Classification{Group: head, Verb: tokens[2], Rest: tokens[3:]}, nil
	}

	if !IsFlatVerb(head) {
		return Classification{}, &Error{Code: CodeUnsupportedCommand, Verb: head}
	}
	return Classification{Verb: head, Rest: tokens[2:]}, nil
}
