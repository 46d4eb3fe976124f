package command

import "strings"

// Tokenize는 원시 명령 문자열을 토큰으로 나눕니다.
//
// 따옴표(' 또는 ")로 감싼 구간은 공백을 포함한 하나의 토큰이 되고, 따옴표 문자는 결과에 남지 않습니다.
// 다른 글자와 붙지 않은 빈 따옴표("", '')는 토큰을 만들지 않습니다.
// 역슬래시는 다음 글자를 그대로 쓰게 하며 자기 자신은 버려집니다.
// 빈 입력은 빈 결과를 돌려주고, 닫히지 않은 따옴표는 CodeUnterminatedQuote 오류가 됩니다.
func Tokenize(raw string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		inToken bool
		escaped bool
		quote   rune
	)

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range raw {
		switch {
		case escaped:
			current.WriteRune(r)
			inToken = true
			escaped = false
		case r == '\\':
			escaped = true
			inToken = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
				inToken = true
			}
		case r == '\'' || r == '"':
			quote = r
		case isSpace(r):
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, &Error{Code: CodeUnterminatedQuote, Token: string(quote)}
	}
	// 마지막 역슬래시 하나만 남은 경우 빈 토큰을 만들지 않습니다.
	if escaped && current.Len() == 0 {
		inToken = false
	}
	flush()
	return tokens, nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
