package command

import "errors"

// Parse는 토큰화, 분류, 분리, 검증을 차례로 수행합니다.
// 실패해도 nil을 반환하지 않으며, 그때는 Valid가 false이고 Err에 원인이 담깁니다.
func Parse(raw string) *ParsedCommand {
	tokens, err := Tokenize(raw)
	if err != nil {
		return invalid(raw, err)
	}

	classified, err := Classify(tokens)
	if err != nil {
		return invalid(raw, err)
	}

	parsed := Split(classified)
	parsed.Raw = raw
	if verr := validate(parsed); verr != nil {
		parsed.Err = verr
		return parsed
	}
	parsed.Valid = true
	return parsed
}

func invalid(raw string, err error) *ParsedCommand {
	p := &ParsedCommand{Raw: raw, Options: map[string][]string{}}
	var perr *Error
	if errors.As(err, &perr) {
		p.Err = perr
	}
	return p
}
