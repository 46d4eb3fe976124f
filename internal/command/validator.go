package command

// Validate는 분리된 명령이 문법 규칙을 만족하는지 검사하고 첫 번째 위반만 반환합니다.
func Validate(p *ParsedCommand) error {
	if err := validate(p); err != nil {
		return err
	}
	return nil
}

func validate(p *ParsedCommand) *Error {
	if p.Group != "" && !isGroupVerb(p.Group, p.Verb) {
		return &Error{
			Code:  CodeUnknownSubcommand,
			Group: p.Group,
			Verb:  p.Verb,
			Valid: GroupVerbs(p.Group),
		}
	}

	rule, ok := arityRules[verbKey{p.Domain(), p.Canonical()}]
	if !ok {
		return nil
	}
	count := len(p.Arguments)
	if count < rule.min {
		return &Error{
			Code:    CodeMissingArgument,
			Group:   p.Group,
			Verb:    p.Verb,
			Need:    rule.need,
			Example: rule.example,
		}
	}
	if rule.max > 0 && count > rule.max {
		return &Error{
			Code:  CodeTooManyArguments,
			Group: p.Group,
			Verb:  p.Verb,
			Need:  rule.need,
			Limit: rule.max,
		}
	}
	return nil
}

func isGroupVerb(group, verb string) bool {
	for _, v := range groupVerbs[group] {
		if v == verb {
			return true
		}
	}
	return false
}
