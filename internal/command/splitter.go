package command

import "strings"

// Split은 분류된 토큰을 옵션, 플래그, 위치 인자로 나눕니다.
// 검증은 하지 않으므로 결과의 Valid는 false입니다.
func Split(c Classification) *ParsedCommand {
	p := &ParsedCommand{
		Group:   c.Group,
		Verb:    c.Verb,
		Options: make(map[string][]string),
	}
	domain := c.Domain()
	trailing := trailingCommandVerbs[verbKey{domain, CanonicalVerb(c.Verb)}]

	optionsDone := false
	for i := 0; i < len(c.Rest); i++ {
		tok := c.Rest[i]

		if optionsDone || !isOptionToken(tok) {
			p.Arguments = append(p.Arguments, tok)
			if trailing {
				optionsDone = true
			}
			continue
		}
		if tok == "--" {
			optionsDone = true
			continue
		}

		long := strings.HasPrefix(tok, "--")
		name := strings.TrimLeft(tok, "-")
		if key, value, ok := strings.Cut(name, "="); ok {
			p.addOption(key, value)
			continue
		}

		if IsBooleanFlag(domain, c.Verb, name) {
			p.addFlag(name)
			continue
		}
		if !long {
			last, expanded := expandCluster(p, domain, c.Verb, name)
			if expanded && last == "" {
				continue
			}
			if expanded {
				name = last
			}
		}

		if i+1 < len(c.Rest) && !isOptionToken(c.Rest[i+1]) {
			p.addOption(name, c.Rest[i+1])
			i++
			continue
		}
		p.addOption(name, "true")
	}

	if len(p.Arguments) > 0 && TakesTarget(c.Group, c.Verb) {
		p.Target = p.Arguments[0]
	}
	return p
}

// expandCluster는 -it, -dp처럼 묶인 짧은 플래그를 하나씩 풀어 기록합니다.
// 마지막 글자를 뺀 나머지는 모두 값 없는 플래그여야 합니다. 마지막 글자가 값을 받는 옵션이면
// 그 이름을 돌려주어 호출한 쪽이 다음 토큰을 값으로 읽게 합니다.
// 조건을 만족하지 않으면 아무것도 기록하지 않고 false를 반환합니다.
func expandCluster(p *ParsedCommand, domain, verb, cluster string) (string, bool) {
	runes := []rune(cluster)
	if len(runes) < 2 {
		return "", false
	}
	for _, r := range runes[:len(runes)-1] {
		if !IsBooleanFlag(domain, verb, string(r)) {
			return "", false
		}
	}
	for _, r := range runes[:len(runes)-1] {
		p.addFlag(string(r))
	}
	last := string(runes[len(runes)-1])
	if IsBooleanFlag(domain, verb, last) {
		p.addFlag(last)
		return "", true
	}
	return last, true
}

// isOptionToken은 "-"로 시작하는 옵션 토큰인지 확인합니다. "-" 한 글자는 위치 인자입니다.
func isOptionToken(tok string) bool {
	return len(tok) > 1 && tok[0] == '-'
}
