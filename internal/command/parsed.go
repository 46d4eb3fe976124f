package command

// ParsedCommand는 명령 문자열을 구조화한 결과입니다.
// Valid가 false이면 Err에 첫 번째 실패 원인이 담깁니다.
type ParsedCommand struct {
	Raw       string
	Group     string
	Verb      string
	Target    string
	Options   map[string][]string
	Flags     []string
	Arguments []string
	Valid     bool
	Err       *Error
}

// Domain은 명령어가 다루는 리소스 그룹입니다. 최상위 명령어는 grammar 표에서 찾습니다.
func (p *ParsedCommand) Domain() string {
	if p.Group != "" {
		return p.Group
	}
	return flatVerbs[p.Verb]
}

// Canonical은 별칭을 풀어낸 명령어 이름입니다 (ps → ls, rmi → rm).
func (p *ParsedCommand) Canonical() string {
	return CanonicalVerb(p.Verb)
}

// HasFlag는 names 중 하나라도 플래그로 주어졌는지 확인합니다.
func (p *ParsedCommand) HasFlag(names ...string) bool {
	for _, flag := range p.Flags {
		for _, name := range names {
			if flag == name {
				return true
			}
		}
	}
	return false
}

// Option은 names 중 마지막으로 지정된 옵션 값을 반환합니다.
func (p *ParsedCommand) Option(names ...string) (string, bool) {
	values := p.OptionValues(names...)
	if len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

// OptionValues는 names에 해당하는 옵션 값을 모두 모읍니다.
func (p *ParsedCommand) OptionValues(names ...string) []string {
	var out []string
	for _, name := range names {
		out = append(out, p.Options[name]...)
	}
	return out
}

func (p *ParsedCommand) addOption(name, value string) {
	if p.Options == nil {
		p.Options = make(map[string][]string)
	}
	p.Options[name] = append(p.Options[name], value)
}

func (p *ParsedCommand) addFlag(name string) {
	if p.HasFlag(name) {
		return
	}
	p.Flags = append(p.Flags, name)
}
