package command

// Program은 모든 명령어가 시작해야 하는 프로그램 이름입니다.
const Program = "docker"

// 리소스 그룹 이름
const (
	GroupContainer = "container"
	GroupImage     = "image"
	GroupNetwork   = "network"
	GroupVolume    = "volume"
)

// Groups는 그룹 이름을 선언 순서대로 반환합니다.
func Groups() []string {
	return []string{GroupContainer, GroupImage, GroupNetwork, GroupVolume}
}

// groupVerbs는 그룹별로 허용되는 하위 명령어 목록입니다.
// 순서는 오류 메시지에 그대로 노출되므로 바꾸지 않습니다.
var groupVerbs = map[string][]string{
	GroupContainer: {"create", "run", "start", "stop", "restart", "pause", "unpause", "kill", "rm", "ls", "ps", "exec", "logs", "inspect", "rename", "prune"},
	GroupImage:     {"pull", "push", "ls", "images", "rm", "rmi", "build", "tag", "history", "inspect", "prune"},
	GroupNetwork:   {"create", "rm", "ls", "inspect", "connect", "disconnect", "prune"},
	GroupVolume:    {"create", "rm", "ls", "inspect", "prune"},
}

// flatVerbs는 그룹 없이 사용하는 최상위 명령어와 해당 명령어가 다루는 도메인입니다.
var flatVerbs = map[string]string{
	"run":     GroupContainer,
	"create":  GroupContainer,
	"start":   GroupContainer,
	"stop":    GroupContainer,
	"restart": GroupContainer,
	"pause":   GroupContainer,
	"unpause": GroupContainer,
	"kill":    GroupContainer,
	"rm":      GroupContainer,
	"ps":      GroupContainer,
	"exec":    GroupContainer,
	"logs":    GroupContainer,
	"inspect": GroupContainer,
	"rename":  GroupContainer,
	"pull":    GroupImage,
	"push":    GroupImage,
	"images":  GroupImage,
	"rmi":     GroupImage,
	"build":   GroupImage,
	"tag":     GroupImage,
	"history": GroupImage,
}

// verbAliases는 같은 동작을 가리키는 명령어를 대표 이름으로 모읍니다.
var verbAliases = map[string]string{
	"ps":     "ls",
	"list":   "ls",
	"images": "ls",
	"rmi":    "rm",
}

// IsGroup은 name이 리소스 그룹 이름인지 확인합니다.
func IsGroup(name string) bool {
	_, ok := groupVerbs[name]
	return ok
}

// IsFlatVerb는 name이 지원하는 최상위 명령어인지 확인합니다.
func IsFlatVerb(name string) bool {
	_, ok := flatVerbs[name]
	return ok
}

// GroupVerbs는 그룹의 하위 명령어 목록 사본을 반환합니다.
func GroupVerbs(group string) []string {
	verbs := groupVerbs[group]
	out := make([]string, len(verbs))
	copy(out, verbs)
	return out
}

// CanonicalVerb는 별칭을 대표 명령어로 바꿉니다.
func CanonicalVerb(verb string) string {
	if canonical, ok := verbAliases[verb]; ok {
		return canonical
	}
	return verb
}

// flatTargetVerbs와 groupTargetVerbs는 첫 번째 위치 인자를 대상(target)으로 삼는 명령어 표입니다.
var (
	flatTargetVerbs  = setOf("run", "pull", "rmi", "start", "stop", "restart", "rm", "logs", "inspect")
	groupTargetVerbs = setOf("create", "rm", "inspect")
)

// TakesTarget은 (group, verb) 조합이 첫 번째 위치 인자를 대상으로 가지는지 판단합니다.
func TakesTarget(group, verb string) bool {
	if group == "" {
		return flatTargetVerbs[verb]
	}
	return groupTargetVerbs[verb]
}

type verbKey struct {
	domain string
	verb   string
}

// trailingCommandVerbs는 첫 위치 인자 이후의 토큰을 모두 실행 명령으로 넘기는 명령어입니다.
var trailingCommandVerbs = map[verbKey]bool{
	{GroupContainer, "run"}:    true,
	{GroupContainer, "create"}: true,
	{GroupContainer, "exec"}:   true,
}

// globalBooleanFlags는 어떤 명령어에서도 값을 받지 않는 플래그입니다.
var globalBooleanFlags = setOf("d", "detach", "a", "all", "help", "version", "q", "quiet", "no-trunc", "dry-run")

// verbBooleanFlags는 명령어별로 추가되는 값 없는 플래그입니다.
// 같은 글자라도 명령어에 따라 값을 받기도 하므로(-t, -f, -v) 명령어 단위로 관리합니다.
var verbBooleanFlags = map[verbKey]map[string]bool{
	{GroupContainer, "run"}:      setOf("i", "t", "interactive", "tty", "rm", "P", "publish-all", "privileged", "init"),
	{GroupContainer, "create"}:   setOf("i", "t", "interactive", "tty", "rm", "P", "publish-all", "privileged", "init"),
	{GroupContainer, "exec"}:     setOf("i", "t", "interactive", "tty", "privileged"),
	{GroupContainer, "start"}:    setOf("i", "interactive"),
	{GroupContainer, "logs"}:     setOf("f", "follow", "t", "timestamps"),
	{GroupContainer, "rm"}:       setOf("f", "force", "v", "volumes", "l", "link"),
	{GroupContainer, "ls"}:       setOf("s", "size", "l", "latest"),
	{GroupContainer, "inspect"}:  setOf("s", "size"),
	{GroupContainer, "prune"}:    setOf("f", "force"),
	{GroupImage, "ls"}:           setOf("digests"),
	{GroupImage, "rm"}:           setOf("f", "force", "no-prune"),
	{GroupImage, "build"}:        setOf("no-cache", "pull", "force-rm"),
	{GroupImage, "history"}:      setOf("H", "human"),
	{GroupImage, "prune"}:        setOf("f", "force"),
	{GroupImage, "pull"}:         setOf("all-tags"),
	{GroupNetwork, "create"}:     setOf("internal", "attachable", "ipv6"),
	{GroupNetwork, "disconnect"}: setOf("f", "force"),
	{GroupNetwork, "prune"}:      setOf("f", "force"),
	{GroupVolume, "rm"}:          setOf("f", "force"),
	{GroupVolume, "prune"}:       setOf("f", "force"),
}

// verbValueFlags는 전역 값 없는 플래그와 글자가 겹치지만 이 명령어에서는 값을 받는 플래그입니다.
var verbValueFlags = map[verbKey]map[string]bool{
	{GroupNetwork, "create"}: setOf("d"),
	{GroupVolume, "create"}:  setOf("d"),
}

// IsBooleanFlag는 name이 해당 명령어에서 값을 받지 않는 플래그인지 확인합니다.
func IsBooleanFlag(domain, verb, name string) bool {
	key := verbKey{domain, CanonicalVerb(verb)}
	if verbValueFlags[key][name] {
		return false
	}
	if globalBooleanFlags[name] {
		return true
	}
	return verbBooleanFlags[key][name]
}

// arityRule은 명령어가 요구하는 위치 인자 수입니다. max가 0이면 상한이 없습니다.
type arityRule struct {
	min     int
	max     int
	need    Need
	example string
}

var arityRules = map[verbKey]arityRule{
	{GroupContainer, "create"}:  {min: 1, need: NeedImage, example: "docker create nginx"},
	{GroupContainer, "run"}:     {min: 1, need: NeedImage, example: "docker run nginx"},
	{GroupContainer, "start"}:   {min: 1, need: NeedContainer},
	{GroupContainer, "stop"}:    {min: 1, need: NeedContainer},
	{GroupContainer, "restart"}: {min: 1, need: NeedContainer},
	{GroupContainer, "pause"}:   {min: 1, need: NeedContainer},
	{GroupContainer, "unpause"}: {min: 1, need: NeedContainer},
	{GroupContainer, "kill"}:    {min: 1, need: NeedContainer},
	{GroupContainer, "rm"}:      {min: 1, need: NeedContainer},
	{GroupContainer, "logs"}:    {min: 1, max: 1, need: NeedContainer},
	{GroupContainer, "inspect"}: {min: 1, need: NeedContainer},
	{GroupContainer, "exec"}:    {min: 2, need: NeedExecCommand, example: "docker exec mycontainer ls"},
	{GroupContainer, "rename"}:  {min: 2, max: 2, need: NeedRename, example: "docker rename old new"},

	{GroupImage, "pull"}:    {min: 1, max: 1, need: NeedImage},
	{GroupImage, "push"}:    {min: 1, max: 1, need: NeedImage},
	{GroupImage, "rm"}:      {min: 1, need: NeedImage},
	{GroupImage, "history"}: {min: 1, max: 1, need: NeedImage},
	{GroupImage, "inspect"}: {min: 1, need: NeedImage},
	{GroupImage, "tag"}:     {min: 2, max: 2, need: NeedTagPair, example: "docker tag nginx mynginx"},
	{GroupImage, "build"}:   {min: 1, max: 1, need: NeedBuildContext, example: "docker build ."},

	{GroupNetwork, "create"}:     {min: 1, max: 1, need: NeedNetwork},
	{GroupNetwork, "rm"}:         {min: 1, need: NeedNetwork},
	{GroupNetwork, "inspect"}:    {min: 1, need: NeedNetwork},
	{GroupNetwork, "connect"}:    {min: 2, max: 2, need: NeedNetworkAndContainer},
	{GroupNetwork, "disconnect"}: {min: 2, max: 2, need: NeedNetworkAndContainer},

	// volume create는 이름 없이 호출하면 익명 볼륨을 만듭니다.
	{GroupVolume, "create"}:  {max: 1, need: NeedVolume},
	{GroupVolume, "rm"}:      {min: 1, need: NeedVolume},
	{GroupVolume, "inspect"}: {min: 1, need: NeedVolume},
}

func setOf(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
