package simulator

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dockersim/app/internal/storage"
	"go.uber.org/zap"
)

const defaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// ExecOptions는 docker exec 옵션입니다.
type ExecOptions struct {
	Interactive bool
	TTY         bool
	User        string
	WorkDir     string
	Env         []string
}

// execEnv는 시뮬레이션된 명령이 보는 컨테이너 환경입니다.
type execEnv struct {
	hostname string
	user     string
	workDir  string
	env      []string
	mounts   []string
	now      time.Time
}

func (e execEnv) lookup(key string) (string, bool) {
	for i := len(e.env) - 1; i >= 0; i-- {
		k, v, _ := strings.Cut(e.env[i], "=")
		if k == key {
			return v, true
		}
	}
	return "", false
}

func (s *Simulator) execEnv(ctx context.Context, tx *storage.Repository, simulationID string, c *storage.Container, opts ExecOptions) (execEnv, error) {
	mounts, err := tx.ListContainerMounts(ctx, simulationID, c.HexID)
	if err != nil {
		return execEnv{}, internalError("exec", KindContainer, err)
	}

	env := execEnv{
		hostname: c.ShortID,
		user:     "root",
		workDir:  s.profileFor(c.ImageHexID).WorkDir,
		env:      []string{"PATH=" + defaultPath, "HOSTNAME=" + c.ShortID},
		now:      s.now(),
	}
	if c.Envs != "" {
		env.env = append(env.env, strings.Split(c.Envs, "\n")...)
	}
	env.env = append(env.env, opts.Env...)
	if opts.User != "" {
		env.user = opts.User
	}
	if opts.WorkDir != "" {
		env.workDir = opts.WorkDir
	}
	home := "/root"
	if env.user != "root" {
		home = "/home/" + env.user
	}
	env.env = append(env.env, "HOME="+home)
	for _, m := range mounts {
		env.mounts = append(env.mounts, m.Destination)
	}
	return env, nil
}

// ExecContainer는 실행 중인 컨테이너 안에서 명령을 실행합니다.
func (s *Simulator) ExecContainer(ctx context.Context, simulationID, ref string, args []string, opts ExecOptions) (*Output, error) {
	s.logger.Info("Executing in container",
		zap.String("simulation_id", simulationID),
		zap.String("container", ref),
		zap.Strings("command", args),
	)

	c, err := s.findContainer(ctx, s.repo, "exec", simulationID, ref)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case storage.ContainerStatusRunning:
	case storage.ContainerStatusPaused:
		return nil, stateError("exec", c.Name, c.Status)
	default:
		return nil, NewError("exec", KindContainer, c.Name, ErrContainerNotRunning)
	}

	out := &Output{}
	if keepsRunning(args, opts.Interactive || opts.TTY) {
		return out, nil
	}

	env, err := s.execEnv(ctx, s.repo, simulationID, c, opts)
	if err != nil {
		return nil, err
	}
	lines, _, found := runBuiltin(env, args)
	if !found {
		return nil, NewError("exec", KindContainer, args[0], ErrExecNotFound)
	}
	out.println(lines...)
	return out, nil
}

var rootDirs = []string{
	"bin", "boot", "dev", "etc", "home", "lib", "media", "mnt", "opt",
	"proc", "root", "run", "sbin", "srv", "sys", "tmp", "usr", "var",
}

var knownDirs = map[string][]string{
	"/etc":  {"hostname", "hosts", "os-release", "passwd", "resolv.conf"},
	"/home": {},
	"/root": {},
	"/tmp":  {},
	"/usr":  {"bin", "lib", "local", "sbin", "share"},
	"/var":  {"cache", "lib", "log", "run", "tmp"},
}

// runBuiltin은 시뮬레이터가 흉내 내는 셸 명령을 실행합니다.
// found가 false면 해당 실행 파일이 없는 것입니다.
func runBuiltin(env execEnv, args []string) (lines []string, code int, found bool) {
	if len(args) == 0 {
		return nil, 0, true
	}

	switch baseName(args[0]) {
	case "echo":
		rest := args[1:]
		if len(rest) > 0 && rest[0] == "-n" {
			rest = rest[1:]
		}
		return []string{strings.Join(rest, " ")}, 0, true
	case "hostname":
		return []string{env.hostname}, 0, true
	case "pwd":
		return []string{env.workDir}, 0, true
	case "whoami":
		return []string{env.user}, 0, true
	case "id":
		uid := 1000
		if env.user == "root" {
			uid = 0
		}
		return []string{fmt.Sprintf("uid=%d(%s) gid=%d(%s) groups=%d(%s)", uid, env.user, uid, env.user, uid, env.user)}, 0, true
	case "env":
		return append([]string(nil), env.env...), 0, true
	case "printenv":
		if len(args) == 1 {
			return append([]string(nil), env.env...), 0, true
		}
		var out []string
		code := 0
		for _, key := range args[1:] {
			if v, ok := env.lookup(key); ok {
				out = append(out, v)
			} else {
				code = 1
			}
		}
		return out, code, true
	case "ls":
		return listDir(env, args[1:])
	case "cat":
		return catFiles(env, args[1:])
	case "date":
		return []string{env.now.UTC().Format(time.UnixDate)}, 0, true
	case "uname":
		if len(args) > 1 && args[1] == "-a" {
			return []string{fmt.Sprintf("Linux %s 6.6.0 #1 SMP x86_64 GNU/Linux", env.hostname)}, 0, true
		}
		return []string{"Linux"}, 0, true
	case "true", "sleep":
		return nil, 0, true
	case "false":
		return nil, 1, true
	case "sh", "bash", "ash", "zsh":
		if len(args) >= 3 && args[1] == "-c" {
			return runScript(env, baseName(args[0]), args[2])
		}
		return nil, 0, true
	default:
		return nil, 0, false
	}
}

// runScript는 sh -c 스크립트를 ;와 &&로 나누어 차례로 실행합니다.
func runScript(env execEnv, shell, script string) ([]string, int, bool) {
	var out []string
	code := 0
	for _, stmt := range strings.Split(script, ";") {
		for _, part := range strings.Split(stmt, "&&") {
			expanded := os.Expand(part, func(key string) string {
				v, _ := env.lookup(key)
				return v
			})
			fields := strings.Fields(expanded)
			if len(fields) == 0 {
				continue
			}
			lines, c, found := runBuiltin(env, unquote(fields))
			if !found {
				lines, c = []string{fmt.Sprintf("%s: %s: not found", shell, fields[0])}, notFoundExitCode
			}
			out = append(out, lines...)
			code = c
			if code != 0 {
				break
			}
		}
	}
	return out, code, true
}

func unquote(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.Trim(f, `"'`)
	}
	return out
}

func listDir(env execEnv, args []string) ([]string, int, bool) {
	var paths []string
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			paths = append(paths, a)
		}
	}
	if len(paths) == 0 {
		paths = []string{env.workDir}
	}

	var out []string
	code := 0
	for _, p := range paths {
		entries, ok := dirEntries(env, p)
		if !ok {
			out = append(out, fmt.Sprintf("ls: cannot access '%s': No such file or directory", p))
			code = 2
			continue
		}
		out = append(out, entries...)
	}
	return out, code, true
}

func dirEntries(env execEnv, path string) ([]string, bool) {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	if path == "/" {
		entries := append([]string(nil), rootDirs...)
		for _, m := range env.mounts {
			name := strings.TrimPrefix(m, "/")
			if name != "" && !strings.Contains(name, "/") && !contains(entries, name) {
				entries = append(entries, name)
			}
		}
		sort.Strings(entries)
		return entries, true
	}
	if entries, ok := knownDirs[path]; ok {
		return entries, true
	}
	if contains(env.mounts, path) || path == env.workDir {
		return nil, true
	}
	if contains(rootDirs, strings.TrimPrefix(path, "/")) {
		return nil, true
	}
	return nil, false
}

func catFiles(env execEnv, paths []string) ([]string, int, bool) {
	var out []string
	code := 0
	for _, p := range paths {
		switch p {
		case "/etc/hostname":
			out = append(out, env.hostname)
		case "/etc/hosts":
			out = append(out, "127.0.0.1\tlocalhost", "::1\tlocalhost ip6-localhost ip6-loopback")
		case "/etc/os-release":
			out = append(out, `NAME="Linux"`, `ID=linux`, `PRETTY_NAME="Linux (dockersim)"`)
		case "/etc/resolv.conf":
			out = append(out, "nameserver 127.0.0.11", "options ndots:0")
		case "/etc/passwd":
			out = append(out, "root:x:0:0:root:/root:/bin/sh")
		default:
			out = append(out, fmt.Sprintf("cat: %s: No such file or directory", p))
			code = 1
		}
	}
	return out, code, true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
