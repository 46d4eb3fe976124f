package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		code   Code
	}{
		{name: "empty", tokens: nil, code: CodeEmptyCommand},
		{name: "not docker", tokens: []string{"podman", "ps"}, code: CodeNotStartWithDocker},
		{name: "docker only", tokens: []string{"docker"}, code: CodeMissingSubcommand},
		{name: "option instead of verb", tokens: []string{"docker", "--help"}, code: CodeMissingSubcommand},
		{name: "group without verb", tokens: []string{"docker", "network"}, code: CodeIncompleteGroupCommand},
		{name: "unknown flat verb", tokens: []string{"docker", "compose", "up"}, code: CodeUnsupportedCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.tokens)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestClassify(t *testing.T) {
	c, err := Classify([]string{"docker", "container", "rm", "web1"})
	require.NoError(t, err)
	assert.Equal(t, "container", c.Group)
	assert.Equal(t, "rm", c.Verb)
	assert.Equal(t, []string{"web1"}, c.Rest)

	c, err = Classify([]string{"docker", "pull", "nginx"})
	require.NoError(t, err)
	assert.Empty(t, c.Group)
	assert.Equal(t, "image", c.Domain())
}

func TestParse_RunScenario(t *testing.T) {
	p := Parse("docker run -d --name web -p 8080:80 nginx:latest")

	require.True(t, p.Valid, "unexpected error: %v", p.Err)
	assert.Nil(t, p.Err)
	assert.Empty(t, p.Group)
	assert.Equal(t, "run", p.Verb)
	assert.Equal(t, "container", p.Domain())
	assert.Equal(t, "nginx:latest", p.Target)
	assert.Equal(t, []string{"web"}, p.Options["name"])
	assert.Equal(t, []string{"8080:80"}, p.Options["p"])
	assert.Equal(t, []string{"d"}, p.Flags)
	assert.Equal(t, []string{"nginx:latest"}, p.Arguments)
}

func TestParse_Target(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target string
	}{
		{name: "group rm", input: "docker container rm web1", target: "web1"},
		{name: "group ls has none", input: "docker network ls", target: ""},
		{name: "flat rmi", input: "docker rmi nginx", target: "nginx"},
		{name: "flat exec has none", input: "docker exec web ls", target: ""},
		{name: "volume create", input: "docker volume create data", target: "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.input)
			require.True(t, p.Valid, "unexpected error: %v", p.Err)
			assert.Equal(t, tt.target, p.Target)
		})
	}
}

func TestParse_Options(t *testing.T) {
	t.Run("repeated option accumulates", func(t *testing.T) {
		p := Parse("docker run -p 80:80 -p 443:443 nginx")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"80:80", "443:443"}, p.Options["p"])
	})

	t.Run("inline assignment", func(t *testing.T) {
		p := Parse("docker run --name=web -e=A=1 nginx")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"web"}, p.Options["name"])
		assert.Equal(t, []string{"A=1"}, p.Options["e"])
	})

	t.Run("boolean cluster expands", func(t *testing.T) {
		p := Parse("docker run -it ubuntu")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"i", "t"}, p.Flags)
		assert.Equal(t, "ubuntu", p.Target)
	})

	t.Run("cluster ending in value option", func(t *testing.T) {
		p := Parse("docker run -dp 8080:80 nginx")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"d"}, p.Flags)
		assert.Equal(t, []string{"8080:80"}, p.Options["p"])
		assert.Equal(t, "nginx", p.Target)

		p = Parse("docker run -itp 80:80 --name web ubuntu bash")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"i", "t"}, p.Flags)
		assert.Equal(t, []string{"80:80"}, p.Options["p"])
		assert.Equal(t, []string{"ubuntu", "bash"}, p.Arguments)
	})

	t.Run("cluster with value letter in the middle stays one option", func(t *testing.T) {
		p := Parse("docker run -pd 80:80 nginx")
		require.True(t, p.Valid)
		assert.Empty(t, p.Flags)
		assert.Equal(t, []string{"80:80"}, p.Options["pd"])
	})

	t.Run("flags are unique", func(t *testing.T) {
		p := Parse("docker ps -a -a --all")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"a", "all"}, p.Flags)
		assert.True(t, p.HasFlag("all"))
	})

	t.Run("option without value", func(t *testing.T) {
		p := Parse("docker network create mynet --driver")
		require.True(t, p.Valid)
		v, ok := p.Option("driver")
		assert.True(t, ok)
		assert.Equal(t, "true", v)
	})

	t.Run("exec keeps trailing options", func(t *testing.T) {
		p := Parse("docker exec -it web ls -la")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"web", "ls", "-la"}, p.Arguments)
		assert.Equal(t, []string{"i", "t"}, p.Flags)
	})

	t.Run("double dash ends options", func(t *testing.T) {
		p := Parse("docker rm -- -odd")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"-odd"}, p.Arguments)
		assert.Equal(t, "-odd", p.Target)
	})

	t.Run("lone dash is positional", func(t *testing.T) {
		p := Parse("docker build -")
		require.True(t, p.Valid)
		assert.Equal(t, []string{"-"}, p.Arguments)
	})
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		code     Code
		contains []string
	}{
		{
			name:     "exec without command",
			input:    "docker exec mycontainer",
			code:     CodeMissingArgument,
			contains: []string{"컨테이너 이름과 실행할 명령어"},
		},
		{
			name:     "network connect without container",
			input:    "docker network connect mynet",
			code:     CodeMissingArgument,
			contains: []string{"네트워크 이름", "컨테이너 이름"},
		},
		{
			name:     "run without image",
			input:    "docker run -d",
			code:     CodeMissingArgument,
			contains: []string{"이미지 이름"},
		},
		{
			name:     "unknown group verb lists valid set",
			input:    "docker volume mount data",
			code:     CodeUnknownSubcommand,
			contains: []string{"mount", "create, rm, ls, inspect, prune"},
		},
		{
			name:     "too many arguments",
			input:    "docker rename a b c",
			code:     CodeTooManyArguments,
			contains: []string{"최대 2개"},
		},
		{
			name:     "empty",
			input:    "",
			code:     CodeEmptyCommand,
			contains: []string{"명령어가 입력되지 않았습니다"},
		},
		{
			name:     "only empty quotes",
			input:    `""`,
			code:     CodeEmptyCommand,
			contains: []string{"명령어가 입력되지 않았습니다"},
		},
		{
			name:     "top-level flag without command",
			input:    "docker --version",
			code:     CodeMissingSubcommand,
		},
		{
			name:     "unterminated quote",
			input:    `docker run "nginx`,
			code:     CodeUnterminatedQuote,
			contains: []string{"따옴표"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.input)
			require.False(t, p.Valid)
			require.NotNil(t, p.Err)
			assert.Equal(t, tt.code, p.Err.Code)
			for _, want := range tt.contains {
				assert.Contains(t, p.Err.Error(), want)
			}
		})
	}
}

func TestParse_AnonymousVolumeCreate(t *testing.T) {
	p := Parse("docker volume create")

	require.True(t, p.Valid)
	assert.Empty(t, p.Target)
	assert.Empty(t, p.Arguments)
}

func TestParse_Aliases(t *testing.T) {
	for _, input := range []string{"docker ps", "docker container ls", "docker container ps"} {
		p := Parse(input)
		require.True(t, p.Valid, input)
		assert.Equal(t, "container", p.Domain())
		assert.Equal(t, "ls", p.Canonical())
	}

	p := Parse("docker images")
	require.True(t, p.Valid)
	assert.Equal(t, "image", p.Domain())
	assert.Equal(t, "ls", p.Canonical())
}

func TestValidate_ReturnsNilInterface(t *testing.T) {
	c, err := Classify([]string{"docker", "ps"})
	require.NoError(t, err)

	assert.NoError(t, Validate(Split(c)))
}

func TestSplit_Idempotent(t *testing.T) {
	tokens := []string{"docker", "container", "run", "-d", "--name", "web", "-p", "80:80", "-p", "443:443", "nginx", "echo", "hi"}

	c, err := Classify(tokens)
	require.NoError(t, err)
	first := Split(c)
	second := Split(c)
	assert.Equal(t, first, second)

	c2, err := Classify(tokens)
	require.NoError(t, err)
	assert.Equal(t, first, Split(c2))

	first.Options["p"][0] = "1:1"
	first.Options["name"] = append(first.Options["name"], "other")
	first.Arguments[0] = "redis"
	first.Arguments = append(first.Arguments, "extra")
	first.Flags[0] = "x"

	assert.Equal(t, []string{"80:80", "443:443"}, second.Options["p"])
	assert.Equal(t, []string{"web"}, second.Options["name"])
	assert.Equal(t, []string{"nginx", "echo", "hi"}, second.Arguments)
	assert.Equal(t, []string{"d"}, second.Flags)
	assert.Equal(t, "nginx", tokens[10])
	assert.Equal(t, "nginx", Split(c).Target)
}
