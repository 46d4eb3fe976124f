package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple",
			input:    "docker ps -a",
			expected: []string{"docker", "ps", "-a"},
		},
		{
			name:     "double quoted span",
			input:    `docker run --name "my container" nginx`,
			expected: []string{"docker", "run", "--name", "my container", "nginx"},
		},
		{
			name:     "single quoted span",
			input:    `docker exec web echo 'hello world'`,
			expected: []string{"docker", "exec", "web", "echo", "hello world"},
		},
		{
			name:     "apostrophe inside double quotes",
			input:    `echo "it's"`,
			expected: []string{"echo", "it's"},
		},
		{
			name:     "quote inside inline option",
			input:    `docker run --name="web server" nginx`,
			expected: []string{"docker", "run", "--name=web server", "nginx"},
		},
		{
			name:     "escaped space",
			input:    `a\ b`,
			expected: []string{"a b"},
		},
		{
			name:     "escaped quote inside quotes",
			input:    `"say \"hi\""`,
			expected: []string{`say "hi"`},
		},
		{
			name:     "empty quotes produce empty token",
			input:    `docker run -e FOO="" nginx`,
			expected: []string{"docker", "run", "-e", "FOO=", "nginx"},
		},
		{
			name:     "standalone empty quotes are dropped",
			input:    `a "" b ''`,
			expected: []string{"a", "b"},
		},
		{
			name:     "mixed whitespace",
			input:    "docker\tps\n  -a  ",
			expected: []string{"docker", "ps", "-a"},
		},
		{
			name:     "trailing backslash dropped",
			input:    `docker ps \`,
			expected: []string{"docker", "ps"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestTokenize_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n", `""`, `'' ""`} {
		tokens, err := Tokenize(input)
		require.NoError(t, err)
		assert.Empty(t, tokens)
	}
}

func TestTokenize_UnterminatedQuote(t *testing.T) {
	_, err := Tokenize(`docker run --name "web nginx`)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUnterminatedQuote))
	assert.Contains(t, err.Error(), `"`)
}

func TestTokenize_MatchesFieldsWithoutQuotes(t *testing.T) {
	inputs := []string{
		"docker run -d --name web -p 8080:80 nginx:latest",
		"  docker   container   ls -a ",
		"docker network connect net1 web1",
	}
	for _, input := range inputs {
		tokens, err := Tokenize(input)
		require.NoError(t, err)
		assert.Equal(t, strings.Fields(input), tokens)
	}
}

func TestTokenize_Idempotent(t *testing.T) {
	input := "docker run -d --name web -p 8080:80 nginx:latest"
	first, err := Tokenize(input)
	require.NoError(t, err)

	second, err := Tokenize(strings.Join(first, " "))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
