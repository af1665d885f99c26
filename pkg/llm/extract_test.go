package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/uitestgen/pkg/llm"
)

func TestCodeBlock(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{
			name:  "python fence",
			reply: "Here you go:\n```python\ndef login(driver):\n    pass\n```\nGood luck",
			want:  "def login(driver):\n    pass",
		},
		{
			name:  "bare fence",
			reply: "```\nimport unittest\n```",
			want:  "import unittest",
		},
		{
			name:  "first block wins",
			reply: "```python\nfirst\n```\n```python\nsecond\n```",
			want:  "first",
		},
		{
			name:  "no fence returns trimmed text",
			reply: "  def login(): pass \n",
			want:  "def login(): pass",
		},
		{
			name:  "empty",
			reply: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.CodeBlock(tt.reply))
		})
	}
}

func TestHasCodeBlock(t *testing.T) {
	assert.True(t, llm.HasCodeBlock("```python\nx = 1\n```"))
	assert.False(t, llm.HasCodeBlock("x = 1"))
	assert.False(t, llm.HasCodeBlock("```unterminated"))
}

func TestIsStop(t *testing.T) {
	assert.True(t, llm.IsStop("STOP"))
	assert.True(t, llm.IsStop("STOP\n"))
	assert.False(t, llm.IsStop("stop"))
	assert.False(t, llm.IsStop("STOP. Also add waits."))
	assert.False(t, llm.IsStop(""))
}
