package llm

import (
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:python)?\\s*(.*?)```")

// CodeBlock returns the body of the first fenced code block in text.
// Text without a fence is returned trimmed, so plain-code replies pass through.
func CodeBlock(text string) string {
	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// HasCodeBlock reports whether text contains a fenced code block.
func HasCodeBlock(text string) bool {
	return codeBlockRe.MatchString(text)
}

// StopWord is the critique reply meaning "no further changes needed".
const StopWord = "STOP"

// IsStop reports whether a critique reply is the stop word.
func IsStop(reply string) bool {
	return strings.TrimSpace(reply) == StopWord
}
