package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches ${name}; name is alphanumeric and underscore.
var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a prompt text with ${name} placeholders.
type Template struct {
	text  string
	names []string
}

// New parses text into a Template.
func New(text string) Template {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return Template{text: text, names: names}
}

// Text returns the unrendered template.
func (t Template) Text() string {
	return t.text
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t Template) Placeholders() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Render substitutes vars into the template.
//
// Every placeholder must have a value; otherwise the partially rendered text
// is returned together with a *MissingError. Keys in vars that the template
// does not use are ignored.
func (t Template) Render(vars map[string]string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(t.text, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return out, &MissingError{Names: missing}
	}
	return out, nil
}

// MustRender is Render for templates whose values are known to be complete.
// It panics on a missing value.
func (t Template) MustRender(vars map[string]string) string {
	out, err := t.Render(vars)
	if err != nil {
		panic(err.Error())
	}
	return out
}

// MissingError is returned by Render when placeholders have no value.
type MissingError struct {
	// Names lists the placeholders without a value, in template order.
	Names []string
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("prompt: missing value: %s", e.Names[0])
	}
	return fmt.Sprintf("prompt: missing values: %s", strings.Join(e.Names, ", "))
}
