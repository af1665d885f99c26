/*
Package prompt renders LLM prompts from templates with ${name} placeholders.

# Overview

A Template is parsed once and rendered with a map of values:

	t := prompt.New("### Login URL:\n${login_url}\n\n### Page HTML:\n${html}")
	text, err := t.Render(map[string]string{
	    "login_url": "http://localhost:4000/login",
	    "html":      pageHTML,
	})

Expansion is a single pass over the template text. Values are inserted
verbatim and never expanded again, so page HTML or generated code that
happens to contain "${...}" is passed through untouched.

# Missing Values

Render fails with a *MissingError naming every placeholder without a value.
An empty string is a value:

	_, err := t.Render(map[string]string{"login_url": "x"})
	// err: "prompt: missing value: html"

# Thread Safety

Template is immutable and safe for concurrent use.
*/
package prompt
