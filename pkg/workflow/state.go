package workflow

import (
	"github.com/randalmurphal/uitestgen/pkg/browser"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
)

// Final run statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// State is the record threaded through the login-test and spec graphs.
// JSON names are the keys callers use in seed files and HTTP requests.
type State struct {
	// Spec extraction.
	GithubURL    string `json:"github_url,omitempty"`
	Readme       string `json:"readme,omitempty"`
	LoginContext string `json:"login_context,omitempty"`
	SpecMD       string `json:"spec_md,omitempty"`

	// Seed values of a login-test run.
	LoginSpec   string `json:"login_spec,omitempty"`
	LoginURL    string `json:"login_url,omitempty"`
	SpecificURL string `json:"specific_url,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password,omitempty"`

	AuthenticationRequired bool   `json:"authentication_required"`
	BaseURL                string `json:"base_url,omitempty"`

	// Loaded page.
	PageHTML  string `json:"page_html,omitempty"`
	Title     string `json:"title,omitempty"`
	ImagePath string `json:"image_path,omitempty"`

	// Generated artifacts.
	SeleniumCode     string `json:"selenium_code,omitempty"`
	SeleniumCodePath string `json:"selenium_code_path,omitempty"`
	TestCode         string `json:"test_code,omitempty"`
	TestFilePath     string `json:"test_file_path,omitempty"`
	TestOutput       string `json:"test_output,omitempty"`

	// Messages holds reviewer critiques of the generated code, oldest first.
	Messages      []string `json:"messages,omitempty"`
	ShouldReflect bool     `json:"should_reflect"`

	// Loop counters. They only grow within a run.
	ReflectLoopCount int `json:"reflect_loop_count"`
	RetryCount       int `json:"retry_count"`

	Error  string `json:"error,omitempty"`
	Status string `json:"status,omitempty"`

	// Session is the browser opened by the page steps. workflow.Runner
	// closes it when the run ends.
	Session *browser.Session `json:"-"`
}

// Update is a partial State. Nil fields leave the state unchanged.
type Update struct {
	Readme       *string `json:"readme,omitempty"`
	LoginContext *string `json:"login_context,omitempty"`
	SpecMD       *string `json:"spec_md,omitempty"`

	AuthenticationRequired *bool   `json:"authentication_required,omitempty"`
	BaseURL                *string `json:"base_url,omitempty"`

	PageHTML  *string `json:"page_html,omitempty"`
	Title     *string `json:"title,omitempty"`
	ImagePath *string `json:"image_path,omitempty"`

	SeleniumCode     *string `json:"selenium_code,omitempty"`
	SeleniumCodePath *string `json:"selenium_code_path,omitempty"`
	TestCode         *string `json:"test_code,omitempty"`
	TestFilePath     *string `json:"test_file_path,omitempty"`
	TestOutput       *string `json:"test_output,omitempty"`

	Messages      []string `json:"messages,omitempty"`
	ShouldReflect *bool    `json:"should_reflect,omitempty"`

	ReflectLoopCount *int `json:"reflect_loop_count,omitempty"`
	RetryCount       *int `json:"retry_count,omitempty"`

	Error  *string `json:"error,omitempty"`
	Status *string `json:"status,omitempty"`

	Session *browser.Session `json:"-"`
}

// Merge applies u on top of s.
func (s State) Merge(u Update) State {
	flowgraph.MergeField(&s.Readme, u.Readme)
	flowgraph.MergeField(&s.LoginContext, u.LoginContext)
	flowgraph.MergeField(&s.SpecMD, u.SpecMD)

	flowgraph.MergeField(&s.AuthenticationRequired, u.AuthenticationRequired)
	flowgraph.MergeField(&s.BaseURL, u.BaseURL)

	flowgraph.MergeField(&s.PageHTML, u.PageHTML)
	flowgraph.MergeField(&s.Title, u.Title)
	flowgraph.MergeField(&s.ImagePath, u.ImagePath)

	flowgraph.MergeField(&s.SeleniumCode, u.SeleniumCode)
	flowgraph.MergeField(&s.SeleniumCodePath, u.SeleniumCodePath)
	flowgraph.MergeField(&s.TestCode, u.TestCode)
	flowgraph.MergeField(&s.TestFilePath, u.TestFilePath)
	flowgraph.MergeField(&s.TestOutput, u.TestOutput)

	flowgraph.MergeSlice(&s.Messages, u.Messages)
	flowgraph.MergeField(&s.ShouldReflect, u.ShouldReflect)

	flowgraph.MergeCounter(&s.ReflectLoopCount, u.ReflectLoopCount)
	flowgraph.MergeCounter(&s.RetryCount, u.RetryCount)

	flowgraph.MergeField(&s.Error, u.Error)
	flowgraph.MergeField(&s.Status, u.Status)

	if u.Session != nil {
		s.Session = u.Session
	}
	return s
}

// RecordError stores a step failure as the state's last error.
func (s State) RecordError(err error) State {
	s.Error = err.Error()
	return s
}

// Succeeded reports whether the generated test passed.
func (s State) Succeeded() bool {
	return s.Status == StatusSuccess
}
