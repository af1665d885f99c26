/*
Package workflow generates Selenium login tests with two flowgraph graphs.

The login-test graph checks whether the page needs an authenticated session,
loads it in a browser, drafts a login function, has a critic review the draft
until it answers STOP, then wraps the code in a unittest file and runs it. A
failing test sends its output to the repair step, which rewrites the code for
the next attempt:

	graph, err := workflow.NewLoginTestGraph(workflow.Deps{
	    Generator: generator,
	    Critic:    critic,
	    Loader:    browser.NewRodLoader(),
	    Tests:     testrunner.NewExecRunner(),
	    Tokens:    store,
	    Settings:  settings,
	})
	if err != nil {
	    return err
	}
	runner := workflow.NewLoginTestRunner(graph, settings)
	final, err := runner.Run(ctx, workflow.State{
	    LoginSpec: spec,
	    LoginURL:  "http://localhost:3000/login",
	})

Both loops are bounded: MaxCodeReflections review rounds and MaxTestRetries
repairs. Every run ends with Status "success" or "fail"; step failures are in
State.Error and in the run trace, not in the returned error.

The spec graph turns a GitHub repository README into a Markdown login page
spec that can seed a login-test run.

Generated code, tests and screenshots are written under Settings.OutputDir.
Artifact names carry the loop counter of the attempt that produced them.
*/
package workflow
