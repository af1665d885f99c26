package workflow

import "github.com/randalmurphal/uitestgen/pkg/prompt"

const authCheckSystem = "You are an expert software assistant. Respond only with True or False."

var authCheckPrompt = prompt.New("Given the following specification document, your task is to decide whether " +
	"the application described explicitly requires user authentication or login.\n\n" +
	"Only respond with:\n" +
	"- `True` if the specification **explicitly mentions** terms like `login`, `authentication`, " +
	"`sign in`, `session`, `user must be logged in`, or similar.\n" +
	"- `False` if there is **no explicit** mention of such requirements. Do not infer based on " +
	"UI elements like 'Logout', 'My Account', etc.\n\n" +
	"Respond with only one word: `True` or `False`.\n\n" +
	"### Specification:\n${spec}")

var codeGenPrompt = prompt.New(`Given the following login specification and the HTML of a login page, generate Python Selenium code that:
- Loads the login page using the provided URL
- Ensures the page is loaded correctly
- Locates the username, password fields, and login button based on spec or HTML
- Enters provided credentials and submits the form

### Login URL:
${login_url}

### Credentials:
${credentials}

### Login Spec:
${spec}

### Page HTML:
${html}
${feedback}
Provide only the Python function definition, no extra text.`)

var codeFeedbackPrompt = prompt.New(`
### Reviewer feedback on the previous attempt:
${critique}

### Previous code:
${code}
`)

const codeCritiqueSystem = `You are an intelligent QA engineer who is skilled at reading, reviewing and crafting efficient test cases. You will be given Selenium code which is to test some functional specifications of a page. Your task is to go through the code, understand it and see if the code is up to the mark.

Decide whether the code is good enough to be sent on to test generation. If you find a mistake in the generated code, come up with constructive criticism for the code to improve.
If the code is satisfactory and it can pass on, then return STOP and nothing else. Just STOP: no newline, no spaces, no special characters.

Here's the Selenium code:`

const testGenSystem = "You are a helpful Python test engineer. Return only executable Python unittest code with no explanations."

var testGenPrompt = prompt.New("Given the following Python Selenium function that performs a login operation, " +
	"generate a test file `test_case.py` that:\n" +
	"- Imports necessary modules (`unittest`, `selenium`, etc.)\n" +
	"- Includes the Selenium function itself so the file runs on its own\n" +
	"- Sets up and tears down the Selenium WebDriver correctly\n" +
	"- Calls the login function with appropriate arguments\n" +
	"- Verifies successful login by checking URL, page title, or specific element\n" +
	"- Defines all required classes and methods cleanly\n\n" +
	"### Selenium Function:\n${code}")

const repairSystem = "You are a senior QA engineer. Given failed test output and the previous Selenium code, " +
	"reflect and correct it. Output only the corrected Python function."

var repairPrompt = prompt.New("### Previous Selenium Code:\n${code}\n\n" +
	"### Test Error Message:\n${error}\n\n" +
	"### HTML body:\n${html}\n\n" +
	"Please return a fully corrected Python function named `login(...)`.")

var loginInfoPrompt = prompt.New(`From the following README and list of image URLs, extract ONLY the information strictly related to the **Login Page**.

Focus on:
- What fields are shown on the login screen (e.g., email, password)
- What behavior is expected (successful login, failure cases)
- What validation is performed
- Screenshot URLs that clearly relate to login (ignore unrelated UI other than login page)

Exclude:
- Any general UI screenshots not related to login

Screenshot URLs:
${image_urls}

README:
${readme}`)

var specPrompt = prompt.New(`Generate a Markdown file named ` + "`spec.md`" + ` for the **Login Page** using the info below.

Format it like:

# Login Page Specification

## Description
A short description of the login page.

## Input Fields
- One bullet per field with its type and whether it is required.

## Validation Rules
- One bullet per rule, including the expected error messages.

Do not include any additional sections beyond what is specified above.

Login Page Details:
${login_info}`)

const noImagesText = "No image URLs found."
