package support

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/slipscan/internal/testutil"
)

// sample looks up a built-in slip transcription by name.
func sample(name string) (testutil.Sample, error) {
	for _, s := range testutil.SampleSlips() {
		if s.Name == name {
			return s, nil
		}
	}
	return testutil.Sample{}, fmt.Errorf("unknown sample slip %q", name)
}

func (testCtx *TestContext) theSampleSlipIsSavedAs(name, file string) error {
	s, err := sample(name)
	if err != nil {
		return err
	}
	path := testCtx.TempPath(file)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s.Text), 0o600)
}

func (testCtx *TestContext) allSampleSlipsAreSavedIn(dir string) error {
	for _, s := range testutil.SampleSlips() {
		if err := testCtx.theSampleSlipIsSavedAs(s.Name, filepath.Join(dir, s.Name+".txt")); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) aFileContains(file string, content *godog.DocString) error {
	path := testCtx.TempPath(file)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content.Content), 0o600)
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.AddEnvVar(name, testCtx.substitute(value))
	return nil
}

// iRunCommand runs a whitespace-separated command line from the module root.
func (testCtx *TestContext) iRunCommand(command string) error {
	return testCtx.run(command, "")
}

func (testCtx *TestContext) iRunCommandWithSampleOnStdin(command, name string) error {
	s, err := sample(name)
	if err != nil {
		return err
	}
	return testCtx.run(command, s.Text)
}

func (testCtx *TestContext) run(command, stdin string) error {
	command = testCtx.substitute(command)
	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = testCtx.WorkingDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, combined bytes.Buffer
	cmd.Stdout = &teeWriter{&stdout, &combined}
	cmd.Stderr = &combined

	err := cmd.Run()
	testCtx.LastStdout = stdout.String()
	testCtx.LastOutput = combined.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	testCtx.LastExitCode = 0
	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	}
	return nil
}

type teeWriter struct{ a, b *bytes.Buffer }

func (t *teeWriter) Write(p []byte) (int, error) {
	t.a.Write(p)
	return t.b.Write(p)
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	expectedText = testCtx.substitute(expectedText)
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theStdoutShouldBe(expected string) error {
	if strings.TrimSpace(testCtx.LastStdout) != expected {
		return fmt.Errorf("stdout is %q, want %q", strings.TrimSpace(testCtx.LastStdout), expected)
	}
	return nil
}

// jsonRows decodes stdout as the array of flat rows the CLI emits.
func (testCtx *TestContext) jsonRows() ([]map[string]string, error) {
	var rows []map[string]string
	if err := json.Unmarshal([]byte(testCtx.LastStdout), &rows); err != nil {
		return nil, fmt.Errorf("stdout is not a JSON row array: %w\nStdout: %s", err, testCtx.LastStdout)
	}
	return rows, nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var js json.RawMessage
	if err := json.Unmarshal([]byte(testCtx.LastStdout), &js); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nStdout: %s", err, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) theJSONOutputShouldHaveRows(n int) error {
	rows, err := testCtx.jsonRows()
	if err != nil {
		return err
	}
	if len(rows) != n {
		return fmt.Errorf("got %d rows, want %d", len(rows), n)
	}
	return nil
}

func (testCtx *TestContext) jsonRowFieldShouldBe(index int, field, want string) error {
	rows, err := testCtx.jsonRows()
	if err != nil {
		return err
	}
	if index < 1 || index > len(rows) {
		return fmt.Errorf("row %d out of range (%d rows)", index, len(rows))
	}
	if got := rows[index-1][field]; got != want {
		return fmt.Errorf("row %d field %s = %q, want %q", index, field, got, want)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidCSVWithRows(n int) error {
	records, err := csv.NewReader(strings.NewReader(testCtx.LastStdout)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w\nStdout: %s", err, testCtx.LastStdout)
	}
	if len(records) != n+1 {
		return fmt.Errorf("got %d data rows, want %d", len(records)-1, n)
	}
	if len(records[0]) == 0 || records[0][0] != "source_file" {
		return fmt.Errorf("unexpected CSV header: %v", records[0])
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(file string) error {
	path := testCtx.substitute(file)
	if !filepath.IsAbs(path) {
		path = filepath.Join(testCtx.WorkingDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file does not exist: %s", path)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(file, expected string) error {
	path := testCtx.substitute(file)
	content, err := os.ReadFile(path) //nolint:gosec // G304: scenario-controlled path
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if !strings.Contains(string(content), expected) {
		return fmt.Errorf("file %s does not contain '%s'\nActual content: %s", file, expected, string(content))
	}
	return nil
}

func (testCtx *TestContext) theDirectoryShouldContainFilesMatching(dir string, n int, pattern string) error {
	matches, err := filepath.Glob(filepath.Join(testCtx.substitute(dir), pattern))
	if err != nil {
		return err
	}
	if len(matches) != n {
		return fmt.Errorf("found %d files matching %s in %s, want %d", len(matches), pattern, dir, n)
	}
	return nil
}

// RegisterCommonSteps registers command, output and file steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	// Fixtures
	sc.Step(`^the sample slip "([^"]*)" is saved as "([^"]*)"$`, testCtx.theSampleSlipIsSavedAs)
	sc.Step(`^all sample slips are saved in "([^"]*)"$`, testCtx.allSampleSlipsAreSavedIn)
	sc.Step(`^a file "([^"]*)" containing:$`, testCtx.aFileContains)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)

	// Execution
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with the sample slip "([^"]*)" on stdin$`, testCtx.iRunCommandWithSampleOnStdin)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	// Output
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^stdout should be "([^"]*)"$`, testCtx.theStdoutShouldBe)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON output should have (\d+) rows?$`, testCtx.theJSONOutputShouldHaveRows)
	sc.Step(`^JSON row (\d+) field "([^"]*)" should be "([^"]*)"$`, testCtx.jsonRowFieldShouldBe)
	sc.Step(`^the output should be valid CSV with (\d+) rows?$`, testCtx.theOutputShouldBeValidCSVWithRows)

	// Files
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the directory "([^"]*)" should contain (\d+) files? matching "([^"]*)"$`,
		testCtx.theDirectoryShouldContainFilesMatching)
}

