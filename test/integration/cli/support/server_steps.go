package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/slipscan/internal/server"
	"github.com/MeKo-Tech/slipscan/internal/testutil"
)

func (testCtx *TestContext) theServerIsRunningWithOCRText(name string) error {
	s, err := sample(name)
	if err != nil {
		return err
	}
	return testCtx.StartHTTPTestServer(testutil.StaticEngine(s.Text, 92, 88), server.RateLimitConfig{})
}

func (testCtx *TestContext) theServerIsRunningWithoutOCR() error {
	return testCtx.StartHTTPTestServer(nil, server.RateLimitConfig{})
}

func (testCtx *TestContext) theServerIsRunningWithARateLimitOf(perMinute int) error {
	return testCtx.StartHTTPTestServer(nil, server.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: perMinute,
		RequestsPerHour:   1000,
		MaxRequestsPerDay: 1000,
		MaxDataPerDay:     1 << 20,
	})
}

func (testCtx *TestContext) do(method, path, contentType string, body io.Reader) error {
	if testCtx.HTTPTestServer == nil {
		return errors.New("server is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, testCtx.HTTPTestServer.URL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) iGET(path string) error {
	return testCtx.do(http.MethodGet, path, "", nil)
}

func (testCtx *TestContext) iPOSTTheSampleAsText(name, path string) error {
	s, err := sample(name)
	if err != nil {
		return err
	}
	return testCtx.do(http.MethodPost, path, "text/plain", strings.NewReader(s.Text))
}

func (testCtx *TestContext) iPOSTTheSampleAsJSON(name, path string) error {
	s, err := sample(name)
	if err != nil {
		return err
	}
	body, err := json.Marshal(server.ExtractRequest{Text: s.Text, Source: name + ".txt"})
	if err != nil {
		return err
	}
	return testCtx.do(http.MethodPost, path, "application/json", bytes.NewReader(body))
}

func (testCtx *TestContext) iUploadASlipImageTo(path string) error {
	var img bytes.Buffer
	if err := png.Encode(&img, testutil.CreateTestImage(240, 96, true)); err != nil {
		return err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "slip.png")
	if err != nil {
		return err
	}
	if _, err := part.Write(img.Bytes()); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return testCtx.do(http.MethodPost, path, writer.FormDataContentType(), &body)
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("status %d, want %d\nBody: %s", testCtx.LastHTTPStatusCode, code, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBePresent(name string) error {
	if _, ok := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; !ok {
		return fmt.Errorf("response header %s missing", name)
	}
	return nil
}

// theResponseFieldShouldBe follows a dotted path ("document.record.fields.name")
// through the JSON body and compares the value's string form.
func (testCtx *TestContext) theResponseFieldShouldBe(path, want string) error {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &v); err != nil {
		return fmt.Errorf("response is not valid JSON: %w\nBody: %s", err, testCtx.LastHTTPResponse)
	}
	for _, key := range strings.Split(path, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %q is not an object", path, key)
		}
		if v, ok = m[key]; !ok {
			return fmt.Errorf("%s: key %q missing\nBody: %s", path, key, testCtx.LastHTTPResponse)
		}
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("%s = %q, want %q", path, got, want)
	}
	return nil
}

// RegisterServerSteps registers in-process server steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the extraction server is running with OCR text from sample "([^"]*)"$`, testCtx.theServerIsRunningWithOCRText)
	sc.Step(`^the extraction server is running without OCR$`, testCtx.theServerIsRunningWithoutOCR)
	sc.Step(`^the extraction server is running with a limit of (\d+) requests? per minute$`,
		testCtx.theServerIsRunningWithARateLimitOf)

	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I POST the sample "([^"]*)" as text to "([^"]*)"$`, testCtx.iPOSTTheSampleAsText)
	sc.Step(`^I POST the sample "([^"]*)" as JSON to "([^"]*)"$`, testCtx.iPOSTTheSampleAsJSON)
	sc.Step(`^I upload a slip image to "([^"]*)"$`, testCtx.iUploadASlipImageTo)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be present$`, testCtx.theResponseHeaderShouldBePresent)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseFieldShouldBe)
}
