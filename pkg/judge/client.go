// Package judge talks to the external sandbox/online-judge service that
// compiles and executes submitted source code (spec.md §6 "online_judge"
// config, §4.2). It owns verdict classification and output comparison;
// pkg/scoring owns everything about what a verdict is worth.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arenahq/arena/pkg/models"
)

// Config configures the sandbox HTTP client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client is a thin HTTP client for the compile-and-execute sandbox.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a Client against cfg. A zero Timeout defaults to 30s,
// generous enough for the slowest bronze-tier compiler cold start.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type compileSection struct {
	SourceCode       string   `json:"source_code"`
	Language         string   `json:"language"`
	CompilerOptions  []string `json:"compiler_options,omitempty"`
}

type executeSection struct {
	Stdin     string `json:"stdin"`
	TimeoutMS int    `json:"timeout_ms"`
}

type testCaseSection struct {
	CheckerType    string `json:"checker_type"`
	ExpectedOutput string `json:"expected_output"`
}

type runRequest struct {
	Compile  compileSection  `json:"compile"`
	Execute  executeSection  `json:"execute"`
	TestCase testCaseSection `json:"test_case"`
}

type compileResult struct {
	ExitCode int    `json:"exit_code"`
	Stderr   string `json:"stderr"`
}

type executeResult struct {
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	ExitCode    int    `json:"exit_code"`
	Verdict     string `json:"verdict"`
	WallTimeS   string `json:"wall_time"`
	MemoryUsage string `json:"memory_usage"`
}

type runResponse struct {
	Body    string         `json:"body"`
	Compile *compileResult `json:"compile"`
	Execute *executeResult `json:"execute"`
}

// runOne posts one compile-and-execute request for a single test case and
// classifies the sandbox's response into a models.TestResult. It never
// returns an error for sandbox-reported failures (compile error, TLE,
// MLE, RE, WA) — those are encoded in the returned TestResult's Verdict.
// It returns an error only for transport/protocol failures talking to the
// sandbox itself.
func (c *Client) runOne(ctx context.Context, caseID, code, language, input, expected string, timeLimitMS, memLimitKB int) (models.TestResult, error) {
	req := runRequest{
		Compile: compileSection{
			SourceCode:      code,
			Language:        languageCode(language),
			CompilerOptions: compilerOptions(language),
		},
		Execute: executeSection{
			Stdin:     input,
			TimeoutMS: timeLimitMS,
		},
		TestCase: testCaseSection{
			CheckerType:    "strict_diff",
			ExpectedOutput: expected,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return models.TestResult{}, fmt.Errorf("judge: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.TestResult{}, fmt.Errorf("judge: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return models.TestResult{}, fmt.Errorf("judge: sandbox request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TestResult{}, fmt.Errorf("judge: read sandbox response: %w", err)
	}

	var out runResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.TestResult{}, fmt.Errorf("judge: parse sandbox response: %w", err)
	}
	// Some sandbox deployments double-wrap the payload as a JSON string in
	// an envelope's "body" field (API-gateway style). Unwrap if present.
	if out.Body != "" && out.Compile == nil && out.Execute == nil {
		var inner runResponse
		if err := json.Unmarshal([]byte(out.Body), &inner); err == nil {
			out = inner
		}
	}

	if out.Compile != nil && out.Compile.ExitCode != 0 {
		return models.TestResult{
			CaseID:  caseID,
			Verdict: models.VerdictCE,
			Error:   firstNonEmpty(out.Compile.Stderr, "compilation failed"),
		}, nil
	}

	if out.Execute == nil {
		return models.TestResult{
			CaseID:  caseID,
			Verdict: models.VerdictRE,
			Error:   "sandbox returned no execution result",
		}, nil
	}

	exec := out.Execute
	runtimeMS := parseSecondsToMS(exec.WallTimeS)
	memoryKB := parseInt(exec.MemoryUsage)

	verdict := mapSandboxVerdict(exec.Verdict)
	if verdict == "" {
		verdict = classifyFromExitCode(exec.ExitCode, exec.Stderr)
	}
	if verdict == "" {
		if compareOutputs(exec.Stdout, expected) {
			verdict = models.VerdictAC
		} else {
			verdict = models.VerdictWA
		}
	}

	if verdict == models.VerdictAC && memLimitKB > 0 && memoryKB > memLimitKB {
		verdict = models.VerdictMLE
	}

	errMsg := ""
	if verdict != models.VerdictAC {
		errMsg = exec.Stderr
	}

	return models.TestResult{
		CaseID:    caseID,
		Verdict:   verdict,
		RuntimeMS: runtimeMS,
		MemoryKB:  memoryKB,
		Stdout:    strings.TrimSpace(exec.Stdout),
		Error:     errMsg,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
