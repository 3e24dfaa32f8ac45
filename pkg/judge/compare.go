package judge

import (
	"strconv"
	"strings"

	"github.com/arenahq/arena/pkg/models"
)

// compareOutputs implements the three-tier fallback the sandbox uses when
// its own verdict string doesn't already settle the case: exact match
// after line-ending normalization, then whitespace-collapsed match, then
// numeric comparison within a 1e-6 tolerance.
func compareOutputs(actual, expected string) bool {
	actual = normalizeLineEndings(actual)
	expected = normalizeLineEndings(expected)

	if actual == expected {
		return true
	}

	if collapseWhitespace(actual) == collapseWhitespace(expected) {
		return true
	}

	actualF, errA := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	expectedF, errB := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if errA == nil && errB == nil {
		diff := actualF - expectedF
		if diff < 0 {
			diff = -diff
		}
		return diff < 1e-6
	}

	return false
}

func normalizeLineEndings(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseSecondsToMS(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int(f * 1000)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func languageCode(language string) string {
	switch strings.ToLower(language) {
	case "c++", "cpp":
		return "cpp"
	case "java":
		return "java21"
	case "python", "python3":
		return "py12"
	default:
		return strings.ToLower(language)
	}
}

func compilerOptions(language string) []string {
	switch strings.ToLower(language) {
	case "c++", "cpp":
		return []string{"-O2", "-std=c++17"}
	default:
		return nil
	}
}

var sandboxVerdictMap = map[string]models.Verdict{
	"accepted":              models.VerdictAC,
	"wrong_answer":          models.VerdictWA,
	"presentation_error":    models.VerdictWA,
	"time_limit_exceeded":   models.VerdictTLE,
	"memory_limit_exceeded": models.VerdictMLE,
	"runtime_error":         models.VerdictRE,
	"output_limit_exceeded": models.VerdictRE,
}

func mapSandboxVerdict(verdict string) models.Verdict {
	return sandboxVerdictMap[strings.ToLower(strings.TrimSpace(verdict))]
}

func classifyFromExitCode(exitCode int, stderr string) models.Verdict {
	if exitCode == 0 {
		return ""
	}
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "time limit") || exitCode == 124 || exitCode == 31744 || strings.Contains(lower, "status 124"):
		return models.VerdictTLE
	case strings.Contains(lower, "memory limit"):
		return models.VerdictMLE
	default:
		return models.VerdictRE
	}
}
