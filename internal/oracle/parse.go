package oracle

import (
	"encoding/json"
	"strings"

	"github.com/turtacn/geometax/pkg/errors"
)

// Model responses arrive as loosely formatted text: possibly fenced, quoted,
// or wrapped in prose despite the prompt contract.  The parsers here cut out
// the first JSON payload or bare value and reject anything else.

// parseScalar trims a one-value answer down to the value itself.
func parseScalar(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// parseBool accepts "true"/"false" in any casing.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(parseScalar(raw)) {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	}
	return false, errors.New(errors.ErrCodeOracleBadResponse, "expected a boolean answer").
		WithDetail(snippet(raw))
}

// parseStringList decodes the first JSON array in the response.
func parseStringList(raw string) ([]string, error) {
	payload, err := extract(raw, '[', ']')
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeOracleBadResponse, "expected a JSON list of strings").
			WithDetail(snippet(raw))
	}
	return out, nil
}

// parseObject decodes the first JSON object in the response into v.
func parseObject(raw string, v any) error {
	payload, err := extract(raw, '{', '}')
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return errors.Wrap(err, errors.ErrCodeOracleBadResponse, "expected a JSON object").
			WithDetail(snippet(raw))
	}
	return nil
}

func extract(raw string, open, close byte) (string, error) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start < 0 || end <= start {
		return "", errors.New(errors.ErrCodeOracleBadResponse, "no JSON payload in response").
			WithDetail(snippet(raw))
	}
	return raw[start : end+1], nil
}

func snippet(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
