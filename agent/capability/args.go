package capability

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

func argString(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// argInt accepts the numeric shapes JSON decoding produces.
func argInt(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing required parameter: %s", key)
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %s must be an integer", key)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("parameter %s must be an integer", key)
	}
}

// missingParam returns the first required parameter that is absent or
// blank, or "" when the call is complete.
func missingParam(args map[string]any, required []string) string {
	for _, key := range required {
		v, ok := args[key]
		if !ok || v == nil {
			return key
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return key
		}
	}
	return ""
}
