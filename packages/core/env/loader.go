package env

import (
	"os"
	"strings"
)

// MergeVariables combines sources left to right; later sources win
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the process environment. With a prefix, only
// variables starting with it are returned, with the prefix removed.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}

// ParseAssignments parses KEY=value strings as given to --var
func ParseAssignments(assignments []string) (map[string]string, error) {
	result := make(map[string]string, len(assignments))
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &AssignmentError{Input: a}
		}
		result[key] = value
	}
	return result, nil
}

type AssignmentError struct {
	Input string
}

func (e *AssignmentError) Error() string {
	return "invalid variable assignment " + `"` + e.Input + `"` + ", expected KEY=value"
}
