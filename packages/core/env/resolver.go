package env

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/servicecall/packages/builtin"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ErrUnresolved is returned by ResolveStrict when a placeholder has no value
var ErrUnresolved = errors.New("unresolved placeholder")

// WarnFunc is called for every placeholder Resolve leaves untouched
type WarnFunc func(format string, args ...any)

// Resolver replaces placeholders. It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	funcs     *builtin.Registry
	warnFunc  WarnFunc
	lookupEnv func(string) (string, bool)
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
		funcs:     builtin.NewRegistry(),
		lookupEnv: os.LookupEnv,
	}
}

func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Functions exposes the builtin registry so callers can register their own
func (r *Resolver) Functions() *builtin.Registry {
	return r.funcs
}

func (r *Resolver) lookup(expr string) (string, error) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		if val, found := r.lookupEnv(name); found {
			return val, nil
		}
		return "", fmt.Errorf("%w: environment variable $%s", ErrUnresolved, name)
	}

	if strings.Contains(expr, "(") {
		result, ok, err := r.funcs.Call(expr)
		if err != nil {
			return "", err
		}
		if ok {
			return result, nil
		}
		return "", fmt.Errorf("%w: function call %s", ErrUnresolved, expr)
	}

	if val, ok := r.GetVariable(expr); ok {
		return val, nil
	}
	return "", fmt.Errorf("%w: variable %s", ErrUnresolved, expr)
}

// Resolve substitutes every placeholder it can. Placeholders without a value
// are left as written and reported to the warn function.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		val, err := r.lookup(strings.TrimSpace(match[2 : len(match)-2]))
		if err != nil {
			r.warn("%v", err)
			return match
		}
		return val
	})
}

// ResolveStrict is Resolve but fails on the first placeholder without a value
func (r *Resolver) ResolveStrict(input string) (string, error) {
	var firstErr error
	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match
		}
		val, err := r.lookup(strings.TrimSpace(match[2 : len(match)-2]))
		if err != nil {
			firstErr = err
			return match
		}
		return val
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// GetUnresolvedVariables lists the placeholders in input that have no value
func (r *Resolver) GetUnresolvedVariables(input string) []string {
	var missing []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if strings.Contains(expr, "(") {
			if r.funcs.Has(expr[:strings.Index(expr, "(")]) {
				continue
			}
		} else if _, err := r.lookup(expr); err == nil {
			continue
		}
		missing = append(missing, expr)
	}
	return missing
}

// HasUnresolvedVariables reports whether any placeholder in input has no value
func (r *Resolver) HasUnresolvedVariables(input string) bool {
	return len(r.GetUnresolvedVariables(input)) > 0
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver()
	clone.lookupEnv = r.lookupEnv
	clone.warnFunc = r.warnFunc
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	return clone
}
