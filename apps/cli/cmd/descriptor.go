package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/core/config"
	"github.com/abdul-hamid-achik/servicecall/packages/core/env"
	"github.com/abdul-hamid-achik/servicecall/packages/core/value"
	"github.com/abdul-hamid-achik/servicecall/packages/descriptor"
	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"
	"github.com/abdul-hamid-achik/servicecall/packages/history"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
)

// systemVarPrefix exposes SERVICECALL_VAR_name as the variable name
const systemVarPrefix = "SERVICECALL_VAR_"

// newResolver collects variables from the environment, the env file and
// --var assignments, later sources winning
func newResolver(cfg *config.Config, assignments []string, warn env.WarnFunc) (*env.Resolver, error) {
	sources := []map[string]string{env.LoadSystemEnv(systemVarPrefix)}

	if cfg.EnvFile != "" {
		vars, err := env.LoadDotEnv(cfg.EnvFile)
		if err != nil {
			return nil, withExitCode(ExitConfigError, err)
		}
		sources = append(sources, vars)
	}

	vars, err := env.ParseAssignments(assignments)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	sources = append(sources, vars)

	resolver := env.NewResolver()
	resolver.SetVariables(env.MergeVariables(sources...))
	if warn != nil {
		resolver.SetWarnFunc(warn)
	}
	return resolver, nil
}

func loadDescriptor(path string, resolver *env.Resolver) (*descriptor.Descriptor, error) {
	d, err := descriptor.Load(path, resolver)
	if err != nil {
		return nil, withExitCode(ExitDescriptorError, err)
	}
	return d, nil
}

// validatorFor combines the descriptor's expectations with the configured
// schema and any --expect path=value pairs
func validatorFor(d *descriptor.Descriptor, cfg *config.Config, expectations []string) (dispatch.Validator, error) {
	fromDescriptor, err := d.Validator()
	if err != nil {
		return nil, withExitCode(ExitDescriptorError, err)
	}
	validators := []dispatch.Validator{fromDescriptor}

	if cfg.Schema != "" {
		data, err := os.ReadFile(cfg.Schema)
		if err != nil {
			return nil, withExitCode(ExitConfigError, fmt.Errorf("reading schema: %w", err))
		}
		v, err := dispatch.SchemaValidator(data)
		if err != nil {
			return nil, withExitCode(ExitConfigError, err)
		}
		validators = append(validators, v)
	}

	for _, e := range expectations {
		path, expected, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid expectation %q, expected path=value", e))
		}
		validators = append(validators, dispatch.FieldValidator(strings.TrimSpace(path), expected))
	}

	return dispatch.All(validators...), nil
}

// parseParams reads --param key=<json> overrides. A value that is not valid
// JSON is sent as a string, so name=alice needs no quoting.
func parseParams(assignments []string) ([]http.Param, error) {
	params := make([]http.Param, 0, len(assignments))
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid param %q, expected key=value", a))
		}
		v, err := value.Parse([]byte(raw))
		if err != nil {
			v = value.String(raw)
		}
		params = append(params, http.Param{Key: key, Value: v})
	}
	return params, nil
}

// requestFor builds the request for d with params replacing same-named
// descriptor params. The timeout comes from the flag, then the descriptor,
// then the config file.
func requestFor(d *descriptor.Descriptor, cfg *config.Config, override time.Duration, params []http.Param) *http.Request {
	req := d.Request()
	for _, p := range params {
		req.SetParam(p.Key, p.Value)
	}
	switch {
	case override > 0:
		req.SetTimeout(override)
	case d.Timeout == 0 && cfg.Timeout > 0:
		req.SetTimeout(cfg.TimeoutDuration())
	}
	return req
}

// openHistory returns nil when no history database is configured
func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.History == "" {
		return nil, nil
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return store, nil
}

// encodeExitCode maps construction errors to the descriptor exit code
func encodeExitCode(err error) error {
	if http.IsConstructionError(err) {
		return withExitCode(ExitDescriptorError, err)
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	return withExitCode(ExitRequestFailure, err)
}
