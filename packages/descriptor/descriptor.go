package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/core/env"
	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
	"gopkg.in/yaml.v3"
)

var ErrInvalidDescriptor = errors.New("invalid descriptor")

// FieldExpectation requires the response value at a gjson path to equal Value
type FieldExpectation struct {
	Path  string
	Value string
}

type Expectations struct {
	// Schema is the absolute path of a JSON Schema file, if any
	Schema string
	Fields []FieldExpectation
}

// Descriptor is a fully interpolated request description
type Descriptor struct {
	Name    string
	Source  string
	Method  http.Method
	URL     string
	Timeout time.Duration
	Headers []http.Header
	Params  []http.Param
	Files   []http.FileEntry
	Expect  Expectations
}

type rawFile struct {
	Key  string  `yaml:"key"`
	Path string  `yaml:"path"`
	Data *string `yaml:"data"`
	Mime string  `yaml:"mime"`
	Name string  `yaml:"name"`
}

type rawExpect struct {
	Schema string            `yaml:"schema"`
	Fields map[string]string `yaml:"fields"`
}

type rawDescriptor struct {
	Name    string    `yaml:"name"`
	Method  string    `yaml:"method"`
	URL     string    `yaml:"url"`
	Timeout yaml.Node `yaml:"timeout"`
	Headers yaml.Node `yaml:"headers"`
	Params  yaml.Node `yaml:"params"`
	Files   []rawFile `yaml:"files"`
	Expect  rawExpect `yaml:"expect"`
}

// Load reads and interpolates the descriptor at path. A nil resolver
// resolves only environment variables and builtins.
func Load(path string, resolver *env.Resolver) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}

	d, err := Parse(data, filepath.Dir(path), resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}

// Parse decodes a descriptor. baseDir anchors relative file paths.
func Parse(data []byte, baseDir string, resolver *env.Resolver) (*Descriptor, error) {
	if resolver == nil {
		resolver = env.NewResolver()
	}

	var raw rawDescriptor
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	p := &parser{baseDir: baseDir, resolver: resolver}
	d := &Descriptor{Name: raw.Name}

	var err error
	if d.Method, err = p.method(raw.Method); err != nil {
		return nil, err
	}
	if d.URL, err = p.resolve("url", raw.URL); err != nil {
		return nil, err
	}
	if d.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidDescriptor)
	}
	if d.Timeout, err = parseTimeout(&raw.Timeout); err != nil {
		return nil, err
	}
	if d.Headers, err = p.headers(&raw.Headers); err != nil {
		return nil, err
	}
	if d.Params, err = p.params(&raw.Params); err != nil {
		return nil, err
	}
	if d.Files, err = p.files(raw.Files); err != nil {
		return nil, err
	}
	if d.Expect, err = p.expect(raw.Expect); err != nil {
		return nil, err
	}
	return d, nil
}

// Request builds the http.Request the descriptor describes
func (d *Descriptor) Request() *http.Request {
	req := http.NewRequest(d.Method, d.URL)
	if d.Timeout > 0 {
		req.SetTimeout(d.Timeout)
	}
	req.Headers = append(req.Headers, d.Headers...)
	req.Params = append(req.Params, d.Params...)
	req.Files = append(req.Files, d.Files...)
	return req
}

// Validator combines the descriptor's expectations. It is nil when there are
// none.
func (d *Descriptor) Validator() (dispatch.Validator, error) {
	var validators []dispatch.Validator
	if d.Expect.Schema != "" {
		schema, err := os.ReadFile(d.Expect.Schema)
		if err != nil {
			return nil, fmt.Errorf("reading schema: %w", err)
		}
		v, err := dispatch.SchemaValidator(schema)
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}
	for _, f := range d.Expect.Fields {
		validators = append(validators, dispatch.FieldValidator(f.Path, f.Value))
	}
	if len(validators) == 0 {
		return nil, nil
	}
	return dispatch.All(validators...), nil
}

type parser struct {
	baseDir  string
	resolver *env.Resolver
}

func (p *parser) resolve(field, s string) (string, error) {
	out, err := p.resolver.ResolveStrict(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return out, nil
}

func (p *parser) method(s string) (http.Method, error) {
	if strings.TrimSpace(s) == "" {
		return http.MethodGet, nil
	}
	m, err := http.ParseMethod(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return m, nil
}

// parseTimeout accepts a Go duration string or a bare number of milliseconds
func parseTimeout(n *yaml.Node) (time.Duration, error) {
	if n.Kind == 0 || n.ShortTag() == "!!null" {
		return 0, nil
	}
	if n.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("%w: timeout must be a duration", ErrInvalidDescriptor)
	}
	if n.ShortTag() == "!!int" {
		var ms int64
		if err := n.Decode(&ms); err != nil {
			return 0, fmt.Errorf("%w: timeout: %v", ErrInvalidDescriptor, err)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(n.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout: %v", ErrInvalidDescriptor, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative timeout %s", ErrInvalidDescriptor, d)
	}
	return d, nil
}

// headers accepts either a list of {name, value} entries or a mapping
func (p *parser) headers(n *yaml.Node) ([]http.Header, error) {
	var out []http.Header
	add := func(name, v string) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: header with empty name", ErrInvalidDescriptor)
		}
		resolved, err := p.resolve("header "+name, v)
		if err != nil {
			return err
		}
		out = append(out, http.Header{Name: name, Value: resolved})
		return nil
	}

	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if err := add(n.Content[i].Value, n.Content[i+1].Value); err != nil {
				return nil, err
			}
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			var h struct {
				Name  string `yaml:"name"`
				Value string `yaml:"value"`
			}
			if err := item.Decode(&h); err != nil {
				return nil, fmt.Errorf("%w: header: %v", ErrInvalidDescriptor, err)
			}
			if err := add(h.Name, h.Value); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: headers must be a list or a mapping", ErrInvalidDescriptor)
	}
	return out, nil
}

func (p *parser) params(n *yaml.Node) ([]http.Param, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("%w: params must be a mapping", ErrInvalidDescriptor)
	}

	out := make([]http.Param, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		v, err := p.value(n.Content[i+1], "params."+key)
		if err != nil {
			return nil, err
		}
		out = append(out, http.Param{Key: key, Value: v})
	}
	return out, nil
}

func (p *parser) files(raw []rawFile) ([]http.FileEntry, error) {
	out := make([]http.FileEntry, 0, len(raw))
	for i, f := range raw {
		field := fmt.Sprintf("files[%d]", i)
		if strings.TrimSpace(f.Key) == "" {
			return nil, fmt.Errorf("%w: %s: key is required", ErrInvalidDescriptor, field)
		}
		if (f.Path == "") == (f.Data == nil) {
			return nil, fmt.Errorf("%w: %s: exactly one of path or data is required", ErrInvalidDescriptor, field)
		}

		entry := http.FileEntry{Key: f.Key, MimeType: f.Mime, FileName: f.Name}
		if f.Data != nil {
			data, err := p.resolve(field, *f.Data)
			if err != nil {
				return nil, err
			}
			entry.Data = []byte(data)
		} else {
			path, err := p.resolve(field, f.Path)
			if err != nil {
				return nil, err
			}
			if entry.Path, err = p.filePath(path); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, field, err)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// filePath anchors relative paths to the descriptor directory. Absolute
// paths and file:// URLs are used as written.
func (p *parser) filePath(path string) (string, error) {
	if strings.HasPrefix(path, "file://") || filepath.IsAbs(path) || p.baseDir == "" {
		return path, nil
	}
	full := filepath.Join(p.baseDir, path)
	if err := validatePathWithinBase(full, p.baseDir); err != nil {
		return "", err
	}
	return full, nil
}

func (p *parser) expect(raw rawExpect) (Expectations, error) {
	var e Expectations
	if raw.Schema != "" {
		path, err := p.resolve("expect.schema", raw.Schema)
		if err != nil {
			return e, err
		}
		if e.Schema, err = p.filePath(path); err != nil {
			return e, fmt.Errorf("%w: expect.schema: %v", ErrInvalidDescriptor, err)
		}
	}

	paths := make([]string, 0, len(raw.Fields))
	for path := range raw.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		v, err := p.resolve("expect.fields."+path, raw.Fields[path])
		if err != nil {
			return e, err
		}
		e.Fields = append(e.Fields, FieldExpectation{Path: path, Value: v})
	}
	return e, nil
}

// validatePathWithinBase checks that path does not escape baseDir
func validatePathWithinBase(path, baseDir string) error {
	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}
	return nil
}
