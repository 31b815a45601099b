package descriptor

import (
	"fmt"
	"math"

	"github.com/abdul-hamid-achik/servicecall/packages/core/value"
	"gopkg.in/yaml.v3"
)

// value converts a YAML node into a parameter value. Strings are
// interpolated; mapping order is preserved.
func (p *parser) value(n *yaml.Node, field string) (value.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null(), nil
		}
		return p.value(n.Content[0], field)
	case yaml.AliasNode:
		return p.value(n.Alias, field)
	case yaml.ScalarNode:
		return p.scalar(n, field)
	case yaml.SequenceNode:
		items := make([]value.Value, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := p.value(c, fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, v)
		}
		return value.Array(items...), nil
	case yaml.MappingNode:
		members := make([]value.Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			v, err := p.value(n.Content[i+1], field+"."+key)
			if err != nil {
				return value.Value{}, err
			}
			members = append(members, value.Member{Key: key, Value: v})
		}
		return value.Object(members...), nil
	}
	return value.Value{}, fmt.Errorf("%w: %s: unsupported YAML node", ErrInvalidDescriptor, field)
}

func (p *parser) scalar(n *yaml.Node, field string) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value.Value{}, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, field, err)
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return value.Int(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return value.Value{}, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, field, err)
		}
		return value.Uint(u), nil
	case "!!float":
		// keep the literal when it is already valid JSON, so 1.50 stays 1.50
		if v, err := value.Number(n.Value); err == nil {
			return v, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return value.Value{}, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, field, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return value.Value{}, fmt.Errorf("%w: %s: %s has no JSON form", ErrInvalidDescriptor, field, n.Value)
		}
		return value.Float(f), nil
	}

	s, err := p.resolve(field, n.Value)
	if err != nil {
		return value.Value{}, err
	}
	return value.String(s), nil
}
