package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Error is one strict-schema violation located in a YAML document.
type Error struct {
	Path    string
	Line    int
	Message string
}

func (e Error) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d field %s: %s", e.Line, e.Path, e.Message)
	}
	return fmt.Sprintf("field %s: %s", e.Path, e.Message)
}

// Validator checks the top-level node of a document.
type Validator func(node *yaml.Node) []Error

// Format renders errs sorted by line, path and message.
func Format(path string, errs []Error) string {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Line != errs[j].Line {
			return errs[i].Line < errs[j].Line
		}
		if errs[i].Path != errs[j].Path {
			return errs[i].Path < errs[j].Path
		}
		return errs[i].Message < errs[j].Message
	})
	var b strings.Builder
	b.WriteString("schema validation failed for ")
	b.WriteString(path)
	for _, e := range errs {
		b.WriteString("\n- ")
		b.WriteString(e.String())
	}
	return b.String()
}

// DecodeYAML validates payload against validate and decodes it into out. The
// document goes YAML -> generic value -> JSON -> out so that struct json tags
// are the single source of field names.
func DecodeYAML(path string, payload []byte, validate Validator, out interface{}) error {
	var root yaml.Node
	if err := yaml.Unmarshal(payload, &root); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return fmt.Errorf("%s", Format(path, []Error{{Path: "document", Message: "empty YAML document"}}))
	}
	if validate != nil {
		if errs := validate(root.Content[0]); len(errs) > 0 {
			return fmt.Errorf("%s", Format(path, errs))
		}
	}
	j, err := json.Marshal(NodeValue(root.Content[0]))
	if err != nil {
		return fmt.Errorf("normalize %s: %w", path, err)
	}
	if err := json.Unmarshal(j, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Map checks that node is a mapping with only allowed keys, no duplicates and
// every required key, and returns its values by key.
func Map(node *yaml.Node, path string, allowed, required []string, errs *[]Error) map[string]*yaml.Node {
	result := map[string]*yaml.Node{}
	if node == nil {
		*errs = append(*errs, Error{Path: path, Message: "missing object"})
		return result
	}
	if node.Kind != yaml.MappingNode {
		*errs = append(*errs, Error{Path: path, Line: node.Line, Message: "must be a mapping/object"})
		return result
	}
	allowedSet := map[string]bool{}
	for _, a := range allowed {
		allowedSet[a] = true
	}
	seen := map[string]int{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := node.Content[i]
		v := node.Content[i+1]
		key := k.Value
		if prevLine, ok := seen[key]; ok {
			*errs = append(*errs, Error{Path: path + "." + key, Line: k.Line, Message: fmt.Sprintf("duplicate key (already defined at line %d)", prevLine)})
			continue
		}
		seen[key] = k.Line
		if allowed != nil && !allowedSet[key] {
			*errs = append(*errs, Error{Path: path + "." + key, Line: k.Line, Message: "unknown field"})
		}
		result[key] = v
	}
	for _, req := range required {
		if _, ok := result[req]; !ok {
			*errs = append(*errs, Error{Path: path + "." + req, Line: node.Line, Message: "missing required field"})
		}
	}
	return result
}

// Sequence checks that node is a sequence and returns its items.
func Sequence(node *yaml.Node, path string, errs *[]Error) []*yaml.Node {
	if node == nil {
		*errs = append(*errs, Error{Path: path, Message: "missing sequence"})
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		*errs = append(*errs, Error{Path: path, Line: node.Line, Message: "must be a sequence/array"})
		return nil
	}
	return node.Content
}

// Text checks that node is a scalar and retags it as a string, so an unquoted
// number or boolean decodes as its literal text. A null node is left alone.
func Text(node *yaml.Node, path string, errs *[]Error) {
	if node == nil {
		return
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		*errs = append(*errs, Error{Path: path, Line: node.Line, Message: "must be a string"})
		return
	}
	if node.Tag != "!!null" {
		node.Tag = "!!str"
	}
}

// NodeValue converts a YAML node into plain maps, slices and scalars.
func NodeValue(node *yaml.Node) interface{} {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil
		}
		return NodeValue(node.Content[0])
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			m[node.Content[i].Value] = NodeValue(node.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(node.Content))
		for _, c := range node.Content {
			out = append(out, NodeValue(c))
		}
		return out
	case yaml.AliasNode:
		return NodeValue(node.Alias)
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!bool":
			return strings.EqualFold(node.Value, "true")
		case "!!int":
			var i int64
			if _, err := fmt.Sscan(node.Value, &i); err == nil {
				return i
			}
			return node.Value
		case "!!float":
			var f float64
			if _, err := fmt.Sscan(node.Value, &f); err == nil {
				return f
			}
			return node.Value
		case "!!null":
			return nil
		default:
			return node.Value
		}
	default:
		return node.Value
	}
}
