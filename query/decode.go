package query

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ParseDocument decodes a JSON or YAML filter document, keeping the key
// order of every object. JSON input is streamed token by token; anything
// that does not start with '{' is treated as YAML.
func ParseDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, nil
	}

	var (
		v   any
		err error
	)
	if trimmed[0] == '{' {
		v, err = decodeJSON(trimmed)
	} else {
		v, err = decodeYAML(trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("query: parse document: %w", err)
	}
	if v == nil {
		return Document{}, nil
	}
	doc, ok := v.(Document)
	if !ok {
		return nil, errors.New("query: parse document: root must be an object")
	}
	return doc, nil
}

// UnmarshalJSON keeps key order when a Document is embedded in JSON.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// UnmarshalYAML keeps key order when a Document is embedded in YAML.
func (d *Document) UnmarshalYAML(n *yaml.Node) error {
	v, err := yamlValue(n)
	if err != nil {
		return err
	}
	doc, ok := v.(Document)
	if !ok && v != nil {
		return fmt.Errorf("query: expected mapping, got %s", Classify(v))
	}
	*d = doc
	return nil
}

// MarshalJSON writes d as a JSON object with keys in slice order. Nested
// Documents, including those inside arrays, encode the same way.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("query: encode %q: %w", f.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes d as a mapping with keys in slice order.
func (d Document) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range d {
		k, v := &yaml.Node{}, &yaml.Node{}
		k.SetString(f.Key)
		if err := v.Encode(f.Value); err != nil {
			return nil, fmt.Errorf("query: encode %q: %w", f.Key, err)
		}
		n.Content = append(n.Content, k, v)
	}
	return n, nil
}

/*───────────────────────────────
|  JSON                          |
└───────────────────────────────*/

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := jsonValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after document")
	}
	return v, nil
}

func jsonValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			doc := Document{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", kt)
				}
				v, err := jsonValue(dec)
				if err != nil {
					return nil, err
				}
				doc = append(doc, Field{Key: key, Value: v})
			}
			_, err := dec.Token() // '}'
			return doc, err
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := jsonValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			_, err := dec.Token() // ']'
			return arr, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		return number(string(t)), nil
	default:
		return t, nil
	}
}

// number prefers int for integral literals and float64 for everything else.
func number(s string) any {
	if n, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

/*───────────────────────────────
|  YAML                          |
└───────────────────────────────*/

func decodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return yamlValue(&root)
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		doc := make(Document, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			doc = append(doc, Field{Key: k.Value, Value: v})
		}
		return doc, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node", n.Line)
}
