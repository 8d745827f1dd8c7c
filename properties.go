package blueprint

import (
	"encoding/json"
	"fmt"
)

// Property is one named value in a node's property list.
//
// Its JSON form carries a type tag next to the value so scalar Go types
// survive a store round trip: an int saved is an int loaded. Values of
// other types are written as plain JSON and read back as generic JSON
// values (map[string]any, []any, float64 ...).
type Property struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type propertyJSON struct {
	Name  string          `json:"name"`
	Type  string          `json:"type,omitempty"`
	Value json.RawMessage `json:"value"`
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var propertyDecoders = map[string]func(json.RawMessage) (any, error){
	"bool":    decodeAs[bool],
	"string":  decodeAs[string],
	"bytes":   decodeAs[[]byte],
	"int":     decodeAs[int],
	"int8":    decodeAs[int8],
	"int16":   decodeAs[int16],
	"int32":   decodeAs[int32],
	"int64":   decodeAs[int64],
	"uint":    decodeAs[uint],
	"uint8":   decodeAs[uint8],
	"uint16":  decodeAs[uint16],
	"uint32":  decodeAs[uint32],
	"uint64":  decodeAs[uint64],
	"float32": decodeAs[float32],
	"float64": decodeAs[float64],
}

func propertyType(v any) string {
	switch v.(type) {
	case bool:
		return "bool"
	case string:
		return "string"
	case []byte:
		return "bytes"
	case int:
		return "int"
	case int8:
		return "int8"
	case int16:
		return "int16"
	case int32:
		return "int32"
	case int64:
		return "int64"
	case uint:
		return "uint"
	case uint8:
		return "uint8"
	case uint16:
		return "uint16"
	case uint32:
		return "uint32"
	case uint64:
		return "uint64"
	case float32:
		return "float32"
	case float64:
		return "float64"
	}
	return ""
}

func (p Property) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(p.Value)
	if err != nil {
		return nil, fmt.Errorf("blueprint: encode property %q: %w", p.Name, err)
	}
	return json.Marshal(propertyJSON{Name: p.Name, Type: propertyType(p.Value), Value: raw})
}

func (p *Property) UnmarshalJSON(data []byte) error {
	var in propertyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Name = in.Name
	p.Value = nil
	if len(in.Value) == 0 || string(in.Value) == "null" {
		return nil
	}

	if in.Type == "" {
		return json.Unmarshal(in.Value, &p.Value)
	}
	decode, ok := propertyDecoders[in.Type]
	if !ok {
		return fmt.Errorf("blueprint: property %q has unknown type %q", in.Name, in.Type)
	}
	v, err := decode(in.Value)
	if err != nil {
		return fmt.Errorf("blueprint: decode property %q: %w", in.Name, err)
	}
	p.Value = v
	return nil
}

// Properties is an ordered name → value mapping. Insertion order is kept
// so editors show fields in the order the node type declared them.
type Properties []Property

// Get returns the value stored under name.
func (p Properties) Get(name string) (any, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return nil, false
}

// Set overwrites an existing entry in place or appends a new one.
func (p *Properties) Set(name string, value any) {
	for i := range *p {
		if (*p)[i].Name == name {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Property{Name: name, Value: value})
}

// Delete removes name, keeping the order of the remaining entries.
func (p *Properties) Delete(name string) bool {
	for i := range *p {
		if (*p)[i].Name == name {
			*p = append((*p)[:i], (*p)[i+1:]...)
			return true
		}
	}
	return false
}

// Names lists property names in order.
func (p Properties) Names() []string {
	names := make([]string, len(p))
	for i, prop := range p {
		names[i] = prop.Name
	}
	return names
}

func (p Properties) clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	copy(out, p)
	return out
}
