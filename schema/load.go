package schema

import (
	"encoding/json"
	"fmt"
	"os"

	goavro "github.com/linkedin/goavro/v2"

	"github.com/aqlang/aql/ast"
)

// Device manifests declare each channel's argument records as Avro
// record schemas. goavro validates the schemas; argument names, types
// and optionality (a field with a default, or a union with null) come
// from the declared fields.

type manifest struct {
	Kind     string            `json:"kind"`
	Channels []manifestChannel `json:"channels"`
	Macros   []manifestMacro   `json:"macros"`
}

type manifestChannel struct {
	Name string          `json:"name"`
	Type string          `json:"type"` // stream | query | action
	In   json.RawMessage `json:"in"`
	Out  json.RawMessage `json:"out"`
}

type manifestMacro struct {
	Name string          `json:"name"`
	Type string          `json:"type"`
	In   json.RawMessage `json:"in"`
	Out  json.RawMessage `json:"out"`
}

type avroRecord struct {
	Fields []avroField `json:"fields"`
}

type avroField struct {
	Name    string           `json:"name"`
	Type    json.RawMessage  `json:"type"`
	Default *json.RawMessage `json:"default"`
}

// LoadFile reads a device manifest and registers its channels and
// macros.
func LoadFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot open manifest: %w", err)
	}
	return Load(r, data)
}

// Load parses a device manifest out of raw JSON and registers its
// channels and macros.
func Load(r *Registry, data []byte) error {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}
	if m.Kind == "" && len(m.Channels) > 0 {
		return fmt.Errorf("invalid manifest: missing device kind")
	}
	for _, ch := range m.Channels {
		s, err := channelSchema(ch.Type, ch.In, ch.Out)
		if err != nil {
			return fmt.Errorf("channel %s.%s: %w", m.Kind, ch.Name, err)
		}
		r.Register(m.Kind, ch.Name, s)
	}
	for _, mc := range m.Macros {
		s, err := channelSchema(mc.Type, mc.In, mc.Out)
		if err != nil {
			return fmt.Errorf("macro %s: %w", mc.Name, err)
		}
		r.RegisterMacro(mc.Name, s)
	}
	return nil
}

func channelSchema(kind string, in, out json.RawMessage) (*ast.Schema, error) {
	s := &ast.Schema{}
	switch kind {
	case "stream":
		s.Kind = ast.Stream
	case "query":
		s.Kind = ast.Query
	case "action":
		s.Kind = ast.Action
	default:
		return nil, fmt.Errorf("unknown function type %q", kind)
	}
	if len(in) > 0 {
		req, opt, err := argRecord(in)
		if err != nil {
			return nil, fmt.Errorf("in record: %w", err)
		}
		s.InReq, s.InOpt = req, opt
	}
	if len(out) > 0 {
		req, opt, err := argRecord(out)
		if err != nil {
			return nil, fmt.Errorf("out record: %w", err)
		}
		s.Out = append(req, opt...)
	}
	return s, nil
}

// argRecord validates an Avro record schema and extracts its fields as
// arguments. Fields with a default value, or typed as a union with
// null, are optional.
func argRecord(raw json.RawMessage) (required, optional []ast.Arg, err error) {
	if _, err := goavro.NewCodec(string(raw)); err != nil {
		return nil, nil, fmt.Errorf("invalid avro schema: %w", err)
	}
	var rec avroRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil, fmt.Errorf("cannot decode record fields: %w", err)
	}
	for _, f := range rec.Fields {
		typ, nullable, err := argType(f.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		arg := ast.Arg{Name: f.Name, Type: typ}
		if nullable || f.Default != nil {
			optional = append(optional, arg)
		} else {
			required = append(required, arg)
		}
	}
	return required, optional, nil
}

// argType maps an Avro field type onto the small argument type alphabet
// the engine uses. Unions with null mark the argument optional.
func argType(raw json.RawMessage) (string, bool, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return mapAvroType(name), false, nil
	}
	var union []json.RawMessage
	if err := json.Unmarshal(raw, &union); err == nil {
		nullable := false
		typ := ""
		for _, member := range union {
			var m string
			if err := json.Unmarshal(member, &m); err != nil {
				return "", false, fmt.Errorf("unsupported union member %s", member)
			}
			if m == "null" {
				nullable = true
				continue
			}
			typ = mapAvroType(m)
		}
		if typ == "" {
			return "", false, fmt.Errorf("union carries no concrete type")
		}
		return typ, nullable, nil
	}
	// complex types (arrays, nested records) keep their avro tag
	var complexType struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &complexType); err != nil || complexType.Type == "" {
		return "", false, fmt.Errorf("unsupported field type %s", raw)
	}
	return mapAvroType(complexType.Type), false, nil
}

func mapAvroType(avro string) string {
	switch avro {
	case "int", "long", "float", "double":
		return "number"
	case "string", "bytes":
		return "string"
	case "boolean":
		return "bool"
	case "array":
		return "array"
	}
	return avro
}
