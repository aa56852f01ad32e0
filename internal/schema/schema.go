// Package schema parses EAS schema definitions and encodes attestation data
// in the layout a schema declares.
//
// A schema definition is a comma separated list of "type name" pairs, for
// example "address recipient,uint64 dateAwarded". Data is ABI encoded as a
// tuple of the declared types in declaration order, which is what the EAS
// contracts and SDKs expect.
package schema

import (
	"fmt"
	"strings"

	gethAbi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Field is one declared entry of a schema.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Value is a field together with the value encoded for it.
type Value struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Schema is a parsed schema definition.
type Schema struct {
	definition string
	fields     []Field
	args       gethAbi.Arguments
}

// Parse validates a schema definition and prepares its ABI arguments.
func Parse(definition string) (*Schema, error) {
	definition = strings.TrimSpace(definition)
	if definition == "" {
		return nil, fmt.Errorf("schema definition is empty")
	}

	parts := strings.Split(definition, ",")
	s := &Schema{
		definition: definition,
		fields:     make([]Field, 0, len(parts)),
		args:       make(gethAbi.Arguments, 0, len(parts)),
	}

	seen := make(map[string]struct{}, len(parts))
	for i, part := range parts {
		tokens := strings.Fields(part)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("schema field %d: expected \"type name\", got %q", i, strings.TrimSpace(part))
		}
		typ, name := tokens[0], tokens[1]
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("schema field %d: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}

		abiType, err := gethAbi.NewType(typ, "", nil)
		if err != nil {
			return nil, fmt.Errorf("schema field %q: unsupported type %q: %w", name, typ, err)
		}
		s.fields = append(s.fields, Field{Name: name, Type: typ})
		s.args = append(s.args, gethAbi.Argument{Name: name, Type: abiType})
	}

	return s, nil
}

// MustParse is Parse for package-level definitions known to be valid.
func MustParse(definition string) *Schema {
	s, err := Parse(definition)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return s
}

// String returns the definition the schema was parsed from.
func (s *Schema) String() string {
	return s.definition
}

// Fields returns a copy of the declared fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// EncodeData ABI encodes values, which must follow the declared field order.
// A value whose Go type does not fit the declared type fails in the encoder.
func (s *Schema) EncodeData(values []Value) ([]byte, error) {
	if len(values) != len(s.fields) {
		return nil, fmt.Errorf("schema expects %d values, got %d", len(s.fields), len(values))
	}

	raw := make([]any, len(values))
	for i, v := range values {
		field := s.fields[i]
		if v.Name != field.Name || v.Type != field.Type {
			return nil, fmt.Errorf("value %d: expected %s %s, got %s %s", i, field.Type, field.Name, v.Type, v.Name)
		}
		raw[i] = v.Value
	}

	packed, err := s.args.Pack(raw...)
	if err != nil {
		return nil, fmt.Errorf("abi encode schema data: %w", err)
	}
	return packed, nil
}

// DecodeData reverses EncodeData.
func (s *Schema) DecodeData(data []byte) ([]Value, error) {
	unpacked, err := s.args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("abi decode schema data: %w", err)
	}
	if len(unpacked) != len(s.fields) {
		return nil, fmt.Errorf("decoded %d values for %d schema fields", len(unpacked), len(s.fields))
	}

	values := make([]Value, len(unpacked))
	for i, v := range unpacked {
		values[i] = Value{Name: s.fields[i].Name, Type: s.fields[i].Type, Value: v}
	}
	return values, nil
}

// UID returns the identifier the schema registry assigns to this schema:
// keccak256(abi.encodePacked(schema, resolver, revocable)).
func (s *Schema) UID(resolver common.Address, revocable bool) common.Hash {
	packed := make([]byte, 0, len(s.definition)+common.AddressLength+1)
	packed = append(packed, s.definition...)
	packed = append(packed, resolver.Bytes()...)
	if revocable {
		packed = append(packed, 1)
	} else {
		packed = append(packed, 0)
	}
	return crypto.Keccak256Hash(packed)
}
