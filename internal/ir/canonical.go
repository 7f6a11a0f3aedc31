package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Node kind tags used in canonical JSON.
const (
	kindIdent = "ident"
	kindInt   = "int"
	kindFloat = "float"
	kindExit  = "exit"
	kindStore = "store"
)

// MarshalCanonical produces deterministic JSON for a node.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity computation.
//
// Differences from encoding/json:
//  1. Object keys are sorted
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Identifier names are NFC normalized
//  4. Float values are encoded as strings so 2.0 never collapses to 2
//  5. NaN and infinities are rejected
func MarshalCanonical(n Node) ([]byte, error) {
	switch v := n.(type) {
	case Identifier:
		name, err := marshalCanonicalString(string(v))
		if err != nil {
			return nil, err
		}
		return canonicalObject(field{"kind", quote(kindIdent)}, field{"name", name}), nil

	case IntegerLiteral:
		return canonicalObject(
			field{"kind", quote(kindInt)},
			field{"value", []byte(strconv.FormatInt(int64(v), 10))},
		), nil

	case FloatLiteral:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite float is forbidden in canonical JSON: %v", f)
		}
		return canonicalObject(
			field{"kind", quote(kindFloat)},
			field{"value", quote(formatFloat(f))},
		), nil

	case Exit:
		return canonicalObject(
			field{"code", []byte(strconv.Itoa(int(v)))},
			field{"kind", quote(kindExit)},
		), nil

	case BinaryOp:
		if _, ok := binaryNames[v.Kind]; !ok {
			return nil, fmt.Errorf("unknown binary kind %d", int(v.Kind))
		}
		left, err := MarshalCanonical(v.Left)
		if err != nil {
			return nil, fmt.Errorf("%s.left: %w", v.Kind, err)
		}
		right, err := MarshalCanonical(v.Right)
		if err != nil {
			return nil, fmt.Errorf("%s.right: %w", v.Kind, err)
		}
		return canonicalObject(
			field{"kind", quote(v.Kind.String())},
			field{"left", left},
			field{"right", right},
		), nil

	case Store:
		target, err := MarshalCanonical(v.Target)
		if err != nil {
			return nil, fmt.Errorf("store.target: %w", err)
		}
		value, err := MarshalCanonical(v.Value)
		if err != nil {
			return nil, fmt.Errorf("store.value: %w", err)
		}
		return canonicalObject(
			field{"kind", quote(kindStore)},
			field{"target", target},
			field{"value", value},
		), nil

	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	default:
		return nil, fmt.Errorf("unsupported node type for canonical JSON: %T", n)
	}
}

// MarshalProgram produces canonical JSON for a whole program:
// {"ir_version":"1","nodes":[...]}.
func MarshalProgram(p *Program) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil program")
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, n := range p.Nodes {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalCanonical(n)
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')

	return canonicalObject(
		field{"ir_version", quote(IRVersion)},
		field{"nodes", buf.Bytes()},
	), nil
}

// field is a pre-marshaled object member.
type field struct {
	key string
	val []byte
}

// canonicalObject writes fields sorted by key. Keys are ASCII, so byte
// order equals UTF-16 code unit order.
func canonicalObject(fields ...field) []byte {
	slices.SortFunc(fields, func(a, b field) int {
		return strings.Compare(a.key, b.key)
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(quote(f.key))
		buf.WriteByte(':')
		buf.Write(f.val)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// quote encodes an ASCII constant.
func quote(s string) []byte {
	return []byte(strconv.Quote(s))
}

// marshalCanonicalString produces a JSON string with NFC normalization and
// without HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// UnmarshalNode decodes canonical JSON produced by MarshalCanonical.
func UnmarshalNode(data []byte) (Node, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var kind string
	if err := json.Unmarshal(raw["kind"], &kind); err != nil {
		return nil, fmt.Errorf("node kind: %w", err)
	}

	switch kind {
	case kindIdent:
		var name string
		if err := json.Unmarshal(raw["name"], &name); err != nil {
			return nil, fmt.Errorf("ident name: %w", err)
		}
		return Identifier(name), nil

	case kindInt:
		var n int64
		if err := json.Unmarshal(raw["value"], &n); err != nil {
			return nil, fmt.Errorf("int value: %w", err)
		}
		return IntegerLiteral(n), nil

	case kindFloat:
		var s string
		if err := json.Unmarshal(raw["value"], &s); err != nil {
			return nil, fmt.Errorf("float value: %w", err)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("float value: %w", err)
		}
		return FloatLiteral(f), nil

	case kindExit:
		var code int
		if err := json.Unmarshal(raw["code"], &code); err != nil {
			return nil, fmt.Errorf("exit code: %w", err)
		}
		return Exit(code), nil

	case kindStore:
		target, err := UnmarshalNode(raw["target"])
		if err != nil {
			return nil, fmt.Errorf("store.target: %w", err)
		}
		ident, ok := target.(Identifier)
		if !ok {
			return nil, fmt.Errorf("store.target: expected ident, got %T", target)
		}
		value, err := UnmarshalNode(raw["value"])
		if err != nil {
			return nil, fmt.Errorf("store.value: %w", err)
		}
		return Store{Target: ident, Value: value}, nil
	}

	bk, ok := parseBinaryKind(kind)
	if !ok {
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
	left, err := UnmarshalNode(raw["left"])
	if err != nil {
		return nil, fmt.Errorf("%s.left: %w", kind, err)
	}
	right, err := UnmarshalNode(raw["right"])
	if err != nil {
		return nil, fmt.Errorf("%s.right: %w", kind, err)
	}
	return BinaryOp{Kind: bk, Left: left, Right: right}, nil
}

// UnmarshalProgram decodes JSON produced by MarshalProgram.
func UnmarshalProgram(data []byte) (*Program, error) {
	var raw struct {
		IRVersion string            `json:"ir_version"`
		Nodes     []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.IRVersion != IRVersion {
		return nil, fmt.Errorf("unsupported ir_version %q (want %q)", raw.IRVersion, IRVersion)
	}

	p := &Program{Nodes: make([]Node, len(raw.Nodes))}
	for i, rn := range raw.Nodes {
		n, err := UnmarshalNode(rn)
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		p.Nodes[i] = n
	}
	return p, nil
}
