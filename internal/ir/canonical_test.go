package ir

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"ident", Identifier("x"), `{"kind":"ident","name":"x"}`},
		{"int", IntegerLiteral(42), `{"kind":"int","value":42}`},
		{"float", FloatLiteral(1.5), `{"kind":"float","value":"1.5"}`},
		{"whole float", FloatLiteral(3), `{"kind":"float","value":"3.0"}`},
		{"exit", Exit(0), `{"code":0,"kind":"exit"}`},
		{
			"binary",
			Sub(IntegerLiteral(1), IntegerLiteral(2)),
			`{"kind":"sub","left":{"kind":"int","value":1},"right":{"kind":"int","value":2}}`,
		},
		{
			"store",
			Store{Target: "y", Value: FloatLiteral(0.25)},
			`{"kind":"store","target":{"kind":"ident","name":"y"},"value":{"kind":"float","value":"0.25"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(Identifier("a<b>&c"))
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"ident","name":"a<b>&c"}`, string(got))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "é" as e + combining acute (NFD) must serialize like precomposed U+00E9.
	decomposed, err := MarshalCanonical(Identifier("e\u0301"))
	require.NoError(t, err)
	composed, err := MarshalCanonical(Identifier("\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name string
		node Node
	}{
		{"nil", nil},
		{"nan", FloatLiteral(math.NaN())},
		{"inf", FloatLiteral(math.Inf(-1))},
		{"nested nan", Add(IntegerLiteral(1), FloatLiteral(math.NaN()))},
		{"nil child", Mul(nil, IntegerLiteral(1))},
		{"unknown kind", BinaryOp{Kind: 99, Left: IntegerLiteral(1), Right: IntegerLiteral(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.node)
			assert.Error(t, err)
		})
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	nodes := []Node{
		Identifier("counter"),
		IntegerLiteral(-9),
		FloatLiteral(2),
		Exit(0),
		Store{Target: "x", Value: Add(IntegerLiteral(1), Div(FloatLiteral(4.5), Identifier("y")))},
	}
	for _, n := range nodes {
		data, err := MarshalCanonical(n)
		require.NoError(t, err)

		back, err := UnmarshalNode(data)
		require.NoError(t, err)
		if diff := cmp.Diff(n, back); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestMarshalProgram(t *testing.T) {
	p := &Program{Nodes: []Node{
		Store{Target: "x", Value: IntegerLiteral(5)},
		Exit(0),
	}}

	data, err := MarshalProgram(p)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ir_version":"1","nodes":[{"kind":"store","target":{"kind":"ident","name":"x"},"value":{"kind":"int","value":5}},{"code":0,"kind":"exit"}]}`,
		string(data))

	back, err := UnmarshalProgram(data)
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing kind", `{"name":"x"}`},
		{"unknown kind", `{"kind":"mod"}`},
		{"bad float", `{"kind":"float","value":"abc"}`},
		{"float as number", `{"kind":"float","value":1.5}`},
		{"store non ident target", `{"kind":"store","target":{"kind":"int","value":1},"value":{"kind":"int","value":2}}`},
		{"binary missing child", `{"kind":"add","left":{"kind":"int","value":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalNode([]byte(tt.data))
			assert.Error(t, err)
		})
	}

	_, err := UnmarshalProgram([]byte(`{"ir_version":"0","nodes":[]}`))
	assert.ErrorContains(t, err, "unsupported ir_version")
}

func TestHash(t *testing.T) {
	p1 := &Program{Nodes: []Node{Add(IntegerLiteral(1), IntegerLiteral(2)), Exit(0)}}
	p2 := &Program{Nodes: []Node{Add(IntegerLiteral(1), IntegerLiteral(2)), Exit(0)}}
	p3 := &Program{Nodes: []Node{Add(IntegerLiteral(2), IntegerLiteral(1)), Exit(0)}}

	h1 := MustHash(p1)
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, MustHash(p2), "structurally equal programs share a hash")
	assert.NotEqual(t, h1, MustHash(p3), "operand order matters")

	// Float and integer literals with the same magnitude must not collide.
	pi := &Program{Nodes: []Node{IntegerLiteral(2), Exit(0)}}
	pf := &Program{Nodes: []Node{FloatLiteral(2), Exit(0)}}
	assert.NotEqual(t, MustHash(pi), MustHash(pf))

	nh, err := NodeHash(Identifier("x"))
	require.NoError(t, err)
	assert.Len(t, nh, 64)

	_, err = Hash(nil)
	assert.Error(t, err)
	assert.Panics(t, func() { MustHash(&Program{Nodes: []Node{nil}}) })
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"kind":"ident","name":"x"}`)
	assert.NotEqual(t, hashWithDomain(DomainProgram, data), hashWithDomain(DomainNode, data))
}
