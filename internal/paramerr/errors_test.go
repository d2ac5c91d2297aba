package paramerr

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "arity without test",
			err:  Arity(2, 2, 3),
			want: "ARITY: expected 2 argument(s), got 3 (position=2)",
		},
		{
			name: "arity with test",
			err:  Arity(0, 1, 2).WithTest("testIsOdd"),
			want: "ARITY: expected 1 argument(s), got 2 (test=testIsOdd, position=0)",
		},
		{
			name: "unknown enum member",
			err:  UnknownEnumMember("Month", "SMARCH"),
			want: `UNKNOWN_ENUM_MEMBER: no member named "SMARCH" in enum Month (value="SMARCH")`,
		},
		{
			name: "coercion with cause",
			err:  Coercion(0, "abc", "int", strconv.ErrSyntax),
			want: `COERCION: cannot convert to int (position=0, value="abc"): invalid syntax`,
		},
		{
			name: "resource",
			err:  Resource("open data.csv", errors.New("no such file")),
			want: "RESOURCE: open data.csv: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsHelpers_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("expand testCsv: %w", Resource("read", nil))

	assert.True(t, IsResource(wrapped))
	assert.False(t, IsCoercion(wrapped))
	assert.Equal(t, CodeResource, CodeOf(wrapped))

	assert.True(t, IsArity(Arityf("no values")))
	assert.True(t, IsIncompatibleSource(IncompatibleSource("NullSource", "int")))
	assert.True(t, IsUnknownEnumMember(UnknownEnumType("Color")))
	assert.True(t, IsCoercion(Coercion(0, "x", "int", nil)))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestError_UnwrapCause(t *testing.T) {
	err := Coercion(1, "abc", "int", strconv.ErrSyntax)
	require.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestWithTest_DoesNotMutate(t *testing.T) {
	orig := Arityf("no values")
	named := orig.WithTest("t1")

	assert.Equal(t, "", orig.Test)
	assert.Equal(t, "t1", named.Test)
}
