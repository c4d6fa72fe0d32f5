package runtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawe/ontoforge-sub000/domain/schema"
)

func TestCoerceNil(t *testing.T) {
	v, err := Coerce(nil, schema.TypeInteger, "age")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCoerceString(t *testing.T) {
	v, err := Coerce("Alice", schema.TypeString, "name")
	require.NoError(t, err)
	assert.Equal(t, "Alice", v)

	_, err = Coerce(json.Number("42"), schema.TypeString, "name")
	require.EqualError(t, err, "Expected string for 'name', got number")

	_, err = Coerce(true, schema.TypeString, "name")
	require.EqualError(t, err, "Expected string for 'name', got boolean")
}

func TestCoerceInteger(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  int64
	}{
		{"json number", json.Number("42"), 42},
		{"numeric string", "17", 17},
		{"integral float", float64(3), 3},
		{"negative string", "-5", -5},
		{"int", 7, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Coerce(tc.input, schema.TypeInteger, "age")
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}

	_, err := Coerce(true, schema.TypeInteger, "age")
	require.EqualError(t, err, "Expected integer for 'age', got boolean")

	_, err = Coerce("abc", schema.TypeInteger, "age")
	require.EqualError(t, err, "Expected integer for 'age', got 'abc'")

	_, err = Coerce(json.Number("3.5"), schema.TypeInteger, "age")
	require.EqualError(t, err, "Expected integer for 'age', got '3.5'")

	_, err = Coerce([]any{1}, schema.TypeInteger, "age")
	require.EqualError(t, err, "Expected integer for 'age', got array")
}

func TestCoerceFloat(t *testing.T) {
	v, err := Coerce(json.Number("3.14"), schema.TypeFloat, "score")
	require.NoError(t, err)
	assert.Equal(t, 3.14, v)

	v, err = Coerce("2.5", schema.TypeFloat, "score")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	v, err = Coerce(json.Number("10"), schema.TypeFloat, "score")
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	_, err = Coerce(false, schema.TypeFloat, "score")
	require.EqualError(t, err, "Expected float for 'score', got boolean")

	_, err = Coerce("fast", schema.TypeFloat, "score")
	require.EqualError(t, err, "Expected float for 'score', got 'fast'")
}

func TestCoerceBoolean(t *testing.T) {
	v, err := Coerce(true, schema.TypeBoolean, "active")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	// String forms are rejected in request bodies
	_, err = Coerce("true", schema.TypeBoolean, "active")
	require.EqualError(t, err, "Expected boolean for 'active', got string")

	_, err = Coerce(json.Number("1"), schema.TypeBoolean, "active")
	require.EqualError(t, err, "Expected boolean for 'active', got number")
}

func TestCoerceDate(t *testing.T) {
	v, err := Coerce("2024-03-05", schema.TypeDate, "born")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", v)

	_, err = Coerce("2024-13-05", schema.TypeDate, "born")
	require.EqualError(t, err, "Expected ISO date for 'born', got '2024-13-05'")

	_, err = Coerce(json.Number("20240305"), schema.TypeDate, "born")
	require.EqualError(t, err, "Expected ISO date string for 'born', got number")
}

func TestCoerceDatetime(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"utc", "2024-03-05T10:11:12Z", "2024-03-05T10:11:12Z"},
		{"offset preserved", "2024-03-05T10:11:12+02:00", "2024-03-05T10:11:12+02:00"},
		{"naive treated as utc", "2024-03-05T10:11:12", "2024-03-05T10:11:12Z"},
		{"space separator", "2024-03-05 10:11:12", "2024-03-05T10:11:12Z"},
		{"bare date", "2024-03-05", "2024-03-05T00:00:00Z"},
		{"fractional seconds", "2024-03-05T10:11:12.5Z", "2024-03-05T10:11:12.5Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Coerce(tc.input, schema.TypeDatetime, "seen")
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}

	_, err := Coerce("yesterday", schema.TypeDatetime, "seen")
	require.EqualError(t, err, "Expected ISO datetime for 'seen', got 'yesterday'")

	_, err = Coerce(true, schema.TypeDatetime, "seen")
	require.EqualError(t, err, "Expected ISO datetime string for 'seen', got boolean")
}

func TestCoerceUnknownDataType(t *testing.T) {
	_, err := Coerce("x", schema.DataType("blob"), "payload")
	require.EqualError(t, err, "Unknown data type 'blob' for 'payload'")
}
