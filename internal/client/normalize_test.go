package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		collection string
		want       string
	}{
		{
			name:       "bare array",
			body:       `[{"id":1},{"id":2}]`,
			collection: "leads",
			want:       `[{"id":1},{"id":2}]`,
		},
		{
			name:       "success envelope",
			body:       `{"success":true,"data":[{"id":1}]}`,
			collection: "leads",
			want:       `[{"id":1}]`,
		},
		{
			name:       "plain data envelope",
			body:       `{"data":[{"id":3}]}`,
			collection: "properties",
			want:       `[{"id":3}]`,
		},
		{
			name:       "collection-named field",
			body:       `{"team":[{"id":7}]}`,
			collection: "team",
			want:       `[{"id":7}]`,
		},
		{
			name:       "success true but data is object",
			body:       `{"success":true,"data":{"id":1}}`,
			collection: "leads",
			want:       `[]`,
		},
		{
			name:       "unrecognized shape",
			body:       `{"whatever":42}`,
			collection: "leads",
			want:       `[]`,
		},
		{
			name:       "not json at all",
			body:       `<html>gateway error</html>`,
			collection: "leads",
			want:       `[]`,
		},
		{
			name:       "empty body",
			body:       ``,
			collection: "leads",
			want:       `[]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]byte(tt.body), tt.collection)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

// data-конверт выигрывает у одноимённого поля коллекции
func TestNormalizePrecedence(t *testing.T) {
	body := `{"data":[{"id":1}],"leads":[{"id":99}]}`
	got := Normalize([]byte(body), "leads")
	assert.JSONEq(t, `[{"id":1}]`, string(got))
}

func TestNormalizeIdempotent(t *testing.T) {
	body := `{"success":true,"data":[{"id":1}]}`
	once := Normalize([]byte(body), "leads")
	twice := Normalize(once, "leads")
	assert.Equal(t, string(once), string(twice))

	require.True(t, json.Valid(twice))
}
