package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want UpdateRequest
	}{
		{"strings", `{"name":"temp1","value":"25"}`, UpdateRequest{Name: "temp1", Value: "25"}},
		{"integer value", `{"name":"temp1","value":25}`, UpdateRequest{Name: "temp1", Value: "25"}},
		{"zero value", `{"name":"temp1","value":0}`, UpdateRequest{Name: "temp1", Value: "0"}},
		{"float value", `{"name":"temp1","value":2.50}`, UpdateRequest{Name: "temp1", Value: "2.5"}},
		{"exponent value", `{"name":"temp1","value":1e3}`, UpdateRequest{Name: "temp1", Value: "1000"}},
		{"large integer", `{"name":"n","value":9007199254740993}`, UpdateRequest{Name: "n", Value: "9007199254740993"}},
		{"boolean value", `{"name":"pump1","value":true}`, UpdateRequest{Name: "pump1", Value: "true"}},
		{"false value", `{"name":"pump1","value":false}`, UpdateRequest{Name: "pump1", Value: "false"}},
		{"numeric name", `{"name":7,"value":"on"}`, UpdateRequest{Name: "7", Value: "on"}},
		{"null value", `{"name":"temp1","value":null}`, UpdateRequest{Name: "temp1"}},
		{"object value", `{"name":"temp1","value":{"c":25}}`, UpdateRequest{Name: "temp1"}},
		{"array value", `{"name":"temp1","value":[25]}`, UpdateRequest{Name: "temp1"}},
		{"missing value", `{"name":"temp1"}`, UpdateRequest{Name: "temp1"}},
		{"extra fields", `{"name":"temp1","value":"25","unit":"C"}`, UpdateRequest{Name: "temp1", Value: "25"}},
		{"empty object", `{}`, UpdateRequest{}},
		{"empty body", ``, UpdateRequest{}},
		{"null body", `null`, UpdateRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest(strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRequestMalformed(t *testing.T) {
	for _, body := range []string{
		`{"name":`,
		`not json`,
		`[1,2]`,
		`"temp1"`,
		`{"name":"a","value":"1"} trailing-garbage`,
		`{"name":"a","value":"1"}{"name":"b","value":"2"}`,
		`{"name":"a","value":"1"} 7`,
	} {
		t.Run(body, func(t *testing.T) {
			_, err := DecodeRequest(strings.NewReader(body))
			assert.ErrorIs(t, err, ErrMalformedBody)
		})
	}
}

func TestUpdateRequestValidate(t *testing.T) {
	assert.NoError(t, UpdateRequest{Name: "temp1", Value: "25"}.Validate())
	assert.ErrorIs(t, UpdateRequest{Name: "temp1"}.Validate(), ErrValidation)
	assert.ErrorIs(t, UpdateRequest{Value: "25"}.Validate(), ErrValidation)
}
