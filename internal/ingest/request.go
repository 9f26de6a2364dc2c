package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// ErrValidation is returned when name or value is missing or empty.
var ErrValidation = errors.New("Name and value are required.")

// ErrMalformedBody is returned when the request body is not a JSON object.
var ErrMalformedBody = errors.New("Malformed JSON body.")

// UpdateRequest is the body of POST /update/{kind}.
type UpdateRequest struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

// Validate reports ErrValidation unless both fields are non-empty.
func (r UpdateRequest) Validate() error {
	if r.Name == "" || r.Value == "" {
		return ErrValidation
	}
	return nil
}

// DecodeRequest reads a JSON object and maps it onto an UpdateRequest.
// Strings pass through unchanged, numbers and booleans become their
// canonical text, and null, objects or arrays decode as empty. An empty
// body decodes as an empty request. Anything after the object is
// rejected. Unknown fields are ignored.
func DecodeRequest(body io.Reader) (UpdateRequest, error) {
	var req UpdateRequest

	raw := map[string]any{}
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	// The object must be the whole body.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing data after JSON object")
		}
		return req, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: scalarToString,
		Result:     &req,
	})
	if err != nil {
		return req, fmt.Errorf("failed to build request decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return req, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return req, nil
}

// scalarToString converts JSON scalars bound for a string field into text.
func scalarToString(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return canonicalNumber(v), nil
	default:
		// null, objects and arrays carry no usable value
		return "", nil
	}
}

// canonicalNumber renders integers exactly and other numbers in their
// shortest decimal form: 1.50 becomes 1.5, 1e3 becomes 1000.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}
