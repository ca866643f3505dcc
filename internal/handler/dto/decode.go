// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/recipeapi/recipeapi/internal/service"
)

// Bounds on numeric input. Exponents are capped so huge values like 1e999999
// are rejected before any arithmetic.
const (
	maxNumberLength = 1000
	maxExponent     = 64
)

// ErrInvalidJSON is returned when a body is not a single JSON object.
var ErrInvalidJSON = errors.New("invalid JSON body")

// object is a decoded JSON object whose values are parsed field by field,
// so a wrongly typed field becomes a field message instead of failing the
// whole body.
type object struct {
	fields map[string]json.RawMessage
	errs   *service.ValidationError
}

func decodeObject(r io.Reader) (*object, error) {
	dec := json.NewDecoder(r)

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if fields == nil {
		// Literal null.
		return nil, ErrInvalidJSON
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}

	return &object{fields: fields, errs: service.NewValidationError()}, nil
}

// raw returns the field value, or nil with ok=false when it is absent or
// null. A null value records MsgNull.
func (o *object) raw(name string) (json.RawMessage, bool) {
	v, present := o.fields[name]
	if !present {
		return nil, false
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		o.errs.Add(name, service.MsgNull)
		return nil, false
	}
	return v, true
}

// String reads a string field. Numbers are accepted and kept as written.
func (o *object) String(name string) *string {
	v, ok := o.raw(name)
	if !ok {
		return nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return &s
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		s = n.String()
		return &s
	}

	o.errs.Add(name, service.MsgInvalidString)
	return nil
}

// Int reads an integer field given as a JSON number or a numeric string.
// Integral decimals such as 42.0 are accepted.
func (o *object) Int(name string) *int {
	d, ok := o.numberMsg(name, service.MsgInvalidInt)
	if !ok {
		return nil
	}
	if !d.IsInteger() || !d.BigInt().IsInt64() {
		o.errs.Add(name, service.MsgInvalidInt)
		return nil
	}

	i := int(d.IntPart())
	return &i
}

// Decimal reads a decimal field given as a JSON number or a numeric string.
// The exponent is preserved so digit limits apply to the value as written.
func (o *object) Decimal(name string) *decimal.Decimal {
	d, ok := o.numberMsg(name, service.MsgInvalidNumber)
	if !ok {
		return nil
	}
	return &d
}

func (o *object) numberMsg(name, msg string) (decimal.Decimal, bool) {
	v, ok := o.raw(name)
	if !ok {
		return decimal.Decimal{}, false
	}

	text := string(bytes.TrimSpace(v))
	if strings.HasPrefix(text, `"`) {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			o.errs.Add(name, msg)
			return decimal.Decimal{}, false
		}
		text = strings.TrimSpace(unquoted)
	}

	if len(text) > maxNumberLength {
		o.errs.Add(name, msg)
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(text)
	if err != nil || d.Exponent() > maxExponent || d.Exponent() < -maxExponent {
		o.errs.Add(name, msg)
		return decimal.Decimal{}, false
	}
	return d, true
}

// Err returns the type errors recorded so far, or nil.
func (o *object) Err() *service.ValidationError {
	if !o.errs.HasErrors() {
		return nil
	}
	return o.errs
}
