package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrInvalidRequest     = errors.New("invalid webhook request")
	ErrInvalidRequestBody = errors.New("invalid webhook request body")
)

const DefaultMaxBytes = 1 << 20

// Body is a decoded notification: either an event (has "action") or a
// telemetry ping (has "topic").
type Body struct {
	fields map[string]json.RawMessage
}

type JSON struct {
	MaxBytes int64
}

func NewJSON() *JSON {
	return &JSON{MaxBytes: DefaultMaxBytes}
}

// Decode reads a single JSON object from the request.
func (v *JSON) Decode(w http.ResponseWriter, r *http.Request) (Body, error) {
	body := http.MaxBytesReader(w, r.Body, v.MaxBytes)
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Body{}, errors.Join(ErrInvalidRequestBody, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Body{}, errors.Join(ErrInvalidRequestBody, err)
	}
	return Body{fields: fields}, nil
}

func (b Body) Has(key string) bool {
	_, ok := b.fields[key]
	return ok
}

// Action is empty when the field is missing or not a string.
func (b Body) Action() string {
	var action string
	_ = json.Unmarshal(b.fields["action"], &action)
	return action
}

// DataID returns data.id, which the provider sends either as a string or as
// a number.
func (b Body) DataID() string {
	var data struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b.fields["data"], &data); err != nil {
		return ""
	}

	var s string
	if err := json.Unmarshal(data.ID, &s); err == nil {
		return s
	}
	dec := json.NewDecoder(bytes.NewReader(data.ID))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}
