// Package events decodes the frames pushed over a group channel and classifies them.
//
// A frame is a JSON object carrying at least a "type" discriminant. Everything else in
// the object is payload specific to that type and is kept verbatim so listeners can
// decode the parts they care about.
package events

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rupaya/live/pkg/errors"
)

// Kind is the "type" discriminant of an inbound frame.
type Kind string

// Kinds the notification layer recognises. Frames of any other kind are still
// delivered to listeners.
const (
	KindNewBill       Kind = "NEW_BILL"
	KindUpdateBill    Kind = "UPDATE_BILL"
	KindSettleUp      Kind = "SETTLE_UP"
	KindPaymentUpdate Kind = "PAYMENT_UPDATE"
)

// Message is one decoded inbound frame.
type Message struct {
	Key  string          // channel key the frame arrived on
	Type Kind            // discriminant
	Raw  json.RawMessage // the frame as received

	fields map[string]json.RawMessage
}

// Decode parses a raw frame received on key. Frames that are not JSON objects or
// lack a non-empty string "type" are rejected with a ProtocolError.
func Decode(key string, frame []byte) (Message, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Message{}, errors.NewProtocolError(key, "frame is not a JSON object", len(frame), nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Message{}, errors.NewProtocolError(key, "invalid JSON", len(frame), err)
	}

	rawType, ok := fields["type"]
	if !ok {
		return Message{}, errors.NewProtocolError(key, "missing type", len(frame), nil)
	}
	var kind string
	if err := json.Unmarshal(rawType, &kind); err != nil {
		return Message{}, errors.NewProtocolError(key, "type is not a string", len(frame), err)
	}
	if kind == "" {
		return Message{}, errors.NewProtocolError(key, "empty type", len(frame), nil)
	}

	raw := make(json.RawMessage, len(trimmed))
	copy(raw, trimmed)

	return Message{
		Key:    key,
		Type:   Kind(kind),
		Raw:    raw,
		fields: fields,
	}, nil
}

// Has reports whether the payload carries field.
func (m Message) Has(field string) bool {
	_, ok := m.fields[field]
	return ok
}

// String returns a string field. Numbers are rendered in their JSON form; other
// types and missing fields yield "".
func (m Message) String(field string) string {
	raw, ok := m.fields[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Int returns an integer field, accepting both JSON numbers and numeric strings.
func (m Message) Int(field string) (int64, bool) {
	raw, ok := m.fields[field]
	if !ok {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// Unmarshal decodes the whole frame into v.
func (m Message) Unmarshal(v interface{}) error {
	return json.Unmarshal(m.Raw, v)
}

// Known reports whether the kind is one of the recognised discriminants.
func (k Kind) Known() bool {
	switch k {
	case KindNewBill, KindUpdateBill, KindSettleUp, KindPaymentUpdate:
		return true
	}
	return false
}

// Notifiable reports whether the message should also produce a user-facing summary.
func (m Message) Notifiable() bool {
	return m.Type.Known()
}

// Invalidates reports whether the message changes balances, so consumers showing
// debts or settlements should re-fetch them.
func (m Message) Invalidates() bool {
	return m.Type.Known()
}
