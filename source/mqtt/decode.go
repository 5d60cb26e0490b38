package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Decoder converts raw payloads into records per the declared format.
// Decoding is pure: no retries, no I/O, no mutation of shared state.
type Decoder struct {
	format Format
	schema *SchemaCfg // resolved when format is schema-encoded
}

func NewDecoder(cfg Config) (*Decoder, error) {
	d := &Decoder{format: cfg.Format}
	switch cfg.Format {
	case FormatBytes, FormatText, FormatJSON:
	case FormatSchema:
		if cfg.SchemaID == "" {
			return nil, errors.New("mqtt: schema-encoded format needs a schema_id")
		}
		for i := range cfg.Schemas {
			if cfg.Schemas[i].ID == cfg.SchemaID {
				d.schema = &cfg.Schemas[i]
				break
			}
		}
		if d.schema == nil {
			return nil, fmt.Errorf("mqtt: schema %q not declared", cfg.SchemaID)
		}
	default:
		return nil, fmt.Errorf("mqtt: unsupported format %q", cfg.Format)
	}
	return d, nil
}

// Decode returns the decoded record, or a *DecodeError when the payload
// does not match the declared format.
func (d *Decoder) Decode(m rawMessage) (Record, error) {
	rec := Record{Topic: m.topic, Arrival: m.arrival, Duplicate: m.duplicate}

	switch d.format {
	case FormatBytes:
		rec.Fields = map[string]any{FieldPayload: append([]byte(nil), m.payload...)}

	case FormatText:
		if !utf8.Valid(m.payload) {
			return rec, &DecodeError{Format: d.format, Err: errors.New("payload is not valid UTF-8")}
		}
		rec.Fields = map[string]any{FieldText: string(m.payload)}

	case FormatJSON:
		fields, err := decodeJSON(m.payload)
		if err != nil {
			return rec, &DecodeError{Format: d.format, Err: err}
		}
		rec.Fields = fields

	case FormatSchema:
		fields, err := decodeJSON(m.payload)
		if err != nil {
			return rec, &DecodeError{Format: d.format, Err: err}
		}
		for _, name := range d.schema.Required {
			if _, ok := fields[name]; !ok {
				return rec, &DecodeError{
					Format: d.format,
					Err:    fmt.Errorf("schema %s: missing field %q", d.schema.ID, name),
				}
			}
		}
		rec.Fields = fields
	}
	return rec, nil
}

// decodeJSON accepts any JSON document; non-object documents land under
// a single value field.
func decodeJSON(payload []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	if obj, ok := v.(map[string]any); ok {
		return obj, nil
	}
	return map[string]any{FieldValue: v}, nil
}

// errorRecord surfaces a decode failure as data so the message is never
// silently dropped.
func errorRecord(m rawMessage, err error) Record {
	return Record{
		Topic:     m.topic,
		Arrival:   m.arrival,
		Duplicate: m.duplicate,
		Fields: map[string]any{
			FieldError: err.Error(),
			FieldRaw:   append([]byte(nil), m.payload...),
		},
	}
}
