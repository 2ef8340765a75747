// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package transfer

import (
	"encoding/json"
	"strconv"
	"strings"
)

// jsonPrefix marks a data segment carrying a JSON object instead of
// separator-framed fields.
const jsonPrefix = "json="

// Request is one parsed message.
type Request struct {
	ID     string
	Cmd    string
	Fields *Map
}

// Parse splits msg into id.cmd[.data] and decodes the data segment. The
// id is returned even on failure so the caller can address the error
// reply.
func Parse(msg string) (*Request, error) {
	req := &Request{Fields: NewMap()}

	id, rest, found := strings.Cut(msg, ".")
	if len(id) > MaxIDLen {
		id = id[:MaxIDLen]
	}
	req.ID = id
	if !found {
		return req, Error.New("no command in message %q", msg)
	}

	cmd, data, found := strings.Cut(rest, ".")
	req.Cmd = cmd
	if !found || data == "" {
		return req, nil
	}

	if strings.HasPrefix(data, jsonPrefix) {
		if err := parseJSON(data[len(jsonPrefix):], req.Fields); err != nil {
			return req, err
		}
		return req, nil
	}

	for _, field := range strings.Split(data, FieldSep) {
		name, value, _ := strings.Cut(field, "=")
		req.Fields.Add(name, value)
	}
	return req, nil
}

// parseJSON decodes one JSON object in key order, so duplicate keys keep
// their first value like the framed form does.
func parseJSON(data string, fields *Map) error {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Error.New("json decode: %v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Error.New("json object expected")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Error.New("json decode: %v", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Error.New("json object key expected")
		}
		value, keep, err := decodeValue(dec)
		if err != nil {
			return err
		}
		if keep {
			fields.Add(key, value)
		}
	}
	// Consume the closing brace; trailing bytes after it are ignored.
	if _, err := dec.Token(); err != nil {
		return Error.New("json decode: %v", err)
	}
	return nil
}

// decodeValue renders one JSON value as field text. Booleans, nulls and
// nested objects produce no field.
func decodeValue(dec *json.Decoder) (value string, keep bool, err error) {
	tok, err := dec.Token()
	if err != nil {
		return "", false, Error.New("json decode: %v", err)
	}
	switch v := tok.(type) {
	case string:
		return v, true, nil
	case json.Number:
		return numberText(v), true, nil
	case json.Delim:
		switch v {
		case '[':
			return decodeArray(dec)
		case '{':
			return "", false, skipNested(dec)
		}
	}
	return "", false, nil
}

// decodeArray joins the string elements of an array with spaces; other
// element types are skipped.
func decodeArray(dec *json.Decoder) (value string, keep bool, err error) {
	var b strings.Builder
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false, Error.New("json decode: %v", err)
		}
		switch v := tok.(type) {
		case string:
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(v)
		case json.Delim:
			if v == '[' || v == '{' {
				if err := skipNested(dec); err != nil {
					return "", false, err
				}
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return "", false, Error.New("json decode: %v", err)
	}
	return b.String(), true, nil
}

// skipNested consumes the remainder of an already-opened object or
// array.
func skipNested(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return Error.New("json decode: %v", err)
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// numberText renders integers verbatim and reals with six decimal
// places.
func numberText(num json.Number) string {
	text := num.String()
	if !strings.ContainsAny(text, ".eE") {
		return text
	}
	f, err := num.Float64()
	if err != nil {
		return text
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}
