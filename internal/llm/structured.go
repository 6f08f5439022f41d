package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	errNoJSON      = errors.New("no JSON object or array found in response")
	errInvalidJSON = errors.New("embedded JSON is not valid")
)

// GenerateStructured asks client for JSON output and decodes it into out,
// returning the raw model text.  Models sometimes wrap JSON in code fences or
// prose, so the text is cleaned with ExtractJSON before decoding.
func GenerateStructured(ctx context.Context, client Client, prompt string, out any) (string, error) {
	raw, err := client.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return raw, DecodeStructured(raw, out)
}

// DecodeStructured decodes model output into out, returning a
// MalformedResponseError carrying raw when it cannot.
func DecodeStructured(raw string, out any) error {
	candidate, err := ExtractJSON(raw)
	if err != nil {
		return &MalformedResponseError{Raw: raw, Cause: err}
	}
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return &MalformedResponseError{Raw: raw, Cause: err}
	}
	return nil
}

// ExtractJSON returns the JSON document embedded in s.  Code fences are
// stripped; if the remainder is not valid JSON the span from the first '{'
// or '[' to the last matching closer is tried.  Failing that, the first value
// that decodes from any '{' or '[' onwards is returned, so an aside such as
// "[5 questions]" ahead of the document does not hide it.
func ExtractJSON(s string) (string, error) {
	text := stripFences(strings.TrimSpace(s))
	if json.Valid([]byte(text)) {
		return text, nil
	}

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", errNoJSON
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(text, closer); end > start {
		if candidate := text[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	for i := start; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		var value json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&value); err == nil {
			return string(value), nil
		}
	}
	return "", errInvalidJSON
}

// stripFences removes a leading ``` or ```json line and a trailing ```.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
