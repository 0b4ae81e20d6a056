package parser

import (
	"errors"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"

	"mongolog-insights/internal/model"
)

var (
	ErrMalformedLine = errors.New("line is not a JSON document")
	ErrNotObject     = errors.New("line is not a JSON object")
)

// RecordParser decodes one mongod log line. A failed line is always reported
// through one of the sentinel errors above so callers can skip it.
type RecordParser interface {
	Parse(line string) (model.Record, error)
}

type jsonRecordParser struct{}

func NewJSONRecordParser() RecordParser {
	return &jsonRecordParser{}
}

func (p *jsonRecordParser) Parse(line string) (model.Record, error) {
	trimmed := strings.TrimSpace(strings.ToValidUTF8(line, "�"))
	if trimmed == "" {
		return nil, ErrMalformedLine
	}

	var doc interface{}
	if err := gojson.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, ErrNotObject
	}
	return model.Record(obj), nil
}

// Render returns the canonical JSON text of a record, nested fields included.
func Render(rec model.Record) (string, error) {
	data, err := gojson.Marshal(map[string]interface{}(rec))
	if err != nil {
		return "", fmt.Errorf("failed to render record: %w", err)
	}
	return string(data), nil
}
