package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"qcm-runner/internal/domain"
)

// Wire field names of the bank source contract.
const (
	fieldID          = "id"
	fieldText        = "q"
	fieldOptions     = "opts"
	fieldAnswer      = "ans"
	fieldExplanation = "why"
)

// Validate checks every entry in order and assigns bank-unique ids. The first
// violation aborts with a *domain.ValidationError.
func Validate(raw []domain.RawQuestion) ([]domain.Question, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: bank is empty", domain.ErrValidation)
	}

	bank := make([]domain.Question, 0, len(raw))
	seen := make(map[string]int, len(raw))
	for i, rq := range raw {
		q, err := validateEntry(i, rq)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[q.ID]; dup {
			return nil, &domain.ValidationError{Index: i, Field: fieldID, Reason: fmt.Sprintf("duplicates id %q", q.ID)}
		}
		seen[q.ID] = i
		bank = append(bank, q)
	}
	return bank, nil
}

func validateEntry(i int, rq domain.RawQuestion) (domain.Question, error) {
	if rq.Malformed || rq.Fields == nil {
		return domain.Question{}, &domain.ValidationError{Index: i, Field: fieldText, Reason: "is missing: entry is not an object"}
	}

	var text string
	rawText, ok := rq.Fields[fieldText]
	if !ok || !isJSONString(rawText) {
		return domain.Question{}, &domain.ValidationError{Index: i, Field: fieldText, Reason: "must be a string"}
	}
	_ = json.Unmarshal(rawText, &text)

	var options []string
	rawOpts, ok := rq.Fields[fieldOptions]
	if !ok || json.Unmarshal(rawOpts, &options) != nil || options == nil {
		return domain.Question{}, &domain.ValidationError{Index: i, Field: fieldOptions, Reason: "must be a list of strings"}
	}
	if len(options) == 0 {
		return domain.Question{}, &domain.ValidationError{Index: i, Field: fieldOptions, Reason: "is empty"}
	}

	rawAns, ok := rq.Fields[fieldAnswer]
	if !ok {
		return domain.Question{}, &domain.ValidationError{Index: i, Field: fieldAnswer, Reason: "is missing"}
	}

	base := strconv.Itoa(i + 1)
	if rawID, ok := rq.Fields[fieldID]; ok && !isJSONNull(rawID) {
		base = stringify(rawID)
	}
	prefix := rq.SourceID
	if prefix == "" {
		prefix = "mix"
	}

	q := domain.Question{
		ID:            prefix + domain.IDSeparator + base,
		SourceID:      rq.SourceID,
		Text:          text,
		Options:       options,
		CorrectAnswer: stringify(rawAns),
	}
	if rawWhy, ok := rq.Fields[fieldExplanation]; ok && !isJSONNull(rawWhy) {
		q.Explanation = stringify(rawWhy)
	}
	return q, nil
}

// stringify renders any JSON value the way answers are compared: strings
// unquoted, numbers in shortest form, everything else as compact JSON.
func stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if isJSONString(trimmed) {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err == nil {
		return buf.String()
	}
	return string(trimmed)
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
