package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	CodeInvalidJSON = "invalid_json"
	CodeInvalidType = "invalid_type"
	CodeRequired    = "required"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
)

// Issue describes a single violated constraint. Path is empty when the
// violation concerns the whole value.
type Issue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func newValidationError(issues ...Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

// IsValidationError reports whether err carries schema violations.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func (p DutyCreate) Validate() error {
	return newValidationError(nameIssues("name", p.Name)...)
}

func (d Duty) Validate() error {
	var issues []Issue
	if d.ID <= 0 {
		issues = append(issues, Issue{Path: "id", Code: CodeTooSmall, Message: "id must be a positive integer"})
	}
	issues = append(issues, nameIssues("name", d.Name)...)
	if d.CreatedAt.IsZero() {
		issues = append(issues, Issue{Path: "createdAt", Code: CodeRequired, Message: "createdAt is required"})
	}
	return newValidationError(issues...)
}

func nameIssues(path, name string) []Issue {
	n := utf8.RuneCountInString(name)
	switch {
	case n < 1:
		return []Issue{{Path: path, Code: CodeTooSmall, Message: "Name must contain at least 1 character"}}
	case n > NameMaxLength:
		return []Issue{{
			Path:    path,
			Code:    CodeTooBig,
			Message: fmt.Sprintf("Name cannot be longer than %d characters", NameMaxLength),
		}}
	}
	return nil
}

// ParseDutyCreate turns an arbitrary JSON document into a DutyCreate.
func ParseDutyCreate(raw []byte) (DutyCreate, error) {
	fields, err := decodeObject("", raw)
	if err != nil {
		return DutyCreate{}, err
	}

	rawName, ok := fields["name"]
	if !ok {
		return DutyCreate{}, newValidationError(Issue{Path: "name", Code: CodeRequired, Message: "name is required"})
	}

	var name string
	if isNull(rawName) || json.Unmarshal(rawName, &name) != nil {
		return DutyCreate{}, newValidationError(Issue{
			Path:    "name",
			Code:    CodeInvalidType,
			Message: "Expected string, received " + jsonKind(rawName),
		})
	}

	payload := DutyCreate{Name: name}
	if err := payload.Validate(); err != nil {
		return DutyCreate{}, err
	}
	return payload, nil
}

// ParseDuty parses a single stored duty, as returned by the API.
func ParseDuty(raw []byte) (Duty, error) {
	return parseDuty("", raw)
}

// ParseDuties parses a JSON array of duties. An empty array yields an empty,
// non-nil slice.
func ParseDuties(raw []byte) ([]Duty, error) {
	var items []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil {
		if !json.Valid(raw) {
			return nil, newValidationError(Issue{Code: CodeInvalidJSON, Message: "invalid JSON payload"})
		}
		return nil, newValidationError(Issue{Code: CodeInvalidType, Message: "Expected array, received " + jsonKind(raw)})
	}

	duties := make([]Duty, 0, len(items))
	var issues []Issue
	for i, item := range items {
		duty, err := parseDuty(fmt.Sprintf("[%d].", i), item)
		if err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				issues = append(issues, vErr.Issues...)
				continue
			}
			return nil, err
		}
		duties = append(duties, duty)
	}
	if len(issues) > 0 {
		return nil, newValidationError(issues...)
	}
	return duties, nil
}

func parseDuty(prefix string, raw []byte) (Duty, error) {
	fields, err := decodeObject(strings.TrimSuffix(prefix, "."), raw)
	if err != nil {
		return Duty{}, err
	}

	var (
		duty   Duty
		issues []Issue
	)

	if v, ok := fields["id"]; !ok || isNull(v) {
		issues = append(issues, Issue{Path: prefix + "id", Code: CodeRequired, Message: "id is required"})
	} else if err := json.Unmarshal(v, &duty.ID); err != nil {
		issues = append(issues, Issue{Path: prefix + "id", Code: CodeInvalidType, Message: "Expected integer, received " + jsonKind(v)})
	}

	if v, ok := fields["name"]; !ok || isNull(v) {
		issues = append(issues, Issue{Path: prefix + "name", Code: CodeRequired, Message: "name is required"})
	} else if err := json.Unmarshal(v, &duty.Name); err != nil {
		issues = append(issues, Issue{Path: prefix + "name", Code: CodeInvalidType, Message: "Expected string, received " + jsonKind(v)})
	}

	if v, ok := fields["createdAt"]; !ok || isNull(v) {
		issues = append(issues, Issue{Path: prefix + "createdAt", Code: CodeRequired, Message: "createdAt is required"})
	} else {
		var createdAt time.Time
		if err := json.Unmarshal(v, &createdAt); err != nil {
			issues = append(issues, Issue{Path: prefix + "createdAt", Code: CodeInvalidType, Message: "Expected RFC 3339 datetime"})
		}
		duty.CreatedAt = createdAt
	}

	if len(issues) > 0 {
		return Duty{}, newValidationError(issues...)
	}

	if err := duty.Validate(); err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) && prefix != "" {
			for i := range vErr.Issues {
				vErr.Issues[i].Path = prefix + vErr.Issues[i].Path
			}
		}
		return Duty{}, err
	}
	return duty, nil
}

func decodeObject(path string, raw []byte) (map[string]json.RawMessage, error) {
	if !json.Valid(raw) {
		return nil, newValidationError(Issue{Path: path, Code: CodeInvalidJSON, Message: "invalid JSON payload"})
	}

	var fields map[string]json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &fields) != nil {
		return nil, newValidationError(Issue{Path: path, Code: CodeInvalidType, Message: "Expected object, received " + jsonKind(raw)})
	}
	return fields, nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func jsonKind(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "undefined"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
