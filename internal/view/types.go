package view

import (
	"encoding/json"
	"math"
)

// File is one row of GET /api/files.
type File struct {
	Filename   string   `json:"filename"`
	Size       *float64 `json:"size"`
	Location   string   `json:"location"`
	Mode       string   `json:"mode"`
	UploadedAt string   `json:"uploaded_at"`
}

// Secret is one entry of GET /api/secrets. The value is never listed.
type Secret struct {
	Category  string `json:"category"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updatedAt"`
}

// AuditEvent is one entry of GET /api/audit.
type AuditEvent struct {
	Action    string `json:"action"`
	Filename  string `json:"filename"`
	Target    string `json:"target"`
	Timestamp string `json:"timestamp"`
	Success   bool   `json:"success"`
	Error     string `json:"error"`
}

// Report is the body of GET /api/report.
type Report struct {
	FileCount   int      `json:"file_count"`
	TotalSize   *float64 `json:"total_size"`
	SecretCount int      `json:"secret_count"`
	Recent      []File   `json:"recent"`
}

// SecretGroup is the secrets of one category, in fetch order.
type SecretGroup struct {
	Category string
	Items    []Secret
}

// GroupSecrets groups by category. Groups appear in the order their
// category is first seen; items keep their relative order.
func GroupSecrets(items []Secret) []SecretGroup {
	var groups []SecretGroup
	index := make(map[string]int)
	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			i = len(groups)
			index[item.Category] = i
			groups = append(groups, SecretGroup{Category: item.Category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// UnmarshalJSON decodes field by field. The server's record fields are loosely
// typed, and one odd value must degrade that cell, not the whole collection.
func (f *File) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = File{
		Filename:   looseString(raw["filename"]),
		Size:       looseNumber(raw["size"]),
		Location:   looseString(raw["location"]),
		Mode:       looseString(raw["mode"]),
		UploadedAt: looseString(raw["uploaded_at"]),
	}
	return nil
}

// UnmarshalJSON decodes field by field, like File.
func (s *Secret) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Secret{
		Category:  looseString(raw["category"]),
		Name:      looseString(raw["name"]),
		UpdatedAt: looseString(raw["updatedAt"]),
	}
	return nil
}

// UnmarshalJSON decodes field by field, like File.
func (e *AuditEvent) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = AuditEvent{
		Action:    looseString(raw["action"]),
		Filename:  looseString(raw["filename"]),
		Target:    looseString(raw["target"]),
		Timestamp: looseString(raw["timestamp"]),
		Success:   looseBool(raw["success"]),
		Error:     looseString(raw["error"]),
	}
	return nil
}

// UnmarshalJSON decodes field by field, like File. A recent list that is not
// an array is dropped.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Report{
		FileCount:   looseCount(raw["file_count"]),
		TotalSize:   looseNumber(raw["total_size"]),
		SecretCount: looseCount(raw["secret_count"]),
	}
	if recent, ok := raw["recent"]; ok {
		if err := json.Unmarshal(recent, &r.Recent); err != nil {
			r.Recent = nil
		}
	}
	return nil
}

func looseCount(raw json.RawMessage) int {
	n := looseNumber(raw)
	if n == nil || *n < 0 || math.IsNaN(*n) {
		return 0
	}
	return int(*n)
}

// looseString returns a JSON string as is and any other value as its JSON
// text. Absent and null give "".
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// looseNumber returns nil unless raw is a JSON number.
func looseNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}

// looseBool follows JavaScript truthiness.
func looseBool(raw json.RawMessage) bool {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return false
	}
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	default:
		return true
	}
}
