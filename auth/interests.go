package auth

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Interests is the canonical ordered set of a user's interest/skill tags.
// Clients historically send it either as a JSON list or as a single
// comma-separated string; both are normalized here, at the boundary, so core
// logic only ever sees the canonical shape.
type Interests []string

// NormalizeInterests lowercases, trims, drops empties, and de-duplicates
// while keeping first-seen order. Tags are stored lowercase so the substring
// filters over them never have to care about input casing.
func NormalizeInterests(values []string) Interests {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make(Interests, 0, len(values))

	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// UnmarshalJSON accepts either ["Go","SQL"] or "Go, SQL".
func (i *Interests) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*i = NormalizeInterests(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("interests must be a list or a comma separated string: %w", err)
	}

	*i = NormalizeInterests(strings.Split(single, ","))
	return nil
}

// Contains does a case-insensitive membership check
func (i Interests) Contains(tag string) bool {
	return i.Match(tag)
}

// Match reports whether any interest contains the given fragment,
// case-insensitively. Mirrors the substring filters used by the mentor
// directory and broadcast messaging.
func (i Interests) Match(fragment string) bool {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if fragment == "" {
		return false
	}
	for _, v := range i {
		if strings.Contains(strings.ToLower(v), fragment) {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer so the set persists as a JSON column
func (i Interests) Value() (driver.Value, error) {
	if len(i) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(i))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (i *Interests) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = nil
		return nil
	case []byte:
		if len(v) == 0 {
			*i = nil
			return nil
		}
		return json.Unmarshal(v, i)
	case string:
		if v == "" {
			*i = nil
			return nil
		}
		return json.Unmarshal([]byte(v), i)
	default:
		return fmt.Errorf("unsupported interests column type %T", src)
	}
}
