package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// localLayouts are the timestamp layouts accepted besides RFC 3339. They
// cover datetime-local form values and bare dates, read in local time.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// flexTime decodes a timestamp given as RFC 3339, a local datetime string,
// or epoch milliseconds.
type flexTime struct {
	t *time.Time
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.t = nil
		return nil
	}

	if data[0] != '"' {
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			var fl float64
			if err := json.Unmarshal(data, &fl); err != nil {
				return fmt.Errorf("decoding timestamp %s: %w", data, err)
			}
			ms = int64(fl)
		}
		t := time.UnixMilli(ms)
		f.t = &t
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		f.t = nil
		return nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	f.t = &t
	return nil
}

// ParseTime parses an RFC 3339 timestamp or one of the local layouts.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// UnmarshalJSON accepts the timestamp forms written by older exports in
// addition to RFC 3339.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := struct {
		*alias
		Deadline    flexTime `json:"deadline"`
		CreatedAt   flexTime `json:"createdAt"`
		CompletedAt flexTime `json:"completedAt"`
		UpdatedAt   flexTime `json:"updatedAt"`
		RolledAt    flexTime `json:"rolledAt"`
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.Deadline = aux.Deadline.t
	t.CompletedAt = aux.CompletedAt.t
	t.RolledAt = aux.RolledAt.t
	if aux.CreatedAt.t != nil {
		t.CreatedAt = *aux.CreatedAt.t
	}
	if aux.UpdatedAt.t != nil {
		t.UpdatedAt = *aux.UpdatedAt.t
	}
	return nil
}
