package dao

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringSlice is stored as a JSON array.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	return scanJSON(value, s)
}

type AttendanceEntry struct {
	UserID   string    `json:"userId"`
	MarkedAt time.Time `json:"markedAt"`
	Verified bool      `json:"verified"`
}

// AttendanceLog is stored as a JSON array and only ever appended to.
type AttendanceLog []AttendanceEntry

func (l AttendanceLog) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *AttendanceLog) Scan(value interface{}) error {
	return scanJSON(value, l)
}

func (l AttendanceLog) Has(userID string) bool {
	for _, e := range l {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func scanJSON(value interface{}, dst interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}
