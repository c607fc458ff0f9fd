package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// StringArray is a Postgres TEXT[] column, following the teacher's own
// StringArray type (lib/pq-backed Value/Scan).
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	return pq.Array([]string(a)).Value()
}

func (a *StringArray) Scan(value interface{}) error {
	return pq.Array((*[]string)(a)).Scan(value)
}

// Value implements driver.Valuer so Entities can be stored as a JSONB column.
func (e Entities) Value() (driver.Value, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling entities: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner so Entities can be read back from a JSONB column.
func (e *Entities) Scan(value interface{}) error {
	if value == nil {
		*e = Entities{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported entities scan type %T", value)
	}
	if len(b) == 0 {
		*e = Entities{}
		return nil
	}
	return json.Unmarshal(b, e)
}
