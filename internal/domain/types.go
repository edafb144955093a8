package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// URLList is an ordered list of song URLs stored as a JSON array in a TEXT
// column. The playback checkpoint keeps its queue and its pending play
// counts this way.
type URLList []string

func (u URLList) Value() (driver.Value, error) {
	if len(u) == 0 {
		return "[]", nil
	}
	return json.Marshal(u)
}

func (u *URLList) Scan(src interface{}) error {
	if src == nil {
		*u = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into URLList", src)
	}

	if len(data) == 0 || string(data) == "null" {
		*u = nil
		return nil
	}
	return json.Unmarshal(data, u)
}
