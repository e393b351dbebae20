package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

// JSON is a custom type for handling JSON fields
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Identity is the caller as described by a verified session token.
type Identity struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CompanyID string `json:"companyId"`
	Verified  bool   `json:"isVerified"`
}

// newID returns id when set, otherwise a fresh uuid.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
