package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Amount is an 18-decimal fixed-point integer stored as numeric(78,0). The zero value is 0.
// Amounts are immutable: every setter replaces the underlying integer.
type Amount struct {
	v *big.Int
}

// NewAmount copies v into an Amount. nil yields zero.
func NewAmount(v *big.Int) Amount {
	if v == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(v)}
}

// BigInt returns a copy of the stored value.
func (a Amount) BigInt() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) String() string {
	if a.v == nil {
		return "0"
	}
	return a.v.String()
}

// Value implements the driver.Valuer interface
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements the sql.Scanner interface
func (a *Amount) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case nil:
		a.v = nil
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		a.v = big.NewInt(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", value)
	}

	// numeric columns may come back as "123.0" depending on the driver
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if strings.Trim(s[i+1:], "0") != "" {
			return fmt.Errorf("amount %q is not an integer", s)
		}
		s = s[:i]
	}
	return a.set(s)
}

// MarshalJSON renders the raw integer as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a JSON string or number holding an integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		a.v = nil
		return nil
	}
	return a.set(s)
}

func (a *Amount) set(s string) error {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	a.v = v
	return nil
}
