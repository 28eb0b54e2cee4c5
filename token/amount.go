package token

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
)

// Decimals is the fixed-point scale shared by every amount on the ledger
const Decimals = 18

var decimalsFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// MaxSupply is the hard cap on total supply: 10,000,000,000 whole tokens
var MaxSupply = new(big.Int).Mul(big.NewInt(10000000000), decimalsFactor)

// Amount is an unsigned fixed-point token quantity with 18 fractional
// decimal digits, persisted as a numeric column and rendered as a base-10
// string on the wire
type Amount struct {
	i big.Int
}

// NewAmount returns an amount from the given base-unit big integer; nil yields zero
func NewAmount(i *big.Int) *Amount {
	a := &Amount{}
	if i != nil {
		a.i.Set(i)
	}
	return a
}

// NewAmountFromTokens returns an amount representing the given number of whole tokens
func NewAmountFromTokens(tokens int64) *Amount {
	a := &Amount{}
	a.i.Mul(big.NewInt(tokens), decimalsFactor)
	return a
}

// ParseAmount parses a base-10 string of base units; negative values are rejected
func ParseAmount(val string) (*Amount, error) {
	i, ok := new(big.Int).SetString(val, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse amount: %s", val)
	}
	if i.Sign() < 0 {
		return nil, fmt.Errorf("failed to parse amount; negative value: %s", val)
	}
	return NewAmount(i), nil
}

// BigInt returns a copy of the underlying base-unit integer
func (a *Amount) BigInt() *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(&a.i)
}

// IsZero returns true for nil or zero amounts
func (a *Amount) IsZero() bool {
	return a == nil || a.i.Sign() == 0
}

// Cmp compares a against other; nil compares as zero
func (a *Amount) Cmp(other *Amount) int {
	return a.BigInt().Cmp(other.BigInt())
}

// Add returns a new amount equal to a + other
func (a *Amount) Add(other *Amount) *Amount {
	sum := &Amount{}
	sum.i.Add(a.BigInt(), other.BigInt())
	return sum
}

// Sub returns a new amount equal to a - other; callers are responsible for
// checking sufficiency first
func (a *Amount) Sub(other *Amount) *Amount {
	diff := &Amount{}
	diff.i.Sub(a.BigInt(), other.BigInt())
	return diff
}

// String renders the amount in base units
func (a *Amount) String() string {
	if a == nil {
		return "0"
	}
	return a.i.String()
}

// Scan implements sql.Scanner
func (a *Amount) Scan(val interface{}) error {
	if val == nil {
		a.i.SetInt64(0)
		return nil
	}

	switch v := val.(type) {
	case []byte:
		if _, ok := a.i.SetString(string(v), 10); !ok {
			return fmt.Errorf("failed to scan amount: %s", string(v))
		}
	case string:
		if _, ok := a.i.SetString(v, 10); !ok {
			return fmt.Errorf("failed to scan amount: %s", v)
		}
	case int64:
		a.i.SetInt64(v)
	default:
		return fmt.Errorf("failed to scan amount; unsupported type: %T", val)
	}

	return nil
}

// Value implements driver.Valuer
func (a *Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// MarshalJSON renders the amount as a base-10 string
func (a *Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a base-10 string of base units
func (a *Amount) UnmarshalJSON(raw []byte) error {
	var val string
	if err := json.Unmarshal(raw, &val); err != nil {
		return err
	}

	parsed, err := ParseAmount(val)
	if err != nil {
		return err
	}

	a.i.Set(&parsed.i)
	return nil
}
