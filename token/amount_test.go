package token

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("1000000000000000000")
	assert.Nil(t, err)
	assert.Equal(t, "1000000000000000000", amount.String())
	assert.Equal(t, 0, amount.Cmp(NewAmountFromTokens(1)))
}

func TestParseAmountRejectsNegative(t *testing.T) {
	_, err := ParseAmount("-1")
	assert.NotNil(t, err)
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, err := ParseAmount("1.5")
	assert.NotNil(t, err)

	_, err = ParseAmount("")
	assert.NotNil(t, err)
}

func TestAmountArithmetic(t *testing.T) {
	a := NewAmountFromTokens(100)
	b := NewAmountFromTokens(40)

	assert.Equal(t, 0, a.Add(b).Cmp(NewAmountFromTokens(140)))
	assert.Equal(t, 0, a.Sub(b).Cmp(NewAmountFromTokens(60)))

	// operands are not mutated
	assert.Equal(t, 0, a.Cmp(NewAmountFromTokens(100)))
	assert.Equal(t, 0, b.Cmp(NewAmountFromTokens(40)))
}

func TestAmountIsZero(t *testing.T) {
	var nilAmount *Amount
	assert.True(t, nilAmount.IsZero())
	assert.True(t, NewAmount(nil).IsZero())
	assert.False(t, NewAmountFromTokens(1).IsZero())
}

func TestAmountScan(t *testing.T) {
	amount := &Amount{}

	assert.Nil(t, amount.Scan([]byte("12345")))
	assert.Equal(t, "12345", amount.String())

	assert.Nil(t, amount.Scan("67890"))
	assert.Equal(t, "67890", amount.String())

	assert.Nil(t, amount.Scan(nil))
	assert.True(t, amount.IsZero())

	assert.NotNil(t, amount.Scan(3.14))
}

func TestAmountValue(t *testing.T) {
	val, err := NewAmountFromTokens(7).Value()
	assert.Nil(t, err)
	assert.Equal(t, "7000000000000000000", val)
}

func TestAmountJSON(t *testing.T) {
	raw, err := json.Marshal(NewAmountFromTokens(50))
	assert.Nil(t, err)
	assert.Equal(t, `"50000000000000000000"`, string(raw))

	amount := &Amount{}
	assert.Nil(t, json.Unmarshal(raw, amount))
	assert.Equal(t, 0, amount.Cmp(NewAmountFromTokens(50)))

	assert.NotNil(t, json.Unmarshal([]byte(`"-1"`), amount))
}

func TestMaxSupply(t *testing.T) {
	expected, _ := new(big.Int).SetString("10000000000000000000000000000", 10)
	assert.Equal(t, 0, MaxSupply.Cmp(expected))
	assert.Equal(t, 0, NewAmountFromTokens(10000000000).BigInt().Cmp(MaxSupply))
}
