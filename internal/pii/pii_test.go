package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_CaseAndWhitespaceInvariant(t *testing.T) {
	inputs := []string{
		"maria@example.com",
		"MARIA@EXAMPLE.COM",
		"  Maria@Example.com  ",
		"\tmaria@example.com\n",
	}

	want := Hash("maria@example.com")
	for _, in := range inputs {
		assert.Equal(t, want, Hash(in), "input %q", in)
	}
}

func TestHash_MatchesSHA256Hex(t *testing.T) {
	sum := sha256.Sum256([]byte("maria@example.com"))
	assert.Equal(t, hex.EncodeToString(sum[:]), Hash("Maria@Example.com "))
}

func TestHash_EmptyInputYieldsEmptyString(t *testing.T) {
	assert.Equal(t, "", Hash(""))
	assert.Equal(t, "", Hash("   "))
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"(31) 99999-8888": "5531999998888",
		"31999998888":     "5531999998888",
		"5531999998888":   "5531999998888",
		"+55 31 99999-8888": "5531999998888",
		"":                "",
		"abc":             "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizePhone(raw), "raw %q", raw)
	}
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("Maria Clara Souza")
	assert.Equal(t, "Maria", first)
	assert.Equal(t, "Clara Souza", last)

	first, last = SplitName("Maria")
	assert.Equal(t, "Maria", first)
	assert.Equal(t, "", last)

	first, last = SplitName("  Maria   Clara  ")
	assert.Equal(t, "Maria", first)
	assert.Equal(t, "Clara", last)

	first, last = SplitName("")
	assert.Equal(t, "", first)
	assert.Equal(t, "", last)
}
