package symbolmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupKnownIDs(t *testing.T) {
	cases := []struct {
		provider, native, want string
	}{
		{"eia", "PET.RWTC.D", WTICrude},
		{"eia", "NG.RNGWHHD.D", NaturalGas},
		{"fred", "DCOILWTICO", WTICrude},
		{"fred", "DCOILBRENTEU", BrentCrude},
		{"quote", "CL=F", WTICrude},
		{"quote", "BZ=F", BrentCrude},
	}
	for _, c := range cases {
		got, ok := Lookup(c.provider, c.native)
		assert.True(t, ok, "%s/%s should resolve", c.provider, c.native)
		assert.Equal(t, c.want, got)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("eia", "UNKNOWN.SERIES")
	assert.False(t, ok)

	_, ok = Lookup("nonexistent-provider", "CL=F")
	assert.False(t, ok)
}
