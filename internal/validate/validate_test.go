package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	got, ok := Email("  Alice@Handmade.Test ")
	assert.True(t, ok)
	assert.Equal(t, "alice@handmade.test", got)

	for _, bad := range []string{"", "alice", "alice@", "a@b", "<script>@x.io"} {
		_, ok := Email(bad)
		assert.False(t, ok, bad)
	}
}

func TestQ(t *testing.T) {
	got, ok := Q("  olive wood ")
	assert.True(t, ok)
	assert.Equal(t, "olive wood", got)

	_, ok = Q("vase'; DROP TABLE products;--")
	assert.False(t, ok)
	_, ok = Q("   ")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	for in, want := range map[string]string{
		" alice@handmade.test ": "alice@handmade.test",
		"handmade.test":         "handmade.test",
		"50% off_":              "50% off_",
		"":                      "",
	} {
		got, ok := Search(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	_, ok := Search(strings.Repeat("a", 81))
	assert.False(t, ok)
	_, ok = Search("tab\there")
	assert.False(t, ok)
}

func TestCategory(t *testing.T) {
	got, ok := Category(" glass-art ")
	assert.True(t, ok)
	assert.Equal(t, "glass-art", got)

	got, ok = Category("Glass Art")
	assert.True(t, ok)
	assert.Equal(t, "Glass Art", got)

	_, ok = Category("   ")
	assert.False(t, ok)
	_, ok = Category(strings.Repeat("x y", 20))
	assert.False(t, ok)
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("Passw0rd!"))
	assert.False(t, Password("password"))
	assert.False(t, Password("Sh0rt!"))
	assert.False(t, Password("NoDigitsHere!"))
}

func TestRatingAndComment(t *testing.T) {
	assert.True(t, Rating(0))
	assert.True(t, Rating(5))
	assert.False(t, Rating(6))
	assert.False(t, Rating(-1))

	long := make([]rune, 501)
	for i := range long {
		long[i] = 'x'
	}
	_, ok := Comment(string(long))
	assert.False(t, ok)
	_, ok = Comment(string(long[:500]))
	assert.True(t, ok)
}

func TestRoleDefaultsToCustomer(t *testing.T) {
	r, ok := Role("")
	assert.True(t, ok)
	assert.Equal(t, "customer", r)

	r, ok = Role("Vendor")
	assert.True(t, ok)
	assert.Equal(t, "vendor", r)

	_, ok = Role("admin")
	assert.False(t, ok)
}

func TestPage(t *testing.T) {
	assert.Equal(t, 1, Page(""))
	assert.Equal(t, 1, Page("-3"))
	assert.Equal(t, 1, Page("abc"))
	assert.Equal(t, 4, Page(" 4 "))
	assert.Equal(t, MaxPage, Page("9223372036854775807"))
	assert.Equal(t, MaxPage, Page("99999999999999999999"))
	assert.Equal(t, 1, Page("-99999999999999999999"))
}

func TestPhone(t *testing.T) {
	_, ok := Phone("")
	assert.True(t, ok)
	_, ok = Phone("+20 100 000 0001")
	assert.True(t, ok)
	_, ok = Phone("call me")
	assert.False(t, ok)
}
