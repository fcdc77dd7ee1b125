package phone

import (
	"testing"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"0812-345-6789":    "628123456789",
		"+62 812 345 6789": "628123456789",
		"62812 3456789":    "628123456789",
		"(0812) 345.6789":  "628123456789",
		"":                 "",
		"abc":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in, "62"), in)
	}

	//冪等
	n := Normalize("0812-345-6789", "62")
	assert.Equal(t, n, Normalize(n, "62"))

	//国番号が空ならデフォルト
	assert.Equal(t, "628123456789", Normalize("08123456789", ""))
}

func TestVerify(t *testing.T) {
	o := &model.Order{CustomerPhone: "0812-345-6789"}

	assert.True(t, Verify(o, "+62 812 345 6789", "62"))
	assert.True(t, Verify(o, "628123456789", "62"))
	assert.False(t, Verify(o, "0812-345-6780", "62"))
	assert.False(t, Verify(o, "", "62"))
	assert.False(t, Verify(nil, "0812-345-6789", "62"))
	assert.False(t, Verify(&model.Order{}, "", "62"))
}
