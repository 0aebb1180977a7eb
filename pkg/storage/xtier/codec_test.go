package xtier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/storage/xtier"
)

type point struct {
	X int    `json:"x"`
	Y string `json:"y"`
}

func TestJSONCodec(t *testing.T) {
	c := xtier.JSONCodec[point]{}
	b, err := c.Encode(point{1, "a"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1,"y":"a"}`, string(b))

	p, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, point{1, "a"}, p)

	_, err = c.Decode([]byte("{"))
	assert.Error(t, err)

	_, err = xtier.JSONCodec[func()]{}.Encode(func() {})
	assert.Error(t, err)
}

func TestBytesCodec_DecodeCopies(t *testing.T) {
	src := []byte("abc")
	out, err := xtier.BytesCodec{}.Decode(src)
	require.NoError(t, err)
	src[0] = 'x'
	assert.Equal(t, []byte("abc"), out)
}

func TestStringCodec(t *testing.T) {
	b, err := xtier.StringCodec{}.Encode("hi")
	require.NoError(t, err)
	s, err := xtier.StringCodec{}.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}
