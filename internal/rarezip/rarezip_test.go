package rarezip

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte{0x00},
		[]byte("the quick brown fox jumps over the lazy dog"),
		bytes.Repeat([]byte{0xAB, 0xCD}, 4096),
	}
	for _, p := range payloads {
		z, err := Zip(p)
		require.NoError(t, err)
		require.Equal(t, []byte{0x11, 0x72}, z[0:2])

		out, err := Unzip(z)
		require.NoError(t, err)
		require.Equal(t, len(p), len(out))
		require.Equal(t, append([]byte(nil), p...), append([]byte(nil), out...))
	}
}

func TestZipDeterministic(t *testing.T) {
	p := bytes.Repeat([]byte("banjo"), 100)
	a, err := Zip(p)
	require.NoError(t, err)
	b, err := Zip(p)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestUnzipBadMagic(t *testing.T) {
	z, err := Zip([]byte("kazooie"))
	require.NoError(t, err)
	z[0] = 0x00
	_, err = Unzip(z)
	require.Error(t, err)
}

func TestUnzipTruncated(t *testing.T) {
	_, err := Unzip([]byte{0x11, 0x72, 0x00})
	require.Error(t, err)
}

func TestUnzipSizeMismatch(t *testing.T) {
	z, err := Zip([]byte("kazooie"))
	require.NoError(t, err)
	z[5]++ // corrupt the inflated-size field
	_, err = Unzip(z)
	require.Error(t, err)
}
