package eth_test

import (
	"encoding/binary"
	"hash/crc32"
	"math/rand"
	"testing"

	"github.com/db47h/ethsim/eth"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFCS(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 4, 14, 60, 61, 1514, 9014} {
		p := make([]byte, n)
		r.Read(p)
		fcs := eth.FCS(p)
		assert.Equal(t, crc32.ChecksumIEEE(p), binary.LittleEndian.Uint32(fcs[:]), "len %d", n)
		f := eth.AppendFCS(p)
		assert.True(t, eth.CheckFCS(f), "len %d", n)
		f[r.Intn(len(f))] ^= 0x10
		assert.False(t, eth.CheckFCS(f), "len %d: corruption not detected", n)
	}
	// the well known residue of a frame followed by its FCS
	assert.Equal(t, uint32(0x2144df1c), crc32.ChecksumIEEE(eth.AppendFCS([]byte("123456789"))))
}

func TestEncode(t *testing.T) {
	for n := 0; n <= 9014; n += 1 + n/16 {
		p := payload(n, byte(n))
		f := eth.Encode(p)
		require.Len(t, f, wireLen(n), "len %d", n)
		for i, v := range f[n : len(f)-eth.FCSLen] {
			require.Zero(t, v, "len %d: padding byte %d", n, i)
		}
		got, err := eth.Decode(f, n)
		require.NoError(t, err, "len %d", n)
		require.Equal(t, p, got, "len %d", n)
	}
}

func TestDecode_errors(t *testing.T) {
	_, err := eth.Decode([]byte{1, 2}, 0)
	assert.Equal(t, eth.ErrShort, errors.Cause(err))

	f := eth.Encode(payload(10, 0))
	_, err = eth.Decode(f, 100)
	assert.Equal(t, eth.ErrShort, errors.Cause(err))

	f[3]++
	_, err = eth.Decode(f, 10)
	assert.Equal(t, eth.ErrFCS, errors.Cause(err))
}

func TestPad(t *testing.T) {
	p := []byte{1, 2, 3}
	assert.Equal(t, []byte{1, 2, 3, 0, 0}, eth.Pad(p, 5))
	assert.Equal(t, p, eth.Pad(p, 2))
	assert.Len(t, eth.Pad(nil, eth.MinPayload), eth.MinPayload)
}

func TestClassify(t *testing.T) {
	hdr := func(dst byte, vlan bool) []byte {
		h := make([]byte, eth.HeaderLen)
		for i := 0; i < 6; i++ {
			h[i] = dst
		}
		if vlan {
			binary.BigEndian.PutUint16(h[12:], eth.VLANType)
		}
		return h
	}
	for _, tt := range []struct {
		name  string
		frame []byte
		want  eth.Class
	}{
		{"unicast", hdr(0x02, false), eth.Unicast},
		{"multicast", hdr(0x01, false), eth.Multicast},
		{"broadcast", hdr(0xff, false), eth.Broadcast},
		{"vlan", hdr(0x02, true), eth.Unicast | eth.VLAN},
		{"broadcast vlan", hdr(0xff, true), eth.Broadcast | eth.VLAN},
		{"short", []byte{0x01}, eth.Multicast},
		{"empty", nil, eth.Unicast},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eth.Classify(tt.frame))
		})
	}
}
