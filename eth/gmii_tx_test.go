package eth_test

import (
	"testing"
	"time"

	"github.com/db47h/ethsim/axis"
	"github.com/db47h/ethsim/eth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gmiiSizes = []int{0, 1, 20, 59, 60, 61, 100, 300, 1514}

// sendAll queues one frame per size and returns their payloads.
func sendAll(b *txBench, sizes ...int) [][]byte {
	ps := make([][]byte, len(sizes))
	for i, n := range sizes {
		ps[i] = payload(n, byte(i))
		b.src.Send(axis.Frame{Data: ps[i], ID: uint32(i)})
	}
	return ps
}

func sumWire(sizes ...int) uint64 {
	var s uint64
	for _, n := range sizes {
		s += uint64(wireLen(n))
	}
	return s
}

func TestAxisGMIITx(t *testing.T) {
	b := newGMIIBench(t, eth.TxOptions{}, nil)
	ps := sendAll(b, gmiiSizes...)
	b.wait(t, len(ps))

	rx := b.recvAll()
	require.Len(t, rx, len(ps))
	for i := range rx {
		checkRx(t, i, rx[i], ps[i])
	}

	st := b.stats.Snapshot()
	n := uint64(len(ps))
	assert.Equal(t, sumWire(gmiiSizes...), st.Bytes)
	assert.Equal(t, sumWire(gmiiSizes...), st.PktLen)
	assert.Equal(t, n, st.StartPacket)
	assert.Equal(t, n, st.Good)
	assert.Equal(t, n, st.Unicast)
	assert.Zero(t, st.Bad)
	assert.Zero(t, st.Multicast+st.Broadcast+st.VLAN)

	cpl := b.completions()
	require.Len(t, cpl, len(ps))
	var last time.Duration
	for i, f := range cpl {
		assert.Equal(t, uint32(i), f.ID)
		assert.Zero(t, f.User)
		require.Len(t, f.Data, 8)
		ts := eth.Timestamp(f.Data)
		assert.Equal(t, time.Duration(rx[i].SFDStep-1)*period, ts, "frame %d", i)
		assert.True(t, ts > last, "frame %d: timestamp not increasing", i)
		last = ts
	}

	// frames were queued back to back
	for i, g := range gaps(b.en) {
		assert.Equal(t, 12, g, "gap %d", i)
	}
}

func TestAxisGMIITx_ifg(t *testing.T) {
	for _, ifg := range []int{1, 5, 20} {
		b := newGMIIBench(t, eth.TxOptions{}, nil)
		b.cfg.IFG = ifg
		ps := sendAll(b, 60, 60, 60, 60)
		b.wait(t, len(ps))
		gs := gaps(b.en)
		require.Len(t, gs, len(ps)-1)
		for i, g := range gs {
			assert.Equal(t, ifg, g, "ifg %d: gap %d", ifg, i)
		}
	}
}

func TestAxisGMIITx_ifgZero(t *testing.T) {
	// the byte time after the FCS is always idle
	for _, ifg := range []int{0, 1} {
		b := newGMIIBench(t, eth.TxOptions{}, nil)
		b.cfg.IFG = ifg
		ps := sendAll(b, 60, 100, 60)
		b.wait(t, len(ps))
		rx := b.recvAll()
		require.Len(t, rx, len(ps))
		for i := range rx {
			checkRx(t, i, rx[i], ps[i])
		}
		assert.Equal(t, []int{1, 1}, gaps(b.en), "ifg %d", ifg)
	}
}

func TestAxisGMIITx_clkEnable(t *testing.T) {
	for _, mii := range []bool{false, true} {
		b := newGMIIBench(t, eth.TxOptions{}, axis.CyclePause(true, false, false))
		b.mii = mii
		sizes := []int{1, 60, 61, 200}
		ps := sendAll(b, sizes...)
		b.wait(t, len(ps))
		rx := b.recvAll()
		require.Len(t, rx, len(ps), "mii %v", mii)
		for i := range rx {
			checkRx(t, i, rx[i], ps[i])
		}
		st := b.stats.Snapshot()
		assert.Equal(t, sumWire(sizes...), st.Bytes, "mii %v", mii)
		assert.Equal(t, uint64(len(ps)), st.Good, "mii %v", mii)
	}
}

func TestAxisGMIITx_mii(t *testing.T) {
	b := newGMIIBench(t, eth.TxOptions{}, nil)
	b.mii = true
	ps := sendAll(b, gmiiSizes...)
	b.wait(t, len(ps))
	rx := b.recvAll()
	require.Len(t, rx, len(ps))
	for i := range rx {
		checkRx(t, i, rx[i], ps[i])
	}
	// each byte takes two cycles, so does the gap
	for i, g := range gaps(b.en) {
		assert.Equal(t, 24, g, "gap %d", i)
	}
}

func TestAxisGMIITx_underrun(t *testing.T) {
	b := newGMIIBench(t, eth.TxOptions{}, nil)
	ps := sendAll(b, 60, 60, 60)

	// stall the source in the middle of the second frame
	err := b.c.RunUntil(func() bool { return b.stats.Snapshot().StartPacket >= 2 }, 10000)
	require.NoError(t, err)
	b.c.Run(10)
	b.src.SetPause(true)
	b.c.Run(20)
	b.src.SetPause(false)
	b.wait(t, len(ps))

	rx := b.recvAll()
	require.Len(t, rx, 3)
	checkRx(t, 0, rx[0], ps[0])
	checkRx(t, 2, rx[2], ps[2])
	assert.True(t, rx[1].ErrLast(), "underrun not flagged")
	assert.False(t, rx[1].CheckFCS())

	st := b.stats.Snapshot()
	assert.Equal(t, uint64(2), st.Good)
	assert.Equal(t, uint64(1), st.Bad)
	assert.Equal(t, uint64(1), st.ErrUnderflow)
	assert.Equal(t, st.Bytes, st.PktLen)

	cpl := b.completions()
	require.Len(t, cpl, 3)
	assert.Equal(t, []uint32{0, 1, 0}, []uint32{cpl[0].User, cpl[1].User, cpl[2].User})
}

func TestAxisGMIITx_userError(t *testing.T) {
	b := newGMIIBench(t, eth.TxOptions{}, nil)
	var ps [][]byte
	for i := 0; i < 3; i++ {
		p := payload(60, byte(i))
		ps = append(ps, p)
		f := axis.Frame{Data: p, ID: uint32(i)}
		if i == 1 {
			f.User = 1
		}
		b.src.Send(f)
	}
	b.wait(t, len(ps))

	rx := b.recvAll()
	require.Len(t, rx, 3)
	checkRx(t, 0, rx[0], ps[0])
	checkRx(t, 2, rx[2], ps[2])
	assert.True(t, rx[1].ErrLast())
	assert.Len(t, rx[1].Data, 64)

	st := b.stats.Snapshot()
	assert.Equal(t, uint64(2), st.Good)
	assert.Equal(t, uint64(1), st.Bad)
	assert.Equal(t, uint64(1), st.ErrUser)
	assert.Equal(t, uint64(64*3), st.Bytes)
}

func TestAxisGMIITx_oversize(t *testing.T) {
	const maxLen = 100
	b := newGMIIBench(t, eth.TxOptions{}, nil)
	b.cfg.MaxPktLen = maxLen
	sizes := []int{50, maxLen - 4, maxLen - 3, 200, 60}
	ps := sendAll(b, sizes...)
	b.wait(t, len(ps))

	rx := b.recvAll()
	require.Len(t, rx, len(ps))
	for i, f := range rx {
		assert.True(t, len(f.Data) <= maxLen, "frame %d: %d bytes sent", i, len(f.Data))
		if sizes[i] > maxLen-4 {
			assert.True(t, f.ErrLast(), "frame %d: oversize not flagged", i)
			assert.Len(t, f.Data, maxLen-3, "frame %d", i)
		} else {
			checkRx(t, i, f, ps[i])
		}
	}

	st := b.stats.Snapshot()
	assert.Equal(t, uint64(3), st.Good)
	assert.Equal(t, uint64(2), st.Bad)
	assert.Equal(t, uint64(2), st.ErrOversize)
	assert.Equal(t, sumWire(50, maxLen-4, 60)+2*(maxLen-3), st.Bytes)
}

func TestAxisGMIITx_disable(t *testing.T) {
	b := newGMIIBench(t, eth.TxOptions{}, nil)
	b.cfg.Enable = false
	ps := sendAll(b, 60)
	b.c.Run(200)
	assert.Zero(t, b.rxCount())
	b.cfg.Enable = true
	b.wait(t, len(ps))
	checkRx(t, 0, b.recvAll()[0], ps[0])
}
