package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// stateDigest hashes the simulation state in a fixed order. Sinks, observers and
// timing are excluded so a replay produces the same digest.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	h.Write([]byte{boolByte(w.running)})
	digestWriteI64(h, &tmp, int64(w.minesDefused))
	digestWriteI64(h, &tmp, int64(w.quicksandSteps))

	digestWriteU64(h, &tmp, uint64(len(w.robots)))
	for _, r := range w.robots {
		h.Write([]byte(r.ID))
		digestWriteF64(h, &tmp, r.X)
		digestWriteF64(h, &tmp, r.Y)
		digestWriteF64(h, &tmp, r.Heading)
		digestWriteF64(h, &tmp, r.Speed)
		h.Write([]byte{byte(r.Countdown.Mode)})
		digestWriteI64(h, &tmp, int64(r.Countdown.Remaining))
	}

	digestWriteU64(h, &tmp, uint64(w.mines.Len()))
	w.mines.each(func(hd Handle, m Mine) {
		digestWriteU64(h, &tmp, uint64(hd))
		digestWriteF64(h, &tmp, m.X)
		digestWriteF64(h, &tmp, m.Y)
	})

	digestWriteU64(h, &tmp, uint64(w.markers.Len()))
	w.markers.each(func(hd Handle, m Marker) {
		digestWriteU64(h, &tmp, uint64(hd))
		h.Write([]byte{byte(m.Purpose), boolByte(m.hasDirection)})
		digestWriteF64(h, &tmp, m.X)
		digestWriteF64(h, &tmp, m.Y)
		digestWriteF64(h, &tmp, m.direction)
	})

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
