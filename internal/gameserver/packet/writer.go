package packet

import (
	"bytes"
	"math"
	"sync"
)

// Writer provides methods for writing packet data.
// Uses Little-Endian byte order for all multi-byte values.
type Writer struct {
	buf *bytes.Buffer
}

// writerPool reduces allocations by reusing Writers.
// Get() returns a Writer with Reset() called, Put() returns it to pool.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{
			buf: bytes.NewBuffer(make([]byte, 0, 512)),
		}
	},
}

// Get returns a Writer from the pool (already Reset).
func Get() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns a Writer to the pool for reuse.
// IMPORTANT: Do not use the Writer after calling Put.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// NewWriter creates a new packet writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{
		buf: bytes.NewBuffer(make([]byte, 0, capacity)),
	}
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) {
	w.buf.WriteByte(b)
}

// WriteUint16 writes a uint16 (2 bytes, LE).
func (w *Writer) WriteUint16(val uint16) {
	w.buf.WriteByte(byte(val))
	w.buf.WriteByte(byte(val >> 8))
}

// WriteUint32 writes a uint32 (4 bytes, LE).
func (w *Writer) WriteUint32(val uint32) {
	w.buf.WriteByte(byte(val))
	w.buf.WriteByte(byte(val >> 8))
	w.buf.WriteByte(byte(val >> 16))
	w.buf.WriteByte(byte(val >> 24))
}

// WriteInt32 writes an int32 (4 bytes, LE).
func (w *Writer) WriteInt32(val int32) {
	w.WriteUint32(uint32(val))
}

// WriteUint64 writes a uint64 (8 bytes, LE).
func (w *Writer) WriteUint64(val uint64) {
	w.WriteUint32(uint32(val))
	w.WriteUint32(uint32(val >> 32))
}

// WriteFloat32 writes a float32 (4 bytes, LE, IEEE 754).
func (w *Writer) WriteFloat32(val float32) {
	w.WriteUint32(math.Float32bits(val))
}

// WritePackedGuid writes a guid in packed form: a presence mask byte followed
// by the non-zero bytes of the value, low byte first.
func (w *Writer) WritePackedGuid(guid uint64) {
	var mask byte
	var payload [8]byte
	n := 0
	for i := 0; i < 8; i++ {
		b := byte(guid >> (8 * i))
		if b != 0 {
			mask |= 1 << i
			payload[n] = b
			n++
		}
	}
	w.buf.WriteByte(mask)
	w.buf.Write(payload[:n])
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns the written bytes. The slice is only valid until the next
// write or Reset.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf.Reset()
}
