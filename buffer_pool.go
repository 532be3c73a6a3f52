package pwospfd

import "sync"

// BytesPool is a pool of fixed-size byte slices. EncodeHello and EncodeLSU
// take their frame buffers from it through GetBytes; the frames they return
// are handed to the sender and are not given back with PutBytes, so a buffer
// is reused only when a caller returns it.
type BytesPool struct {
	pool sync.Pool
	size int
}

// NewBytesPool creates a new bytes pool with the specified size.
func NewBytesPool(size int) *BytesPool {
	return &BytesPool{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		},
		size: size,
	}
}

// Get retrieves a zeroed byte slice from the pool.
func (p *BytesPool) Get() []byte {
	buf := p.pool.Get().([]byte)
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// Put returns a byte slice to the pool.
func (p *BytesPool) Put(buf []byte) {
	if cap(buf) >= p.size {
		p.pool.Put(buf[:p.size])
	}
}

// Packet buffer size tiers, following the tiered-pool shape of the teacher's
// buffer_pool.go; requests above MediumPacketSize are allocated directly.
const (
	SmallPacketSize  = 128
	MediumPacketSize = 1500
)

var (
	smallBytesPool  = NewBytesPool(SmallPacketSize)
	mediumBytesPool = NewBytesPool(MediumPacketSize)
)

// GetBytes retrieves an appropriately sized byte slice, capacity >= size.
func GetBytes(size int) []byte {
	if size <= SmallPacketSize {
		return smallBytesPool.Get()
	}
	if size <= MediumPacketSize {
		return mediumBytesPool.Get()
	}
	return make([]byte, size)
}

// PutBytes returns a byte slice to the appropriate pool based on its capacity.
func PutBytes(buf []byte) {
	capacity := cap(buf)
	if capacity <= SmallPacketSize {
		smallBytesPool.Put(buf)
	} else if capacity <= MediumPacketSize {
		mediumBytesPool.Put(buf)
	}
}
