package encryption

import "sync"

const defaultBufferSize = 32 * 1024

// bufferPool holds scratch buffers for XOR-ing streamed data.
//
//nolint:gochecknoglobals
var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, defaultBufferSize)

		return &buf
	},
}

func getBuffer() (*[]byte, func()) {
	buf, ok := bufferPool.Get().(*[]byte)
	if !ok {
		b := make([]byte, defaultBufferSize)
		buf = &b
	}

	return buf, func() { bufferPool.Put(buf) }
}
