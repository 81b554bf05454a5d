package handler

import (
	"sync"

	"github.com/armon/circbuf"
)

// DefaultResultTextLimit bounds how much of a worker's Result/ErrText a
// JobWrapper retains, adapted from the teacher's EnhancedBufferPool
// (core/buffer_pool.go) but without its adaptive grow/shrink machinery:
// SubmitResult only ever needs one fixed-size scratch buffer per call, not
// a pool sized by request.
const DefaultResultTextLimit = 64 * 1024

var resultBufferPool = sync.Pool{
	New: func() any {
		buf, _ := circbuf.NewBuffer(DefaultResultTextLimit)
		return buf
	},
}

// boundResultText truncates s to its last DefaultResultTextLimit bytes, the
// way the teacher's job runners cap captured stdout/stderr before storing
// it, so a worker client cannot SubmitResult an unbounded string into a
// JobWrapper.
func boundResultText(s string) string {
	if len(s) <= DefaultResultTextLimit {
		return s
	}

	buf, _ := resultBufferPool.Get().(*circbuf.Buffer)
	defer func() {
		buf.Reset()
		resultBufferPool.Put(buf)
	}()

	_, _ = buf.Write([]byte(s))
	return string(buf.Bytes())
}
