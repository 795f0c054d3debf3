// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import (
	"github.com/sasha-s/go-deadlock"
)

// EnableDebug switches on assertion-heavy tracing and the go-deadlock detector
// on internal mutexes. Use SetDebug to change it so both stay in sync.
var EnableDebug = false

// EnableOnMemStorage makes test instances use the memfile backed DiskManager.
var EnableOnMemStorage = true

const (
	// invalid page number
	InvalidPageNo = -1
	// invalid table id
	InvalidTableID = 0
	// invalid transaction id
	InvalidTxnID = -1
	// size of a data page in byte
	PageSize = 4096
	// size of page trailer which holds the page checksum
	PageTrailerSize = 8
	// default number of frames of the buffer pool
	DefaultPoolSize = 50
	// frame number used by most tests
	BufferPoolMaxFrameNumForTest = 64
)

func init() {
	SetDebug(EnableDebug)
}

// SetDebug changes EnableDebug and the go-deadlock detector together.
func SetDebug(enable bool) {
	EnableDebug = enable
	deadlock.Opts.Disable = !enable
}
