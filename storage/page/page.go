// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/OneOfOne/xxhash"
	"github.com/ryogrid/SamehadaCore/common"
	"github.com/ryogrid/SamehadaCore/types"
)

// OffsetChecksum is where the page trailer starts. The trailer holds an xxhash64
// of every byte before it. A page whose bytes are all zero is a fresh page and
// needs no checksum.
const OffsetChecksum = common.PageSize - common.PageTrailerSize

/**
 * Page is the basic unit of storage within the database system. Page provides a wrapper for actual data pages being
 * held in main memory. Page also contains book-keeping information that is used by the buffer pool manager, e.g.
 * dirty flag, id of the transaction which dirtied it, page id, etc.
 */
type Page struct {
	id      types.PageID           // idenfies the page. It is used to find the offset of the page on disk
	isDirty int32                  // the page was modified but not flushed (accessed atomically)
	dirtier int32                  // TxnID which dirtied the page (accessed atomically)
	data    *[common.PageSize]byte // bytes stored in disk
	rwlatch common.ReaderWriterLatch
}

// GetPageId returns the page id
func (p *Page) GetPageId() types.PageID {
	return p.id
}

// Data returns the data of the page
func (p *Page) Data() *[common.PageSize]byte {
	return p.data
}

// MarkDirty sets or clears the dirty bit. When dirty is false the dirtier is forgotten.
func (p *Page) MarkDirty(dirty bool, txnID types.TxnID) {
	if dirty {
		atomic.StoreInt32(&p.dirtier, int32(txnID))
		atomic.StoreInt32(&p.isDirty, 1)
	} else {
		atomic.StoreInt32(&p.isDirty, 0)
		atomic.StoreInt32(&p.dirtier, int32(types.InvalidTxnID))
	}
}

// IsDirty check if the page is dirty
func (p *Page) IsDirty() bool {
	return atomic.LoadInt32(&p.isDirty) == 1
}

// GetDirtier returns the transaction which dirtied the page, or InvalidTxnID if it is clean
func (p *Page) GetDirtier() types.TxnID {
	if !p.IsDirty() {
		return types.InvalidTxnID
	}
	return types.TxnID(atomic.LoadInt32(&p.dirtier))
}

// Copy copies data to the page's data
func (p *Page) Copy(offset uint32, data []byte) {
	copy(p.data[offset:], data)
}

// SetChecksum stamps the trailer with the checksum of the page body
func (p *Page) SetChecksum() {
	binary.LittleEndian.PutUint64(p.data[OffsetChecksum:], calcChecksum(p.data[:OffsetChecksum]))
}

// VerifyChecksum reports whether the trailer matches the page body
func (p *Page) VerifyChecksum() bool {
	stored := binary.LittleEndian.Uint64(p.data[OffsetChecksum:])
	if stored == 0 && isZeroed(p.data[:OffsetChecksum]) {
		return true
	}
	return stored == calcChecksum(p.data[:OffsetChecksum])
}

func calcChecksum(body []byte) uint64 {
	h := xxhash.New64()
	h.Write(body)
	return h.Sum64()
}

func isZeroed(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

/** Acquire the page write latch. */
func (p *Page) WLatch() {
	p.rwlatch.WLock()
}

/** Release the page write latch. */
func (p *Page) WUnlatch() {
	p.rwlatch.WUnlock()
}

/** Acquire the page read latch. */
func (p *Page) RLatch() {
	p.rwlatch.RLock()
}

/** Release the page read latch. */
func (p *Page) RUnlatch() {
	p.rwlatch.RUnlock()
}

// New creates a new clean page
func New(id types.PageID, data *[common.PageSize]byte) *Page {
	return &Page{id, 0, int32(types.InvalidTxnID), data, common.NewRWLatch()}
}

// NewEmpty creates a new zero filled page
func NewEmpty(id types.PageID) *Page {
	return New(id, &[common.PageSize]byte{})
}
