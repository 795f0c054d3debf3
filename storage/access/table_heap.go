// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"sync/atomic"

	pkgerrors "github.com/pkg/errors"
	"github.com/ryogrid/SamehadaCore/common"
	"github.com/ryogrid/SamehadaCore/storage/buffer"
	"github.com/ryogrid/SamehadaCore/storage/disk"
	"github.com/ryogrid/SamehadaCore/storage/page"
	"github.com/ryogrid/SamehadaCore/storage/tuple"
	"github.com/ryogrid/SamehadaCore/types"
	"github.com/sirupsen/logrus"
)

// TableHeap represents a physical table on disk.
// Page n of the table is page n of its file. Pages are read and written by the
// BufferPoolManager through ReadPage and WritePage. Tuple operations fetch their
// pages from the BufferPoolManager so that the page locks are taken there.
type TableHeap struct {
	tableID   uint32
	name      string
	tupleSize uint32
	dm        disk.DiskManager
	bpm       *buffer.BufferPoolManager
	// number of page numbers handed out so far (accessed atomically)
	numAllocated int32
}

// NewTableHeap creates a table heap over dm. tupleSize is the fixed size of every tuple.
func NewTableHeap(tableID uint32, name string, tupleSize uint32, dm disk.DiskManager, bpm *buffer.BufferPoolManager) (*TableHeap, error) {
	if NumSlotsPerPage(tupleSize) == 0 {
		return nil, ErrTupleSize
	}
	numPages := int32((dm.Size() + common.PageSize - 1) / common.PageSize)
	return &TableHeap{tableID, name, tupleSize, dm, bpm, numPages}, nil
}

func (t *TableHeap) GetTableId() uint32 {
	return t.tableID
}

func (t *TableHeap) GetName() string {
	return t.name
}

func (t *TableHeap) GetTupleSize() uint32 {
	return t.tupleSize
}

func (t *TableHeap) GetDiskManager() disk.DiskManager {
	return t.dm
}

// ReadPage reads the page from disk. A page never written reads as an empty page.
func (t *TableHeap) ReadPage(pid types.PageID) (*page.Page, error) {
	common.SH_Assert(pid.GetTableId() == t.tableID, "page of another table")

	pg := page.NewEmpty(pid)
	if err := t.dm.ReadPage(pid.GetPageNo(), pg.Data()[:]); err != nil {
		return nil, err
	}
	if !pg.VerifyChecksum() {
		common.ShLogWithFields(common.ERROR, logrus.Fields{"table": t.name, "page": pid}, "TableHeap: checksum mismatch\n")
		return nil, &disk.StorageError{Op: "read", File: t.name, PageNo: pid.GetPageNo(), Err: pkgerrors.New("checksum mismatch")}
	}
	return pg, nil
}

// WritePage stamps the checksum and writes the page to disk
func (t *TableHeap) WritePage(pg *page.Page) error {
	common.SH_Assert(pg.GetPageId().GetTableId() == t.tableID, "page of another table")

	buf := make([]byte, common.PageSize)
	pg.WLatch()
	pg.SetChecksum()
	copy(buf, pg.Data()[:])
	pg.WUnlatch()

	return t.dm.WritePage(pg.GetPageId().GetPageNo(), buf)
}

// NumPages returns the number of pages of the table. Pages allocated but not yet
// written are counted.
func (t *TableHeap) NumPages() int32 {
	onDisk := int32((t.dm.Size() + common.PageSize - 1) / common.PageSize)
	allocated := atomic.LoadInt32(&t.numAllocated)
	if onDisk > allocated {
		return onDisk
	}
	return allocated
}

// allocatePage hands out a page number no other caller gets
func (t *TableHeap) allocatePage() int32 {
	for {
		cur := atomic.LoadInt32(&t.numAllocated)
		next := cur
		if onDisk := int32((t.dm.Size() + common.PageSize - 1) / common.PageSize); onDisk > next {
			next = onDisk
		}
		if atomic.CompareAndSwapInt32(&t.numAllocated, cur, next+1) {
			return next
		}
	}
}

// InsertTuple inserts tpl into the first page which has a free slot.
// When every page is full a new page is allocated at the end of the table.
// The returned slice holds the modified page.
func (t *TableHeap) InsertTuple(txnID types.TxnID, tpl *tuple.Tuple) ([]*page.Page, error) {
	if tpl.Size() != t.tupleSize {
		return nil, ErrTupleSize
	}

	numPages := t.NumPages()
	for pageNo := int32(0); pageNo < numPages; pageNo++ {
		pid := types.NewPageID(t.tableID, pageNo)
		heldBefore := t.bpm.HoldsLock(txnID, pid)
		pg, err := t.bpm.GetPage(txnID, pid, types.Exclusive)
		if err != nil {
			return nil, err
		}
		if t.insertIntoPage(txnID, pg, tpl) {
			return []*page.Page{pg}, nil
		}
		// nothing of the full page was read or written
		if !heldBefore {
			t.bpm.ReleasePage(txnID, pid)
		}
	}

	for {
		pid := types.NewPageID(t.tableID, t.allocatePage())
		pg, err := t.bpm.GetPage(txnID, pid, types.Exclusive)
		if err != nil {
			return nil, err
		}
		common.ShLogWithFields(common.DEBUG_INFO, logrus.Fields{"txn": txnID, "table": t.name, "page": pid}, "TableHeap: new page allocated\n")
		if t.insertIntoPage(txnID, pg, tpl) {
			return []*page.Page{pg}, nil
		}
		// a page past the end was already filled. try the next one
	}
}

func (t *TableHeap) insertIntoPage(txnID types.TxnID, pg *page.Page, tpl *tuple.Tuple) bool {
	pg.WLatch()
	defer pg.WUnlatch()

	tp := CastPageAsTablePage(pg, t.tupleSize)
	if tp.GetNumEmptySlots() == 0 {
		return false
	}
	pg.MarkDirty(true, txnID)
	_, err := tp.InsertTuple(tpl)
	common.SH_Assert(err == nil, "insert into a page with a free slot failed")
	return true
}

// DeleteTuple removes the tuple at the RID of tpl
func (t *TableHeap) DeleteTuple(txnID types.TxnID, tpl *tuple.Tuple) ([]*page.Page, error) {
	rid := tpl.GetRID()
	if rid == nil || rid.GetPageId().GetTableId() != t.tableID || rid.GetPageId().GetPageNo() >= t.NumPages() {
		return nil, ErrTupleNotFound
	}

	pg, err := t.bpm.GetPage(txnID, rid.GetPageId(), types.Exclusive)
	if err != nil {
		return nil, err
	}

	pg.WLatch()
	defer pg.WUnlatch()
	tp := CastPageAsTablePage(pg, t.tupleSize)
	if !tp.IsSlotUsed(rid.GetSlotNum()) {
		return nil, ErrTupleNotFound
	}
	pg.MarkDirty(true, txnID)
	if err = tp.DeleteTuple(rid); err != nil {
		return nil, err
	}
	return []*page.Page{pg}, nil
}

// GetTuple reads the tuple at rid under a shared lock
func (t *TableHeap) GetTuple(txnID types.TxnID, rid *page.RID) (*tuple.Tuple, error) {
	if rid.GetPageId().GetTableId() != t.tableID || rid.GetPageId().GetPageNo() >= t.NumPages() {
		return nil, ErrTupleNotFound
	}

	pg, err := t.bpm.GetPage(txnID, rid.GetPageId(), types.Shared)
	if err != nil {
		return nil, err
	}

	pg.RLatch()
	defer pg.RUnlatch()
	return CastPageAsTablePage(pg, t.tupleSize).GetTuple(rid)
}

// Iterator returns an iterator positioned on the first tuple of the table
func (t *TableHeap) Iterator(txnID types.TxnID) (*TableHeapIterator, error) {
	return NewTableHeapIterator(t, txnID)
}

func (t *TableHeap) Scan(txnID types.TxnID) (buffer.TupleIterator, error) {
	it, err := t.Iterator(txnID)
	if err != nil {
		return nil, err
	}
	return it, nil
}
