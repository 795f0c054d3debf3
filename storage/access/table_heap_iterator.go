// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"github.com/ryogrid/SamehadaCore/storage/tuple"
	"github.com/ryogrid/SamehadaCore/types"
)

// TableHeapIterator is the access method for table heaps
//
// It iterates through a table heap when Next is called
// The tuple that it is being pointed to can be accessed with the method Current
// Pages are locked in shared mode as they are visited and the tuples of the
// current page are copied out, so no page latch is kept between calls.
type TableHeapIterator struct {
	tableHeap *TableHeap
	txnID     types.TxnID
	pageNo    int32
	tuples    []*tuple.Tuple
	idx       int
	closed    bool
}

// NewTableHeapIterator creates a new table heap operator for the given table heap
// It points to the first tuple of the table heap
func NewTableHeapIterator(tableHeap *TableHeap, txnID types.TxnID) (*TableHeapIterator, error) {
	it := &TableHeapIterator{tableHeap: tableHeap, txnID: txnID}
	if _, err := it.Rewind(); err != nil {
		return nil, err
	}
	return it, nil
}

// Current points to the current tuple
func (it *TableHeapIterator) Current() *tuple.Tuple {
	if it.closed || it.idx >= len(it.tuples) {
		return nil
	}
	return it.tuples[it.idx]
}

// End checks if the iterator is at the end
func (it *TableHeapIterator) End() bool {
	return it.Current() == nil
}

// Next advances the iterator trying to find the next tuple
// The next tuple can be inside the same page of the current tuple
// or it can be in one of the following pages
func (it *TableHeapIterator) Next() (*tuple.Tuple, error) {
	if it.End() {
		return nil, nil
	}
	it.idx++
	if it.idx < len(it.tuples) {
		return it.tuples[it.idx], nil
	}
	it.pageNo++
	if err := it.loadFrom(it.pageNo); err != nil {
		return nil, err
	}
	return it.Current(), nil
}

// Rewind moves the iterator back to the first tuple of the table
func (it *TableHeapIterator) Rewind() (*tuple.Tuple, error) {
	it.closed = false
	if err := it.loadFrom(0); err != nil {
		return nil, err
	}
	return it.Current(), nil
}

// Close makes the iterator end. Locks taken are kept until the transaction ends.
func (it *TableHeapIterator) Close() {
	it.closed = true
	it.tuples = nil
	it.idx = 0
}

// loadFrom reads pages from pageNo on until one holding a tuple is found
func (it *TableHeapIterator) loadFrom(pageNo int32) error {
	it.tuples = nil
	it.idx = 0
	for it.pageNo = pageNo; it.pageNo < it.tableHeap.NumPages(); it.pageNo++ {
		pg, err := it.tableHeap.bpm.GetPage(it.txnID, types.NewPageID(it.tableHeap.tableID, it.pageNo), types.Shared)
		if err != nil {
			it.closed = true
			return err
		}
		pg.RLatch()
		tuples := CastPageAsTablePage(pg, it.tableHeap.tupleSize).GetTuples()
		pg.RUnlatch()
		if len(tuples) > 0 {
			it.tuples = tuples
			return nil
		}
	}
	return nil
}
