package buffer

import (
	"github.com/ryogrid/SamehadaCore/errors"
	"github.com/ryogrid/SamehadaCore/storage/page"
	"github.com/ryogrid/SamehadaCore/storage/tuple"
	"github.com/ryogrid/SamehadaCore/types"
)

const (
	ErrCapacityExhausted = errors.Error("buffer pool is full of dirty pages")
	ErrTableNotFound     = errors.Error("table not found")
	ErrPageNotResident   = errors.Error("page is not resident")
	ErrTupleHasNoRID     = errors.Error("tuple has no record id")
)

// PageStore is the storage of one table. ReadPage and WritePage do physical I/O only.
// InsertTuple, DeleteTuple and Scan touch pages through the BufferPoolManager so that
// locking and caching are done there.
type PageStore interface {
	GetTableId() uint32
	ReadPage(pid types.PageID) (*page.Page, error)
	WritePage(pg *page.Page) error
	NumPages() int32
	// InsertTuple returns the pages it modified
	InsertTuple(txnID types.TxnID, tpl *tuple.Tuple) ([]*page.Page, error)
	// DeleteTuple returns the pages it modified
	DeleteTuple(txnID types.TxnID, tpl *tuple.Tuple) ([]*page.Page, error)
	// Scan returns an iterator positioned on the first tuple
	Scan(txnID types.TxnID) (TupleIterator, error)
}

// TupleIterator walks the tuples of a table in page number order.
// Next returns nil when the end is passed. Rewind starts over from page 0.
type TupleIterator interface {
	Current() *tuple.Tuple
	End() bool
	Next() (*tuple.Tuple, error)
	Rewind() (*tuple.Tuple, error)
	Close()
}

// Catalog finds the PageStore of a table
type Catalog interface {
	GetPageStore(tableID uint32) (PageStore, error)
}
