// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import (
	"encoding/binary"
	"fmt"

	"github.com/ryogrid/SamehadaCore/common"
)

// SizeOfPageID is the serialized size of PageID in bytes
const SizeOfPageID = 8

// PageID identifies a page of a table. It is comparable and used as map key
// by the buffer pool and the lock manager.
type PageID struct {
	tableID uint32
	pageNo  int32
}

// InvalidPageID represents an invalid page id
var InvalidPageID = PageID{common.InvalidTableID, common.InvalidPageNo}

func NewPageID(tableID uint32, pageNo int32) PageID {
	return PageID{tableID, pageNo}
}

// GetTableId returns the id of the table the page belongs to
func (id PageID) GetTableId() uint32 {
	return id.tableID
}

// GetPageNo returns the page number inside its table
func (id PageID) GetPageNo() int32 {
	return id.pageNo
}

// IsValid checks if id is valid
func (id PageID) IsValid() bool {
	return id.pageNo >= 0
}

// Offset returns the byte offset of the page in its table file
func (id PageID) Offset() int64 {
	return int64(id.pageNo) * int64(common.PageSize)
}

func (id PageID) String() string {
	return fmt.Sprintf("(%d,%d)", id.tableID, id.pageNo)
}

// Serialize casts it to []byte
func (id PageID) Serialize() []byte {
	buf := make([]byte, SizeOfPageID)
	binary.LittleEndian.PutUint32(buf[0:4], id.tableID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(id.pageNo))
	return buf
}

// NewPageIDFromBytes creates a page id from []byte
func NewPageIDFromBytes(data []byte) PageID {
	return PageID{
		binary.LittleEndian.Uint32(data[0:4]),
		int32(binary.LittleEndian.Uint32(data[4:8])),
	}
}
