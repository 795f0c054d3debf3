// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package tuple

import (
	"encoding/binary"

	"github.com/ryogrid/SamehadaCore/storage/page"
)

/**
 * Tuple format:
 * ---------------------------------------------------
 * | FIXED-SIZE PAYLOAD (size is decided by table)   |
 * ---------------------------------------------------
 * Field layout inside the payload is owned by the caller. The core only
 * needs the byte size and the record id.
 */
type Tuple struct {
	rid  *page.RID
	data []byte
}

func NewTuple(rid *page.RID, data []byte) *Tuple {
	return &Tuple{rid, data}
}

// NewTupleFromInt32s packs the values as little endian int32 fields
func NewTupleFromInt32s(values ...int32) *Tuple {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(v))
	}
	return &Tuple{nil, data}
}

// GetInt32 reads the idx-th int32 field of a tuple created by NewTupleFromInt32s
func (t *Tuple) GetInt32(idx int) int32 {
	return int32(binary.LittleEndian.Uint32(t.data[4*idx:]))
}

func (t *Tuple) GetRID() *page.RID {
	return t.rid
}

func (t *Tuple) SetRID(rid *page.RID) {
	t.rid = rid
}

func (t *Tuple) Size() uint32 {
	return uint32(len(t.data))
}

func (t *Tuple) Data() []byte {
	return t.data
}
