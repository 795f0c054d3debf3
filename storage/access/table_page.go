// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"github.com/ryogrid/SamehadaCore/common"
	"github.com/ryogrid/SamehadaCore/errors"
	"github.com/ryogrid/SamehadaCore/storage/page"
	"github.com/ryogrid/SamehadaCore/storage/tuple"
)

const ErrNotEnoughSpace = errors.Error("there is not enough space")
const ErrTupleNotFound = errors.Error("tuple not found")
const ErrTupleSize = errors.Error("tuple size does not match the table")

// usable bytes of a page. the trailer holds the checksum
const tablePageBodySize = uint32(common.PageSize - common.PageTrailerSize)

// Heap page format:
//
//	--------------------------------------------------------------------
//	| HEADER (bitmap of used slots) | SLOT_0 | SLOT_1 | ... | CHECKSUM |
//	--------------------------------------------------------------------
//
// Each slot has the fixed tuple size of the table. Bit j of header byte i
// is set when slot i*8+j holds a tuple.
type TablePage struct {
	*page.Page
	tupleSize uint32
	numSlots  uint32
}

// NumSlotsPerPage returns how many tuples of tupleSize fit into a page.
// every tuple needs tupleSize bytes and one header bit
func NumSlotsPerPage(tupleSize uint32) uint32 {
	if tupleSize == 0 {
		return 0
	}
	return (tablePageBodySize * 8) / (tupleSize*8 + 1)
}

func headerSize(numSlots uint32) uint32 {
	return (numSlots + 7) / 8
}

// CastPageAsTablePage views the page as a heap page holding tuples of tupleSize
func CastPageAsTablePage(pg *page.Page, tupleSize uint32) *TablePage {
	if pg == nil {
		return nil
	}
	return &TablePage{pg, tupleSize, NumSlotsPerPage(tupleSize)}
}

func (tp *TablePage) GetNumSlots() uint32 {
	return tp.numSlots
}

func (tp *TablePage) IsSlotUsed(slot uint32) bool {
	if slot >= tp.numSlots {
		return false
	}
	return tp.Data()[slot/8]&(1<<(slot%8)) != 0
}

func (tp *TablePage) setSlotUsed(slot uint32, used bool) {
	if used {
		tp.Data()[slot/8] |= 1 << (slot % 8)
	} else {
		tp.Data()[slot/8] &^= 1 << (slot % 8)
	}
}

func (tp *TablePage) slotOffset(slot uint32) uint32 {
	return headerSize(tp.numSlots) + slot*tp.tupleSize
}

// GetNumEmptySlots returns the number of free slots
func (tp *TablePage) GetNumEmptySlots() uint32 {
	cnt := uint32(0)
	for slot := uint32(0); slot < tp.numSlots; slot++ {
		if !tp.IsSlotUsed(slot) {
			cnt++
		}
	}
	return cnt
}

// InsertTuple stores the tuple in the first free slot and sets its RID
func (tp *TablePage) InsertTuple(tpl *tuple.Tuple) (*page.RID, error) {
	if tpl.Size() != tp.tupleSize {
		return nil, ErrTupleSize
	}

	for slot := uint32(0); slot < tp.numSlots; slot++ {
		if tp.IsSlotUsed(slot) {
			continue
		}
		tp.Copy(tp.slotOffset(slot), tpl.Data())
		tp.setSlotUsed(slot, true)

		rid := page.NewRID(tp.GetPageId(), slot)
		tpl.SetRID(rid)
		return rid, nil
	}
	return nil, ErrNotEnoughSpace
}

// DeleteTuple frees the slot of rid. The slot content is zeroed.
func (tp *TablePage) DeleteTuple(rid *page.RID) error {
	if rid.GetPageId() != tp.GetPageId() || !tp.IsSlotUsed(rid.GetSlotNum()) {
		return ErrTupleNotFound
	}
	offset := tp.slotOffset(rid.GetSlotNum())
	clear(tp.Data()[offset : offset+tp.tupleSize])
	tp.setSlotUsed(rid.GetSlotNum(), false)
	return nil
}

// GetTuple returns a copy of the tuple at rid
func (tp *TablePage) GetTuple(rid *page.RID) (*tuple.Tuple, error) {
	if rid.GetPageId() != tp.GetPageId() || !tp.IsSlotUsed(rid.GetSlotNum()) {
		return nil, ErrTupleNotFound
	}
	offset := tp.slotOffset(rid.GetSlotNum())
	data := make([]byte, tp.tupleSize)
	copy(data, tp.Data()[offset:offset+tp.tupleSize])
	return tuple.NewTuple(page.NewRID(tp.GetPageId(), rid.GetSlotNum()), data), nil
}

// GetTuples returns copies of every stored tuple in slot order
func (tp *TablePage) GetTuples() []*tuple.Tuple {
	ret := make([]*tuple.Tuple, 0)
	for slot := uint32(0); slot < tp.numSlots; slot++ {
		if !tp.IsSlotUsed(slot) {
			continue
		}
		tpl, _ := tp.GetTuple(page.NewRID(tp.GetPageId(), slot))
		ret = append(ret, tpl)
	}
	return ret
}
