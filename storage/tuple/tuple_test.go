package tuple

import (
	"testing"

	"github.com/ryogrid/SamehadaCore/storage/page"
	testingpkg "github.com/ryogrid/SamehadaCore/testing/testing_assert"
	"github.com/ryogrid/SamehadaCore/types"
)

func TestTuple(t *testing.T) {
	tuple := NewTupleFromInt32s(99, -1, 100)

	testingpkg.Equals(t, int32(99), tuple.GetInt32(0))
	testingpkg.Equals(t, int32(-1), tuple.GetInt32(1))
	testingpkg.Equals(t, int32(100), tuple.GetInt32(2))
	testingpkg.Equals(t, uint32(12), tuple.Size())
	testingpkg.Equals(t, (*page.RID)(nil), tuple.GetRID())

	tuple.SetRID(page.NewRID(types.NewPageID(1, 0), 4))
	testingpkg.Equals(t, uint32(4), tuple.GetRID().GetSlotNum())
}
