package buffer

import (
	"testing"

	testingpkg "github.com/ryogrid/SamehadaCore/testing/testing_assert"
	"github.com/ryogrid/SamehadaCore/types"
)

func pid(no int32) types.PageID {
	return types.NewPageID(1, no)
}

func TestLRUReplacer(t *testing.T) {
	replacer := NewLRUReplacer(7)
	all := func(types.PageID) bool { return true }

	// Scenario: access six elements, i.e. add them to the replacer.
	for i := int32(1); i <= 6; i++ {
		replacer.Access(pid(i))
	}
	// 1 becomes the most recently used
	replacer.Access(pid(1))
	testingpkg.Equals(t, uint32(6), replacer.Size())

	// Scenario: get three victims.
	victim, ok := replacer.Victim(all)
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, pid(2), victim)
	victim, _ = replacer.Victim(all)
	testingpkg.Equals(t, pid(3), victim)

	// Scenario: skip pages which are not evictable.
	victim, _ = replacer.Victim(func(p types.PageID) bool { return p != pid(4) })
	testingpkg.Equals(t, pid(5), victim)

	// Scenario: removed pages are never chosen.
	replacer.Remove(pid(4))
	replacer.Remove(pid(3))
	testingpkg.Equals(t, uint32(2), replacer.Size())

	victim, _ = replacer.Victim(all)
	testingpkg.Equals(t, pid(6), victim)
	victim, _ = replacer.Victim(all)
	testingpkg.Equals(t, pid(1), victim)

	_, ok = replacer.Victim(all)
	testingpkg.SimpleAssert(t, !ok)
}
