// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"github.com/ryogrid/SamehadaCore/types"
)

// LRUReplacer tracks resident pages in least recently used order
type LRUReplacer struct {
	cList *circularList
}

// Victim removes and returns the least recently used page for which
// isEvictable returns true
func (l *LRUReplacer) Victim(isEvictable func(types.PageID) bool) (types.PageID, bool) {
	for _, pid := range l.cList.keys() {
		if isEvictable(pid) {
			l.cList.remove(pid)
			return pid, true
		}
	}
	return types.InvalidPageID, false
}

// Access marks the page as the most recently used one
func (l *LRUReplacer) Access(pid types.PageID) {
	l.cList.insert(pid)
}

// Remove forgets the page
func (l *LRUReplacer) Remove(pid types.PageID) {
	l.cList.remove(pid)
}

// Size returns the number of tracked pages
func (l *LRUReplacer) Size() uint32 {
	return l.cList.size
}

func (l *LRUReplacer) String() string {
	return l.cList.String()
}

func NewLRUReplacer(poolSize uint32) *LRUReplacer {
	return &LRUReplacer{newCircularList(poolSize)}
}
