// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"fmt"

	"github.com/ryogrid/SamehadaCore/types"
)

type node struct {
	key  types.PageID
	next *node
	prev *node
}

// circularList keeps keys in insertion order. head is the oldest entry and
// tail is the newest one.
type circularList struct {
	head       *node
	tail       *node
	size       uint32
	capacity   uint32
	supportMap map[types.PageID]*node
}

func (c *circularList) hasKey(key types.PageID) bool {
	_, ok := c.supportMap[key]
	return ok
}

// insert appends key at tail. A key already in the list is moved to tail.
func (c *circularList) insert(key types.PageID) {
	if c.hasKey(key) {
		c.remove(key)
	}
	if c.size == c.capacity {
		panic("circularList::insert capacity is full")
	}

	newNode := &node{key, nil, nil}
	if c.size == 0 {
		newNode.next = newNode
		newNode.prev = newNode
		c.head = newNode
		c.tail = newNode
		c.size++
		c.supportMap[key] = newNode
		return
	}

	newNode.next = c.head
	newNode.prev = c.tail

	c.tail.next = newNode
	c.tail = newNode
	c.head.prev = c.tail

	c.size++
	c.supportMap[key] = newNode
}

func (c *circularList) remove(key types.PageID) {
	node, ok := c.supportMap[key]
	if !ok {
		return
	}

	if c.size == 1 {
		c.head = nil
		c.tail = nil
		c.size--
		delete(c.supportMap, key)
		return
	}

	if node == c.head {
		c.head = c.head.next
	}

	if node == c.tail {
		c.tail = c.tail.prev
	}

	node.next.prev = node.prev
	node.prev.next = node.next

	c.size--
	delete(c.supportMap, key)
}

// keys returns the keys from head to tail
func (c *circularList) keys() []types.PageID {
	ret := make([]types.PageID, 0, c.size)
	ptr := c.head
	for i := uint32(0); i < c.size; i++ {
		ret = append(ret, ptr.key)
		ptr = ptr.next
	}
	return ret
}

func (c *circularList) String() string {
	if c.size == 0 {
		return "circularList is empty."
	}
	ptr := c.head
	printStr := fmt.Sprintf("circularList size:%d supportMap len:%d |", c.size, len(c.supportMap))
	for i := uint32(0); i < c.size; i++ {
		printStr += fmt.Sprintf("-%v,%v,%v-", ptr.key, ptr.prev.key, ptr.next.key)
		ptr = ptr.next
	}
	return printStr
}

func newCircularList(maxSize uint32) *circularList {
	return &circularList{nil, nil, 0, maxSize, make(map[types.PageID]*node)}
}
