// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import (
	"fmt"
	"sync/atomic"

	"github.com/ryogrid/SamehadaCore/common"
)

// TxnID is the type of the transaction identifier
type TxnID int32

const InvalidTxnID = TxnID(common.InvalidTxnID)

func (id TxnID) IsValid() bool {
	return id != InvalidTxnID
}

func (id TxnID) String() string {
	return fmt.Sprintf("txn-%d", int32(id))
}

// TxnIDGenerator hands out unique, increasing transaction ids
type TxnIDGenerator struct {
	next int32
}

func NewTxnIDGenerator(start int32) *TxnIDGenerator {
	return &TxnIDGenerator{start}
}

func (g *TxnIDGenerator) Next() TxnID {
	return TxnID(atomic.AddInt32(&g.next, 1) - 1)
}
