// package concurrency
// package transaction
package access

import (
	"sync/atomic"

	"github.com/ryogrid/SamehadaCore/types"
)

/**
 * Transaction states:
 *
 * GROWING -> COMMITTED
 *    |
 *    +----> ABORTED
 *
 * Locks are kept until the transaction ends (strict two-phase locking),
 * so there is no SHRINKING state.
 **/
type TransactionState int32

const (
	GROWING TransactionState = iota
	COMMITTED
	ABORTED
)

func (s TransactionState) String() string {
	switch s {
	case GROWING:
		return "GROWING"
	case COMMITTED:
		return "COMMITTED"
	case ABORTED:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

/**
 * Transaction tracks information related to a transaction.
 */
type Transaction struct {
	/** The current transaction state. (accessed atomically) */
	state int32

	/** The id of this transaction. */
	txn_id types.TxnID
}

func NewTransaction(txn_id types.TxnID) *Transaction {
	return &Transaction{int32(GROWING), txn_id}
}

/** @return the id of this transaction */
func (txn *Transaction) GetTransactionId() types.TxnID { return txn.txn_id }

/** @return the current state of the transaction */
func (txn *Transaction) GetState() TransactionState {
	return TransactionState(atomic.LoadInt32(&txn.state))
}

/**
 * Set the state of the transaction.
 * @param state new state
 */
func (txn *Transaction) SetState(state TransactionState) {
	atomic.StoreInt32(&txn.state, int32(state))
}
