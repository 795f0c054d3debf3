package access

import (
	"sync"

	"github.com/ryogrid/SamehadaCore/common"
	"github.com/ryogrid/SamehadaCore/errors"
	"github.com/ryogrid/SamehadaCore/storage/buffer"
	"github.com/ryogrid/SamehadaCore/types"
	"github.com/sirupsen/logrus"
)

const ErrTransactionEnded = errors.Error("transaction already ended")

/**
 * TransactionManager keeps track of all the transactions running in the system.
 */
type TransactionManager struct {
	txnIDGen *types.TxnIDGenerator
	bpm      *buffer.BufferPoolManager
	txn_map  map[types.TxnID]*Transaction
	mutex    *sync.Mutex
}

func NewTransactionManager(bpm *buffer.BufferPoolManager) *TransactionManager {
	return &TransactionManager{types.NewTxnIDGenerator(0), bpm, make(map[types.TxnID]*Transaction), new(sync.Mutex)}
}

// Begin registers txn. A new transaction is created when txn is nil.
func (transaction_manager *TransactionManager) Begin(txn *Transaction) *Transaction {
	txn_ret := txn
	if txn_ret == nil {
		txn_ret = NewTransaction(transaction_manager.txnIDGen.Next())
	}

	transaction_manager.mutex.Lock()
	transaction_manager.txn_map[txn_ret.GetTransactionId()] = txn_ret
	transaction_manager.mutex.Unlock()

	common.ShLogWithFields(common.RDB_OP_FUNC_CALL, logrus.Fields{"txn": txn_ret.GetTransactionId()}, "TransactionManager::Begin\n")
	return txn_ret
}

// Commit flushes the pages txn dirtied and releases its locks
func (transaction_manager *TransactionManager) Commit(txn *Transaction) error {
	if txn.GetState() != GROWING {
		return ErrTransactionEnded
	}
	err := transaction_manager.bpm.TransactionCompleteWithStatus(txn.GetTransactionId(), true)
	if err != nil {
		// unwritten pages were discarded and the locks are gone already
		txn.SetState(ABORTED)
	} else {
		txn.SetState(COMMITTED)
	}
	transaction_manager.forget(txn)

	common.ShLogWithFields(common.RDB_OP_FUNC_CALL, logrus.Fields{"txn": txn.GetTransactionId(), "err": err}, "TransactionManager::Commit\n")
	return err
}

// Abort discards the pages txn dirtied and releases its locks
func (transaction_manager *TransactionManager) Abort(txn *Transaction) {
	if txn.GetState() == COMMITTED {
		return
	}
	transaction_manager.bpm.TransactionCompleteWithStatus(txn.GetTransactionId(), false)
	txn.SetState(ABORTED)
	transaction_manager.forget(txn)

	common.ShLogWithFields(common.RDB_OP_FUNC_CALL, logrus.Fields{"txn": txn.GetTransactionId()}, "TransactionManager::Abort\n")
}

func (transaction_manager *TransactionManager) forget(txn *Transaction) {
	transaction_manager.mutex.Lock()
	defer transaction_manager.mutex.Unlock()
	delete(transaction_manager.txn_map, txn.GetTransactionId())
}

// GetTransaction returns the running transaction of txnID
func (transaction_manager *TransactionManager) GetTransaction(txnID types.TxnID) (*Transaction, bool) {
	transaction_manager.mutex.Lock()
	defer transaction_manager.mutex.Unlock()
	txn, ok := transaction_manager.txn_map[txnID]
	return txn, ok
}

// GetActiveTransactionNum returns how many transactions are running
func (transaction_manager *TransactionManager) GetActiveTransactionNum() int {
	transaction_manager.mutex.Lock()
	defer transaction_manager.mutex.Unlock()
	return len(transaction_manager.txn_map)
}
