package samehada

import (
	"errors"
	"path/filepath"

	"github.com/ryogrid/SamehadaCore/catalog"
	"github.com/ryogrid/SamehadaCore/common"
	"github.com/ryogrid/SamehadaCore/concurrency"
	"github.com/ryogrid/SamehadaCore/samehada/samehada_util"
	"github.com/ryogrid/SamehadaCore/storage/access"
	"github.com/ryogrid/SamehadaCore/storage/buffer"
	"github.com/ryogrid/SamehadaCore/storage/page"
	"github.com/ryogrid/SamehadaCore/storage/tuple"
	"github.com/ryogrid/SamehadaCore/types"
	"github.com/sirupsen/logrus"
)

type SamehadaInstance struct {
	cfg                 *Config
	lock_manager        *concurrency.LockManager
	bpm                 *buffer.BufferPoolManager
	catalog             *catalog.TableCatalog
	transaction_manager *access.TransactionManager
}

func NewSamehadaInstanceForTesting() *SamehadaInstance {
	cfg := NewConfig()
	cfg.PoolSize = common.BufferPoolMaxFrameNumForTest
	cfg.OnMemory = common.EnableOnMemStorage
	cfg.LogLevel = common.WARN | common.ERROR | common.FATAL
	return NewSamehadaInstance(cfg)
}

// NewSamehadaInstance wires the lock manager, the buffer pool, the catalog and
// the transaction manager. cfg also sets the process wide log mask and debug switch.
func NewSamehadaInstance(cfg *Config) *SamehadaInstance {
	common.LogLevelSetting = cfg.LogLevel
	common.SetDebug(cfg.EnableDebug)

	lock_manager := concurrency.NewLockManager()
	bpm := buffer.NewBufferPoolManager(cfg.PoolSize, lock_manager)
	c := catalog.NewTableCatalog(bpm)
	transaction_manager := access.NewTransactionManager(bpm)

	common.ShLogWithFields(common.INFO, logrus.Fields{"pool_size": cfg.PoolSize, "data_dir": cfg.DataDir, "on_memory": cfg.OnMemory}, "SamehadaInstance: started\n")
	return &SamehadaInstance{cfg, lock_manager, bpm, c, transaction_manager}
}

func (si *SamehadaInstance) GetConfig() *Config {
	return si.cfg
}

func (si *SamehadaInstance) GetLockManager() *concurrency.LockManager {
	return si.lock_manager
}

func (si *SamehadaInstance) GetBufferPoolManager() *buffer.BufferPoolManager {
	return si.bpm
}

func (si *SamehadaInstance) GetCatalog() *catalog.TableCatalog {
	return si.catalog
}

func (si *SamehadaInstance) GetTransactionManager() *access.TransactionManager {
	return si.transaction_manager
}

// CreateTable opens the table name. Its file is <data dir>/<name>.db unless
// the instance keeps tables in memory.
func (si *SamehadaInstance) CreateTable(name string, tupleSize uint32) (*catalog.TableMetadata, error) {
	if si.cfg.OnMemory {
		return si.catalog.CreateTableOnMemory(name, tupleSize)
	}
	path := filepath.Join(si.cfg.DataDir, name+".db")
	if samehada_util.FileExists(path) {
		common.ShPrintf(common.INFO, "SamehadaInstance: reopening %s\n", path)
	}
	return si.catalog.CreateTable(path, tupleSize)
}

func (si *SamehadaInstance) Begin() *access.Transaction {
	return si.transaction_manager.Begin(nil)
}

func (si *SamehadaInstance) Commit(txn *access.Transaction) error {
	return si.transaction_manager.Commit(txn)
}

func (si *SamehadaInstance) Abort(txn *access.Transaction) {
	si.transaction_manager.Abort(txn)
}

// abortIfDoomed unwinds txn when err says it lost a deadlock
func (si *SamehadaInstance) abortIfDoomed(txn *access.Transaction, err error) error {
	if errors.Is(err, concurrency.ErrTransactionAborted) {
		si.transaction_manager.Abort(txn)
	}
	return err
}

// GetPage fetches the page under a lock of perm. When txn is chosen as a deadlock
// victim it is aborted before the error is returned.
func (si *SamehadaInstance) GetPage(txn *access.Transaction, pageID types.PageID, perm types.Permission) (*page.Page, error) {
	pg, err := si.bpm.GetPage(txn.GetTransactionId(), pageID, perm)
	if err != nil {
		return nil, si.abortIfDoomed(txn, err)
	}
	return pg, nil
}

func (si *SamehadaInstance) ReleasePage(txn *access.Transaction, pageID types.PageID) {
	si.bpm.ReleasePage(txn.GetTransactionId(), pageID)
}

func (si *SamehadaInstance) HoldsLock(txn *access.Transaction, pageID types.PageID) bool {
	return si.bpm.HoldsLock(txn.GetTransactionId(), pageID)
}

func (si *SamehadaInstance) InsertTuple(txn *access.Transaction, tableID uint32, tpl *tuple.Tuple) error {
	return si.abortIfDoomed(txn, si.bpm.InsertTuple(txn.GetTransactionId(), tableID, tpl))
}

func (si *SamehadaInstance) DeleteTuple(txn *access.Transaction, tpl *tuple.Tuple) error {
	return si.abortIfDoomed(txn, si.bpm.DeleteTuple(txn.GetTransactionId(), tpl))
}

// Scan returns an iterator over every tuple of the table
func (si *SamehadaInstance) Scan(txn *access.Transaction, tableID uint32) (buffer.TupleIterator, error) {
	store, err := si.catalog.GetPageStore(tableID)
	if err != nil {
		return nil, err
	}
	it, err := store.Scan(txn.GetTransactionId())
	if err != nil {
		return nil, si.abortIfDoomed(txn, err)
	}
	return it, nil
}

// DeleteAll deletes every tuple of the table for which pred is true and
// returns how many were deleted. A nil pred matches every tuple.
func (si *SamehadaInstance) DeleteAll(txn *access.Transaction, tableID uint32, pred func(*tuple.Tuple) bool) (int, error) {
	it, err := si.Scan(txn, tableID)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	targets := make([]*tuple.Tuple, 0)
	for tpl := it.Current(); !it.End(); {
		if pred == nil || pred(tpl) {
			targets = append(targets, tpl)
		}
		if tpl, err = it.Next(); err != nil {
			return 0, si.abortIfDoomed(txn, err)
		}
	}

	for i, tpl := range targets {
		if err = si.DeleteTuple(txn, tpl); err != nil {
			return i, err
		}
	}
	common.ShLogWithFields(common.DEBUG_INFO, logrus.Fields{"txn": txn.GetTransactionId(), "table": tableID, "deleted": len(targets)}, "SamehadaInstance::DeleteAll\n")
	return len(targets), nil
}

func (si *SamehadaInstance) DiscardPage(pageID types.PageID) {
	si.bpm.DiscardPage(pageID)
}

func (si *SamehadaInstance) FlushPages(txn *access.Transaction) error {
	return si.bpm.FlushPages(txn.GetTransactionId())
}

func (si *SamehadaInstance) FlushAllPages() error {
	return si.bpm.FlushAllPages()
}

// Shutdown flushes every dirty page and closes the table files.
// Transactions still running lose their isolation at this point.
func (si *SamehadaInstance) Shutdown() error {
	err := si.bpm.FlushAllPages()
	si.catalog.Close()
	if err != nil {
		common.ShLogWithFields(common.ERROR, logrus.Fields{"err": err}, "SamehadaInstance: flush at shutdown failed\n")
	}
	return err
}
