package catalog

import (
	"path/filepath"
	"testing"

	"github.com/ryogrid/SamehadaCore/concurrency"
	"github.com/ryogrid/SamehadaCore/storage/buffer"
	"github.com/ryogrid/SamehadaCore/storage/tuple"
	testingpkg "github.com/ryogrid/SamehadaCore/testing/testing_assert"
	"github.com/ryogrid/SamehadaCore/types"
)

func TestTableIDFromPath(t *testing.T) {
	dir := t.TempDir()
	id1, err := TableIDFromPath(filepath.Join(dir, "a.db"))
	testingpkg.Ok(t, err)
	id2, err := TableIDFromPath(filepath.Join(dir, ".", "a.db"))
	testingpkg.Ok(t, err)
	id3, err := TableIDFromPath(filepath.Join(dir, "b.db"))
	testingpkg.Ok(t, err)

	testingpkg.Equals(t, id1, id2)
	testingpkg.SimpleAssert(t, id1 != id3)
}

func TestCreateAndReopenTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	bpm := buffer.NewBufferPoolManager(8, concurrency.NewLockManager())
	c := NewTableCatalog(bpm)
	table, err := c.CreateTable(path, 4)
	testingpkg.Ok(t, err)
	_, err = c.CreateTable(path, 4)
	testingpkg.Nok(t, err, ErrTableExists)
	testingpkg.Equals(t, table, c.GetTableByName(path))

	store, err := c.GetPageStore(table.OID())
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, table.OID(), store.GetTableId())
	_, err = c.GetPageStore(table.OID() + 1)
	testingpkg.Nok(t, err, buffer.ErrTableNotFound)

	txnID := types.TxnID(1)
	for i := int32(0); i < 10; i++ {
		testingpkg.Ok(t, bpm.InsertTuple(txnID, table.OID(), tuple.NewTupleFromInt32s(i)))
	}
	testingpkg.Ok(t, bpm.TransactionComplete(txnID))
	c.Close()

	// a new process sees the same table id and the committed tuples
	bpm = buffer.NewBufferPoolManager(8, concurrency.NewLockManager())
	c = NewTableCatalog(bpm)
	reopened, err := c.CreateTable(path, 4)
	testingpkg.Ok(t, err)
	defer c.Close()
	testingpkg.Equals(t, table.OID(), reopened.OID())
	testingpkg.Equals(t, int32(1), reopened.Table().NumPages())

	it, err := reopened.Table().Iterator(txnID)
	testingpkg.Ok(t, err)
	cnt := int32(0)
	for tpl := it.Current(); !it.End(); tpl, err = it.Next() {
		testingpkg.Ok(t, err)
		testingpkg.Equals(t, cnt, tpl.GetInt32(0))
		cnt++
	}
	testingpkg.Equals(t, int32(10), cnt)
}

func TestCreateTableOnMemory(t *testing.T) {
	c := NewTableCatalog(buffer.NewBufferPoolManager(8, concurrency.NewLockManager()))
	defer c.Close()

	t1, err := c.CreateTableOnMemory("t1", 8)
	testingpkg.Ok(t, err)
	t2, err := c.CreateTableOnMemory("t2", 16)
	testingpkg.Ok(t, err)
	_, err = c.CreateTableOnMemory("t1", 8)
	testingpkg.Nok(t, err, ErrTableExists)
	_, err = c.CreateTableOnMemory("huge", 8192)
	testingpkg.SimpleAssert(t, err != nil)

	testingpkg.Equals(t, uint32(16), t2.TupleSize())
	testingpkg.Equals(t, 2, len(c.GetAllTables()))
	testingpkg.Equals(t, t1, c.GetTableByOID(t1.OID()))
	testingpkg.Equals(t, (*TableMetadata)(nil), c.GetTableByName("none"))
}
