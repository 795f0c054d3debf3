// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package catalog

import (
	"path/filepath"
	"sort"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/ryogrid/SamehadaCore/common"
	"github.com/ryogrid/SamehadaCore/errors"
	"github.com/ryogrid/SamehadaCore/storage/access"
	"github.com/ryogrid/SamehadaCore/storage/buffer"
	"github.com/ryogrid/SamehadaCore/storage/disk"
	"github.com/spaolacci/murmur3"
)

const ErrTableExists = errors.Error("table already exists")

// TableCatalog is a non-persistent catalog. It handles table creation and table lookup.
// The id of a table is the murmur3 hash of the absolute path of its file, so the same
// file always gets the same id.
type TableCatalog struct {
	bpm        *buffer.BufferPoolManager
	tableIds   map[uint32]*TableMetadata
	tableNames map[string]*TableMetadata
	mutex      *sync.RWMutex
}

// NewTableCatalog creates an empty catalog and makes bpm look up tables in it
func NewTableCatalog(bpm *buffer.BufferPoolManager) *TableCatalog {
	c := &TableCatalog{bpm, make(map[uint32]*TableMetadata), make(map[string]*TableMetadata), new(sync.RWMutex)}
	bpm.SetCatalog(c)
	return c
}

// TableIDFromPath derives the table id from the file path
func TableIDFromPath(path string) (uint32, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return common.InvalidTableID, pkgerrors.WithStack(err)
	}
	return tableIDFromKey(abs), nil
}

func tableIDFromKey(key string) uint32 {
	h := murmur3.Sum32([]byte(key))
	if h == common.InvalidTableID {
		h++
	}
	return h
}

// CreateTable opens (or creates) the table file at path
func (c *TableCatalog) CreateTable(path string, tupleSize uint32) (*TableMetadata, error) {
	oid, err := TableIDFromPath(path)
	if err != nil {
		return nil, err
	}
	if c.GetTableByOID(oid) != nil {
		return nil, ErrTableExists
	}

	dm, err := disk.NewDiskManagerImpl(path)
	if err != nil {
		return nil, err
	}
	return c.register(oid, path, tupleSize, dm)
}

// CreateTableOnMemory creates a table whose pages are kept in memory only
func (c *TableCatalog) CreateTableOnMemory(name string, tupleSize uint32) (*TableMetadata, error) {
	oid := tableIDFromKey("mem:" + name)
	if c.GetTableByOID(oid) != nil {
		return nil, ErrTableExists
	}
	return c.register(oid, name, tupleSize, disk.NewVirtualDiskManagerImpl(name))
}

func (c *TableCatalog) register(oid uint32, name string, tupleSize uint32, dm disk.DiskManager) (*TableMetadata, error) {
	tableHeap, err := access.NewTableHeap(oid, name, tupleSize, dm, c.bpm)
	if err != nil {
		dm.ShutDown()
		return nil, err
	}
	tableMetadata := &TableMetadata{name, tableHeap, oid}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.tableIds[oid]; ok {
		dm.ShutDown()
		return nil, ErrTableExists
	}
	c.tableIds[oid] = tableMetadata
	c.tableNames[name] = tableMetadata

	common.ShPrintf(common.INFO, "TableCatalog: table %s (oid=%d, tuple size=%d) registered\n", name, oid, tupleSize)
	return tableMetadata, nil
}

func (c *TableCatalog) GetTableByName(table string) *TableMetadata {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if table, ok := c.tableNames[table]; ok {
		return table
	}
	return nil
}

func (c *TableCatalog) GetTableByOID(oid uint32) *TableMetadata {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if table, ok := c.tableIds[oid]; ok {
		return table
	}
	return nil
}

// GetPageStore is the lookup used by the BufferPoolManager
func (c *TableCatalog) GetPageStore(tableID uint32) (buffer.PageStore, error) {
	table := c.GetTableByOID(tableID)
	if table == nil {
		return nil, buffer.ErrTableNotFound
	}
	return table.Table(), nil
}

// GetAllTables returns the tables in oid order
func (c *TableCatalog) GetAllTables() []*TableMetadata {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	ret := make([]*TableMetadata, 0, len(c.tableIds))
	for _, table := range c.tableIds {
		ret = append(ret, table)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].oid < ret[j].oid })
	return ret
}

// Close shuts down the disk managers of every table. Pages must be flushed beforehand.
func (c *TableCatalog) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, table := range c.tableIds {
		table.Table().GetDiskManager().ShutDown()
	}
	c.tableIds = make(map[uint32]*TableMetadata)
	c.tableNames = make(map[string]*TableMetadata)
}
