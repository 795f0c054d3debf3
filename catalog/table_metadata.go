package catalog

import (
	"github.com/ryogrid/SamehadaCore/storage/access"
)

type TableMetadata struct {
	name  string
	table *access.TableHeap
	oid   uint32
}

func (t *TableMetadata) Name() string {
	return t.name
}

func (t *TableMetadata) OID() uint32 {
	return t.oid
}

func (t *TableMetadata) Table() *access.TableHeap {
	return t.table
}

func (t *TableMetadata) TupleSize() uint32 {
	return t.table.GetTupleSize()
}
