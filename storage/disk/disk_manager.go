package disk

// DiskManager is responsible for interacting with the file which backs one table.
// Page n occupies the byte range [n*PageSize, (n+1)*PageSize).
type DiskManager interface {
	// ReadPage fills pageData with the content of page pageNo. A region which was
	// never written (past the end of file or a hole) reads as zeros.
	ReadPage(pageNo int32, pageData []byte) error
	// WritePage writes pageData at the offset of pageNo. The file grows as needed.
	WritePage(pageNo int32, pageData []byte) error
	GetNumWrites() uint64
	ShutDown()
	// Size returns the size of the file in bytes
	Size() int64
	RemoveDBFile()
}
