package disk

import (
	"io"
	"sync"

	"github.com/dsnet/golib/memfile"
	pkgerrors "github.com/pkg/errors"
	"github.com/ryogrid/SamehadaCore/common"
)

// VirtualDiskManagerImpl is the in-memory implementation of DiskManager.
// memfile grows on WriteAt past the end and fills the gap with zeros.
type VirtualDiskManagerImpl struct {
	db        *memfile.File
	fileName  string
	numWrites uint64
	size      int64
	mutex     *sync.Mutex
}

func NewVirtualDiskManagerImpl(dbFilename string) DiskManager {
	file := memfile.New(make([]byte, 0))
	return &VirtualDiskManagerImpl{file, dbFilename, 0, 0, new(sync.Mutex)}
}

// ShutDown closes of the database file
func (d *VirtualDiskManagerImpl) ShutDown() {
	// do nothing
}

// Write a page to the database file
func (d *VirtualDiskManagerImpl) WritePage(pageNo int32, pageData []byte) error {
	if pageNo < 0 || len(pageData) != common.PageSize {
		return newStorageError("write", d.fileName, pageNo, pkgerrors.Errorf("invalid page write (len=%d)", len(pageData)))
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	offset := int64(pageNo) * int64(common.PageSize)
	if _, err := d.db.WriteAt(pageData, offset); err != nil {
		return newStorageError("write", d.fileName, pageNo, pkgerrors.Wrapf(err, "write at offset %d", offset))
	}

	if offset+int64(len(pageData)) > d.size {
		d.size = offset + int64(len(pageData))
	}
	d.numWrites++
	return nil
}

// Read a page from the database file
func (d *VirtualDiskManagerImpl) ReadPage(pageNo int32, pageData []byte) error {
	if pageNo < 0 || len(pageData) != common.PageSize {
		return newStorageError("read", d.fileName, pageNo, pkgerrors.Errorf("invalid page read (len=%d)", len(pageData)))
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	offset := int64(pageNo) * int64(common.PageSize)
	if offset >= d.size {
		clear(pageData)
		return nil
	}

	bytesRead, err := d.db.ReadAt(pageData, offset)
	if err != nil && err != io.EOF {
		return newStorageError("read", d.fileName, pageNo, pkgerrors.Wrapf(err, "read at offset %d", offset))
	}
	clear(pageData[bytesRead:])
	return nil
}

// GetNumWrites returns the number of disk writes
func (d *VirtualDiskManagerImpl) GetNumWrites() uint64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.numWrites
}

// Size returns the size of the file in disk
func (d *VirtualDiskManagerImpl) Size() int64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.size
}

// ATTENTION: this method can be call after calling of Shutdown method
func (d *VirtualDiskManagerImpl) RemoveDBFile() {
	// do nothing
}

// Corrupt flips the bits of one byte stored in the file. Used by tests which
// check that damaged pages are detected.
func (d *VirtualDiskManagerImpl) Corrupt(pageNo int32, offsetInPage int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	buf := d.db.Bytes()
	pos := int(pageNo)*common.PageSize + offsetInPage
	if pos < len(buf) {
		buf[pos] ^= 0xff
	}
}
