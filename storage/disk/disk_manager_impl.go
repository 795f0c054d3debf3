// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"io"
	"os"
	"sync"

	"github.com/ncw/directio"
	pkgerrors "github.com/pkg/errors"
	"github.com/ryogrid/SamehadaCore/common"
)

// DiskManagerImpl is the disk implementation of DiskManager
type DiskManagerImpl struct {
	db *os.File
	// read-only handle opened with O_DIRECT. nil when the filesystem refuses it
	directDB  *os.File
	fileName  string
	numWrites uint64
	size      int64
	readBuf   []byte
	mutex     *sync.Mutex
}

// NewDiskManagerImpl opens (or creates) the table file and locks it for this process
func NewDiskManagerImpl(dbFilename string) (DiskManager, error) {
	file, err := os.OpenFile(dbFilename, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "can't open db file %s", dbFilename)
	}

	if err = lockFile(file); err != nil {
		file.Close()
		return nil, pkgerrors.Wrapf(err, "can't lock db file %s", dbFilename)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		unlockFile(file)
		file.Close()
		return nil, pkgerrors.Wrap(err, "file info error")
	}

	directFile, err := directio.OpenFile(dbFilename, os.O_RDONLY, 0666)
	if err != nil {
		common.ShPrintf(common.DEBUG_INFO, "DiskManagerImpl: direct I/O is not available for %s: %v\n", dbFilename, err)
		directFile = nil
	}

	common.ShPrintf(common.DEBUG_INFO, "DiskManagerImpl: opened %s (%d bytes)\n", dbFilename, fileInfo.Size())
	return &DiskManagerImpl{file, directFile, dbFilename, 0, fileInfo.Size(), directio.AlignedBlock(common.PageSize), new(sync.Mutex)}, nil
}

// IsDirectRead reports whether pages are read bypassing the OS page cache
func (d *DiskManagerImpl) IsDirectRead() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.directDB != nil
}

// caller must hold mutex
func (d *DiskManagerImpl) readAt(offset int64) (int, error) {
	if d.directDB != nil {
		n, err := d.directDB.ReadAt(d.readBuf, offset)
		if err == nil || err == io.EOF {
			return n, err
		}
		// some filesystems accept O_DIRECT at open but not on read
		common.ShPrintf(common.DEBUG_INFO, "DiskManagerImpl: direct read of %s failed, falling back: %v\n", d.fileName, err)
		d.directDB.Close()
		d.directDB = nil
	}
	return d.db.ReadAt(d.readBuf, offset)
}

// ShutDown closes of the database file
func (d *DiskManagerImpl) ShutDown() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.directDB != nil {
		d.directDB.Close()
		d.directDB = nil
	}
	unlockFile(d.db)
	d.db.Close()
}

// Write a page to the database file
func (d *DiskManagerImpl) WritePage(pageNo int32, pageData []byte) error {
	if pageNo < 0 || len(pageData) != common.PageSize {
		return newStorageError("write", d.fileName, pageNo, pkgerrors.Errorf("invalid page write (len=%d)", len(pageData)))
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	offset := int64(pageNo) * int64(common.PageSize)
	bytesWritten, err := d.db.WriteAt(pageData, offset)
	if err != nil {
		return newStorageError("write", d.fileName, pageNo, pkgerrors.Wrapf(err, "write at offset %d", offset))
	}
	if bytesWritten != common.PageSize {
		return newStorageError("write", d.fileName, pageNo, pkgerrors.New("bytes written not equals page size"))
	}
	if err = d.db.Sync(); err != nil {
		return newStorageError("write", d.fileName, pageNo, pkgerrors.WithStack(err))
	}

	if offset+int64(bytesWritten) > d.size {
		d.size = offset + int64(bytesWritten)
	}
	d.numWrites++
	return nil
}

// Read a page from the database file
func (d *DiskManagerImpl) ReadPage(pageNo int32, pageData []byte) error {
	if pageNo < 0 || len(pageData) != common.PageSize {
		return newStorageError("read", d.fileName, pageNo, pkgerrors.Errorf("invalid page read (len=%d)", len(pageData)))
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	offset := int64(pageNo) * int64(common.PageSize)
	if offset >= d.size {
		// not written yet. it is a fresh page
		clear(pageData)
		return nil
	}

	bytesRead, err := d.readAt(offset)
	if err != nil && err != io.EOF {
		return newStorageError("read", d.fileName, pageNo, pkgerrors.Wrapf(err, "read at offset %d", offset))
	}
	clear(d.readBuf[bytesRead:])
	copy(pageData, d.readBuf)
	return nil
}

// GetNumWrites returns the number of disk writes
func (d *DiskManagerImpl) GetNumWrites() uint64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.numWrites
}

// Size returns the size of the file in disk
func (d *DiskManagerImpl) Size() int64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.size
}

// ATTENTION: this method can be call after calling of Shutdown method
func (d *DiskManagerImpl) RemoveDBFile() {
	os.Remove(d.fileName)
}
