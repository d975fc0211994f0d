package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sarpt/crt-jukebox/internal/metrics"
)

const (
	// BlobsPath is the path under which blob contents are served.
	BlobsPath = "/blobs/"

	blobFilePerm = 0600
	blobDirPerm  = 0750
)

var (
	// ErrBlobNotFound informs that the blob was never allocated or was already revoked.
	ErrBlobNotFound = errors.New("blob with provided id does not exist")

	errBlobAllocationFailed = errors.New("could not allocate blob")
)

// Blob describes content allocated for an uploaded file.
type Blob struct {
	ID   string
	Name string
	Path string
	Size int64
}

// BlobStore holds uploaded contents behind revocable urls.
type BlobStore struct {
	baseURL string
	dir     string
	items   map[string]Blob
	lock    *sync.RWMutex
}

type BlobStoreConfig struct {
	// BaseURL is prepended to the BlobsPath, eg. "http://localhost:3001".
	BaseURL string
	// Dir holds blob contents.
	Dir string
}

func NewBlobStore(cfg BlobStoreConfig) (*BlobStore, error) {
	err := os.MkdirAll(cfg.Dir, blobDirPerm)
	if err != nil {
		return nil, fmt.Errorf("%w: could not create blob directory: %s", errBlobAllocationFailed, err)
	}

	return &BlobStore{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		dir:     cfg.Dir,
		items:   map[string]Blob{},
		lock:    &sync.RWMutex{},
	}, nil
}

// Allocate copies content into the store and returns a url under which it can be fetched until revoked.
func (bs *BlobStore) Allocate(name string, content io.Reader) (string, error) {
	id := uuid.NewString()
	path := filepath.Join(bs.dir, id+filepath.Ext(name))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, blobFilePerm)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errBlobAllocationFailed, err)
	}

	size, err := io.Copy(file, content)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: %s", errBlobAllocationFailed, err)
	}

	bs.lock.Lock()
	bs.items[id] = Blob{
		ID:   id,
		Name: name,
		Path: path,
		Size: size,
	}
	count := len(bs.items)
	bs.lock.Unlock()

	metrics.BlobsAllocated.Set(float64(count))
	return bs.URL(id), nil
}

// URL returns url of the blob with id.
func (bs *BlobStore) URL(id string) string {
	return bs.baseURL + BlobsPath + id
}

// ByID returns description of the blob with id.
func (bs *BlobStore) ByID(id string) (Blob, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	blob, ok := bs.items[id]
	if !ok {
		return Blob{}, ErrBlobNotFound
	}

	return blob, nil
}

// Count returns number of currently allocated blobs.
func (bs *BlobStore) Count() int {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	return len(bs.items)
}

// Revoke removes blob behind url. Urls not allocated by the store are ignored and false is returned.
func (bs *BlobStore) Revoke(url string) bool {
	prefix := bs.baseURL + BlobsPath
	if !strings.HasPrefix(url, prefix) {
		return false
	}

	id := strings.TrimPrefix(url, prefix)

	bs.lock.Lock()
	blob, ok := bs.items[id]
	delete(bs.items, id)
	count := len(bs.items)
	bs.lock.Unlock()

	if !ok {
		return false
	}

	os.Remove(blob.Path)
	metrics.BlobsAllocated.Set(float64(count))
	return true
}

// RevokeAll removes every allocated blob.
func (bs *BlobStore) RevokeAll() {
	bs.lock.Lock()
	items := bs.items
	bs.items = map[string]Blob{}
	bs.lock.Unlock()

	for _, blob := range items {
		os.Remove(blob.Path)
	}
	metrics.BlobsAllocated.Set(0)
}
