package database

import (
	"github.com/syndtr/goleveldb/leveldb"
)

// NewLevelDB opens (or creates) the device store at path.
func NewLevelDB(path string) (*leveldb.DB, error) {
	return leveldb.OpenFile(path, nil)
}
