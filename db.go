package newsletter

// Database is a storage backend that has to be opened before use
type Database interface {
	Open() error
	Close() error
}
