package interfaces

// -----------------------------------------------------------------------------
// Vault defines the contract for the persisted document store. Each document
// is a named unit loaded whole and replaced whole; there is no partial-write
// API, callers load, merge in memory, and save.
// -----------------------------------------------------------------------------

type Vault interface {

	// Load reads the named document into v. A missing or corrupt document
	// leaves v untouched and returns nil; only I/O-level failures error.
	Load(doc string, v interface{}) error

	// -----------------------------------------------------------------------------

	// Save atomically replaces the named document with the serialized v.
	// A failed save is reported to the caller; there is no internal retry.
	Save(doc string, v interface{}) error

	// -----------------------------------------------------------------------------

	// Close releases the backend.
	Close() error
}
