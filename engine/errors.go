package engine

import "errors"

var (
	// ErrDataDirLocked indicates another process holds the data directory.
	ErrDataDirLocked = errors.New("engine: data directory locked by another process")

	// ErrNoKeyStore indicates a persistent backend opened with nowhere
	// durable to keep wallet keys.
	ErrNoKeyStore = errors.New("engine: persistent backend needs a key store or keyring password")
)
