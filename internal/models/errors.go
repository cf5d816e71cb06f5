package models

import "errors"

// Error kinds shared across packages. Wrap them with fmt.Errorf("%w: ...")
// and match with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrLoad          = errors.New("load error")
	ErrIndexWrite    = errors.New("index write error")
	ErrRetrieval     = errors.New("retrieval error")
	ErrGeneration    = errors.New("generation error")
	ErrTransport     = errors.New("transport error")
)
