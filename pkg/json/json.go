package json

import jsoniter "github.com/json-iterator/go"

var (
	// JSON is the instance of jsoniter.API that should be used throughout the codebase
	JSON = jsoniter.ConfigCompatibleWithStandardLibrary

	// Marshal is a shorthand for JSON.Marshal
	Marshal = JSON.Marshal

	// Unmarshal is a shorthand for JSON.Unmarshal
	Unmarshal = JSON.Unmarshal

	// NewDecoder is a shorthand for JSON.NewDecoder
	NewDecoder = JSON.NewDecoder

	// NewEncoder is a shorthand for JSON.NewEncoder
	NewEncoder = JSON.NewEncoder
)

// RawMessage is a raw encoded JSON value, used to embed an already-encoded
// self-describing payload inside an envelope without re-parsing it.
type RawMessage = jsoniter.RawMessage
