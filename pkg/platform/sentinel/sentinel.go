package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, the connector factory, and
// other infrastructure layers return these (optionally wrapped) so services can
// translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: jurisdiction or entity does not exist
// - ErrExpired: cache entry aged past its TTL
// - ErrNoStrategy: descriptor has no usable access strategy at the requested ceiling
// - ErrCredentialMissing: a strategy needs credentials the caller did not supply
// - ErrUnavailable: no strategy could produce a live connector
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrExpired           = errors.New("expired")
	ErrNoStrategy        = errors.New("no strategy available")
	ErrCredentialMissing = errors.New("credential missing")
	ErrUnavailable       = errors.New("unavailable")
)
