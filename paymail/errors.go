package paymail

import "errors"

var (
	// ErrInvalidHandle indicates the string is not alias@domain.
	ErrInvalidHandle = errors.New("paymail: invalid handle")

	// ErrDNSLookupFailed indicates a DNS SRV lookup failed.
	ErrDNSLookupFailed = errors.New("paymail: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not set the AD flag.
	ErrDNSSECValidationFailed = errors.New("paymail: DNSSEC validation failed")

	// ErrDiscovery indicates .well-known/bsvalias could not be fetched or parsed.
	ErrDiscovery = errors.New("paymail: capability discovery failed")

	// ErrPKIResolution indicates the PKI endpoint failed or is not advertised.
	ErrPKIResolution = errors.New("paymail: PKI resolution failed")

	// ErrInvalidPubKey indicates a public key is not a valid compressed secp256k1 key.
	ErrInvalidPubKey = errors.New("paymail: invalid compressed public key")
)
