package llm

import (
	"errors"
	"net"
	"syscall"
)

// IsConnectionFailure reports whether err means the backend could not be
// reached at all: refused or reset connections, unresolvable hosts, or dial
// failures.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var dnsError *net.DNSError
	if errors.As(err, &dnsError) {
		return true
	}
	var operationError *net.OpError
	if errors.As(err, &operationError) {
		return operationError.Op == "dial"
	}
	return false
}
