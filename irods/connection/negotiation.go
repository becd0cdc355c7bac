package connection

import (
	"github.com/cyverse/go-irodsgrid/irods/types"
)

// Negotiate runs the client-server negotiation matrix and decides whether
// the connection is encrypted. Incompatible stances
// (REQUIRE x REFUSE) fail with a NegotiationError.
func Negotiate(clientPolicy types.CSNegotiationPolicy, serverPolicy types.CSNegotiationPolicy) (bool, error) {
	switch clientPolicy {
	case types.CSNegotiationRequireSSL:
		switch serverPolicy {
		case types.CSNegotiationRequireSSL, types.CSNegotiationDontCare:
			return true, nil
		case types.CSNegotiationRefuseSSL:
			return false, types.NewNegotiationErrorf("client requires SSL but server refuses")
		}
	case types.CSNegotiationDontCare:
		switch serverPolicy {
		case types.CSNegotiationRequireSSL:
			return true, nil
		case types.CSNegotiationDontCare, types.CSNegotiationRefuseSSL:
			return false, nil
		}
	case types.CSNegotiationRefuseSSL:
		switch serverPolicy {
		case types.CSNegotiationRequireSSL:
			return false, types.NewNegotiationErrorf("client refuses SSL but server requires")
		case types.CSNegotiationDontCare, types.CSNegotiationRefuseSSL:
			return false, nil
		}
	}

	return false, types.NewNegotiationErrorf("unknown negotiation policy pair (client %q, server %q)", clientPolicy, serverPolicy)
}
