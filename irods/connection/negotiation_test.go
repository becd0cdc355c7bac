package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

func TestNegotiationMatrix(t *testing.T) {
	tests := []struct {
		client      types.CSNegotiationPolicy
		server      types.CSNegotiationPolicy
		useSSL      bool
		expectError bool
	}{
		{types.CSNegotiationRequireSSL, types.CSNegotiationRequireSSL, true, false},
		{types.CSNegotiationRequireSSL, types.CSNegotiationDontCare, true, false},
		{types.CSNegotiationRequireSSL, types.CSNegotiationRefuseSSL, false, true},
		{types.CSNegotiationDontCare, types.CSNegotiationRequireSSL, true, false},
		{types.CSNegotiationDontCare, types.CSNegotiationDontCare, false, false},
		{types.CSNegotiationDontCare, types.CSNegotiationRefuseSSL, false, false},
		{types.CSNegotiationRefuseSSL, types.CSNegotiationRequireSSL, false, true},
		{types.CSNegotiationRefuseSSL, types.CSNegotiationDontCare, false, false},
		{types.CSNegotiationRefuseSSL, types.CSNegotiationRefuseSSL, false, false},
	}

	for _, test := range tests {
		useSSL, err := Negotiate(test.client, test.server)
		if test.expectError {
			assert.Error(t, err, "client %s server %s", test.client, test.server)
			assert.True(t, types.IsNegotiationError(err))
		} else {
			assert.NoError(t, err, "client %s server %s", test.client, test.server)
			assert.Equal(t, test.useSSL, useSSL, "client %s server %s", test.client, test.server)
		}
	}
}

func TestNegotiationUnknownPolicy(t *testing.T) {
	_, err := Negotiate(types.CSNegotiationPolicy("CS_NEG_BOGUS"), types.CSNegotiationDontCare)
	assert.Error(t, err)
	assert.True(t, types.IsNegotiationError(err))
}
