package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyverse/go-irodsgrid/irods/message"
)

func TestPartitionSpansCoversWholeRange(t *testing.T) {
	tests := []struct {
		size  int64
		count int
	}{
		{0, 4},
		{1, 4},
		{3, 4},
		{4, 4},
		{100, 1},
		{100, 3},
		{1024 * 1024, 4},
		{200 * 1024 * 1024, 4},
		{7, 16},
	}

	for _, test := range tests {
		spans := partitionSpans(test.size, test.count)

		position := int64(0)
		total := int64(0)
		for _, s := range spans {
			// contiguous, no overlap
			assert.Equal(t, position, s.offset, "size %d count %d", test.size, test.count)
			assert.GreaterOrEqual(t, s.length, int64(0))
			position += s.length
			total += s.length
		}

		assert.Equal(t, test.size, total, "size %d count %d", test.size, test.count)
	}
}

func TestPartitionSpansSmallFileUsesFewerWorkers(t *testing.T) {
	spans := partitionSpans(3, 16)
	assert.Len(t, spans, 3)
}

func TestEndpointsFromPortalResponse(t *testing.T) {
	portal := &message.IRODSMessagePortalOprResponse{
		FileDescriptor: 3,
		Threads:        4,
		PortList: []message.IRODSMessagePortList{
			{
				Port:     20199,
				Cookie:   680551,
				HostAddr: "data.example",
			},
		},
	}

	endpoints := EndpointsFromPortalResponse(portal, "control.example")
	assert.Len(t, endpoints, 4)

	for _, endpoint := range endpoints {
		assert.Equal(t, "data.example", endpoint.Host)
		assert.Equal(t, 20199, endpoint.Port)
		assert.Equal(t, int32(680551), endpoint.Cookie)
	}
}

func TestEndpointsFromPortalResponseFallsBackToControlHost(t *testing.T) {
	portal := &message.IRODSMessagePortalOprResponse{
		Threads: 2,
		PortList: []message.IRODSMessagePortList{
			{
				Port:   20200,
				Cookie: 42,
			},
		},
	}

	endpoints := EndpointsFromPortalResponse(portal, "control.example")
	assert.Len(t, endpoints, 2)
	assert.Equal(t, "control.example", endpoints[0].Host)
}

func TestEndpointsFromPortalResponseEmpty(t *testing.T) {
	portal := &message.IRODSMessagePortalOprResponse{}
	assert.Nil(t, EndpointsFromPortalResponse(portal, "control.example"))
}
