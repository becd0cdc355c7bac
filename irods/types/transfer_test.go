package types

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferControlBlockCounters(t *testing.T) {
	tcb := NewTransferControlBlock(TransferOptions{
		MaxThreads: 4,
	})

	assert.NotEmpty(t, tcb.GetID())

	tcb.SetTotalFiles(3)
	tcb.SetTotalBytes(300)
	assert.Equal(t, int64(3), tcb.GetTotalFiles())
	assert.Equal(t, int64(300), tcb.GetTotalBytes())

	tcb.AddTransferredBytes(100)
	tcb.AddTransferredBytes(200)
	assert.Equal(t, int64(300), tcb.GetTransferredBytes())

	tcb.IncrementTransferredFiles()
	assert.Equal(t, int64(1), tcb.GetTransferredFiles())

	tcb.IncrementErrorCount()
	assert.Equal(t, int64(1), tcb.GetErrorCount())
}

func TestTransferControlBlockConcurrentByteCounting(t *testing.T) {
	tcb := NewTransferControlBlock(TransferOptions{})

	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				tcb.AddTransferredBytes(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), tcb.GetTransferredBytes())
}

func TestTransferControlBlockCancel(t *testing.T) {
	tcb := NewTransferControlBlock(TransferOptions{})
	assert.False(t, tcb.Cancelled())

	tcb.Cancel()
	assert.True(t, tcb.Cancelled())

	// cancel is sticky
	tcb.Cancel()
	assert.True(t, tcb.Cancelled())
}

func TestTransferControlBlockOptions(t *testing.T) {
	tcb := NewTransferControlBlock(TransferOptions{
		Force:      true,
		MaxThreads: 2,
	})

	options := tcb.GetOptions()
	assert.True(t, options.Force)
	assert.Equal(t, 2, options.MaxThreads)

	options.MaxThreads = 8
	tcb.SetOptions(options)
	assert.Equal(t, 8, tcb.GetOptions().MaxThreads)
}

func TestTransferStateTerminal(t *testing.T) {
	assert.True(t, TransferStateOverallCompletion.IsTerminal())
	assert.True(t, TransferStateCancelled.IsTerminal())
	assert.False(t, TransferStateInProgress.IsTerminal())
	assert.False(t, TransferStateFailure.IsTerminal())
	assert.False(t, TransferStateSuccess.IsTerminal())
	assert.False(t, TransferStateOverallInitiation.IsTerminal())
}
