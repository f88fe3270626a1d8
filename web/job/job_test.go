package job

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/stretchr/testify/assert"
)

func TestCheckpointJob(t *testing.T) {
	calls := 0
	j := &CheckpointJob{checkpoint: func() error {
		calls++
		if calls == 2 {
			return errors.New("database is locked")
		}
		return nil
	}}
	j.Run()
	j.Run()
	assert.Equal(t, 2, calls)

	assert.NotPanics(t, NewCheckpointJob().Run)
}

func TestJobsRecoverFromPanic(t *testing.T) {
	checkpoint := &CheckpointJob{checkpoint: func() error { panic("wal file gone") }}
	assert.NotPanics(t, checkpoint.Run)

	memJob := NewCheckMemJob(90)
	memJob.virtualMemory = func() (*mem.VirtualMemoryStat, error) { return nil, nil }
	assert.NotPanics(t, memJob.Run)
	assert.False(t, memJob.Exceeded())
}

func TestCheckMemJob(t *testing.T) {
	used := uint64(50)
	j := NewCheckMemJob(90)
	j.virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Used: used, Total: 100}, nil
	}

	j.Run()
	assert.False(t, j.Exceeded())

	used = 95
	j.Run()
	assert.True(t, j.Exceeded())

	used = 10
	j.Run()
	assert.False(t, j.Exceeded())

	j.virtualMemory = func() (*mem.VirtualMemoryStat, error) { return nil, errors.New("no procfs") }
	j.Run()
	assert.False(t, j.Exceeded())
}
