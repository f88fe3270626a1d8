// Package job holds the periodic tasks scheduled by the web server.
package job

import (
	"github.com/dispatchhub/dispatch/database"
	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/util/common"
)

// CheckpointJob folds the SQLite write-ahead log back into the database file.
type CheckpointJob struct {
	checkpoint func() error
}

func NewCheckpointJob() *CheckpointJob {
	return &CheckpointJob{checkpoint: database.Checkpoint}
}

// Here Run is an interface method of the Job interface
func (j *CheckpointJob) Run() {
	defer common.Recover("checkpoint job")

	if err := j.checkpoint(); err != nil {
		logger.Warning("checkpoint job err:", err)
		return
	}
	logger.Debug("wal checkpoint done")
}
