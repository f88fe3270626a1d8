package job

import (
	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/util/common"

	"github.com/shirou/gopsutil/v4/mem"
)

// CheckMemJob warns when host memory use crosses Threshold percent.
type CheckMemJob struct {
	Threshold float64

	virtualMemory func() (*mem.VirtualMemoryStat, error)
	exceeded      bool
}

func NewCheckMemJob(threshold float64) *CheckMemJob {
	return &CheckMemJob{Threshold: threshold, virtualMemory: mem.VirtualMemory}
}

// Here run is a interface method of Job interface
func (j *CheckMemJob) Run() {
	defer common.Recover("CheckMemJob")

	memInfo, err := j.virtualMemory()
	if err != nil {
		logger.Error("CheckMemJob -- get virtual memory failed:", err)
		return
	}
	if memInfo.Total == 0 {
		return
	}
	percent := float64(memInfo.Used) / float64(memInfo.Total) * 100
	switch {
	case percent >= j.Threshold && !j.exceeded:
		j.exceeded = true
		logger.Warningf("CheckMemJob -- memory usage %.1f%% reached threshold %.0f%%", percent, j.Threshold)
	case percent < j.Threshold && j.exceeded:
		j.exceeded = false
		logger.Infof("CheckMemJob -- memory usage back to %.1f%%", percent)
	}
}

// Exceeded reports whether the last sample was at or above the threshold.
func (j *CheckMemJob) Exceeded() bool {
	return j.exceeded
}
