package service

import (
	"runtime"
	"time"

	"github.com/dispatchhub/dispatch/config"
	"github.com/dispatchhub/dispatch/database"
	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/util/sys"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Status is a host and process snapshot.
type Status struct {
	T        time.Time `json:"-"`
	Version  string    `json:"version"`
	Cpu      float64   `json:"cpu"`
	CpuCores int       `json:"cpuCores"`
	Mem      struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"mem"`
	Uptime   uint64 `json:"uptime"`
	TcpCount int    `json:"tcpCount"`
	UdpCount int    `json:"udpCount"`
	Database struct {
		Type string `json:"type"`
		Ok   bool   `json:"ok"`
	} `json:"database"`
	AppStats struct {
		Threads uint32 `json:"threads"`
		Mem     uint64 `json:"mem"`
		Uptime  uint64 `json:"uptime"`
	} `json:"appStats"`
}

type ServerService struct {
	startedAt time.Time
}

func NewServerService() *ServerService {
	return &ServerService{startedAt: time.Now()}
}

// GetStatus collects what it can; failed probes are logged and left zero.
func (s *ServerService) GetStatus() *Status {
	now := time.Now()
	status := &Status{T: now, Version: config.GetVersion()}

	percents, err := cpu.Percent(0, false)
	if err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}

	status.CpuCores, err = cpu.Counts(false)
	if err != nil {
		logger.Warning("get cpu cores count failed:", err)
		status.CpuCores = runtime.NumCPU()
	}

	upTime, err := host.Uptime()
	if err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = upTime
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.Mem.Current = memInfo.Used
		status.Mem.Total = memInfo.Total
	}

	status.TcpCount, status.UdpCount, err = sys.ConnCounts()
	if err != nil {
		logger.Warning("get connection counts failed:", err)
	}

	if db := database.GetDB(); db != nil {
		status.Database.Type = db.Dialector.Name()
		if sqlDB, err := db.DB(); err == nil {
			status.Database.Ok = sqlDB.Ping() == nil
		}
	}

	status.AppStats.Uptime = uint64(now.Sub(s.startedAt).Seconds())
	var rtm runtime.MemStats
	runtime.ReadMemStats(&rtm)
	status.AppStats.Mem = rtm.Sys
	status.AppStats.Threads = uint32(runtime.NumGoroutine())

	return status
}
