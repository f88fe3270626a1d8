// Package sys reads host level counters that gopsutil exposes per platform.
package sys

import (
	"github.com/shirou/gopsutil/v4/net"
)

// ConnCounts returns the number of open TCP and UDP sockets.
func ConnCounts() (tcp int, udp int, err error) {
	tcp, err = count("tcp")
	if err != nil {
		return 0, 0, err
	}
	udp, err = count("udp")
	if err != nil {
		return tcp, 0, err
	}
	return tcp, udp, nil
}

func count(kind string) (int, error) {
	stats, err := net.Connections(kind)
	if err != nil {
		return 0, err
	}
	return len(stats), nil
}
