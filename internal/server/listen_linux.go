//go:build linux

package server

import (
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// listenConfig defers accept until the client has sent data, so workers are not
// handed connections that have nothing to read yet.
func listenConfig(readTimeout time.Duration) net.ListenConfig {
	secs := int(readTimeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if sockErr == nil {
					sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, secs)
				}
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
}
