//go:build !linux

package server

import (
	"net"
	"time"
)

func listenConfig(time.Duration) net.ListenConfig { return net.ListenConfig{} }
