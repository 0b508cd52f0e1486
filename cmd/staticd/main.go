// Command staticd serves a directory over HTTP/1.x with a fixed pool of workers.
//
//	staticd <port> <pool-size> <max-number-of-request> [flags]
//
// The server accepts max-number-of-request connections, serves each of them on the
// pool, then drains the pool and exits. SIGINT and SIGTERM stop accepting early.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
