package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/threadpool/internal/config"
	"github.com/ygrebnov/threadpool/internal/console"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    [3]int
		wantErr bool
	}{
		{name: "valid", args: []string{"8080", "4", "100"}, want: [3]int{8080, 4, 100}},
		{name: "no args", args: nil, wantErr: true},
		{name: "two args", args: []string{"8080", "4"}, wantErr: true},
		{name: "four args", args: []string{"8080", "4", "1", "1"}, wantErr: true},
		{name: "zero port", args: []string{"0", "4", "100"}, wantErr: true},
		{name: "zero pool", args: []string{"8080", "0", "100"}, wantErr: true},
		{name: "zero requests", args: []string{"8080", "4", "0"}, wantErr: true},
		{name: "negative", args: []string{"8080", "-4", "100"}, wantErr: true},
		{name: "not a number", args: []string{"http", "4", "100"}, wantErr: true},
		{name: "trailing junk", args: []string{"8080", "4x", "100"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, poolSize, maxConns, err := parseArgs(tt.args)
			if tt.wantErr {
				require.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, [3]int{port, poolSize, maxConns})
		})
	}
}

func TestRootCmd_UsageOnBadArgs(t *testing.T) {
	for _, args := range [][]string{{}, {"1", "2"}, {"80", "0", "1"}, {"a", "b", "c"}} {
		var out bytes.Buffer
		cmd := newRootCmd(console.NewWriter(&out, false))
		cmd.SetArgs(args)

		err := cmd.Execute()
		require.ErrorIs(t, err, errUsage)
		require.Contains(t, out.String(), usageLine)
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(console.NewWriter(&out, true))
	cmd.SetArgs([]string{"8080", "4", "1", "--root", filepath.Join(t.TempDir(), "missing")})

	err := cmd.Execute()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	require.NotContains(t, out.String(), usageLine)
}

func TestRootCmd_PoolSizeAboveLimit(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(console.NewWriter(&out, true))
	cmd.SetArgs([]string{"8080", "201", "1", "--root", t.TempDir()})

	require.ErrorIs(t, cmd.Execute(), config.ErrInvalidConfig)
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(console.NewWriter(&out, true))
	cmd.SetArgs([]string{"8080", "4", "1", "--config", filepath.Join(t.TempDir(), "nope.yaml")})

	require.Error(t, cmd.Execute())
	require.Contains(t, out.String(), "Error loading config")
}

// freePort returns a port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestRun_ServesAndExits(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hi.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Chmod(filepath.Join(root, "hi.txt"), 0o644))

	cfg := config.Default()
	cfg.Port = freePort(t)
	cfg.PoolSize = 2
	cfg.MaxConnections = 2
	cfg.Root = root
	cfg.MetricsAddr = fmt.Sprintf("127.0.0.1:%d", freePort(t))
	cfg.AccessLogDB = filepath.Join(t.TempDir(), "access.db")
	cfg.LogLevel = "error"
	require.NoError(t, cfg.Validate())

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- run(context.Background(), cfg, console.NewWriter(&out, false)) }()

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 5*time.Second, 10*time.Millisecond)

	body := fetch(t, conn, "/hi.txt")
	require.Contains(t, body, "200 OK")
	require.True(t, strings.HasSuffix(body, "\r\n\r\nhi"))

	res, err := http.Get("http://" + cfg.MetricsAddr + "/metrics")
	require.NoError(t, err)
	metricsBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Contains(t, string(metricsBody), "threadpool_tasks_submitted_total")
	require.Contains(t, string(metricsBody), "staticd_connections_accepted_total")

	conn2, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	require.Contains(t, fetch(t, conn2, "/missing"), "404 Not Found")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not return after max connections")
	}
	require.Contains(t, out.String(), "Served 2 connections")

	_, err = http.Get("http://" + cfg.MetricsAddr + "/metrics")
	require.Error(t, err, "metrics endpoint stops with the server")
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Port = freePort(t)
	cfg.PoolSize = 1
	cfg.MaxConnections = 0
	cfg.Root = t.TempDir()
	cfg.LogLevel = "error"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, console.NewWriter(io.Discard, true)) }()

	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Port))
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}

func fetch(t *testing.T, conn net.Conn, path string) string {
	t.Helper()
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err := fmt.Fprintf(conn, "GET %s HTTP/1.0\r\n\r\n", path)
	require.NoError(t, err)
	b, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(b)
}
