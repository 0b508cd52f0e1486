package console

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestConsole(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name  string
		quiet bool
		want  string
	}{
		{
			name: "verbose",
			want: "listening on :80\n✓ done 3\n! slow\n✗ failed: x\nUsage: staticd\n",
		},
		{
			name:  "quiet keeps warnings and errors",
			quiet: true,
			want:  "! slow\n✗ failed: x\nUsage: staticd\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := NewWriter(&buf, tt.quiet)

			c.Info("listening on %s", ":80")
			c.Success("done %d", 3)
			c.Warn("slow")
			c.Error("failed: %s", "x")
			c.Usage("Usage: staticd")

			require.Equal(t, tt.want, buf.String())
		})
	}
}
