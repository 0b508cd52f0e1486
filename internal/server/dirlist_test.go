package server

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "<b>.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub dir"), 0o755))

	dirents, err := os.ReadDir(dir)
	require.NoError(t, err)
	var infos []fs.FileInfo
	for _, de := range dirents {
		fi, err := de.Info()
		require.NoError(t, err)
		infos = append(infos, fi)
	}

	var out bytes.Buffer
	require.NoError(t, renderDirectory(&out, "/files/", infos))
	page := out.String()

	require.Contains(t, page, "<TITLE>Index of /files/</TITLE>")
	require.Contains(t, page, `<A HREF="a.txt">a.txt</A></td><td>`)
	require.Contains(t, page, "<td>5</td>")
	require.Contains(t, page, `<A HREF="sub%20dir/">sub dir/</A>`)
	require.Contains(t, page, "&lt;b&gt;.txt", "names are HTML-escaped")
	require.NotContains(t, page, "<b>.txt")
	require.Contains(t, page, "<ADDRESS>"+serverName+"</ADDRESS>")
}

func TestRenderDirectory_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderDirectory(&out, "/", nil))
	require.Contains(t, out.String(), "<th>Name</th>")
	require.NotContains(t, out.String(), "<A HREF")
}

func TestRenderDirectory_ColonInName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a:b.txt"), nil, 0o644))
	fi, err := os.Stat(filepath.Join(dir, "a:b.txt"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, renderDirectory(&out, "/", []fs.FileInfo{fi}))
	require.Contains(t, out.String(), `<A HREF="./a:b.txt">a:b.txt</A>`)
}
