package server

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
)

const indexFile = "index.html"

// handle maps a parsed request onto the document root.
//
// A file is served when it is regular, readable by others, resolves (symlinks
// included) to a location under the root, and every directory between the root and
// the file is searchable by others. The root itself is trusted.
func (s *Server) handle(req *request) *response {
	if req.method != "GET" {
		return errorPage(501)
	}
	if hasDotDot(req.path) {
		return errorPage(403)
	}

	fsPath := filepath.Join(s.root, filepath.FromSlash(path.Clean(req.path)))
	fi, err := os.Stat(fsPath)
	if err != nil {
		return statError(err)
	}
	real, ok := s.confine(fsPath)
	if !ok {
		return errorPage(403)
	}

	if !fi.IsDir() {
		return s.serveFile(real, fi)
	}

	if !strings.HasSuffix(req.path, "/") {
		return redirect(req.rawPath + "/")
	}
	index := filepath.Join(real, indexFile)
	if !s.searchable(index) {
		return errorPage(403)
	}

	if ifi, err := os.Stat(index); err == nil && !ifi.IsDir() {
		realIndex, ok := s.confine(index)
		if !ok {
			return errorPage(403)
		}
		return s.serveFile(realIndex, ifi)
	}
	return s.listDirectory(req.path, real)
}

// serveFile opens fsPath, which must already be confined to the root.
func (s *Server) serveFile(fsPath string, fi fs.FileInfo) *response {
	if !fi.Mode().IsRegular() || fi.Mode().Perm()&0o004 == 0 || !s.searchable(fsPath) {
		return errorPage(403)
	}

	f, err := os.Open(fsPath)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return errorPage(403)
		}
		return errorPage(500)
	}
	return fileResponse(f, fi)
}

func (s *Server) listDirectory(urlPath, fsPath string) *response {
	dirents, err := os.ReadDir(fsPath)
	if err != nil {
		return statError(err)
	}

	infos := make([]fs.FileInfo, 0, len(dirents))
	for _, de := range dirents {
		fi, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		infos = append(infos, fi)
	}

	buf := s.buffers.Get()
	defer s.buffers.Put(buf)
	if err := renderDirectory(buf, urlPath, infos); err != nil {
		return errorPage(500)
	}
	return htmlPage(bytes.Clone(buf.Bytes()))
}

// confine resolves symlinks in fsPath and reports whether the result is the root
// or lies below it.
func (s *Server) confine(fsPath string) (string, bool) {
	real, err := filepath.EvalSymlinks(fsPath)
	if err != nil {
		return "", false
	}
	_, ok := s.relative(real)
	return real, ok
}

// relative returns fsPath relative to the root, failing for paths outside it.
func (s *Server) relative(fsPath string) (string, bool) {
	rel, err := filepath.Rel(s.root, fsPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// searchable reports whether every directory strictly between the root and fsPath
// grants search permission to others.
func (s *Server) searchable(fsPath string) bool {
	rel, ok := s.relative(filepath.Dir(fsPath))
	if !ok {
		return false
	}
	if rel == "." {
		return true
	}

	dir := s.root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		dir = filepath.Join(dir, part)
		fi, err := os.Stat(dir)
		if err != nil || fi.Mode().Perm()&0o001 == 0 {
			return false
		}
	}
	return true
}

func statError(err error) *response {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return errorPage(404)
	case errors.Is(err, fs.ErrPermission):
		return errorPage(403)
	default:
		return errorPage(500)
	}
}

func hasDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
