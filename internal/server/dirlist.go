package server

import (
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
)

type dirRow struct {
	Name     string
	Href     string
	Modified string
	Size     string
}

var dirTemplate = template.Must(template.New("dir").Parse(`<HTML>
<HEAD><TITLE>Index of {{.Path}}</TITLE></HEAD>
<BODY>
<H4>Index of {{.Path}}</H4>
<table CELLSPACING=8>
<tr><th>Name</th><th>Last Modified</th><th>Size</th></tr>
{{range .Rows}}<tr><td><A HREF="{{.Href}}">{{.Name}}</A></td><td>{{.Modified}}</td><td>{{.Size}}</td></tr>
{{end}}</table>
<HR>
<ADDRESS>{{.Server}}</ADDRESS>
</BODY></HTML>
`))

// renderDirectory writes the listing page of urlPath to w. Entries are listed in
// the given order; directories get a trailing slash and no size.
func renderDirectory(w io.Writer, urlPath string, entries []fs.FileInfo) error {
	rows := make([]dirRow, 0, len(entries))
	for _, fi := range entries {
		name := fi.Name()
		row := dirRow{
			Name:     name,
			Href:     (&url.URL{Path: name}).EscapedPath(),
			Modified: fi.ModTime().UTC().Format(timeFormat),
		}
		if strings.Contains(row.Href, ":") {
			// "a:b" would otherwise read as a URL scheme
			row.Href = "./" + row.Href
		}
		if fi.IsDir() {
			row.Name += "/"
			row.Href += "/"
		} else {
			row.Size = strconv.FormatInt(fi.Size(), 10)
		}
		rows = append(rows, row)
	}

	return dirTemplate.Execute(w, struct {
		Path   string
		Rows   []dirRow
		Server string
	}{Path: urlPath, Rows: rows, Server: serverName})
}
