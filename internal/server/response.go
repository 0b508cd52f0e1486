package server

import (
	"fmt"
	"os"
	"strconv"

	"github.com/valyala/fasthttp"
)

const (
	serverName = "staticd/1.0"
	// timeFormat is the RFC 7231 IMF-fixdate layout.
	timeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"
)

var statusMessages = map[int]string{
	302: "Directories must end with a slash.",
	400: "Bad Request.",
	403: "Access denied.",
	404: "File not found.",
	408: "No request received in time.",
	500: "Some server side error.",
	501: "Method is not supported.",
	503: "Server is busy, try again later.",
}

type header struct{ key, value string }

// response is either an in-memory body or an open file streamed after the headers.
type response struct {
	status  int
	headers []header
	body    []byte
	file    *os.File
	size    int64
}

// errorPage builds the small HTML page sent with every non-200 status.
func errorPage(status int, extra ...header) *response {
	title := strconv.Itoa(status) + " " + fasthttp.StatusMessage(status)
	body := fmt.Sprintf("<HTML><HEAD><TITLE>%s</TITLE></HEAD>\r\n<BODY><H4>%s</H4>\r\n%s\r\n</BODY></HTML>\r\n",
		title, title, statusMessages[status])
	return &response{
		status:  status,
		headers: append(extra, header{"Content-Type", "text/html; charset=utf-8"}),
		body:    []byte(body),
		size:    int64(len(body)),
	}
}

func redirect(location string) *response {
	return errorPage(302, header{"Location", location})
}

func htmlPage(body []byte) *response {
	return &response{
		status:  200,
		headers: []header{{"Content-Type", "text/html; charset=utf-8"}},
		body:    body,
		size:    int64(len(body)),
	}
}

func fileResponse(f *os.File, fi os.FileInfo) *response {
	r := &response{status: 200, file: f, size: fi.Size()}
	if ct := contentType(fi.Name()); ct != "" {
		r.headers = append(r.headers, header{"Content-Type", ct})
	}
	r.headers = append(r.headers, header{"Last-Modified", fi.ModTime().UTC().Format(timeFormat)})
	return r
}

// header returns the value of key, or "".
func (r *response) header(key string) string {
	for _, h := range r.headers {
		if h.key == key {
			return h.value
		}
	}
	return ""
}

// apply copies r into ctx. A file body is handed over as a stream; fasthttp closes
// it once written. Server, Date and Content-Length are added by fasthttp.
func (r *response) apply(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(r.status)
	for _, h := range r.headers {
		ctx.Response.Header.Set(h.key, h.value)
	}
	if r.file != nil {
		ctx.SetBodyStream(r.file, int(r.size))
	} else {
		ctx.SetBody(r.body)
	}
	ctx.SetConnectionClose()
}

// close releases the file of a response that was never applied.
func (r *response) close() {
	if r.file != nil {
		_ = r.file.Close()
	}
}
