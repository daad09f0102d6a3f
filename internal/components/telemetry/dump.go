package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// DumpOutput receives a rendered request/response exchange.
type DumpOutput interface {
	Write(id string, contents string)
}

// FilesystemDump writes every exchange to its own file in a directory.
type FilesystemDump struct {
	directory string
}

func NewFilesystemDump(dir string) (FilesystemDump, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemDump{}, err
	}
	return FilesystemDump{directory: dir}, nil
}

func (o FilesystemDump) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http dump", "id", id, "err", err)
	}
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatRequestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	defer body.Close()
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(readBody)
}

// 1: request method
// 2: request url
// 3: request headers
// 4: request body
// 5: response status
// 6: response headers
// 7: response body
const exchangeTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s

%s

%s`

func formatExchange(res *resty.Response, withRequestBody bool) string {
	req := res.Request.RawRequest
	requestBody := "[omitted]"
	if withRequestBody {
		requestBody = formatRequestBody(req)
	}
	return fmt.Sprintf(
		exchangeTemplate,
		req.Method, req.URL.String(),
		formatHeaders(req.Header),
		requestBody,
		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}

// DumpResty writes every response the client receives to output. Request
// bodies are left out for requests that omitBody reports true for, omitBody
// may be nil.
func DumpResty(client *resty.Client, output DumpOutput, omitBody func(req *http.Request) bool) {
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		req := res.Request.RawRequest
		if req == nil {
			return nil
		}
		id := atomic.AddUint64(&idcounter, 1)
		name := strings.TrimSuffix(path.Base(req.URL.Path), path.Ext(req.URL.Path))
		withBody := omitBody == nil || !omitBody(req)
		output.Write(
			fmt.Sprintf("%04d-%s-%s.txt", id, strings.ToLower(req.Method), name),
			formatExchange(res, withBody),
		)
		return nil
	})
}
