package httpcache

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
)

const PREFIX = "---HTTP-RESPONSE---\n"

// ErrInvalidEntry is returned when stored bytes are not a serialized response
var ErrInvalidEntry = errors.New("invalid cache entry")

// Serialize snapshots status, headers and body of resp.
// resp.Body is consumed and replaced with an equivalent reader, so resp can
// still be returned to the caller afterwards.
func Serialize(resp *http.Response) ([]byte, error) {
	b, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}

	return append([]byte(PREFIX), b...), nil
}

// Deserialize builds a fresh response from a snapshot taken by Serialize.
// req, when non-nil, becomes the response's Request.
func Deserialize(b []byte, req *http.Request) (*http.Response, error) {
	if !bytes.HasPrefix(b, []byte(PREFIX)) {
		return nil, fmt.Errorf("%w: missing response prefix", ErrInvalidEntry)
	}

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b[len(PREFIX):])), req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	return resp, nil
}
