package httpcache

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fixture_clock is a manually advanced time source
type fixture_clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixture_clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixture_clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *fixture_clock {
	return &fixture_clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// fixture_response builds a well-formed HTTP/1.1 response
func fixture_response(requ *http.Request, status int, body string) *http.Response {
	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"application/json"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       requ,
	}
}

// upstream is a downstream RoundTripper that counts calls per URL
type upstream struct {
	mu     sync.Mutex
	calls  int
	byURL  map[string]int
	status int
	err    error
	// called before answering, outside the lock
	hook func()
}

func newUpstream() *upstream {
	return &upstream{byURL: map[string]int{}, status: http.StatusOK}
}

func (u *upstream) RoundTrip(requ *http.Request) (*http.Response, error) {
	if u.hook != nil {
		u.hook()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	u.byURL[requ.URL.String()]++
	if u.err != nil {
		return nil, u.err
	}
	body := `{"url": "` + requ.URL.String() + `", "call": ` + strconv.Itoa(u.calls) + `}`
	return fixture_response(requ, u.status, body), nil
}

func (u *upstream) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

var errUpstream = errors.New("connection refused")

func readBody(resp *http.Response) string {
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func get(rt http.RoundTripper, rawURL string) (*http.Response, error) {
	return do(rt, http.MethodGet, rawURL)
}

func do(rt http.RoundTripper, method, rawURL string) (*http.Response, error) {
	requ, err := http.NewRequest(method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return rt.RoundTrip(requ)
}
