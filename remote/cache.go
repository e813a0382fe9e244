package remote

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/macro"
)

// diskCache implements a simple disk cache for HTTP responses.
//
// Entries are keyed by the current period (a day by default), so they expire
// when the period changes. Statistical series are revised at most daily.
type diskCache struct {
	base      http.RoundTripper
	dir       string
	period    macro.Period // zero is daily
	provider  string
	cacheable func(body []byte) bool // nil accepts every response
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If a fresh cached response is not found, it proceeds
// with the actual HTTP request and caches the new response if it's successful.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	key, err := c.key(req)
	if err != nil {
		return nil, err
	}

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		cacheHits.WithLabelValues(c.provider).Inc()
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	// otherwise attempt to store it in cache

	if c.cacheable != nil {
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if !c.cacheable(body) {
			log.Printf("not caching %v%v: rejected by the provider", resp.Request.URL.Host, resp.Request.URL.Path)
			return resp, nil
		}
	}
	err = c.put(key, resp)
	if err != nil {
		log.Printf("cache write err (ignored): %v\n", err)
	}
	return resp, nil
}

// key returns the cache file name of the request. Bodies are part of the key,
// so that two POST to the same endpoint don't collide.
func (c *diskCache) key(req *http.Request) (string, error) {
	rangeID := c.period.Range(macro.Today()).Identifier()
	h := sha1.New()
	fmt.Fprintf(h, "%s %s %s", rangeID, req.Method, req.URL.String())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return "", err
		}
		defer body.Close()
		if _, err := io.Copy(h, body); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s-%s-%x", c.provider, c.period, h.Sum(nil)), nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	// DumpResponse reads the body and replaces it with an in-memory copy.
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0644)
}
