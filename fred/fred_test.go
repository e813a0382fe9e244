package fred

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/macro"
	"github.com/etnz/macro/remote"
)

func testClient(apiKey string, h http.HandlerFunc) (*Client, func()) {
	srv := httptest.NewServer(h)
	c := New(apiKey, remote.Options{})
	c.ObservationsURL = srv.URL + "/fred/series/observations"
	c.GraphURL = srv.URL + "/graph/fredgraph.csv"
	return c, srv.Close
}

var testRange = macro.NewRange(macro.NewDate(2024, time.January, 1), macro.NewDate(2024, time.December, 31))

func TestFetchSeries_Observations(t *testing.T) {
	var query map[string]string
	c, done := testClient("KEY", func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"series_id":         r.URL.Query().Get("series_id"),
			"api_key":           r.URL.Query().Get("api_key"),
			"file_type":         r.URL.Query().Get("file_type"),
			"observation_start": r.URL.Query().Get("observation_start"),
		}
		fmt.Fprint(w, `{"observations":[
			{"date":"2024-01-01","value":"308.417"},
			{"date":"2024-02-01","value":"."},
			{"date":"2024-03-01","value":"312.332"}]}`)
	})
	defer done()

	points, err := c.FetchSeries(context.Background(), "CPIAUCSL", testRange)
	if err != nil {
		t.Fatalf("FetchSeries() error = %v", err)
	}
	want := map[string]string{"series_id": "CPIAUCSL", "api_key": "KEY", "file_type": "json", "observation_start": "2024-01-01"}
	for k, v := range want {
		if query[k] != v {
			t.Errorf("query %s = %q, want %q", k, query[k], v)
		}
	}
	if len(points) != 2 {
		t.Fatalf("FetchSeries() returned %d points, want 2 (missing value skipped)", len(points))
	}
	if points[1].Date != macro.NewDate(2024, time.March, 1) || points[1].Value.String() != "312.332" {
		t.Errorf("FetchSeries() last point = %v %v", points[1].Date, points[1].Value)
	}
}

func TestFetchSeries_Errors(t *testing.T) {
	testCases := []struct {
		name string
		code int
		body string
		want error
	}{
		{"bad key", http.StatusBadRequest, `{"error_code":400,"error_message":"Bad Request.  The value for variable api_key is not registered."}`, macro.ErrAuth},
		{"bad series", http.StatusBadRequest, `{"error_code":400,"error_message":"Bad Request.  The series does not exist."}`, macro.ErrNetwork},
		{"forbidden", http.StatusForbidden, ``, macro.ErrAuth},
		{"down", http.StatusBadGateway, ``, macro.ErrNetwork},
		{"empty", http.StatusOK, `{"observations":[]}`, macro.ErrEmptyResult},
		{"all missing", http.StatusOK, `{"observations":[{"date":"2024-01-01","value":"."}]}`, macro.ErrEmptyResult},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, done := testClient("KEY", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				fmt.Fprint(w, tc.body)
			})
			defer done()

			_, err := c.FetchSeries(context.Background(), "CPIAUCSL", testRange)
			if !errors.Is(err, tc.want) {
				t.Errorf("FetchSeries() error = %v, want %v", err, tc.want)
			}
			var fe *macro.FetchError
			if !errors.As(err, &fe) || fe.Provider != Provider || fe.ID != "CPIAUCSL" {
				t.Errorf("FetchSeries() error = %#v, want a FetchError", err)
			}
		})
	}
}

func TestFetchSeries_Keyless(t *testing.T) {
	var path string
	c, done := testClient("", func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if r.URL.Query().Get("id") != "FEDFUNDS" || r.URL.Query().Get("cosd") != "2024-01-01" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, "observation_date,FEDFUNDS\n2024-01-01,5.33\n2024-02-01,\n2024-03-01,5.33\n")
	})
	defer done()

	if c.HasKey() {
		t.Fatal("HasKey() = true without a key")
	}
	points, err := c.FetchSeries(context.Background(), "FEDFUNDS", testRange)
	if err != nil {
		t.Fatalf("FetchSeries() error = %v", err)
	}
	if path != "/graph/fredgraph.csv" {
		t.Errorf("keyless request went to %q", path)
	}
	if len(points) != 2 {
		t.Errorf("FetchSeries() returned %d points, want 2", len(points))
	}
}

func TestFetchSeries_HTMLNotCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			fmt.Fprint(w, "<!DOCTYPE html>\n<html><body>Series not found</body></html>\n")
			return
		}
		fmt.Fprint(w, "observation_date,FEDFUNDS\n2024-01-01,5.33\n")
	}))
	defer srv.Close()
	c := New("", remote.Options{CacheDir: t.TempDir()})
	c.GraphURL = srv.URL + "/graph/fredgraph.csv"

	if _, err := c.FetchSeries(context.Background(), "FEDFUNDS", testRange); err == nil {
		t.Fatal("first FetchSeries() on an html page: want an error")
	}
	points, err := c.FetchSeries(context.Background(), "FEDFUNDS", testRange)
	if err != nil {
		t.Fatalf("second FetchSeries() error = %v", err)
	}
	if len(points) != 1 {
		t.Errorf("second FetchSeries() returned %d points, want 1", len(points))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server called %d times, want 2", got)
	}
}

func TestParseGraph(t *testing.T) {
	testCases := []struct {
		name    string
		csv     string
		want    int
		wantErr bool
	}{
		{"current header", "observation_date,CPIAUCSL\n2024-01-01,308.417\n", 1, false},
		{"legacy header", "DATE,CPIAUCSL\n2024-01-01,308.417\n2024-02-01,.\n", 1, false},
		{"empty", "", 0, false},
		{"html page", "<!DOCTYPE html>\n", 0, true},
		{"bad value", "DATE,CPIAUCSL\n2024-01-01,abc\n", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			points, err := parseGraph(strings.NewReader(tc.csv), "CPIAUCSL")
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseGraph() error = %v, wantErr %v", err, tc.wantErr)
			}
			if len(points) != tc.want {
				t.Errorf("parseGraph() returned %d points, want %d", len(points), tc.want)
			}
		})
	}
}

func TestFetchSeries_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live test in short mode")
	}
	c := New(os.Getenv("FRED_API_KEY"), remote.Options{})
	points, err := c.FetchSeries(context.Background(), "FEDFUNDS", macro.NewRange(macro.Today().Add(-365), macro.Today()))
	if err != nil {
		t.Fatalf("FetchSeries() error = %v", err)
	}
	if len(points) == 0 {
		t.Error("FetchSeries() no points returned")
	}
}
