package paste_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zephyrtronium/noad/paste"
)

func TestPublish(t *testing.T) {
	cases := []struct {
		name     string
		statuses []int
		body     string
		want     string
		err      error
		calls    int32
	}{
		{
			name:     "ok",
			statuses: []int{http.StatusOK},
			body:     `{"key":"abcdef"}`,
			want:     "/abcdef",
			calls:    1,
		},
		{
			name:     "retry",
			statuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK},
			body:     `{"key":"abcdef","extra":1}`,
			want:     "/abcdef",
			calls:    3,
		},
		{
			name:     "exhausted",
			statuses: []int{http.StatusInternalServerError},
			body:     `oops`,
			err:      paste.ErrStatus,
			calls:    -1,
		},
		{
			name:     "permanent",
			statuses: []int{http.StatusRequestEntityTooLarge},
			body:     `too big`,
			err:      paste.ErrStatus,
			calls:    1,
		},
		{
			name:     "bad json",
			statuses: []int{http.StatusOK},
			body:     `<html>`,
			calls:    1,
		},
		{
			name:     "no key",
			statuses: []int{http.StatusOK},
			body:     `{}`,
			calls:    1,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				if r.Method != http.MethodPost || r.URL.Path != "/documents" {
					t.Errorf("wrong request: %s %s", r.Method, r.URL.Path)
				}
				b, _ := io.ReadAll(r.Body)
				if string(b) != "channels:\nbocchi\n" {
					t.Errorf("wrong body: %q", b)
				}
				s := c.statuses[min(int(n), len(c.statuses))-1]
				w.WriteHeader(s)
				io.WriteString(w, c.body)
			}))
			defer srv.Close()
			cl := paste.New(srv.URL+"/", time.Second)
			cl.SetRetry(3, time.Millisecond)
			got, err := cl.Publish(context.Background(), "channels:\nbocchi\n")
			if c.want != "" {
				if err != nil {
					t.Fatalf("couldn't publish: %v", err)
				}
				if got != srv.URL+c.want {
					t.Errorf("wrong url: want %q, got %q", srv.URL+c.want, got)
				}
			} else {
				if err == nil {
					t.Errorf("no error, got url %q", got)
				}
				if c.err != nil && !errors.Is(err, c.err) {
					t.Errorf("wrong error: want %v, got %v", c.err, err)
				}
			}
			n := calls.Load()
			if c.calls < 0 {
				// Retried until giving up.
				if n < 2 {
					t.Errorf("request wasn't retried: %d attempts", n)
				}
				return
			}
			if n != c.calls {
				t.Errorf("wrong number of requests: want %d, got %d", c.calls, n)
			}
		})
	}
}

func TestPublishCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cl := paste.New(srv.URL, time.Second)
	cl.SetRetry(3, time.Millisecond)
	if _, err := cl.Publish(ctx, "x"); err == nil {
		t.Error("no error with canceled context")
	}
}
