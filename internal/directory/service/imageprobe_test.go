package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeImageURLSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got := ProbeImageURL(context.Background(), srv.Client(), srv.URL+"/photo.jpg")
	assert.Equal(t, srv.URL+"/photo.jpg", got)
}

func TestProbeImageURLEmptyFallsBack(t *testing.T) {
	assert.Equal(t, PlaceholderImageURL, ProbeImageURL(context.Background(), nil, ""))
}

func TestProbeImageURLNotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	got := ProbeImageURL(context.Background(), srv.Client(), srv.URL+"/gone.jpg")
	assert.Equal(t, PlaceholderImageURL, got)
	assert.Equal(t, int32(1), hits.Load(), "4xx must not be retried")
}

func TestProbeImageURLRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got := ProbeImageURL(context.Background(), srv.Client(), srv.URL+"/flaky.jpg")
	assert.Equal(t, srv.URL+"/flaky.jpg", got)
	assert.Equal(t, int32(3), hits.Load())
}
