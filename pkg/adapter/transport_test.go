package adapter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pajamadot/recall/pkg/adapter"
)

func newClient(t *testing.T, baseURL string) *adapter.KnowledgeClient {
	t.Helper()
	client, err := adapter.NewKnowledge(baseURL, "token")
	gt.NoError(t, err)
	return client
}

func TestErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	_, err := client.Retrieve(context.Background(), &adapter.RetrieveRequest{Query: "q"})
	gt.Error(t, err)

	var httpErr *adapter.HTTPError
	gt.True(t, errors.As(err, &httpErr))
	gt.Equal(t, httpErr.Status, http.StatusBadGateway)
	gt.S(t, httpErr.Body).Contains("upstream unavailable")
}

func TestErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	_, err := client.Retrieve(context.Background(), &adapter.RetrieveRequest{Query: "q"})
	gt.Error(t, err)

	var httpErr *adapter.HTTPError
	gt.True(t, errors.As(err, &httpErr))
	gt.Equal(t, len(httpErr.Body), 2000)
}

func TestNetworkErrorIsNotHTTPError(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:1")
	_, err := client.Retrieve(context.Background(), &adapter.RetrieveRequest{Query: "q"})
	gt.Error(t, err)

	var httpErr *adapter.HTTPError
	gt.False(t, errors.As(err, &httpErr))
}
