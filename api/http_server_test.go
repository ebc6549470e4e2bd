package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutluhann/kademlia-routing/dht"
	"github.com/kutluhann/kademlia-routing/id_tools"
)

func newTestServer(t *testing.T, k int) (*HTTPServer, *httptest.Server) {
	t.Helper()

	table := dht.NewSyncTable(dht.NewRoutingTable(id_tools.NodeID{}, dht.WithBucketSize(k)))
	srv := NewHTTPServer(table, 0, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func insert(t *testing.T, srv *HTTPServer, v uint64) dht.Contact {
	t.Helper()

	c := dht.NewContact(id_tools.NodeIDFromUint64(v), "10.0.0.1", 4000+int(v))
	_, err := srv.Table.Insert(c)
	require.NoError(t, err)
	return c
}

func postPeer(t *testing.T, ts *httptest.Server, body string) (*http.Response, InsertResponse) {
	t.Helper()

	resp, err := http.Post(ts.URL+"/peers", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out InsertResponse
	if resp.StatusCode < 400 || resp.StatusCode == http.StatusConflict {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func peerBody(v uint64) string {
	return `{"id":"` + id_tools.NodeIDFromUint64(v).String() + `","ip":"10.0.0.2","port":5000}`
}

func TestStatus(t *testing.T) {
	srv, ts := newTestServer(t, 8)
	insert(t, srv, 1)
	insert(t, srv, 4)
	insert(t, srv, 6)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))

	assert.Equal(t, id_tools.NodeID{}.String(), status.NodeID)
	assert.Equal(t, 3, status.KnownPeers)
	assert.Equal(t, 8, status.BucketSize)
	assert.Equal(t, []int{0, 2}, status.Buckets)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, 8)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPeersGroupedByBucket(t *testing.T) {
	srv, ts := newTestServer(t, 8)
	c20 := insert(t, srv, 20)
	c1 := insert(t, srv, 1)
	c6 := insert(t, srv, 6)
	c4 := insert(t, srv, 4)

	resp, err := http.Get(ts.URL + "/peers")
	require.NoError(t, err)
	defer resp.Body.Close()

	var peers PeersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&peers))

	require.Len(t, peers.Buckets, 3)
	assert.Equal(t, BucketInfo{Index: 0, Contacts: []dht.Contact{c1}}, peers.Buckets[0])
	assert.Equal(t, BucketInfo{Index: 2, Contacts: []dht.Contact{c6, c4}}, peers.Buckets[1])
	assert.Equal(t, BucketInfo{Index: 4, Contacts: []dht.Contact{c20}}, peers.Buckets[2])
}

func TestClosest(t *testing.T) {
	srv, ts := newTestServer(t, 8)
	c1 := insert(t, srv, 1)
	c4 := insert(t, srv, 4)
	c6 := insert(t, srv, 6)
	insert(t, srv, 20)

	target := id_tools.NodeIDFromUint64(5).String()
	resp, err := http.Get(ts.URL + "/closest?target=" + target + "&n=3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var closest ClosestResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&closest))

	assert.Equal(t, target, closest.Target)
	assert.Equal(t, []dht.Contact{c4, c6, c1}, closest.Contacts)
}

func TestClosestRejectsBadQuery(t *testing.T) {
	_, ts := newTestServer(t, 8)
	target := id_tools.NodeIDFromUint64(5).String()

	for _, query := range []string{"", "?target=xyz", "?target=" + target + "&n=-1", "?target=" + target + "&n=many"} {
		resp, err := http.Get(ts.URL + "/closest" + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestInsertOutcomes(t *testing.T) {
	srv, ts := newTestServer(t, 2)

	resp, out := postPeer(t, ts, peerBody(16))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "inserted", out.Outcome)
	assert.Nil(t, out.Candidate)

	resp, out = postPeer(t, ts, peerBody(16))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "updated", out.Outcome)

	postPeer(t, ts, peerBody(17))

	resp, out = postPeer(t, ts, peerBody(18))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "full", out.Outcome)
	require.NotNil(t, out.Candidate)
	assert.Equal(t, id_tools.NodeIDFromUint64(16), out.Candidate.ID)

	assert.Equal(t, 2, srv.Table.Len())
	assert.False(t, srv.Table.Contains(id_tools.NodeIDFromUint64(18)))
}

func TestInsertRejectsInvalidInput(t *testing.T) {
	srv, ts := newTestServer(t, 8)
	self := id_tools.NodeID{}.String()

	bodies := []string{
		`not json`,
		`{"id":"abc","ip":"10.0.0.2","port":5000}`,
		`{"id":"` + id_tools.NodeIDFromUint64(3).String() + `","ip":"nowhere","port":5000}`,
		`{"id":"` + id_tools.NodeIDFromUint64(3).String() + `","ip":"10.0.0.2","port":0}`,
		`{"id":"` + self + `","ip":"10.0.0.2","port":5000}`,
	}
	for _, body := range bodies {
		resp, _ := postPeer(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Equal(t, 0, srv.Table.Len())
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, 8)

	resp, err := http.Post(ts.URL+"/status", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServeUntilShutdown(t *testing.T) {
	srv, _ := newTestServer(t, 8)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(listener)
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestShutdownBeforeServe(t *testing.T) {
	srv, _ := newTestServer(t, 8)
	require.NoError(t, srv.Shutdown(context.Background()))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	assert.NoError(t, srv.Serve(listener))

	// The listener was closed, nothing accepts on it any more.
	_, err = net.DialTimeout("tcp", listener.Addr().String(), time.Second)
	assert.Error(t, err)
}
