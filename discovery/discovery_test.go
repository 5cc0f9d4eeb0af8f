package discovery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/require"

	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/discovery"
	"github.com/maxpoletaev/gridlink/errs"
)

func addrs(t *testing.T, ss ...string) []cluster.Address {
	t.Helper()

	out := make([]cluster.Address, 0, len(ss))

	for _, s := range ss {
		addr, err := cluster.ParseAddress(s)
		require.NoError(t, err)

		out = append(out, addr)
	}

	return out
}

func TestStaticProvider_Default(t *testing.T) {
	provider, err := discovery.NewStaticProvider(nil)
	require.NoError(t, err)

	got, err := provider.Addresses(context.Background())
	require.NoError(t, err)
	require.Equal(t, addrs(t, "127.0.0.1:5701", "127.0.0.1:5702", "127.0.0.1:5703"), got)
}

func TestStaticProvider_Expand(t *testing.T) {
	provider, err := discovery.NewStaticProvider([]string{"10.0.0.1", "10.0.0.2:6000", "10.0.0.1:5701"})
	require.NoError(t, err)

	got, err := provider.Addresses(context.Background())
	require.NoError(t, err)

	want := addrs(t,
		"10.0.0.1:5701",
		"10.0.0.2:6000",
		"10.0.0.1:5702",
		"10.0.0.1:5703",
	)

	require.Equal(t, want, got)
}

func TestStaticProvider_TranslatePassthrough(t *testing.T) {
	provider, err := discovery.NewStaticProvider([]string{"10.0.0.1:5701"})
	require.NoError(t, err)

	addr := addrs(t, "10.0.0.9:5701")[0]

	public, ok := provider.TranslateToPublic(context.Background(), addr)
	require.True(t, ok)
	require.Equal(t, addr, public)
}

func TestStaticProvider_InvalidAddress(t *testing.T) {
	_, err := discovery.NewStaticProvider([]string{"10.0.0.1:notaport"})
	require.ErrorIs(t, err, errs.ErrConfig)
}

func TestNew_BothSourcesConfigured(t *testing.T) {
	conf := discovery.DefaultConfig()
	conf.Addresses = []string{"10.0.0.1"}
	conf.Cloud.Enabled = true
	conf.Cloud.Token = "token"

	_, err := discovery.New(conf, nil)
	require.ErrorIs(t, err, errs.ErrConfig)
}

type fakeDiscovery struct {
	mut      sync.Mutex
	requests atomic.Int32
	nodes    []map[string]string
}

func (f *fakeDiscovery) setNodes(nodes ...map[string]string) {
	f.mut.Lock()
	f.nodes = nodes
	f.mut.Unlock()
}

func (f *fakeDiscovery) server(t *testing.T) *httptest.Server {
	r := chi.NewRouter()

	r.Get("/cluster/discovery", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)

		if r.URL.Query().Get("token") != "secret" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"message": "invalid token"})

			return
		}

		f.mut.Lock()
		nodes := f.nodes
		f.mut.Unlock()

		render.JSON(w, r, nodes)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func node(private, public string) map[string]string {
	return map[string]string{
		"private-address": private,
		"public-address":  public,
	}
}

func TestCloudProvider(t *testing.T) {
	fake := &fakeDiscovery{}
	fake.setNodes(
		node("10.0.0.1:5701", "198.51.100.1:30001"),
		node("10.0.0.2:5701", "198.51.100.2:30002"),
	)

	srv := fake.server(t)

	conf := discovery.DefaultConfig()
	conf.Cloud.Enabled = true
	conf.Cloud.Token = "secret"
	conf.Cloud.URL = srv.URL

	provider, err := discovery.New(conf, nil)
	require.NoError(t, err)

	ctx := context.Background()

	got, err := provider.Addresses(ctx)
	require.NoError(t, err)
	require.Equal(t, addrs(t, "10.0.0.1:5701", "10.0.0.2:5701"), got)

	public, ok := provider.TranslateToPublic(ctx, addrs(t, "10.0.0.2:5701")[0])
	require.True(t, ok)
	require.Equal(t, addrs(t, "198.51.100.2:30002")[0], public)
	require.Equal(t, int32(1), fake.requests.Load())
}

func TestCloudProvider_RefreshOnMiss(t *testing.T) {
	fake := &fakeDiscovery{}
	fake.setNodes(node("10.0.0.1:5701", "198.51.100.1:30001"))

	srv := fake.server(t)

	conf := discovery.DefaultCloudConfig()
	conf.Enabled = true
	conf.Token = "secret"
	conf.URL = srv.URL

	provider, err := discovery.NewCloudProvider(conf, nil)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = provider.Addresses(ctx)
	require.NoError(t, err)

	// A member joined after the first lookup.
	fake.setNodes(
		node("10.0.0.1:5701", "198.51.100.1:30001"),
		node("10.0.0.3:5701", "198.51.100.3:30003"),
	)

	public, ok := provider.TranslateToPublic(ctx, addrs(t, "10.0.0.3:5701")[0])
	require.True(t, ok)
	require.Equal(t, addrs(t, "198.51.100.3:30003")[0], public)
	require.Equal(t, int32(2), fake.requests.Load())

	// Still unknown after the refresh.
	_, ok = provider.TranslateToPublic(ctx, addrs(t, "10.0.0.4:5701")[0])
	require.False(t, ok)
	require.Equal(t, int32(3), fake.requests.Load())
}

func TestCloudProvider_InvalidToken(t *testing.T) {
	srv := (&fakeDiscovery{}).server(t)

	conf := discovery.DefaultCloudConfig()
	conf.Enabled = true
	conf.Token = "wrong"
	conf.URL = srv.URL

	provider, err := discovery.NewCloudProvider(conf, nil)
	require.NoError(t, err)

	_, err = provider.Addresses(context.Background())
	require.ErrorIs(t, err, errs.ErrIO)
	require.Contains(t, err.Error(), "invalid token")
}

func TestCloudConfig_Validate(t *testing.T) {
	conf := discovery.DefaultCloudConfig()
	conf.Enabled = true

	require.ErrorIs(t, conf.Validate(), errs.ErrConfig)

	conf.Token = "secret"
	require.NoError(t, conf.Validate())
}
