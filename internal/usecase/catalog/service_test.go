package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	domcatalog "example.com/framed-prints/internal/domain/catalog"
)

type mockClient struct {
	mu       sync.Mutex
	photos   []domcatalog.Photo
	artists  []domcatalog.Artist
	albums   []domcatalog.Album
	albumErr error
	gate     chan struct{}

	bulkCalls  atomic.Int32
	photoCalls atomic.Int32
}

func newMockClient() *mockClient {
	return &mockClient{
		photos: []domcatalog.Photo{
			{ID: 1, AlbumID: 1, Title: "accusamus beatae"},
			{ID: 2, AlbumID: 2, Title: "reprehenderit"},
			{ID: 3, AlbumID: 99, Title: "orphan"},
		},
		// Deliberately out of id order.
		artists: []domcatalog.Artist{
			{ID: 2, Name: "Ervin Howell", Email: "Shanna@melissa.tv"},
			{ID: 1, Name: "Leanne Graham", Email: "Sincere@april.biz"},
		},
		albums: []domcatalog.Album{
			{ID: 2, UserID: 2, Title: "sunt qui excepturi"},
			{ID: 1, UserID: 1, Title: "quidem molestiae enim"},
			{ID: 5, UserID: 42, Title: "no owner"},
		},
	}
}

func (m *mockClient) wait(ctx context.Context) error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockClient) FetchPhotos(ctx context.Context) ([]domcatalog.Photo, error) {
	m.bulkCalls.Add(1)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.photos, nil
}

func (m *mockClient) FetchPhoto(ctx context.Context, id int64) (domcatalog.Photo, error) {
	m.photoCalls.Add(1)
	if id == 77 {
		return domcatalog.Photo{ID: 77, AlbumID: 1, Title: "late addition"}, nil
	}
	return domcatalog.Photo{}, domcatalog.ErrNotFound
}

func (m *mockClient) FetchArtists(ctx context.Context) ([]domcatalog.Artist, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.artists, nil
}

func (m *mockClient) FetchAlbums(ctx context.Context) ([]domcatalog.Album, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.albumErr != nil {
		return nil, m.albumErr
	}
	return m.albums, nil
}

type mockCache struct {
	mu     sync.Mutex
	snap   *domcatalog.Snapshot
	getErr error
	setErr error
	sets   int
	dels   int
}

func (c *mockCache) Get(ctx context.Context) (*domcatalog.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.snap == nil {
		return nil, errors.New("miss")
	}
	return c.snap, nil
}

func (c *mockCache) Set(ctx context.Context, snap *domcatalog.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.snap = snap
	return nil
}

func (c *mockCache) Delete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	c.snap = nil
	return nil
}

func TestLoad_Ready(t *testing.T) {
	client := newMockClient()
	svc := NewService(client, nil, nil)
	require.Equal(t, domcatalog.StatusIdle, svc.Status())

	_, err := svc.Photos()
	require.ErrorIs(t, err, domcatalog.ErrNotReady)

	require.NoError(t, svc.Load(context.Background()))
	require.Equal(t, domcatalog.StatusReady, svc.Status())
	require.NoError(t, svc.Err())

	photos, err := svc.Photos()
	require.NoError(t, err)
	require.Len(t, photos, 3)

	artists, err := svc.Artists()
	require.NoError(t, err)
	require.Len(t, artists, 2)

	albums, err := svc.Albums()
	require.NoError(t, err)
	require.Len(t, albums, 3)
}

func TestLoad_FailureIsTerminalUntilRetry(t *testing.T) {
	client := newMockClient()
	client.albumErr = domcatalog.NewNetworkError("fetch albums", errors.New("connection reset"))
	svc := NewService(client, nil, nil)

	err := svc.Load(context.Background())
	require.ErrorIs(t, err, domcatalog.ErrNetwork)
	require.Equal(t, domcatalog.StatusError, svc.Status())
	require.ErrorIs(t, svc.Err(), domcatalog.ErrNetwork)

	_, err = svc.Photos()
	require.ErrorIs(t, err, domcatalog.ErrNotReady)

	client.mu.Lock()
	client.albumErr = nil
	client.mu.Unlock()

	require.NoError(t, svc.Load(context.Background()))
	require.Equal(t, domcatalog.StatusReady, svc.Status())
	require.NoError(t, svc.Err())
}

func TestLoad_WrapsForeignErrorsAsNetwork(t *testing.T) {
	client := newMockClient()
	client.albumErr = errors.New("boom")
	svc := NewService(client, nil, nil)

	require.ErrorIs(t, svc.Load(context.Background()), domcatalog.ErrNetwork)
}

func TestLoad_Cancelled(t *testing.T) {
	client := newMockClient()
	client.gate = make(chan struct{})
	svc := NewService(client, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The shared fetch keeps running for other callers.
	close(client.gate)
	require.Eventually(t, func() bool {
		return svc.Status() == domcatalog.StatusReady
	}, time.Second, 5*time.Millisecond)
}

func TestLoad_CallerLeavingDoesNotFailSharedFetch(t *testing.T) {
	client := newMockClient()
	client.gate = make(chan struct{})
	svc := NewService(client, nil, nil)

	watch := svc.WatchStatus(context.Background())
	require.Equal(t, domcatalog.StatusIdle, <-watch)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	reqErr := make(chan error, 1)
	go func() { reqErr <- svc.Load(reqCtx) }()
	require.Equal(t, domcatalog.StatusLoading, <-watch)

	startupErr := make(chan error, 1)
	go func() { startupErr <- svc.Load(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	cancelReq()
	require.ErrorIs(t, <-reqErr, context.Canceled)

	close(client.gate)
	require.NoError(t, <-startupErr)
	require.Equal(t, domcatalog.StatusReady, svc.Status())
	require.Equal(t, int32(1), client.bulkCalls.Load())
}

func TestLoad_ConcurrentCallsShareOneFetch(t *testing.T) {
	client := newMockClient()
	client.gate = make(chan struct{})
	svc := NewService(client, nil, nil)

	watch := svc.WatchStatus(context.Background())
	require.Equal(t, domcatalog.StatusIdle, <-watch)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error { return svc.Load(context.Background()) })
	}

	require.Equal(t, domcatalog.StatusLoading, <-watch)
	// Let the remaining callers join the flight that is parked on the gate.
	time.Sleep(50 * time.Millisecond)
	close(client.gate)
	require.NoError(t, g.Wait())

	require.Equal(t, int32(1), client.bulkCalls.Load())
	require.Eventually(t, func() bool {
		select {
		case st := <-watch:
			return st == domcatalog.StatusReady
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestLoad_UsesCacheBeforeNetwork(t *testing.T) {
	client := newMockClient()
	cache := &mockCache{snap: &domcatalog.Snapshot{
		Photos:  []domcatalog.Photo{{ID: 9, AlbumID: 1, Title: "cached"}},
		Albums:  []domcatalog.Album{{ID: 1, UserID: 1}},
		Artists: []domcatalog.Artist{{ID: 1, Name: "Leanne Graham"}},
	}}
	svc := NewService(client, cache, nil)

	require.NoError(t, svc.Load(context.Background()))
	require.Zero(t, client.bulkCalls.Load())
	require.Zero(t, cache.sets)

	photos, err := svc.Photos()
	require.NoError(t, err)
	require.Equal(t, "cached", photos[0].Title)
}

func TestLoad_FillsCacheAfterFetch(t *testing.T) {
	client := newMockClient()
	cache := &mockCache{}
	svc := NewService(client, cache, nil)

	require.NoError(t, svc.Load(context.Background()))
	require.Equal(t, int32(1), client.bulkCalls.Load())
	require.Equal(t, 1, cache.sets)
	require.Len(t, cache.snap.Photos, 3)
}

func TestReload_BypassesCache(t *testing.T) {
	client := newMockClient()
	cache := &mockCache{snap: &domcatalog.Snapshot{
		Photos: []domcatalog.Photo{{ID: 9, AlbumID: 1, Title: "cached"}},
	}}
	svc := NewService(client, cache, nil)

	require.NoError(t, svc.Reload(context.Background()))
	require.Equal(t, 1, cache.dels)
	require.Equal(t, int32(1), client.bulkCalls.Load())
	require.Equal(t, 1, cache.sets)

	photos, err := svc.Photos()
	require.NoError(t, err)
	require.Len(t, photos, 3)
}

func TestLoad_CacheFaultsAreNotFatal(t *testing.T) {
	client := newMockClient()
	cache := &mockCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	svc := NewService(client, cache, nil)

	require.NoError(t, svc.Load(context.Background()))
	require.Equal(t, domcatalog.StatusReady, svc.Status())
}

func TestPhoto_LoadedThenRemote(t *testing.T) {
	client := newMockClient()
	svc := NewService(client, nil, nil)
	require.NoError(t, svc.Load(context.Background()))
	ctx := context.Background()

	p, err := svc.Photo(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "reprehenderit", p.Title)
	require.Zero(t, client.photoCalls.Load())

	p, err = svc.Photo(ctx, 77)
	require.NoError(t, err)
	require.Equal(t, "late addition", p.Title)

	_, err = svc.Photo(ctx, 500)
	require.ErrorIs(t, err, domcatalog.ErrNotFound)
	require.Equal(t, int32(2), client.photoCalls.Load())
}

func TestResolveArtistForPhoto(t *testing.T) {
	svc := NewService(newMockClient(), nil, nil)
	require.NoError(t, svc.Load(context.Background()))

	tests := []struct {
		name    string
		photo   domcatalog.Photo
		want    domcatalog.ArtistInfo
		wantErr bool
	}{
		{
			name:  "album and artist out of id order",
			photo: domcatalog.Photo{ID: 1, AlbumID: 1},
			want:  domcatalog.ArtistInfo{Name: "Leanne Graham", Email: "Sincere@april.biz"},
		},
		{
			name:  "second artist",
			photo: domcatalog.Photo{ID: 2, AlbumID: 2},
			want:  domcatalog.ArtistInfo{Name: "Ervin Howell", Email: "Shanna@melissa.tv"},
		},
		{
			name:    "unknown album",
			photo:   domcatalog.Photo{ID: 3, AlbumID: 99},
			wantErr: true,
		},
		{
			name:    "album without artist",
			photo:   domcatalog.Photo{ID: 4, AlbumID: 5},
			wantErr: true,
		},
		{
			name:    "zero album id",
			photo:   domcatalog.Photo{ID: 5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveArtistForPhoto(tt.photo)
			if tt.wantErr {
				require.ErrorIs(t, err, domcatalog.ErrNotFound)
				require.Zero(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveArtistForPhoto_BeforeLoad(t *testing.T) {
	svc := NewService(newMockClient(), nil, nil)

	_, err := svc.ResolveArtistForPhoto(domcatalog.Photo{ID: 1, AlbumID: 1})
	require.ErrorIs(t, err, domcatalog.ErrNotFound)
}
