package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	domcatalog "example.com/framed-prints/internal/domain/catalog"
	"example.com/framed-prints/pkg/broadcast"
	"example.com/framed-prints/pkg/logger"
)

// SnapshotCache is consulted before the catalog API. Implementations report
// a miss with any error.
type SnapshotCache interface {
	Get(ctx context.Context) (*domcatalog.Snapshot, error)
	Set(ctx context.Context, snap *domcatalog.Snapshot) error
	Delete(ctx context.Context) error
}

type Service struct {
	client domcatalog.Client
	cache  SnapshotCache
	log    *zap.Logger

	flight singleflight.Group

	mu         sync.RWMutex
	loaded     bool
	lastErr    error
	photos     []domcatalog.Photo
	artists    []domcatalog.Artist
	albums     []domcatalog.Album
	photoByID  map[int64]domcatalog.Photo
	artistByID map[int64]domcatalog.Artist
	albumByID  map[int64]domcatalog.Album

	status *broadcast.Hub[domcatalog.Status]
}

// NewService builds the catalog adapter. cache may be nil.
func NewService(client domcatalog.Client, cache SnapshotCache, log *zap.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		log:    logger.OrNop(log).Named("catalog"),
		status: broadcast.NewHubWith(domcatalog.StatusIdle),
	}
}

// Load fetches photos, artists and albums. A failure leaves the status at
// ERROR until Load is called again. Concurrent calls share one fetch; a
// caller whose ctx ends stops waiting but does not cancel the shared fetch.
func (s *Service) Load(ctx context.Context) error {
	flightCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan("load", func() (any, error) {
		return nil, s.load(flightCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload drops the cached snapshot and loads from the catalog API.
func (s *Service) Reload(ctx context.Context) error {
	if s.cache != nil {
		if err := s.cache.Delete(ctx); err != nil {
			s.log.Warn("catalog cache delete failed", zap.Error(err))
		}
	}
	return s.Load(ctx)
}

func (s *Service) load(ctx context.Context) error {
	s.status.Publish(domcatalog.StatusLoading)

	snap, fromCache := s.cached(ctx)
	if !fromCache {
		var err error
		snap, err = s.fetch(ctx)
		if err != nil {
			s.mu.Lock()
			s.lastErr = err
			s.mu.Unlock()

			s.log.Error("catalog load failed", zap.Error(err))
			s.status.Publish(domcatalog.StatusError)
			return err
		}
	}

	s.install(snap)
	s.status.Publish(domcatalog.StatusReady)
	s.log.Info("catalog ready",
		zap.Bool("cached", fromCache),
		zap.Int("photos", len(snap.Photos)),
		zap.Int("artists", len(snap.Artists)),
		zap.Int("albums", len(snap.Albums)))

	if !fromCache && s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			s.log.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) cached(ctx context.Context) (*domcatalog.Snapshot, bool) {
	if s.cache == nil {
		return nil, false
	}
	snap, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Debug("catalog cache miss", zap.Error(err))
		return nil, false
	}
	return snap, true
}

func (s *Service) fetch(ctx context.Context) (*domcatalog.Snapshot, error) {
	var snap domcatalog.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		photos, err := s.client.FetchPhotos(gctx)
		snap.Photos = photos
		return err
	})
	g.Go(func() error {
		artists, err := s.client.FetchArtists(gctx)
		snap.Artists = artists
		return err
	})
	g.Go(func() error {
		albums, err := s.client.FetchAlbums(gctx)
		snap.Albums = albums
		return err
	})

	if err := g.Wait(); err != nil {
		if !errors.Is(err, domcatalog.ErrNetwork) {
			err = domcatalog.NewNetworkError("load", err)
		}
		return nil, err
	}
	return &snap, nil
}

func (s *Service) install(snap *domcatalog.Snapshot) {
	photoByID := make(map[int64]domcatalog.Photo, len(snap.Photos))
	for _, p := range snap.Photos {
		photoByID[p.ID] = p
	}
	artistByID := make(map[int64]domcatalog.Artist, len(snap.Artists))
	for _, a := range snap.Artists {
		artistByID[a.ID] = a
	}
	albumByID := make(map[int64]domcatalog.Album, len(snap.Albums))
	for _, a := range snap.Albums {
		albumByID[a.ID] = a
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.lastErr = nil
	s.photos = snap.Photos
	s.artists = snap.Artists
	s.albums = snap.Albums
	s.photoByID = photoByID
	s.artistByID = artistByID
	s.albumByID = albumByID
}

func (s *Service) Status() domcatalog.Status {
	st, _ := s.status.Current()
	return st
}

// Err returns the failure of the last Load, if it failed.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Service) WatchStatus(ctx context.Context) <-chan domcatalog.Status {
	return s.status.Subscribe(ctx)
}

// Photos returns the photos of the last successful Load.
func (s *Service) Photos() ([]domcatalog.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, domcatalog.ErrNotReady
	}
	return slices.Clone(s.photos), nil
}

func (s *Service) Artists() ([]domcatalog.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, domcatalog.ErrNotReady
	}
	return slices.Clone(s.artists), nil
}

func (s *Service) Albums() ([]domcatalog.Album, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, domcatalog.ErrNotReady
	}
	return slices.Clone(s.albums), nil
}

// Photo looks the id up in the loaded catalog and falls back to the API.
func (s *Service) Photo(ctx context.Context, id int64) (domcatalog.Photo, error) {
	s.mu.RLock()
	p, ok := s.photoByID[id]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}
	return s.client.FetchPhoto(ctx, id)
}

// ResolveArtistForPhoto follows photo -> album -> artist.
func (s *Service) ResolveArtistForPhoto(photo domcatalog.Photo) (domcatalog.ArtistInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	album, ok := s.albumByID[photo.AlbumID]
	if !ok {
		return domcatalog.ArtistInfo{}, fmt.Errorf("album %d: %w", photo.AlbumID, domcatalog.ErrNotFound)
	}
	artist, ok := s.artistByID[album.UserID]
	if !ok {
		return domcatalog.ArtistInfo{}, fmt.Errorf("artist %d: %w", album.UserID, domcatalog.ErrNotFound)
	}
	return domcatalog.ArtistInfo{Name: artist.Name, Email: artist.Email}, nil
}
