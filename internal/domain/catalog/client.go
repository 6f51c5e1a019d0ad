package catalog

import "context"

type Client interface {
	FetchPhotos(ctx context.Context) ([]Photo, error)
	FetchPhoto(ctx context.Context, id int64) (Photo, error)
	FetchArtists(ctx context.Context) ([]Artist, error)
	FetchAlbums(ctx context.Context) ([]Album, error)
}
