package catalog

type Photo struct {
	ID           int64  `json:"id"`
	AlbumID      int64  `json:"albumId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type Album struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Title  string `json:"title"`
}

type Artist struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ArtistInfo is what the presentation layer shows next to a photo.
type ArtistInfo struct {
	Name  string
	Email string
}

// Snapshot is the result of one bulk fetch of the catalog.
type Snapshot struct {
	Photos  []Photo  `json:"photos"`
	Artists []Artist `json:"artists"`
	Albums  []Album  `json:"albums"`
}

type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusLoading Status = "LOADING"
	StatusReady   Status = "READY"
	StatusError   Status = "ERROR"
)
