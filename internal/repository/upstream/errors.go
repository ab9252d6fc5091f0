package upstream

import (
	"errors"
	"fmt"

	"github.com/jaennil/heatmap_tiles/internal/model"
)

var (
	// ErrUnavailable matches every fetch failure surfaced by a fetcher with
	// the PropagateFailure policy.
	ErrUnavailable = errors.New("upstream unavailable")

	errEmptyBody = errors.New("empty response body")
)

type FetchError struct {
	Source     string
	Tile       model.TileCoordinate
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: (%d, %d, %d) - %d: %s", e.Source, e.Tile.Zoom, e.Tile.X, e.Tile.Y, e.StatusCode, e.Status)
	}
	return fmt.Sprintf("%s: (%d, %d, %d) - %v", e.Source, e.Tile.Zoom, e.Tile.X, e.Tile.Y, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrUnavailable
}
