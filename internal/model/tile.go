package model

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the deepest zoom level a coordinate may address.
const MaxZoom = 24

var (
	ErrInvalidZoom = fmt.Errorf("zoom must be between 0 and %d", MaxZoom)
	ErrOutOfGrid   = errors.New("tile x/y is outside the grid for its zoom")
)

// TileCoordinate addresses one slippy-map tile. Region is only used to route
// overlay requests to the right shard; its format is checked at the edge.
type TileCoordinate struct {
	Region string
	Zoom   int
	X      int
	Y      int
}

func NewTileCoordinate(region string, zoom, x, y int) (TileCoordinate, error) {
	c := TileCoordinate{
		Region: region,
		Zoom:   zoom,
		X:      x,
		Y:      y,
	}
	if err := c.Validate(); err != nil {
		return TileCoordinate{}, err
	}
	return c, nil
}

// Validate checks that the coordinate lies on the tile grid.
func (c TileCoordinate) Validate() error {
	if c.Zoom < 0 || c.Zoom > MaxZoom {
		return ErrInvalidZoom
	}
	if c.X < 0 || c.Y < 0 || !c.Tile().Valid() {
		return fmt.Errorf("%w: z=%d x=%d y=%d", ErrOutOfGrid, c.Zoom, c.X, c.Y)
	}
	return nil
}

// Tile converts the coordinate to an orb tile. Only meaningful for
// coordinates that passed Validate.
func (c TileCoordinate) Tile() maptile.Tile {
	return maptile.New(uint32(c.X), uint32(c.Y), maptile.Zoom(c.Zoom))
}

func (c TileCoordinate) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", c.Region, c.Zoom, c.X, c.Y)
}
