package upstream

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jaennil/heatmap_tiles/internal/model"
)

// URLTemplate expands a provider tile URL. Recognised placeholders are
// {region}, {z}, {x}, {y}, {activity} and {color}. Placeholder order in Pattern
// is preserved as written, so providers that address tiles as z/y/x keep it.
type URLTemplate struct {
	Pattern  string
	Activity string
	Color    string
	// Credentials, when non-empty, are appended as signed-access query
	// parameters.
	Credentials model.UpstreamCredentials
}

func (t URLTemplate) Build(c model.TileCoordinate) string {
	r := strings.NewReplacer(
		"{region}", c.Region,
		"{z}", strconv.Itoa(c.Zoom),
		"{x}", strconv.Itoa(c.X),
		"{y}", strconv.Itoa(c.Y),
		"{activity}", t.Activity,
		"{color}", t.Color,
	)
	u := r.Replace(t.Pattern)

	if t.Credentials.Empty() {
		return u
	}

	q := url.Values{}
	q.Set("Key-Pair-Id", t.Credentials.KeyPairID)
	q.Set("Policy", t.Credentials.Policy)
	q.Set("Signature", t.Credentials.Signature)

	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + q.Encode()
}

// Redacted returns the tile URL with the query string stripped, safe to log.
func (t URLTemplate) Redacted(c model.TileCoordinate) string {
	u := t.Build(c)
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
