package upstream

import (
	"net/url"
	"strings"
	"testing"

	"github.com/jaennil/heatmap_tiles/internal/model"
)

var coord = model.TileCoordinate{Region: "a", Zoom: 5, X: 10, Y: 12}

func TestURLTemplate_BaseKeepsYBeforeX(t *testing.T) {
	tmpl := URLTemplate{
		Pattern: "https://maps.six.nsw.gov.au/arcgis/rest/services/public/NSW_Imagery/MapServer/tile/{z}/{y}/{x}",
	}

	got := tmpl.Build(coord)
	want := "https://maps.six.nsw.gov.au/arcgis/rest/services/public/NSW_Imagery/MapServer/tile/5/12/10"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestURLTemplate_OverlaySignedURL(t *testing.T) {
	tmpl := URLTemplate{
		Pattern:  "https://heatmap-external-{region}.strava.com/tiles-auth/{activity}/{color}/{z}/{x}/{y}.png",
		Activity: "all",
		Color:    "hot",
		Credentials: model.UpstreamCredentials{
			KeyPairID: "APKAEXAMPLE",
			Policy:    "eyJTdGF0ZW1lbnQiOlt7~abc_",
			Signature: "sig-123~xyz",
		},
	}

	got := tmpl.Build(coord)

	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "heatmap-external-a.strava.com" {
		t.Errorf("host = %s", u.Host)
	}
	if u.Path != "/tiles-auth/all/hot/5/10/12.png" {
		t.Errorf("path = %s", u.Path)
	}

	q := u.Query()
	if q.Get("Key-Pair-Id") != "APKAEXAMPLE" || q.Get("Policy") != "eyJTdGF0ZW1lbnQiOlt7~abc_" || q.Get("Signature") != "sig-123~xyz" {
		t.Errorf("query = %v", q)
	}
	if !strings.HasPrefix(u.RawQuery, "Key-Pair-Id=") {
		t.Errorf("query params out of order: %s", u.RawQuery)
	}
}

func TestURLTemplate_AppendsToExistingQuery(t *testing.T) {
	tmpl := URLTemplate{
		Pattern:     "http://tiles.local/{z}/{x}/{y}.png?v=2",
		Credentials: model.UpstreamCredentials{KeyPairID: "k", Policy: "p", Signature: "s"},
	}

	got := tmpl.Build(coord)
	if !strings.HasPrefix(got, "http://tiles.local/5/10/12.png?v=2&Key-Pair-Id=k") {
		t.Fatalf("got %s", got)
	}
}

func TestURLTemplate_RedactedDropsCredentials(t *testing.T) {
	tmpl := URLTemplate{
		Pattern:     "http://tiles.local/{region}/{z}/{x}/{y}.png",
		Credentials: model.UpstreamCredentials{KeyPairID: "k", Policy: "p", Signature: "secret"},
	}

	got := tmpl.Redacted(coord)
	if got != "http://tiles.local/a/5/10/12.png" {
		t.Fatalf("got %s", got)
	}
}
