// Package media resolves user-picked files into playable sources.
//
// The package hides which picker served the request: paths returned by a native
// dialog and files uploaded by a browser are both normalized into Source values.
package media

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

const (
	videosFilterName = "Videos"
	defaultAccept    = "video/*"
)

var (
	// VideoExtensions lists extensions accepted by default when picking files.
	VideoExtensions = []string{"mp4", "mov", "webm", "mkv"}
)

// Source is a playable url with a human readable label.
// Labels are not unique.
type Source struct {
	URL   string `json:"URL"`
	Label string `json:"Label"`
}

// Filter narrows files offered by a picker to the extensions (without leading dot).
type Filter struct {
	Name       string   `json:"Name"`
	Extensions []string `json:"Extensions"`
}

// Constraints specify what files can be picked.
type Constraints struct {
	Multiple bool     `json:"Multiple"`
	Filters  []Filter `json:"Filters"`
}

// DefaultConstraints allows picking multiple video files.
func DefaultConstraints() Constraints {
	return Constraints{
		Multiple: true,
		Filters: []Filter{
			{
				Name:       videosFilterName,
				Extensions: VideoExtensions,
			},
		},
	}
}

// Extensions returns lowercased, unique extensions of all filters.
func (c Constraints) Extensions() []string {
	extensions := lo.FlatMap(c.Filters, func(filter Filter, _ int) []string {
		return lo.Map(filter.Extensions, func(ext string, _ int) string {
			return strings.ToLower(strings.TrimPrefix(ext, "."))
		})
	})

	return lo.Uniq(extensions)
}

// Accepts checks whether the path has one of the extensions allowed by filters.
// Constraints without any extensions accept every path.
func (c Constraints) Accepts(path string) bool {
	extensions := c.Extensions()
	if len(extensions) == 0 {
		return true
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return lo.Contains(extensions, ext)
}

// Accept returns value for html file input "accept" attribute.
// Only the first filter is taken into account, as browsers show a single list of types.
func (c Constraints) Accept() string {
	if len(c.Filters) == 0 || len(c.Filters[0].Extensions) == 0 {
		return defaultAccept
	}

	accepted := lo.Map(c.Filters[0].Extensions, func(ext string, _ int) string {
		return "." + strings.TrimPrefix(ext, ".")
	})

	return strings.Join(accepted, ",")
}
