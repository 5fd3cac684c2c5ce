package domain

import "fmt"

// MediaType distinguishes content types
type MediaType int

const (
	MediaTypeMovie MediaType = iota
	MediaTypeShow
	MediaTypeEpisode
)

// String returns the lowercase type name used by the catalogue API
func (t MediaType) String() string {
	switch t {
	case MediaTypeShow:
		return "show"
	case MediaTypeEpisode:
		return "episode"
	default:
		return "movie"
	}
}

// ParseMediaType converts an API type name to a MediaType
func ParseMediaType(s string) MediaType {
	switch s {
	case "show":
		return MediaTypeShow
	case "episode":
		return MediaTypeEpisode
	default:
		return MediaTypeMovie
	}
}

// MediaItem is one entry of the catalogue
type MediaItem struct {
	ID        string    // Server-specific unique identifier
	Title     string    // Display title
	SortTitle string    // Title used for sorting
	Summary   string    // Plot synopsis
	Year      int       // Release year
	Rating    float64   // 0-10 audience rating
	Type      MediaType // Movie, show or episode
	ThumbURL  string    // Poster/thumbnail image URL
	Favorite  bool      // Marked by the user
}

// GetID returns the unique identifier for this item
func (m *MediaItem) GetID() string { return m.ID }

// GetTitle returns the display title
func (m *MediaItem) GetTitle() string { return m.Title }

// GetSortTitle returns SortTitle, falling back to Title
func (m *MediaItem) GetSortTitle() string {
	if m.SortTitle != "" {
		return m.SortTitle
	}
	return m.Title
}

// GetDescription returns secondary info for display
func (m *MediaItem) GetDescription() string {
	if m.Year > 0 {
		return fmt.Sprintf("%d · %s", m.Year, m.Type)
	}
	return m.Type.String()
}

// FilterValue returns the text matched by find and filter
func (m *MediaItem) FilterValue() string {
	if m.Year > 0 {
		return fmt.Sprintf("%s %d", m.Title, m.Year)
	}
	return m.Title
}
