package catalog

import (
	"strings"

	"github.com/mmcdole/vista/internal/domain"
)

// MapItems converts API entries to domain items
func MapItems(dtos []ItemDTO, serverURL string) []*domain.MediaItem {
	items := make([]*domain.MediaItem, 0, len(dtos))
	for _, d := range dtos {
		item := mapItem(d, serverURL)
		items = append(items, &item)
	}
	return items
}

func mapItem(d ItemDTO, serverURL string) domain.MediaItem {
	return domain.MediaItem{
		ID:        d.ID,
		Title:     d.Title,
		SortTitle: d.SortTitle,
		Summary:   d.Summary,
		Year:      d.Year,
		Rating:    d.Rating,
		Type:      domain.ParseMediaType(d.Type),
		ThumbURL:  thumbURL(d.Thumb, serverURL),
		Favorite:  d.Favorite,
	}
}

// thumbURL resolves server-relative thumbnail paths
func thumbURL(thumb, serverURL string) string {
	if thumb == "" || strings.HasPrefix(thumb, "http://") || strings.HasPrefix(thumb, "https://") {
		return thumb
	}
	return strings.TrimRight(serverURL, "/") + "/" + strings.TrimLeft(thumb, "/")
}
