package memory

import (
	"fmt"
	"math/rand/v2"

	"github.com/mmcdole/vista/internal/domain"
)

var (
	adjectives = []string{"Silent", "Crimson", "Lost", "Electric", "Hidden", "Last", "Broken", "Golden", "Distant", "Wild"}
	nouns      = []string{"Harbor", "Signal", "Empire", "Garden", "Frontier", "Machine", "River", "Orbit", "Witness", "Summer"}
)

// Generate builds a deterministic demo catalogue of n items
func Generate(n int, seed uint64) []*domain.MediaItem {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	items := make([]*domain.MediaItem, n)
	for i := range items {
		title := fmt.Sprintf("The %s %s", adjectives[rng.IntN(len(adjectives))], nouns[rng.IntN(len(nouns))])
		if i >= len(adjectives)*len(nouns) {
			title = fmt.Sprintf("%s %d", title, i/(len(adjectives)*len(nouns))+1)
		}
		kind := domain.MediaTypeMovie
		if rng.IntN(4) == 0 {
			kind = domain.MediaTypeShow
		}
		items[i] = &domain.MediaItem{
			ID:        fmt.Sprintf("item-%05d", i),
			Title:     title,
			SortTitle: title[len("The "):],
			Summary:   fmt.Sprintf("Catalogue entry %d.", i),
			Year:      1960 + rng.IntN(65),
			Rating:    float64(rng.IntN(100)) / 10,
			Type:      kind,
		}
	}
	return items
}
