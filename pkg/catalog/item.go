package catalog

import "strconv"

// Item is one catalog record as shown in search results and shelves.
type Item struct {
	// ID is the provider's volume/work id. It is the item's identity and
	// what the personal shelf stores.
	ID string `json:"id"`

	// Key is unique within one result listing: "<id>-search-<position>".
	// The same volume may appear on two pages of a search with distinct keys.
	Key string `json:"key,omitempty"`

	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	AverageRating float64  `json:"average_rating,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// searchKey derives the listing key for the item at absolute position pos.
func searchKey(id string, pos int) string {
	return id + "-search-" + strconv.Itoa(pos)
}
