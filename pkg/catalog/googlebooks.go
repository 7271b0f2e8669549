package catalog

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// googleBooks talks to the Google Books volumes API.
type googleBooks struct{}

type gbVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		PublishedDate string   `json:"publishedDate"`
		Description   string   `json:"description"`
		PageCount     int      `json:"pageCount"`
		AverageRating float64  `json:"averageRating"`
		Categories    []string `json:"categories"`
		ImageLinks    struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

type gbSearchResponse struct {
	TotalItems int        `json:"totalItems"`
	Items      []gbVolume `json:"items"`
}

func (googleBooks) name() string { return ProviderGoogleBooks }

func (googleBooks) defaultBaseURL() string { return "https://www.googleapis.com/books/v1" }

func (googleBooks) searchPath(query string, offset, limit int, apiKey string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(offset))
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("orderBy", "relevance")
	if apiKey != "" {
		params.Set("key", apiKey)
	}
	return "/volumes?" + params.Encode()
}

func (googleBooks) decodeSearch(body []byte, offset int) ([]Item, error) {
	var resp gbSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	// A search past the last result answers without an items field.
	items := make([]Item, 0, len(resp.Items))
	for i, v := range resp.Items {
		item := v.toItem()
		item.Key = searchKey(item.ID, offset+i)
		items = append(items, item)
	}
	return items, nil
}

func (googleBooks) lookupPath(id, apiKey string) string {
	path := "/volumes/" + url.PathEscape(id)
	if apiKey != "" {
		path += "?key=" + url.QueryEscape(apiKey)
	}
	return path
}

func (googleBooks) decodeLookup(body []byte) (Item, error) {
	var v gbVolume
	if err := json.Unmarshal(body, &v); err != nil {
		return Item{}, err
	}
	return v.toItem(), nil
}

func (v gbVolume) toItem() Item {
	info := v.VolumeInfo
	return Item{
		ID:            v.ID,
		Title:         info.Title,
		Authors:       info.Authors,
		CoverURL:      secureCover(info.ImageLinks.Thumbnail),
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		PageCount:     info.PageCount,
		AverageRating: info.AverageRating,
		Categories:    info.Categories,
	}
}

// secureCover upgrades thumbnail links, which Google serves as http.
func secureCover(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
