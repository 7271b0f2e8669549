package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const unknownAuthor = "Unknown"

// openLibrary talks to the Open Library search and works APIs.
type openLibrary struct{}

type olDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	CoverID          int      `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
	Subject          []string `json:"subject"`
	Pages            int      `json:"number_of_pages_median"`
	RatingsAverage   float64  `json:"ratings_average"`
}

type olSearchResponse struct {
	NumFound int     `json:"numFound"`
	Docs     []olDoc `json:"docs"`
}

// olText is a description field, which the works API returns either as a
// plain string or as {"type": ..., "value": ...}.
type olText string

func (t *olText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = olText(s)
		return nil
	}
	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	*t = olText(typed.Value)
	return nil
}

type olWork struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Description olText   `json:"description"`
	Covers      []int    `json:"covers"`
	Subjects    []string `json:"subjects"`
}

func (openLibrary) name() string { return ProviderOpenLibrary }

func (openLibrary) defaultBaseURL() string { return "https://openlibrary.org" }

func (openLibrary) searchPath(query string, offset, limit int, _ string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	return "/search.json?" + params.Encode()
}

func (openLibrary) decodeSearch(body []byte, offset int) ([]Item, error) {
	var resp olSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(resp.Docs))
	for i, d := range resp.Docs {
		item := Item{
			ID:            workID(d.Key),
			Title:         d.Title,
			Authors:       d.AuthorName,
			CoverURL:      coverURL(d.CoverID),
			PageCount:     d.Pages,
			AverageRating: d.RatingsAverage,
			Categories:    d.Subject,
		}
		if len(item.Authors) == 0 {
			item.Authors = []string{unknownAuthor}
		}
		if d.FirstPublishYear > 0 {
			item.PublishedDate = strconv.Itoa(d.FirstPublishYear)
		}
		item.Key = searchKey(item.ID, offset+i)
		items = append(items, item)
	}
	return items, nil
}

func (openLibrary) lookupPath(id, _ string) string {
	return "/works/" + url.PathEscape(id) + ".json"
}

func (openLibrary) decodeLookup(body []byte) (Item, error) {
	var w olWork
	if err := json.Unmarshal(body, &w); err != nil {
		return Item{}, err
	}

	item := Item{
		ID:          workID(w.Key),
		Title:       w.Title,
		Authors:     []string{unknownAuthor},
		Description: string(w.Description),
		Categories:  w.Subjects,
	}
	if len(w.Covers) > 0 {
		item.CoverURL = coverURL(w.Covers[0])
	}
	return item, nil
}

func workID(key string) string {
	return strings.TrimPrefix(key, "/works/")
}

func coverURL(coverID int) string {
	if coverID <= 0 {
		return ""
	}
	return fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", coverID)
}
