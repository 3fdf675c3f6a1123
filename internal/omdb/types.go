package omdb

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// notAvailable is the marker the API uses for fields it has no value for.
const notAvailable = "N/A"

// Text is an optional string field. A missing key, JSON null, a blank string
// and the API's "N/A" marker all decode to the absent value.
type Text struct {
	value string
	ok    bool
}

// Some returns a present Text, or the absent value when v carries nothing.
func Some(v string) Text {
	v = strings.TrimSpace(v)
	if v == "" || v == notAvailable {
		return Text{}
	}
	return Text{value: v, ok: true}
}

// Get returns the value and whether it is present.
func (t Text) Get() (string, bool) { return t.value, t.ok }

// Valid reports whether the field is present.
func (t Text) Valid() bool { return t.ok }

// Or returns the value when present, fallback otherwise.
func (t Text) Or(fallback string) string {
	if !t.ok {
		return fallback
	}
	return t.value
}

func (t *Text) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Text{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = Some(s)
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.ok {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

// ResultItem is one entry of a search response.
type ResultItem struct {
	ID     string `json:"imdbID"`
	Title  Text   `json:"Title"`
	Year   Text   `json:"Year"`
	Type   Text   `json:"Type"`
	Poster Text   `json:"Poster"`
}

// Rating is a third-party score attached to a detail record.
type Rating struct {
	Source Text `json:"Source"`
	Value  Text `json:"Value"`
}

// DetailRecord is the full record returned by a title or id lookup.
type DetailRecord struct {
	ResultItem

	Rated      Text     `json:"Rated"`
	Released   Text     `json:"Released"`
	Runtime    Text     `json:"Runtime"`
	Genre      Text     `json:"Genre"`
	Director   Text     `json:"Director"`
	Writer     Text     `json:"Writer"`
	Actors     Text     `json:"Actors"`
	Plot       Text     `json:"Plot"`
	Language   Text     `json:"Language"`
	Country    Text     `json:"Country"`
	Awards     Text     `json:"Awards"`
	Metascore  Text     `json:"Metascore"`
	IMDbRating Text     `json:"imdbRating"`
	IMDbVotes  Text     `json:"imdbVotes"`
	BoxOffice  Text     `json:"BoxOffice"`
	Ratings    []Rating `json:"Ratings"`
}

// Item returns the summary fields of the record.
func (d DetailRecord) Item() ResultItem {
	return d.ResultItem
}

// SearchStatus distinguishes a populated search from a zero-match search.
type SearchStatus int

const (
	StatusFound SearchStatus = iota
	StatusEmpty
)

func (s SearchStatus) String() string {
	if s == StatusEmpty {
		return "empty"
	}
	return "found"
}

// SearchResult is the outcome of a successful title search.
type SearchResult struct {
	Status     SearchStatus
	Items      []ResultItem
	TotalCount int
}

// DetailResult is the outcome of a successful detail lookup. Found is false
// when the API answered with a well-formed "no match" payload.
type DetailResult struct {
	Found  bool
	Record DetailRecord
}

// searchResponse mirrors the ?s= payload.
type searchResponse struct {
	Response     string       `json:"Response"`
	Search       []ResultItem `json:"Search"`
	TotalResults string       `json:"totalResults"`
	Error        string       `json:"Error"`
}

// detailResponse mirrors the ?t= and ?i= payload.
type detailResponse struct {
	DetailRecord
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// errorResponse captures the message of a failed request.
type errorResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func parseTotal(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
