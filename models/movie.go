package models

import "time"

// Movie is one catalog record as scraped from the yearly IMDB top lists.
type Movie struct {
	Rank           int      `json:"rank,omitempty"`
	TitleID        string   `json:"titleId,omitempty"`
	Title          string   `json:"title"`
	OriginalTitle  string   `json:"originalTitle,omitempty"`
	Year           int      `json:"year"`
	Plot           string   `json:"plot,omitempty"`
	PosterURL      string   `json:"posterUrl,omitempty"`
	Rating         float64  `json:"imdbRating,omitempty"`
	Votes          int      `json:"numVotes,omitempty"`
	Certificate    string   `json:"certificate,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	RuntimeMinutes int      `json:"runtimeMinutes,omitempty"`
}

// MovieList is the on-disk shape of one data/<year>.json file.
type MovieList struct {
	Source string  `json:"source"`
	Year   int     `json:"year"`
	Movies []Movie `json:"movies"`
}

// WatchlistEntry identifies a movie the user wants, read from the curated
// CSV watch list. Title and year are the only fields the acquisition
// pipeline needs.
type WatchlistEntry struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

// Acquisition records one acquisition attempt outcome for the history store.
type Acquisition struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	TorrentName string    `json:"torrentName,omitempty"`
	SizeBytes   int64     `json:"sizeBytes,omitempty"`
	Resolution  string    `json:"resolution,omitempty"`
	Codec       string    `json:"codec,omitempty"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
