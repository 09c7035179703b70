package models

// Resolution is the resolution bucket parsed from a release name. It is the
// primary ranking partition: 1080p outranks 720p, everything else ranks
// below both.
type Resolution string

const (
	Resolution1080p   Resolution = "1080p"
	Resolution720p    Resolution = "720p"
	ResolutionOther   Resolution = "other"
	ResolutionUnknown Resolution = "unknown"
)

// Codec is the video codec parsed from a release name.
type Codec string

const (
	CodecX265    Codec = "x265"
	CodecX264    Codec = "x264"
	CodecOther   Codec = "other"
	CodecUnknown Codec = "unknown"
)

// Release is a single downloadable torrent release candidate produced by a
// search. Candidates are ephemeral: they live for one query and only the
// selected winner is persisted downstream.
type Release struct {
	RawName     string     `json:"rawName"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	Indexer     string     `json:"indexer,omitempty"`
	Resolution  Resolution `json:"resolution"`
	Codec       Codec      `json:"codec"`
	SizeBytes   int64      `json:"sizeBytes"`
	// YearExact is true when the year embedded in the release name equals
	// the catalog year exactly, false for a ±1 fuzzy match. Used as a
	// ranking tie-break.
	YearExact bool `json:"yearExact"`
}
