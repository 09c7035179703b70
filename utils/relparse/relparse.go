// Package relparse extracts structured release metadata (resolution, codec,
// size) from raw torrent release names using explicit pattern rules with
// documented precedence.
package relparse

import (
	"regexp"
	"strconv"
	"strings"

	"reelgrab/models"
)

var (
	x265Pattern  = regexp.MustCompile(`(?i)x265|h\.?265|hevc`)
	x264Pattern  = regexp.MustCompile(`(?i)x264|h\.?264`)
	otherCodecs  = regexp.MustCompile(`(?i)\bav1\b|xvid|divx|vp9|mpeg-?2`)
	otherResPat  = regexp.MustCompile(`(?i)\b(2160p|4320p|576p|480p|360p)\b|4k|uhd`)
	sizePattern  = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s*(TB|GB|MB|KB|B)`)
	sizeMultiple = map[string]float64{
		"B":  1,
		"KB": 1 << 10,
		"MB": 1 << 20,
		"GB": 1 << 30,
		"TB": 1 << 40,
	}
)

// ParseResolution extracts the resolution bucket from a release name.
// Precedence: 1080p, then 720p, then any other recognized resolution tag;
// a name with no resolution tag at all is ResolutionUnknown.
func ParseResolution(name string) models.Resolution {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "1080p") || strings.Contains(lower, "1080i"):
		return models.Resolution1080p
	case strings.Contains(lower, "720p") || strings.Contains(lower, "720i"):
		return models.Resolution720p
	case otherResPat.MatchString(lower):
		return models.ResolutionOther
	default:
		return models.ResolutionUnknown
	}
}

// ParseCodec extracts the codec bucket from a release name. x265/HEVC is
// checked before x264 so names carrying both tags land in the preferred
// bucket.
func ParseCodec(name string) models.Codec {
	switch {
	case x265Pattern.MatchString(name):
		return models.CodecX265
	case x264Pattern.MatchString(name):
		return models.CodecX264
	case otherCodecs.MatchString(name):
		return models.CodecOther
	default:
		return models.CodecUnknown
	}
}

// ParseSize converts a human size string like "1.45 GB" or "850 MB" to
// bytes. Unparseable input yields 0; the ranker treats a zero size as an
// under-cap candidate, which matches how indexers report unknown sizes.
func ParseSize(s string) int64 {
	m := sizePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return int64(value * sizeMultiple[strings.ToUpper(m[2])])
}

// Parse assembles a Release candidate from a raw name and its reported
// size in bytes.
func Parse(rawName string, sizeBytes int64) models.Release {
	return models.Release{
		RawName:    rawName,
		Resolution: ParseResolution(rawName),
		Codec:      ParseCodec(rawName),
		SizeBytes:  sizeBytes,
	}
}
