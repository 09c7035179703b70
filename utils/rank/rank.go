// Package rank selects the single preferred release from a set of matched
// candidates using a fixed quality/size policy.
//
// Policy, in strict priority order: the highest resolution tier (1080p,
// then 720p, then everything else) that holds at least one candidate under
// the size cap wins. Inside that tier x265 outranks x264 outranks other
// codecs, exact-year matches outrank fuzzy ones, and size decides last:
// smallest for x265/x264, largest for other codecs. If no candidate
// anywhere is under the cap, the smallest candidate overall is the last
// resort, so a non-empty input always produces a selection.
package rank

import (
	"fmt"
	"sort"

	"reelgrab/models"
)

// MaxSizeBytes caps acceptable release sizes at 4 GiB.
const MaxSizeBytes = 4 << 30

// largestForUnknownCodec flips the size ordering for candidates whose codec
// is neither x265 nor x264: under the cap, a larger file likely means a
// higher bitrate, so size becomes the quality signal. Kept as a named
// policy constant rather than inlined so the heuristic is easy to revisit.
const largestForUnknownCodec = true

func tierRank(r models.Resolution) int {
	switch r {
	case models.Resolution1080p:
		return 0
	case models.Resolution720p:
		return 1
	default:
		return 2
	}
}

func codecRank(c models.Codec) int {
	switch c {
	case models.CodecX265:
		return 0
	case models.CodecX264:
		return 1
	default:
		return 2
	}
}

// SelectBest returns the index of the preferred candidate along with a
// short reason describing the decision, or (-1, "") when the input is
// empty. The function is pure and deterministic; input order only matters
// as the final stability tie-break.
func SelectBest(candidates []models.Release) (int, string) {
	if len(candidates) == 0 {
		return -1, ""
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return less(candidates[order[a]], candidates[order[b]])
	})

	best := order[0]
	return best, describe(candidates[best])
}

// less implements the explicit sort key
// (capped, tier, codec_priority, year_exact, size); input index is the
// final tie-break via the stable sort. An exact-year release outranks a
// smaller fuzzy-year one in the same tier and codec group: the fuzzy copy
// is likely the wrong cut or a mislabeled re-release, so it only wins when
// nothing dated correctly competes.
func less(x, y models.Release) bool {
	xUnder := x.SizeBytes < MaxSizeBytes
	yUnder := y.SizeBytes < MaxSizeBytes
	if xUnder != yUnder {
		return xUnder
	}

	if !xUnder {
		// Nothing under the cap sorts by plain size: the smallest overall
		// release is the last resort regardless of tier or codec.
		if x.SizeBytes != y.SizeBytes {
			return x.SizeBytes < y.SizeBytes
		}
		return x.YearExact && !y.YearExact
	}

	if xt, yt := tierRank(x.Resolution), tierRank(y.Resolution); xt != yt {
		return xt < yt
	}
	xc, yc := codecRank(x.Codec), codecRank(y.Codec)
	if xc != yc {
		return xc < yc
	}
	if x.YearExact != y.YearExact {
		return x.YearExact
	}
	if xc == 2 && largestForUnknownCodec {
		return x.SizeBytes > y.SizeBytes
	}
	return x.SizeBytes < y.SizeBytes
}

func describe(r models.Release) string {
	sizeGB := float64(r.SizeBytes) / float64(1<<30)
	if r.SizeBytes >= MaxSizeBytes {
		return fmt.Sprintf("last resort: smallest available (%.2f GB)", sizeGB)
	}
	switch r.Codec {
	case models.CodecX265, models.CodecX264:
		return fmt.Sprintf("%s %s smallest under cap (%.2f GB)", r.Resolution, r.Codec, sizeGB)
	default:
		return fmt.Sprintf("%s best available under cap (%.2f GB)", r.Resolution, sizeGB)
	}
}
