package medialink

import (
	"sort"

	"github.com/PakStar92/dev-tools/pkg/label"
)

// defaultQualityScores maps quality labels to rank scores. Ranking is a table
// lookup over free-text labels, never arithmetic on parsed digits: "HD" and
// "auto" have no numeric reading. Labels missing from the table score zero.
var defaultQualityScores = map[string]int{
	"2160p":   7,
	"4k":      7,
	"1440p":   6,
	"1080p":   5,
	"hd":      5,
	"high":    5,
	"720p":    4,
	"480p":    3,
	"sd":      3,
	"360p":    2,
	"240p":    1,
	"low":     1,
	"auto":    0,
	"unknown": 0,
}

// Deduplicate drops links agreeing on (directUrl, quality, format). The first
// occurrence wins and keeps its metadata; later duplicates are not merged.
func Deduplicate(links []ResolvedLink) []ResolvedLink {
	seen := make(map[string]struct{}, len(links))
	unique := make([]ResolvedLink, 0, len(links))

	for _, l := range links {
		key := l.DirectURL + "\x00" + l.Quality + "\x00" + l.Format
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, l)
	}

	return unique
}

// RankByQuality stable-sorts links descending by their quality score, looked
// up case-insensitively in scores (nil selects the default table). Equal
// scores keep their input order.
func RankByQuality(links []ResolvedLink, scores map[string]int) []ResolvedLink {
	if scores == nil {
		scores = defaultQualityScores
	}

	sort.SliceStable(links, func(i, j int) bool {
		return scores[label.CanonicalQuality(links[i].Quality)] >
			scores[label.CanonicalQuality(links[j].Quality)]
	})

	return links
}
