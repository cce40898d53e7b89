package anomaly

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	deadOfNightPoints  = 12 // activity between 00:00 and 05:59
	lateEveningPoints  = 8  // activity between 22:00 and 23:59
	denseClusterPoints = 5  // more than 10 timestamps in one log
	denseClusterCount  = 10
)

// timestampPattern matches HH:MM or HH:MM:SS clock references.
var timestampPattern = regexp.MustCompile(`\b([01][0-9]|2[0-3]):[0-5][0-9](?::[0-5][0-9])?\b`)

// Temporal scores off-hours activity. The night band (00..05) outweighs the
// late evening band (22..23); both count at most once. A dense timestamp
// cluster adds a fixed bonus on top.
func Temporal(text string) Score {
	var s Score

	matches := timestampPattern.FindAllStringSubmatch(text, -1)
	night, evening := false, false
	for _, m := range matches {
		hour, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case hour <= 5:
			night = true
		case hour >= 22:
			evening = true
		}
	}

	if night {
		s.add(deadOfNightPoints, deadOfNightPoints, "Activity timestamped between 00:00 and 05:59")
	} else if evening {
		s.add(lateEveningPoints, lateEveningPoints, "Activity timestamped between 22:00 and 23:59")
	}

	if len(matches) > denseClusterCount {
		s.add(denseClusterPoints, denseClusterPoints,
			fmt.Sprintf("Dense timestamp cluster (%d timestamps)", len(matches)))
	}

	return s
}
