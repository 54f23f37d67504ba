package catalog

import "strings"

// versionSegment is one dot-separated piece of a version string. Numeric
// pieces compare numerically so that "2.10" sorts after "2.9".
type versionSegment struct {
	text    string
	number  int64
	numeric bool
}

// parsedVersion is a version string parsed for ordering comparisons.
type parsedVersion []versionSegment

// ParseVersion splits a version string on "." into comparable segments.
func ParseVersion(v string) parsedVersion {
	parts := strings.Split(v, ".")
	segments := make(parsedVersion, 0, len(parts))
	for _, part := range parts {
		if n, ok := parseDecimal(part); ok {
			segments = append(segments, versionSegment{text: part, number: n, numeric: true})
		} else {
			segments = append(segments, versionSegment{text: part})
		}
	}
	return segments
}

// CompareVersions orders two version strings segment by segment. Numeric
// segments compare numerically, non-numeric lexically, and a numeric segment
// sorts before a non-numeric one. A version that is a prefix of another
// sorts first.
func CompareVersions(a, b string) int {
	return compareParsed(ParseVersion(a), ParseVersion(b))
}

func compareParsed(a, b parsedVersion) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		sa, sb := a[i], b[i]
		switch {
		case sa.numeric && sb.numeric:
			if sa.number != sb.number {
				if sa.number < sb.number {
					return -1
				}
				return 1
			}
		case sa.numeric != sb.numeric:
			if sa.numeric {
				return -1
			}
			return 1
		default:
			if c := strings.Compare(sa.text, sb.text); c != 0 {
				return c
			}
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// parseDecimal parses a non-negative base-10 integer. Unlike strconv.Atoi
// it rejects signs, matching the digits-only notion of a numeric segment.
func parseDecimal(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
	}
	return n, true
}
