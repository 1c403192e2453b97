package preprocessing

// GroupRareCategories builds a mapping from infrequent category values to
// RareSentinel. A value qualifies when its occurrence count in values is
// below minFrequency. The mapping is empty (nil) unless at least two
// distinct values qualify: collapsing a single rare value changes nothing
// useful.
func GroupRareCategories(values []string, minFrequency int) map[string]string {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}

	var rare []string
	for v, n := range counts {
		if v == RareSentinel {
			// Already grouped values never regroup.
			continue
		}
		if n < minFrequency {
			rare = append(rare, v)
		}
	}
	if len(rare) < 2 {
		return nil
	}

	grouping := make(map[string]string, len(rare))
	for _, v := range rare {
		grouping[v] = RareSentinel
	}
	return grouping
}

// ApplyGrouping remaps values through a grouping map, leaving values not in
// the map unchanged. The grouping is a partial function with identity
// fallback, so applying it twice is the same as applying it once:
// RareSentinel is never itself a grouping key.
func ApplyGrouping(values []string, grouping map[string]string) []string {
	if len(grouping) == 0 {
		return values
	}
	out := make([]string, len(values))
	for i, v := range values {
		if mapped, ok := grouping[v]; ok {
			out[i] = mapped
		} else {
			out[i] = v
		}
	}
	return out
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
