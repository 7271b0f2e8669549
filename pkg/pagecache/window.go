package pagecache

// Window returns the page numbers retained after storing anchor, in
// ascending order: page 1 plus anchor-1, anchor and anchor+1, all >= 1.
func Window(anchor int) []int {
	if anchor < 1 {
		return []int{1}
	}

	keep := []int{1}
	for p := anchor - 1; p <= anchor+1; p++ {
		if p > 1 {
			keep = append(keep, p)
		}
	}
	return keep
}
