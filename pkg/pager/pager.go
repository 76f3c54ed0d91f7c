// Package pager computes page-number windows for navigation rows.
package pager

// Window returns up to width consecutive page numbers around current,
// shifted so that it never runs past 1 or total.
func Window(current, total, width int) []int {
	if total < 1 {
		total = 1
	}
	if width < 1 {
		width = 1
	}
	current = Clamp(current, total)
	if width > total {
		width = total
	}
	start := current - width/2
	if start < 1 {
		start = 1
	}
	if start+width-1 > total {
		start = total - width + 1
	}
	pages := make([]int, width)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}

func Clamp(page, total int) int {
	if total < 1 {
		total = 1
	}
	switch {
	case page < 1:
		return 1
	case page > total:
		return total
	}
	return page
}

// Neighbors returns the previous and next pages, clamped.
func Neighbors(current, total int) (prev, next int) {
	current = Clamp(current, total)
	return Clamp(current-1, total), Clamp(current+1, total)
}
