package tracking

import (
	"sort"

	"github.com/teslashibe/go-posemix/pkg/pose"
)

type candidate struct {
	det    int
	person int
	iou    float64
}

// matchGreedy pairs detections with previous people by descending IoU.
// Each detection and each person is used at most once; pairs below minIoU
// are never formed.
func matchGreedy(dets []pose.Detection, idx []int, people []*Person, minIoU float64) map[int]pose.Identity {
	out := make(map[int]pose.Identity)
	if len(people) == 0 {
		return out
	}

	var pairs []candidate
	for _, i := range idx {
		for j, p := range people {
			iou := dets[i].Box.IoU(p.Box)
			if iou > 0 && iou >= minIoU {
				pairs = append(pairs, candidate{det: i, person: j, iou: iou})
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].iou > pairs[b].iou })

	taken := make(map[int]bool, len(people))
	for _, c := range pairs {
		if _, done := out[c.det]; done || taken[c.person] {
			continue
		}
		out[c.det] = people[c.person].Identity
		taken[c.person] = true
	}
	return out
}
