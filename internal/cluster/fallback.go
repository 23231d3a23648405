package cluster

// FallbackRidge is the ridge reported when the temporal fallback split was
// used instead of the spectral path.
const FallbackRidge = -1.0

// Leaf codes of the fallback split.
const (
	FallbackEarlyCode = 2
	FallbackLateCode  = 3
)

// FallbackSplit divides tracklets at the median temporal index. Tracklets
// at or before the median get label 0 and leaf code 2, the rest label 1
// and leaf code 3. Labels keep the input order.
func FallbackSplit(times []float64) (labels, intPaths []int) {
	labels = make([]int, len(times))
	intPaths = make([]int, len(times))
	med := median(times)
	for i, t := range times {
		if t <= med {
			intPaths[i] = FallbackEarlyCode
		} else {
			labels[i] = 1
			intPaths[i] = FallbackLateCode
		}
	}
	return labels, intPaths
}
