package xbreaker

// ConsecutiveFailuresPolicy 连续失败次数达到阈值时熔断
type ConsecutiveFailuresPolicy struct {
	threshold uint32
}

// NewConsecutiveFailures 创建连续失败策略，threshold 为 0 时按 1 处理
func NewConsecutiveFailures(threshold uint32) *ConsecutiveFailuresPolicy {
	return &ConsecutiveFailuresPolicy{threshold: max(threshold, 1)}
}

func (p *ConsecutiveFailuresPolicy) ReadyToTrip(counts Counts) bool {
	return counts.ConsecutiveFailures >= p.threshold
}

// FailureRatioPolicy 请求数达到 minRequests 且失败率达到 ratio 时熔断
type FailureRatioPolicy struct {
	ratio       float64
	minRequests uint32
}

// NewFailureRatio 创建失败率策略，ratio 限定在 (0,1]
func NewFailureRatio(ratio float64, minRequests uint32) *FailureRatioPolicy {
	if ratio <= 0 || ratio > 1 {
		ratio = 0.5
	}
	return &FailureRatioPolicy{ratio: ratio, minRequests: max(minRequests, 1)}
}

func (p *FailureRatioPolicy) ReadyToTrip(counts Counts) bool {
	if counts.Requests < p.minRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= p.ratio
}

// NeverTripPolicy 从不熔断
type NeverTripPolicy struct{}

// NewNeverTrip 创建从不熔断策略
func NewNeverTrip() NeverTripPolicy { return NeverTripPolicy{} }

func (NeverTripPolicy) ReadyToTrip(Counts) bool { return false }

var (
	_ TripPolicy = (*ConsecutiveFailuresPolicy)(nil)
	_ TripPolicy = (*FailureRatioPolicy)(nil)
	_ TripPolicy = NeverTripPolicy{}
)
