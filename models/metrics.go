package models

// LimiterStatus 描述限流窗口的當前佔用
type LimiterStatus struct {
	RequestsThisWindow int   `json:"requestsThisWindow"`
	MaxPerMinute       int   `json:"maxPerMinute"`
	MsUntilReset       int64 `json:"msUntilReset"`
}

// Stats is a point-in-time snapshot of the classifier counters.
type Stats struct {
	TotalAnalyzed   int64         `json:"totalAnalyzed"`
	AIDetected      int64         `json:"aiDetected"`
	HumanDetected   int64         `json:"humanDetected"`
	Errors          int64         `json:"errors"`
	LocalDetections int64         `json:"localDetections"`
	APICalls        int64         `json:"apiCalls"`
	CacheHitRate    int           `json:"cacheHitRate"`
	CacheSize       int           `json:"cacheSize"`
	Limiter         LimiterStatus `json:"limiter"`
}

// CacheMetrics 快取的累計指標
type CacheMetrics struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
	Collisions  int64 `json:"collisions"`
}
