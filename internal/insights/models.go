// Package insights aggregates summarized interviews into cross-interview
// views for the admin surface.
package insights

// ThemeCount is one theme and how many summarized interviews mention it.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// SentimentDistribution is the three-bucket sentiment histogram.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Mixed    int `json:"mixed"`
	Negative int `json:"negative"`
}

// AggregateInsight is the deterministic fold over all summarized interviews.
type AggregateInsight struct {
	TotalInterviews       int                   `json:"total_interviews"`
	TotalWithSummary      int                   `json:"total_with_summary"`
	TopThemes             []ThemeCount          `json:"top_themes"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
}

// OverallAnalysis is the model-synthesized view across every summarized
// interview. It is computed on demand and never persisted.
type OverallAnalysis struct {
	OverallSummary     string   `json:"overallSummary"`
	Strengths          []string `json:"strengths"`
	Weaknesses         []string `json:"weaknesses"`
	Patterns           []string `json:"patterns"`
	ActionableInsights []string `json:"actionableInsights"`
}
