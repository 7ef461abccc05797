package models

// Comment is a single text item extracted from a GitHub issue: the issue body
// (attributed to the issue author) followed by the comments in API order.
// Comments are never persisted standalone; they only flow through the
// classification pipeline.
type Comment struct {
	Author      string `json:"author"`
	Text        string `json:"text"`
	IssueNumber string `json:"issue_number"`
}

// PredictionResult pairs a comment with its canonical label and confidence.
// Result order always matches the order the comments were fetched in.
type PredictionResult struct {
	Author      string  `json:"author"`
	Comment     string  `json:"comment"`
	Prediction  string  `json:"prediction"`
	Confidence  float64 `json:"confidence"`
	IssueNumber string  `json:"issue_number"`
}
