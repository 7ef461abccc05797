package models

import "time"

// AIModel is a registered sequence-classification model descriptor. The
// HuggingfaceURL is the canonical identifier used to resolve the model's
// weights, tokenizer and label map; it is unique within the registry.
type AIModel struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	HuggingfaceURL string    `db:"huggingface_url" json:"huggingfaceUrl"`
	UploadedBy     string    `db:"uploaded_by" json:"uploadedBy"`
	UploadedAt     time.Time `db:"uploaded_at" json:"uploadedAt"`
}
