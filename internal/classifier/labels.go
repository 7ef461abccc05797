package classifier

import "strings"

// Canonical research categories.
const (
	LabelComment = "Comment"
	LabelFIR     = "FIR"
	LabelNFR     = "NFR"
)

// labelTable maps generic checkpoint vocabularies (LABEL_n and stringified
// class ids) onto the canonical taxonomy: class 0 = Comment, 1 = FIR, 2 = NFR.
var labelTable = map[string]string{
	"LABEL_0": LabelComment,
	"LABEL_1": LabelFIR,
	"LABEL_2": LabelNFR,
	"0":       LabelComment,
	"1":       LabelFIR,
	"2":       LabelNFR,
}

// NormalizeLabel maps a raw model output onto exactly one of the three
// canonical categories. Different checkpoints emit different label
// vocabularies (the checkpoint's own fine-tuned strings, generic LABEL_n, or
// plain class ids), so normalization is tolerant and total: the first
// matching rule wins and anything unrecognized falls back to Comment.
func NormalizeLabel(raw string) string {
	switch {
	case strings.Contains(raw, "Feature Improvement Request"):
		return LabelFIR
	case strings.Contains(raw, "New Feature Request"):
		return LabelNFR
	case strings.Contains(raw, "Comment"):
		return LabelComment
	}

	switch raw {
	case LabelNFR, LabelFIR, LabelComment:
		return raw
	}

	if label, ok := labelTable[raw]; ok {
		return label
	}

	return LabelComment
}
