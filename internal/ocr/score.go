package ocr

// Scorer ranks an attempt; higher wins.
type Scorer func(Attempt) float64

// MeanPositiveConfidence averages the strictly positive token confidences
// of an attempt, or 0 when there are none.
func MeanPositiveConfidence(a Attempt) float64 {
	return meanPositive(a.Confidences)
}

// TextLengthWeighted scales mean confidence by the share of non-space
// characters, penalising transcriptions that are mostly whitespace.
func TextLengthWeighted(a Attempt) float64 {
	if a.Text == "" {
		return 0
	}
	n, total := 0, 0
	for _, r := range a.Text {
		total++
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			n++
		}
	}
	return meanPositive(a.Confidences) * float64(n) / float64(total)
}

func meanPositive(confs []int) float64 {
	sum, n := 0, 0
	for _, c := range confs {
		if c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Scorer names accepted by ScorerByName.
const (
	ScoreMeanConfidence = "mean-confidence"
	ScoreLengthWeighted = "length-weighted"
)

// ScorerByName resolves a configured scorer name. The empty string selects
// MeanPositiveConfidence.
func ScorerByName(name string) (Scorer, bool) {
	switch name {
	case "", ScoreMeanConfidence:
		return MeanPositiveConfidence, true
	case ScoreLengthWeighted:
		return TextLengthWeighted, true
	}
	return nil, false
}
