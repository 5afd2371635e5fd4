package pipeline

import "fmt"

// OutlierMethod selects how inlier bounds are computed. The wire names
// match the preset files this tool has always written.
type OutlierMethod string

const (
	MethodSigma2  OutlierMethod = "2sigma"
	MethodSigma25 OutlierMethod = "2.5sigma"
	MethodSigma3  OutlierMethod = "3sigma"
	MethodIQR     OutlierMethod = "iqr"
)

// Valid reports whether the method is one of the closed set.
func (m OutlierMethod) Valid() bool {
	switch m {
	case MethodSigma2, MethodSigma25, MethodSigma3, MethodIQR:
		return true
	}
	return false
}

// sigma returns the standard-deviation multiplier for σ-based methods.
func (m OutlierMethod) sigma() (float64, bool) {
	switch m {
	case MethodSigma2:
		return 2.0, true
	case MethodSigma25:
		return 2.5, true
	case MethodSigma3:
		return 3.0, true
	default:
		return 0, false
	}
}

// DisplayName returns the human-readable form used in result messages.
func (m OutlierMethod) DisplayName() string {
	switch m {
	case MethodSigma2:
		return "2σ (95.4%)"
	case MethodSigma25:
		return "2.5σ (98.8%)"
	case MethodSigma3:
		return "3σ (99.7%)"
	case MethodIQR:
		return "IQR"
	default:
		return string(m)
	}
}

// OutlierAction selects what happens to a flagged value.
type OutlierAction string

const (
	// ActionNull blanks the flagged cell; the row survives.
	ActionNull OutlierAction = "nan"
	// ActionDrop removes the whole row as soon as the flag is raised.
	ActionDrop OutlierAction = "drop"
)

// Valid reports whether the action is one of the closed set.
func (a OutlierAction) Valid() bool {
	return a == ActionNull || a == ActionDrop
}

// NormMethod selects the rescaling formula.
type NormMethod string

const (
	NormZScore NormMethod = "zscore"
	NormMinMax NormMethod = "minmax"
)

// Valid reports whether the method is one of the closed set.
func (m NormMethod) Valid() bool {
	return m == NormZScore || m == NormMinMax
}

// DisplayName returns the human-readable form used in result messages.
func (m NormMethod) DisplayName() string {
	switch m {
	case NormZScore:
		return "Z-Score"
	case NormMinMax:
		return "Min-Max"
	default:
		return string(m)
	}
}

// Operator is a filter comparison operator.
type Operator string

const (
	OpGE    Operator = ">="
	OpLE    Operator = "<="
	OpGT    Operator = ">"
	OpLT    Operator = "<"
	OpEQ    Operator = "="
	OpNE    Operator = "!="
	OpRange Operator = "range"
)

// Valid reports whether the operator is one of the closed set.
func (o Operator) Valid() bool {
	switch o {
	case OpGE, OpLE, OpGT, OpLT, OpEQ, OpNE, OpRange:
		return true
	}
	return false
}

// helpTexts explains each method key for operators configuring a run.
var helpTexts = map[string]string{
	"2sigma":   "2σ (2 standard deviations): mean ± 2σ. Covers about 95.4% of normally distributed data. Strict filtering.",
	"2.5sigma": "2.5σ (2.5 standard deviations): mean ± 2.5σ. Covers about 98.8% of normally distributed data. [recommended]",
	"3sigma":   "3σ (3 standard deviations): mean ± 3σ. Covers about 99.7% of normally distributed data. Loose filtering.",
	"iqr":      "IQR (interquartile range): Q1−1.5×IQR to Q3+1.5×IQR. Suited to skewed distributions and extreme outliers.",
	"zscore":   "Z-Score normalization: (value − mean) / stddev. Rescales to mean 0, stddev 1. Useful for comparing channels.",
	"minmax":   "Min-Max normalization: (value − min) / (max − min). Rescales to the 0–1 range. Suited to neural network input.",
}

// HelpText returns the description for a method key.
func HelpText(key string) (string, error) {
	text, ok := helpTexts[key]
	if !ok {
		return "", fmt.Errorf("no help available for %q", key)
	}
	return text, nil
}

// HelpKeys returns the known help keys.
func HelpKeys() []string {
	keys := make([]string, 0, len(helpTexts))
	for k := range helpTexts {
		keys = append(keys, k)
	}
	return keys
}
