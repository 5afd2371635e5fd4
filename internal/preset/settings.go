package preset

import (
	"strconv"
	"strings"

	"tsprep/internal/pipeline"
)

// Settings is the policy document a preset round-trips: the exact
// structure the settings-extraction contract produces. Field names and
// value spellings are part of the on-disk format.
type Settings struct {
	Filters   []pipeline.FilterPredicate `json:"filters"`
	Outlier   OutlierSettings            `json:"outlier"`
	Normalize NormalizeSettings          `json:"normalize"`
	Time      TimeSettings               `json:"time"`
}

// OutlierSettings selects the outlier stage of a full run.
type OutlierSettings struct {
	Apply  bool                   `json:"apply"`
	Method pipeline.OutlierMethod `json:"method"`
	Action pipeline.OutlierAction `json:"action"`
}

// NormalizeSettings selects the normalization stage of a full run.
type NormalizeSettings struct {
	Apply  bool                `json:"apply"`
	Method pipeline.NormMethod `json:"method"`
}

// TimeSettings selects the timestamp stage of a full run. Interval is kept
// as a string because that is how presets have always stored it.
type TimeSettings struct {
	Normalize bool   `json:"normalize"`
	Realign   bool   `json:"realign"`
	StartTime string `json:"start_time"`
	Interval  string `json:"interval"`
}

// IntervalMinutes parses the interval field, falling back to the default
// grid interval on blank or malformed input.
func (t TimeSettings) IntervalMinutes() int {
	v, err := strconv.Atoi(strings.TrimSpace(t.Interval))
	if err != nil || v <= 0 {
		return pipeline.DefaultIntervalMinutes
	}
	return v
}

// Default returns the settings a fresh session starts from.
func Default() Settings {
	return Settings{
		Filters: []pipeline.FilterPredicate{},
		Outlier: OutlierSettings{
			Apply:  true,
			Method: pipeline.MethodSigma25,
			Action: pipeline.ActionDrop,
		},
		Normalize: NormalizeSettings{
			Apply:  false,
			Method: pipeline.NormZScore,
		},
		Time: TimeSettings{
			Interval: strconv.Itoa(pipeline.DefaultIntervalMinutes),
		},
	}
}
