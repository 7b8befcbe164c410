package scoring

import "math"

type Class string

const (
	ClassNeutral     Class = "neutral"
	ClassFavorable   Class = "favorable"
	ClassUnfavorable Class = "unfavorable"
)

// IndicatorConfig tunes when a value is colored as an outlier. Coloring
// starts at Threshold standard deviations and saturates at Cap, with the
// opacity ramping linearly between MinOpacity and MaxOpacity.
type IndicatorConfig struct {
	Threshold  float64
	Cap        float64
	MinOpacity float64
	MaxOpacity float64
}

func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		Threshold:  0.5,
		Cap:        2.0,
		MinOpacity: 0.10,
		MaxOpacity: 0.75,
	}
}

func NormalizeIndicatorConfig(cfg IndicatorConfig) IndicatorConfig {
	defaults := DefaultIndicatorConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaults.Threshold
	}
	if cfg.Cap <= cfg.Threshold {
		cfg.Cap = defaults.Cap
	}
	if cfg.MinOpacity <= 0 {
		cfg.MinOpacity = defaults.MinOpacity
	}
	if cfg.MaxOpacity <= cfg.MinOpacity {
		cfg.MaxOpacity = defaults.MaxOpacity
	}
	return cfg
}

// Indicator is the presentation form of a z-score: a class for the color and
// an opacity for its strength. Values within Threshold of the mean stay
// neutral with zero opacity.
type Indicator struct {
	ZScore  float64 `json:"zScore"`
	Defined bool    `json:"defined"`
	Class   Class   `json:"class"`
	Opacity float64 `json:"opacity"`
}

// Classify maps a z-score to its indicator. higherIsBetter flips which sign
// counts as favorable: for conceded-points metrics a below-mean value is the
// good side.
func (c IndicatorConfig) Classify(z ZScore, higherIsBetter bool) Indicator {
	if !z.Defined {
		return Indicator{Class: ClassNeutral}
	}

	out := Indicator{ZScore: z.Value, Defined: true, Class: ClassNeutral}
	absZ := math.Abs(z.Value)
	if absZ < c.Threshold {
		return out
	}

	capped := math.Min(absZ, c.Cap)
	out.Opacity = (capped-c.Threshold)/(c.Cap-c.Threshold)*(c.MaxOpacity-c.MinOpacity) + c.MinOpacity

	favorable := z.Value > 0
	if !higherIsBetter {
		favorable = z.Value < 0
	}
	if favorable {
		out.Class = ClassFavorable
	} else {
		out.Class = ClassUnfavorable
	}
	return out
}
