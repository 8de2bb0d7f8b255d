package dispersion

// ClassifierConfig holds the tunable parameters of the stability
// classifier. The physics tables stay swappable for testing; nothing is
// hard-coded inside the classification itself.
type ClassifierConfig struct {
	// DayStartHour and DayEndHour bound the local daytime window.
	// Defaults: 6 and 18.
	DayStartHour int
	DayEndHour   int

	// OvercastFraction is the cloud cover fraction at or above which the
	// sky counts as overcast rather than strong/moderate insolation.
	// Default: 0.5.
	OvercastFraction float64

	// DefaultCloudCover substitutes for a missing cloud cover reading.
	// This is a genuinely ambiguous physical default, not a clamped
	// caller bug. Default: 0.5.
	DefaultCloudCover float64

	// StrongWindSpeed is the wind speed in m/s above which mechanical
	// turbulence dominates and the class is D at any time of day.
	// Default: 6.
	StrongWindSpeed float64
}

// DefaultClassifierConfig returns the standard Pasquill-Gifford
// parameterization.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		DayStartHour:      6,
		DayEndHour:        18,
		OvercastFraction:  0.5,
		DefaultCloudCover: 0.5,
		StrongWindSpeed:   6,
	}
}

// Classifier maps a weather observation to a Pasquill-Gifford stability
// class. It never fails: incomplete inputs fall back to class D (neutral).
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a Classifier, filling zero config fields with
// defaults.
func NewClassifier(config ClassifierConfig) *Classifier {
	defaults := DefaultClassifierConfig()
	if config.DayStartHour <= 0 {
		config.DayStartHour = defaults.DayStartHour
	}
	if config.DayEndHour <= 0 {
		config.DayEndHour = defaults.DayEndHour
	}
	if config.OvercastFraction <= 0 {
		config.OvercastFraction = defaults.OvercastFraction
	}
	if config.DefaultCloudCover <= 0 {
		config.DefaultCloudCover = defaults.DefaultCloudCover
	}
	if config.StrongWindSpeed <= 0 {
		config.StrongWindSpeed = defaults.StrongWindSpeed
	}
	return &Classifier{config: config}
}

// Classify returns the stability class for the observation.
//
// Daytime crosses wind-speed bands with an insolation proxy from cloud
// cover; night uses cloud cover alone. High wind forces D irrespective of
// sky condition. Wind speed is clamped at zero and missing cloud cover
// defaults to a mid value, so a class always comes back.
func (c *Classifier) Classify(w WeatherState) StabilityClass {
	wind := w.WindSpeed
	if wind < 0 {
		wind = 0
	}

	cloud := c.config.DefaultCloudCover
	if w.CloudCover != nil {
		cloud = *w.CloudCover
	}

	if wind >= c.config.StrongWindSpeed {
		return StabilityD
	}

	overcast := cloud >= c.config.OvercastFraction

	if c.isDaytime(w) {
		return c.classifyDay(wind, overcast)
	}
	return c.classifyNight(wind, overcast)
}

func (c *Classifier) isDaytime(w WeatherState) bool {
	if w.ObservedAt.IsZero() {
		// Incomplete input; daytime gives the neutral-leaning branch.
		return true
	}
	hour := w.ObservedAt.Hour()
	return hour >= c.config.DayStartHour && hour < c.config.DayEndHour
}

func (c *Classifier) classifyDay(wind float64, overcast bool) StabilityClass {
	if overcast {
		switch {
		case wind < 2:
			return StabilityB
		case wind < 5:
			return StabilityC
		default:
			return StabilityD
		}
	}
	switch {
	case wind < 2:
		return StabilityA
	case wind < 5:
		return StabilityB
	default:
		return StabilityC
	}
}

func (c *Classifier) classifyNight(wind float64, overcast bool) StabilityClass {
	if overcast {
		if wind < 2 {
			return StabilityE
		}
		return StabilityD
	}
	switch {
	case wind < 2:
		return StabilityF
	case wind < 3:
		return StabilityE
	default:
		return StabilityD
	}
}
