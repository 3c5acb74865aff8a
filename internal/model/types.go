// Package model defines shared data structures.
package model

// Config defines animation settings.
type Config struct {
	Dataset       string  `validate:"omitempty"`
	AvatarPattern string  `validate:"required"`
	FPS           int     `validate:"gte=1,lte=120"`
	Step          float64 `validate:"gt=0,lte=1"`
	NavStep       float64 `validate:"gt=0"`
	WindowSeconds float64 `validate:"gt=0"`
	PenaltySecs   float64 `validate:"gt=0"`
	Margin        int     `validate:"gte=0"`
	Autoplay      bool
}

// ServerConfig defines settings for the HTTP API.
type ServerConfig struct {
	Addr string `validate:"required"`
}

// Jersey is a classification jersey held by a rider after a stage.
type Jersey struct {
	ImgSrc      string `json:"imgSrc" yaml:"imgSrc"`
	Description string `json:"description" yaml:"description"`
}

// RiderResult is one row of a stage's published results.
type RiderResult struct {
	Position  string   `json:"position" yaml:"position"`
	Name      string   `json:"name" yaml:"name" validate:"required"`
	Team      string   `json:"team" yaml:"team"`
	Avatar    string   `json:"avatar" yaml:"avatar" validate:"required"`
	Flag      string   `json:"flag" yaml:"flag"`
	Country   string   `json:"country" yaml:"country"`
	FieldTime string   `json:"fieldTime" yaml:"fieldTime" validate:"required"`
	FieldGap  string   `json:"fieldGap" yaml:"fieldGap"`
	Jerseys   []Jersey `json:"jerseys" yaml:"jerseys"`
}

// Stage is one day of racing as published.
type Stage struct {
	Index       string        `json:"index" yaml:"index" validate:"required"`
	Description string        `json:"description" yaml:"description"`
	Type        string        `json:"type" yaml:"type"`
	Date        string        `json:"date" yaml:"date"`
	Riders      []RiderResult `json:"riders" yaml:"riders" validate:"required,min=1,dive"`
}

// RiderSummary is the per-rider identity snapshot kept for the whole tour.
type RiderSummary struct {
	Name               string  `json:"name" yaml:"name"`
	Team               string  `json:"team" yaml:"team"`
	AvatarIndex        int     `json:"avatarIndex" yaml:"avatarIndex"`
	Flag               string  `json:"flag" yaml:"flag"`
	Country            string  `json:"country" yaml:"country"`
	AccumulatedSeconds int64   `json:"accumulatedSeconds" yaml:"accumulatedSeconds"`
	Lane               float64 `json:"lane" yaml:"lane"`
}

// StandingRider is a stage result annotated with the general classification time.
type StandingRider struct {
	RiderResult        `yaml:",inline"`
	StageSeconds       int64 `json:"stageSeconds" yaml:"stageSeconds"`
	Bonus              int64 `json:"bonus" yaml:"bonus"`
	AccumulatedSeconds int64 `json:"accumulatedSeconds" yaml:"accumulatedSeconds"`
}

// AggregatedStage is a stage whose riders are ordered by accumulated time.
type AggregatedStage struct {
	Ordinal     int             `json:"ordinal" yaml:"ordinal"`
	Index       string          `json:"index" yaml:"index"`
	Description string          `json:"description" yaml:"description"`
	Type        string          `json:"type" yaml:"type"`
	Date        string          `json:"date" yaml:"date"`
	Riders      []StandingRider `json:"riders" yaml:"riders"`
	// ByName maps a rider name to its position in Riders.
	ByName map[string]int `json:"-" yaml:"-"`
}

// Rider returns the named rider's standing in this stage.
func (s *AggregatedStage) Rider(name string) (StandingRider, bool) {
	i, ok := s.ByName[name]
	if !ok {
		return StandingRider{}, false
	}
	return s.Riders[i], true
}

// Title returns the stage heading shown above the chart.
func (s *AggregatedStage) Title() string {
	if s.Description == "" {
		return s.Index
	}
	return s.Index + ": " + s.Description
}

// Tour is the result of aggregating a whole race.
type Tour struct {
	Stages         []AggregatedStage        `json:"stages" yaml:"stages"`
	Riders         map[string]*RiderSummary `json:"riders" yaml:"riders"`
	MaxAvatarIndex int                      `json:"maxAvatarIndex" yaml:"maxAvatarIndex"`
}

// PositionedRider is a rider placed on the chart for one animation frame.
type PositionedRider struct {
	Rider     RiderSummary `json:"rider"`
	Seconds   float64      `json:"seconds"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Jerseys   []Jersey     `json:"jerseys"`
	Abandoned bool         `json:"abandoned"`
}
