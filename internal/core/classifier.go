package core

import (
	"fmt"
)

// Default category thresholds
const (
	DefaultActionThreshold = 60
	DefaultFYIThreshold    = 30
)

// ClassifierConfig is the immutable threshold configuration. The three
// bands exhaustively cover every score when the config is valid.
type ClassifierConfig struct {
	ActionThreshold int
	FYIThreshold    int
}

// Validate rejects threshold configurations the bands cannot cover
func (c ClassifierConfig) Validate() error {
	if c.FYIThreshold > c.ActionThreshold {
		return fmt.Errorf("fyi threshold %d exceeds action threshold %d", c.FYIThreshold, c.ActionThreshold)
	}
	return nil
}

// Classifier maps total scores onto triage categories
type Classifier struct {
	actionThreshold int
	fyiThreshold    int
}

// NewClassifier creates a classifier from validated configuration
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{
		actionThreshold: cfg.ActionThreshold,
		fyiThreshold:    cfg.FYIThreshold,
	}
}

// ActionThreshold returns the inclusive lower bound of ACTION
func (c *Classifier) ActionThreshold() int {
	return c.actionThreshold
}

// FYIThreshold returns the inclusive lower bound of FYI
func (c *Classifier) FYIThreshold() int {
	return c.fyiThreshold
}

// Classify maps a score to its category. Lower bounds are inclusive:
// a score equal to the action threshold is ACTION, equal to the FYI
// threshold is FYI.
func (c *Classifier) Classify(totalScore int) Category {
	switch {
	case totalScore >= c.actionThreshold:
		return CategoryAction
	case totalScore >= c.fyiThreshold:
		return CategoryFYI
	default:
		return CategoryIgnore
	}
}
