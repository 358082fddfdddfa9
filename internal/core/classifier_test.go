package core

import (
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	classifier := NewClassifier(ClassifierConfig{
		ActionThreshold: DefaultActionThreshold,
		FYIThreshold:    DefaultFYIThreshold,
	})

	tests := []struct {
		score int
		want  Category
	}{
		{100, CategoryAction},
		{61, CategoryAction},
		{60, CategoryAction},
		{59, CategoryFYI},
		{31, CategoryFYI},
		{30, CategoryFYI},
		{29, CategoryIgnore},
		{1, CategoryIgnore},
		{0, CategoryIgnore},
	}
	for _, tt := range tests {
		if got := classifier.Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	// Re-deriving categories needs only a new classifier, never a
	// re-score.
	classifier := NewClassifier(ClassifierConfig{ActionThreshold: 30, FYIThreshold: 20})

	if got := classifier.Classify(30); got != CategoryAction {
		t.Errorf("Classify(30) = %s, want ACTION", got)
	}
	if got := classifier.Classify(25); got != CategoryFYI {
		t.Errorf("Classify(25) = %s, want FYI", got)
	}
	if got := classifier.Classify(19); got != CategoryIgnore {
		t.Errorf("Classify(19) = %s, want IGNORE", got)
	}
}

func TestClassifierConfigValidate(t *testing.T) {
	valid := ClassifierConfig{ActionThreshold: 60, FYIThreshold: 30}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() returned %v for valid config", err)
	}

	equal := ClassifierConfig{ActionThreshold: 40, FYIThreshold: 40}
	if err := equal.Validate(); err != nil {
		t.Errorf("Validate() returned %v for equal thresholds", err)
	}

	inverted := ClassifierConfig{ActionThreshold: 30, FYIThreshold: 60}
	if err := inverted.Validate(); err == nil {
		t.Error("Validate() accepted fyi threshold above action threshold")
	}
}

func TestCategoryDescription(t *testing.T) {
	for _, category := range []Category{CategoryAction, CategoryFYI, CategoryIgnore} {
		if category.Description() == "" {
			t.Errorf("Description() empty for %s", category)
		}
	}
	if Category("BOGUS").Description() == "" {
		t.Error("Description() empty for unknown category")
	}
}
