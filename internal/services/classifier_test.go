package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierBannedWords(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name        string
		productName string
		description string
		dangerous   bool
	}{
		{"banned word in name", "drug paraphernalia", "assorted items", true},
		{"banned word in description", "mystery box", "contains a replica firearm", true},
		{"banned word case-insensitive", "STOLEN bike", "", true},
		{"banned word inside larger word", "weaponized marketing book", "", true},
		{"safe listing", "Vintage dining table", "Solid oak, minor scratches", false},
		{"empty text", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dangerous, classifier.IsDangerous(tt.productName, tt.description))
		})
	}
}

func TestClassifierProfanity(t *testing.T) {
	classifier := NewClassifier(nil)

	assert.True(t, classifier.IsDangerous("old couch", "fucking great condition"))
	assert.False(t, classifier.IsDangerous("old couch", "great condition"))
}

func TestClassifierExtraWords(t *testing.T) {
	classifier := NewClassifier([]string{"Crossbow", " lockpick "})

	assert.True(t, classifier.IsDangerous("crossbow, barely used", ""))
	assert.True(t, classifier.IsDangerous("tool set", "includes a lockpick kit"))
	assert.False(t, NewClassifier(nil).IsDangerous("crossbow, barely used", ""))
}
