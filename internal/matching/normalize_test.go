package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "MARATHON", "marathon"},
		{"accents stripped", "Vallée d'Ossau", "vallee d'ossau"},
		{"curly apostrophe unified", "l’orchis", "l'orchis"},
		{"punctuation to space", "GTVO - Le Grand Trail", "gtvo le grand trail"},
		{"whitespace collapsed", "  trail   des  cimes ", "trail des cimes"},
		{"ligature expanded", "œuvre", "oeuvre"},
		{"digits kept", "10 km de Paris", "10 km de paris"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeString(tt.input))
		})
	}
}

func TestNormalizeString_Idempotent(t *testing.T) {
	inputs := []string{
		"GRAND TRAIL DE LA VALLÉE D'OSSAU",
		"Corrida de Noël n°7",
		"  déjà   normalisé  ",
		"10 km de l’Hers",
		"",
	}
	for _, s := range inputs {
		once := NormalizeString(s)
		assert.Equal(t, once, NormalizeString(once), "input %q", s)
	}
}

func TestRemoveEditionNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"eme edition", "Marathon du Médoc 38ème édition", "Marathon du Médoc"},
		{"plain edition", "Trail des Cimes 12 edition", "Trail des Cimes"},
		{"hash number", "Trail des Cimes #12", "Trail des Cimes"},
		{"n degree", "Corrida de Noël n°7", "Corrida de Noël"},
		{"trailing year", "Marathon d'Annecy 2026", "Marathon d'Annecy"},
		{"trailing parenthetical", "Trail du Ventoux (épreuve annulée)", "Trail du Ventoux"},
		{"parenthetical then year", "Ronde des Lacs 2025 (officiel)", "Ronde des Lacs"},
		{"year inside name kept", "Course 2000 mètres chrono", "Course 2000 mètres chrono"},
		{"no marker", "Grand Trail de la Vallée d'Ossau", "Grand Trail de la Vallée d'Ossau"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemoveEditionNumber(tt.input))
		})
	}
}

func TestRemoveSponsors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"leading sponsor", "brooks marathon annecy", "marathon annecy"},
		{"trailing sponsor", "marathon annecy asics", "marathon annecy"},
		{"compound brand removed whole", "schneider electric marathon de paris", "marathon de paris"},
		{"standalone word only", "les brooksiens du dimanche", "les brooksiens du dimanche"},
		{"no sponsor", "trail des passerelles", "trail des passerelles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemoveSponsors(tt.input))
		})
	}
}

func TestRemoveStopwords(t *testing.T) {
	got := RemoveStopwords("le grand trail de la vallee", eventStopwords, 4)
	assert.Equal(t, "grand vallee", got)

	got = RemoveStopwords("saint jean de luz", cityStopwords, 3)
	assert.Equal(t, "jean luz", got)
}

func TestExtractKeywords(t *testing.T) {
	t.Run("longest first", func(t *testing.T) {
		got := ExtractKeywords("gtvo le grand trail de la vallee d'ossau")
		assert.Equal(t, []string{"d'ossau", "vallee", "grand", "gtvo"}, got)
	})

	t.Run("race-type words dropped", func(t *testing.T) {
		got := ExtractKeywords("marathon du lac d'annecy")
		assert.Equal(t, []string{"d'annecy"}, got)
	})

	t.Run("nothing qualifies", func(t *testing.T) {
		assert.Nil(t, ExtractKeywords("le de la"))
	})
}

func TestGetPrimaryKeyword(t *testing.T) {
	assert.Equal(t, "d'ossau", GetPrimaryKeyword("grand trail de la vallee d'ossau"))
	assert.Equal(t, "", GetPrimaryKeyword("course de la ville"))
}

func TestCalculateNameQuality(t *testing.T) {
	t.Run("all filler scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateNameQuality("le de la"))
	})

	t.Run("empty scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateNameQuality(""))
	})

	t.Run("long primary keyword earns bonus", func(t *testing.T) {
		// 1 keyword out of 2 words, "caburotte" is 9 chars
		got := CalculateNameQuality("la caburotte")
		assert.InDelta(t, 0.5+0.2, got, 1e-9)
	})

	t.Run("capped at one", func(t *testing.T) {
		got := CalculateNameQuality("caburotte")
		assert.Equal(t, 1.0, got)
	})
}
