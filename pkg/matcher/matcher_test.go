package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/xtsmerge/pkg/matcher"
)

var summaryKeys = []string{
	"Suite / Plan",
	"Suite / Build",
	"Host Info",
	"Fingerprint",
	"Security Patch",
	"Release (SDK)",
	"ABIs",
}

func TestExact(t *testing.T) {
	hit, ok := matcher.Exact{}.Match("Fingerprint", summaryKeys)
	assert.True(t, ok)
	assert.Equal(t, "Fingerprint", hit)

	_, ok = matcher.Exact{}.Match("fingerprint", summaryKeys)
	assert.False(t, ok)

	_, ok = matcher.Exact{}.Match("Fingerprint", nil)
	assert.False(t, ok)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100, matcher.Score("Host Info", "Host Info"))
	assert.Equal(t, 100, matcher.Score("HOST  info", "host info"))
	assert.Equal(t, 100, matcher.Score("", ""))
	assert.Equal(t, 0, matcher.Score("abc", ""))
	// one edit in eleven runes
	assert.Equal(t, 90, matcher.Score("Fingerprint", "Fingerprnt"))
	assert.Less(t, matcher.Score("ABIs", "Host Info"), 50)
}

func TestScoreIgnoresPunctuation(t *testing.T) {
	assert.Equal(t, 100, matcher.Score("Suite/Build", "Suite / Build"))
	assert.Equal(t, 100, matcher.Score("Release(SDK)", "Release (SDK)"))
	assert.Equal(t, 100, matcher.Score("security_patch", "Security Patch"))
	assert.Equal(t, 100, matcher.Score("/", ""))

	hit, ok := matcher.Default().Match("Suite/Build", summaryKeys)
	assert.True(t, ok)
	assert.Equal(t, "Suite / Build", hit)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		query     string
		want      string
		wantOK    bool
	}{
		{"case differs", 90, "security patch", "Security Patch", true},
		{"one typo in long key", 90, "Security Pach", "Security Patch", true},
		{"score must strictly exceed threshold", 90, "Fingerprnt", "", false},
		{"lower threshold accepts", 89, "Fingerprnt", "Fingerprint", true},
		{"unrelated key", 90, "Kernel", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := matcher.NewSimilarity(tt.threshold).Match(tt.query, summaryKeys)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, hit)
		})
	}
}

func TestSimilarityTieKeepsFirst(t *testing.T) {
	hit, ok := matcher.NewSimilarity(50).Match("abcd", []string{"abce", "abcf"})
	assert.True(t, ok)
	assert.Equal(t, "abce", hit)
}

func TestNewSimilarityClampsThreshold(t *testing.T) {
	assert.Equal(t, 90, matcher.NewSimilarity(-1).Threshold)
	assert.Equal(t, 90, matcher.NewSimilarity(101).Threshold)
	assert.Equal(t, 75, matcher.NewSimilarity(75).Threshold)
}

func TestChain(t *testing.T) {
	m := matcher.Default()

	hit, ok := m.Match("ABIs", summaryKeys)
	assert.True(t, ok)
	assert.Equal(t, "ABIs", hit)

	hit, ok = m.Match("release (sdk)", summaryKeys)
	assert.True(t, ok)
	assert.Equal(t, "Release (SDK)", hit)

	_, ok = m.Match("Modules Done", summaryKeys)
	assert.False(t, ok)

	_, ok = matcher.Chain{nil}.Match("ABIs", summaryKeys)
	assert.False(t, ok)

	hit, ok = matcher.WithThreshold(50).Match("Host", summaryKeys)
	assert.False(t, ok, "Host vs Host Info scores 44")
	assert.Empty(t, hit)
}
