package watcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	matcher := NewMatcher([]string{" 資訊安全 ", "Mindfulness", ""}, 0)

	table := []struct {
		name    string
		keyword string
		ok      bool
	}{
		{name: "通識講座：資訊安全入門", keyword: "資訊安全", ok: true},
		{name: "心靈講座：MINDFULNESS 與生活", keyword: "mindfulness", ok: true},
		{name: "心靈講座：mindfullness workshop", keyword: "mindfulness", ok: true},
		{name: "語文講座：日語入門", ok: false},
		{name: "", ok: false},
	}

	for _, row := range table {
		keyword, ok := matcher.Match(row.name)
		require.Equal(t, row.ok, ok, row.name)
		require.Equal(t, row.keyword, keyword, row.name)
	}
}

func TestMatcherWithoutKeywords(t *testing.T) {
	matcher := NewMatcher(nil, 0.9)
	_, ok := matcher.Match("任何活動")
	require.True(t, ok)
}
