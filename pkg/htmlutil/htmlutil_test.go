package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripTags(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "plain text", expected: "plain text"},
		{input: "<p>第一行</p><p>第二行</p>", expected: "第一行\n第二行"},
		{input: "講者：<b>王小明</b><br/>地點：<i>圖書館</i>", expected: "講者：王小明\n地點：圖書館"},
		{input: "<div>  spaced \t  out </div><script>alert(1)</script>", expected: "spaced out"},
		{input: "", expected: ""},
	}

	for _, row := range table {
		result, err := StripTags(row.input)
		require.NoError(t, err)
		require.Equal(t, row.expected, result)
	}
}

func TestResolveHref(t *testing.T) {
	link, err := ResolveHref(nil, "  ")
	require.NoError(t, err)
	require.Nil(t, link)

	link, err = ResolveHref(nil, "finish.php")
	require.NoError(t, err)
	require.Equal(t, "finish.php", link.String())
}
