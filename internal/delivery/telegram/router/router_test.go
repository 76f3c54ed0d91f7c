package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"roster-bot/pkg/logging"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data, key, payload string
	}{
		{"\fsort|salary", "sort", "salary"},
		{"\fpage|3", "page", "3"},
		{"\frefresh", "refresh", ""},
		{"\fmark|a|b", "mark", "a|b"},
		{"plain", "plain", ""},
		{"\fempty|", "empty", ""},
	}
	for _, tt := range tests {
		key, payload := ParseCallback(tt.data)
		assert.Equal(t, tt.key, key, tt.data)
		assert.Equal(t, tt.payload, payload, tt.data)
	}
}

func TestRegister(t *testing.T) {
	r := New(logging.Discard().WithField("test", true))
	r.Register("page", nil)
	r.Register("sort", nil)
	assert.ElementsMatch(t, []string{"page", "sort"}, r.Keys())
}
