package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
)

func TestRecord(t *testing.T) {
	rec := dialect.NewRecord(4, []string{"a", "b", "c"}, []string{" 1 ", "2", "3", "extra"})

	assert.Equal(t, 4, rec.Line)
	assert.Equal(t, "1", rec.Get("a"))
	assert.Equal(t, "", rec.Get("missing"))
	assert.True(t, rec.Has("c"))
	assert.False(t, rec.Has("d"))
	assert.False(t, rec.Blank("-"))

	short := dialect.NewRecord(5, []string{"a", "b"}, []string{"-"})
	assert.True(t, short.Has("b"))
	assert.Equal(t, "", short.Get("b"))
	assert.True(t, short.Blank("-"))
}

func TestClassify(t *testing.T) {
	rules := []dialect.Rule[string]{
		{Match: func(s string) bool { return dialect.ContainsAny(s, "buy") }, Kind: activity.KindBuy},
		{Match: func(s string) bool { return dialect.ContainsAny(s, "b") }, Kind: activity.KindSell},
	}

	type testCase struct {
		name   string
		input  string
		want   activity.Kind
		wantOK bool
	}

	tests := []testCase{
		{name: "first match wins", input: "Market BUY", want: activity.KindBuy, wantOK: true},
		{name: "later rule", input: "b", want: activity.KindSell, wantOK: true},
		{name: "no rule", input: "deposit", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dialect.Classify(rules, tt.input)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
