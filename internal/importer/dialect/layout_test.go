package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
)

func TestLayout_Headers(t *testing.T) {
	type args struct {
		layout dialect.Layout
		text   string
	}

	type testCase struct {
		name string
		args args
		want []string
	}

	tests := []testCase{
		{
			name: "header line is split and trimmed",
			args: args{
				layout: dialect.Layout{Delimiter: ','},
				text:   " date , \"type\",isin\r\n2024-01-01,Buy,CH1\n",
			},
			want: []string{"date", "type", "isin"},
		},
		{
			name: "duplicate names are suffixed",
			args: args{
				layout: dialect.Layout{Delimiter: ','},
				text:   "fee,amount,fee,fee,fee_2\n",
			},
			want: []string{"fee", "amount", "fee_2", "fee_3", "fee_2_2"},
		},
		{
			name: "empty text yields no columns",
			args: args{
				layout: dialect.Layout{Delimiter: ','},
				text:   "",
			},
			want: nil,
		},
		{
			name: "blank header line yields no columns",
			args: args{
				layout: dialect.Layout{Delimiter: ','},
				text:   "   \nBuy,CH1\n",
			},
			want: nil,
		},
		{
			name: "header line beyond the file yields no columns",
			args: args{
				layout: dialect.Layout{Delimiter: ',', HeaderLine: 3},
				text:   "a,b\n",
			},
			want: nil,
		},
		{
			name: "fixed header ignores the file",
			args: args{
				layout: dialect.Layout{Delimiter: ',', Mode: dialect.FixedHeader, Columns: []string{"x", "y"}, HeaderLine: 2},
				text:   "meta\nreal,header,here\n1,2\n",
			},
			want: []string{"x", "y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.args.layout.Headers(tt.args.text))
		})
	}
}

func TestLayout_DataStart(t *testing.T) {
	assert.Equal(t, 1, dialect.Layout{}.DataStart())
	assert.Equal(t, 7, dialect.Layout{HeaderLine: 7}.DataStart())
}

func TestPadRow(t *testing.T) {
	type args struct {
		line  string
		width int
	}

	type testCase struct {
		name string
		args args
		want string
	}

	tests := []testCase{
		{
			name: "short row is padded with the placeholder",
			args: args{line: "a,b", width: 4},
			want: "a,b,-,-",
		},
		{
			name: "full row is unchanged",
			args: args{line: "a,b,c", width: 3},
			want: "a,b,c",
		},
		{
			name: "long row is unchanged",
			args: args{line: "a,b,c,d", width: 3},
			want: "a,b,c,d",
		},
		{
			name: "quoted delimiters are not counted",
			args: args{line: `a,"1,5",c`, width: 4},
			want: `a,"1,5",c,-`,
		},
		{
			name: "escaped quotes keep the count",
			args: args{line: `a,"say ""hi"", ok"`, width: 3},
			want: `a,"say ""hi"", ok",-`,
		},
		{
			name: "unterminated quote is left for the tokenizer",
			args: args{line: `a,"open`, width: 4},
			want: `a,"open`,
		},
		{
			name: "blank line is unchanged",
			args: args{line: "  ", width: 4},
			want: "  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dialect.PadRow(tt.args.line, ',', tt.args.width, "-")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPadRow_Deterministic(t *testing.T) {
	first := dialect.PadRow("1,2", ',', 6, "-")
	second := dialect.PadRow("1,2", ',', 6, "-")

	assert.Equal(t, first, second)
	assert.Equal(t, first, dialect.PadRow(first, ',', 6, "-"))
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, dialect.SplitLines(""))
	assert.Equal(t, []string{"a", "", "b"}, dialect.SplitLines("a\r\n\r\nb\r\n"))
	assert.Equal(t, []string{"a", "b"}, dialect.SplitLines("a\nb"))
}
