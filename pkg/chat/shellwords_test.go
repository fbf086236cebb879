package chat

import (
	"reflect"
	"testing"
)

func TestSplitShellWords(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"echo hello", []string{"echo", "hello"}},
		{"echo  hello   world", []string{"echo", "hello", "world"}},
		{`echo "hello world"`, []string{"echo", "hello world"}},
		{`echo 'hello world'`, []string{"echo", "hello world"}},
		{`echo hello\ world`, []string{"echo", "hello world"}},
		{`echo "a \"quoted\" word"`, []string{"echo", `a "quoted" word`}},
	}
	for _, c := range cases {
		got, err := splitShellWords(c.in)
		if err != nil {
			t.Errorf("splitShellWords(%q): unexpected error %v", c.in, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("splitShellWords(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestSplitShellWords_Errors(t *testing.T) {
	cases := []string{
		`echo 'unterminated`,
		`echo "unterminated`,
		`echo trailing\`,
	}
	for _, in := range cases {
		if _, err := splitShellWords(in); err == nil {
			t.Errorf("splitShellWords(%q): expected error, got nil", in)
		}
	}
}
