package hdl_test

import (
	"reflect"
	"testing"

	"github.com/db47h/ethsim/internal/hdl"
)

func TestLexer(t *testing.T) {
	l := hdl.NewLexer(" s_axis[0..3]=src_1, x=7 ")
	want := []hdl.Type{
		hdl.Ident, hdl.BracketOpen, hdl.Int, hdl.Range, hdl.Int, hdl.BracketClose,
		hdl.Equal, hdl.Ident, hdl.Comma, hdl.Ident, hdl.Equal, hdl.Int, hdl.EOF, hdl.EOF,
	}
	for i, w := range want {
		it := l.Lex()
		if it.Type != w {
			t.Fatalf("token %d: got %v, expected %v", i, it, w)
		}
	}
}

func TestParser(t *testing.T) {
	data := []struct {
		in    string
		conns bool
		out   []interface{}
		err   string
	}{
		{"", false, nil, ""},
		{"a, b[4]", false, []interface{}{
			hdl.Pin{"a", 0},
			hdl.PinIndex{hdl.Pin{"b", 3}, 4},
		}, ""},
		{"in[0..7]=bus[8..15], m_axis=out", true, []interface{}{
			hdl.PinAssignment{
				hdl.PinRange{hdl.Pin{"in", 0}, 0, 7},
				hdl.PinRange{hdl.Pin{"bus", 9}, 8, 15},
			},
			hdl.PinAssignment{hdl.Pin{"m_axis", 21}, hdl.Pin{"out", 28}},
		}, ""},
		{"a=b", false, nil, `in "a=b" at pos 2: unexpected '='`},
		{"a[x]", false, nil, `in "a[x]" at pos 3: integer value expected after '['`},
		{"a[1..]", false, nil, `in "a[1..]" at pos 6: integer value expected after '..'`},
		{"a[1", false, nil, `in "a[1" at pos 4: closing ']' expected after index or range`},
		{"a=?", true, nil, `in "a=?" at pos 3: expected pin name`},
	}
	for _, d := range data {
		t.Run(d.in, func(t *testing.T) {
			p := &hdl.Parser{Input: d.in}
			var got []interface{}
			for {
				v, err := p.Next(d.conns)
				if err != nil {
					if err.Error() != d.err {
						t.Fatalf("got error %q, expected %q", err, d.err)
					}
					return
				}
				if v == nil {
					break
				}
				got = append(got, v)
			}
			if d.err != "" {
				t.Fatalf("expected error %q", d.err)
			}
			if !reflect.DeepEqual(got, d.out) {
				t.Fatalf("got %#v, expected %#v", got, d.out)
			}
		})
	}
}
