package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		total, page, size int
		want              Page
	}{
		{0, 1, 10, Page{Number: 1, Size: 10, Total: 0, Pages: 1}},
		{25, 2, 10, Page{Number: 2, Size: 10, Total: 25, Pages: 3}},
		{25, 9, 10, Page{Number: 3, Size: 10, Total: 25, Pages: 3}},
		{25, -1, 10, Page{Number: 1, Size: 10, Total: 25, Pages: 3}},
		{5, 1, 0, Page{Number: 1, Size: 10, Total: 5, Pages: 1}},
	}
	for _, tc := range cases {
		if got := Paginate(tc.total, tc.page, tc.size); got != tc.want {
			t.Fatalf("Paginate(%d,%d,%d) = %+v; want %+v", tc.total, tc.page, tc.size, got, tc.want)
		}
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	p := Paginate(len(items), 3, 3)
	got := Slice(items, p)
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("Slice last page = %v", got)
	}
	if !p.HasPrev() || p.HasNext() {
		t.Fatalf("HasPrev/HasNext wrong for %+v", p)
	}
	if got := Slice([]int{}, Paginate(0, 1, 3)); got != nil {
		t.Fatalf("Slice empty = %v", got)
	}
}
