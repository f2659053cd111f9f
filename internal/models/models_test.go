package models

import "testing"

func TestParseSortDirection(t *testing.T) {
	tc := []struct {
		in      string
		want    SortDirection
		wantErr bool
	}{
		{in: "", want: SortNone},
		{in: "none", want: SortNone},
		{in: "asc", want: SortAscending},
		{in: "Ascending", want: SortAscending},
		{in: "desc", want: SortDescending},
		{in: "DESCENDING", want: SortDescending},
		{in: "sideways", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortDirection(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSortDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSortDirection(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSortColumn(t *testing.T) {
	if c, err := ParseSortColumn(" Artist "); err != nil || c != ColumnArtist {
		t.Errorf("expected artist column, got %q (%v)", c, err)
	}
	if _, err := ParseSortColumn("genre"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestSongIndex(t *testing.T) {
	idx := SongIndex{}
	idx.Add(Song{ID: "a", Title: "First"}, Song{ID: "b", Title: "Second"})

	if s, ok := idx.FindByID("a"); !ok || s.Title != "First" {
		t.Errorf("expected song a, got %+v (%v)", s, ok)
	}
	if _, ok := idx.FindByID("missing"); ok {
		t.Error("expected missing id to be unresolved")
	}
}
