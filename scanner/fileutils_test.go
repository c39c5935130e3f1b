package scanner

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func makeFiles(n int) []string {
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("img%03d.png", i)
	}
	return files
}

func TestPartition_CoversListExactlyOnce(t *testing.T) {
	tests := []struct {
		files       int
		parallelism int
		wantChunks  int
	}{
		{0, 4, 0},
		{1, 4, 1},
		{3, 4, 1},
		{4, 4, 4},
		{5, 4, 5},
		{10, 4, 5},
		{16, 4, 4},
		{17, 4, 5},
		{7, 1, 1},
		{7, 0, 1},
		{100, 8, 9},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d,p=%d", tt.files, tt.parallelism), func(t *testing.T) {
			files := makeFiles(tt.files)
			chunks := Partition(files, tt.parallelism)

			if len(chunks) != tt.wantChunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}

			var joined []string
			for i, c := range chunks {
				if len(c) == 0 {
					t.Errorf("chunk %d is empty", i)
				}
				joined = append(joined, c...)
			}
			if len(files) == 0 {
				if len(joined) != 0 {
					t.Errorf("expected no files in chunks, got %v", joined)
				}
				return
			}
			if !reflect.DeepEqual(joined, files) {
				t.Errorf("chunks do not partition the list:\n got %v\nwant %v", joined, files)
			}
		})
	}
}

func TestPartition_ChunkCountIsCeil(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for p := 1; p <= 9; p++ {
			chunks := Partition(makeFiles(n), p)
			if n < p {
				if len(chunks) != 1 {
					t.Errorf("n=%d p=%d: got %d chunks, want 1", n, p, len(chunks))
				}
				continue
			}
			size := n / p
			want := (n + size - 1) / size
			if len(chunks) != want {
				t.Errorf("n=%d p=%d: got %d chunks, want %d", n, p, len(chunks), want)
			}
		}
	}
}

func TestPartition_ChunksDoNotAlias(t *testing.T) {
	chunks := Partition(makeFiles(8), 4)
	chunks[0] = append(chunks[0], "extra.png")
	if chunks[1][0] != "img002.png" {
		t.Errorf("appending to one chunk overwrote the next: %v", chunks[1])
	}
}

func TestListCandidates(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"b.jpg", "a.png", "c.jpeg", "d.PNG", "e.gif", "notes.txt", "sub/f.png"} {
		if err := afero.WriteFile(fs, "/photos/"+name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := fs.MkdirAll("/photos/album.png", 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListCandidates(fs, "/photos", false)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	want := []string{"/photos/a.png", "/photos/b.jpg", "/photos/c.jpeg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = ListCandidates(fs, "/photos", true)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	want = []string{"/photos/a.png", "/photos/b.jpg", "/photos/c.jpeg", "/photos/d.PNG"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ignoreCase: got %v, want %v", got, want)
	}

	if _, err := ListCandidates(fs, "/missing", false); err == nil {
		t.Error("expected error for missing directory")
	}
}
