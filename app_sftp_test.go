package main

import (
	"testing"
	"time"
)

func TestJoinRemotePath(t *testing.T) {
	cases := []struct {
		base string
		name string
		want string
	}{
		{"/home/user", "file.txt", "/home/user/file.txt"},
		{"/home/user/", "file.txt", "/home/user/file.txt"},
		{"/", "etc", "/etc"},
		{"", "file.txt", "file.txt"},
		{"/home/user", "", "/home/user"},
	}

	for _, c := range cases {
		if got := joinRemotePath(c.base, c.name); got != c.want {
			t.Errorf("joinRemotePath(%q, %q) = %q, want %q", c.base, c.name, got, c.want)
		}
	}
}

func TestShellQuote(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain.txt", "'plain.txt'"},
		{"with space.txt", "'with space.txt'"},
		{"it's.txt", `'it'\''s.txt'`},
		{"", "''"},
	}

	for _, c := range cases {
		if got := shellQuote(c.in); got != c.want {
			t.Errorf("shellQuote(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseElevatedListing(t *testing.T) {
	output := "total 24\n" +
		"drwxr-xr-x 2 root root 4096 1714000000 ssl\n" +
		"-rw-r----- 1 root shadow 1519 1713000000 shadow\n" +
		"lrwxrwxrwx 1 root root 21 1712000000 localtime -> /usr/share/zoneinfo/UTC\n" +
		"-rw-r--r-- 1 root root 220 1711000000 name with spaces.conf\n"

	entries := parseElevatedListing("/etc", output)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(entries), entries)
	}

	dir := entries[0]
	if !dir.IsDir || dir.Name != "ssl" || dir.Path != "/etc/ssl" {
		t.Fatalf("directory entry wrong: %+v", dir)
	}

	file := entries[1]
	if file.IsDir || file.Size != 1519 || file.Mode != "-rw-r-----" {
		t.Fatalf("file entry wrong: %+v", file)
	}
	if !file.ModifiedTime.Equal(time.Unix(1713000000, 0)) {
		t.Fatalf("modified time wrong: %v", file.ModifiedTime)
	}

	link := entries[2]
	if !link.IsSymlink || link.Name != "localtime" || link.SymlinkTarget != "/usr/share/zoneinfo/UTC" {
		t.Fatalf("symlink entry wrong: %+v", link)
	}

	spaced := entries[3]
	if spaced.Name != "name with spaces.conf" || spaced.Path != "/etc/name with spaces.conf" {
		t.Fatalf("spaces in name not preserved: %+v", spaced)
	}
}

func TestParseElevatedListingSkipsMalformedLines(t *testing.T) {
	output := "total 8\n" +
		"\n" +
		"garbage line\n" +
		"-rw-r--r-- 1 root root 5 not-an-epoch broken\n" +
		"-rw-r--r-- 1 root root 5 1714000000 good.txt\n"

	entries := parseElevatedListing("/tmp", output)
	if len(entries) != 1 || entries[0].Name != "good.txt" {
		t.Fatalf("expected only the well-formed line, got %+v", entries)
	}
}

func TestIsTextContentWithExtension(t *testing.T) {
	text := []byte("hello world\n")
	binary := []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01}

	cases := []struct {
		path    string
		content []byte
		want    bool
	}{
		{"/etc/nginx/nginx.conf", text, true},
		{"/srv/app/Dockerfile", text, true},
		{"/home/user/.bashrc", text, true},
		// Known text extension wins even over suspicious bytes.
		{"/var/log/app.log", binary, true},
		// Unknown extension falls back to content sniffing.
		{"/usr/bin/app", binary, false},
		{"/home/user/notes", text, true},
	}

	for _, c := range cases {
		if got := isTextContentWithExtension(c.path, c.content); got != c.want {
			t.Errorf("isTextContentWithExtension(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestIsTextContent(t *testing.T) {
	if !isTextContent([]byte("plain ascii\twith\ttabs\r\n")) {
		t.Error("ascii text misclassified as binary")
	}
	if !isTextContent([]byte("UTF-8: héllo wörld")) {
		t.Error("utf-8 text misclassified as binary")
	}
	if isTextContent([]byte{'a', 0x00, 'b'}) {
		t.Error("null byte should mean binary")
	}
	if isTextContent([]byte{1, 2, 3, 4, 5, 6, 7, 8, 'a'}) {
		t.Error("mostly unprintable content should mean binary")
	}
	if !isTextContent(nil) {
		t.Error("empty content defaults to text")
	}
}
