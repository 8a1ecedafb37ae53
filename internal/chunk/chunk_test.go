package chunk

// Notes:
// - Round trips cover sizes from empty to 1 MiB. The 9-digit upper bound is
//   checked through the header parser with a truncated payload instead of
//   allocating ~1 GB in a unit test.
// - Readers without io.ByteReader are exercised with iotest.OneByteReader to
//   make sure Read never consumes bytes past the frame.

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// ---------------------------------------------------------------------------
// TestWrite - Encoding
// ---------------------------------------------------------------------------

func TestWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tag  string
		data []byte
		want string
	}{
		{"empty payload", "end", nil, "end 0\n\n"},
		{"text payload", "pdf", []byte("%PDF-stub"), "pdf 9\n%PDF-stub\n"},
		{"binary payload", "dat", []byte{0, '\n', 0xff}, "dat 3\n\x00\n\xff\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := Write(&buf, tt.tag, tt.data); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Write() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrite_InvalidTag(t *testing.T) {
	t.Parallel()

	for _, tag := range []string{"", "ab", "abcd"} {
		var buf bytes.Buffer
		err := Write(&buf, tag, []byte("x"))
		if !errors.Is(err, ErrInvalidTag) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidTag", tag, err)
		}
		if buf.Len() != 0 {
			t.Errorf("Write(%q) wrote %d bytes, want none", tag, buf.Len())
		}
	}
}

func TestWriteString_UTF8(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteString(&buf, "job", "héllo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// é is two bytes in UTF-8
	if got, want := buf.String(), "job 6\nhéllo\n"; got != want {
		t.Errorf("WriteString() = %q, want %q", got, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWrite_PropagatesWriterError(t *testing.T) {
	t.Parallel()

	err := Write(failingWriter{}, "job", []byte("{}"))
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("error = %v, want io.ErrClosedPipe", err)
	}
}

// ---------------------------------------------------------------------------
// TestRoundTrip - Encode then decode
// ---------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	sizes := []int{0, 1, 9, 10, 255, 4096, 1 << 20}
	for _, n := range sizes {
		payload := bytes.Repeat([]byte{'\n', 'x', 0}, n/3+1)[:n]

		var buf bytes.Buffer
		if err := Write(&buf, "abc", payload); err != nil {
			t.Fatalf("Write(%d) error: %v", n, err)
		}

		got, err := Read(&buf)
		if err != nil {
			t.Fatalf("Read(%d) error: %v", n, err)
		}
		if got.Tag != "abc" {
			t.Errorf("size %d: tag = %q, want %q", n, got.Tag, "abc")
		}
		if !bytes.Equal(got.Data, payload) {
			t.Errorf("size %d: payload mismatch", n)
		}
		if buf.Len() != 0 {
			t.Errorf("size %d: %d bytes left unread", n, buf.Len())
		}
	}
}

func TestRead_ConsecutiveFrames(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_ = WriteString(&buf, TagPDF, "%PDF-stub")
	_ = WriteString(&buf, TagLog, "fin|success\n")

	// OneByteReader hides ReadByte and returns at most one byte per call.
	r := iotest.OneByteReader(&buf)

	first, err := Read(r)
	if err != nil {
		t.Fatalf("first Read error: %v", err)
	}
	second, err := Read(r)
	if err != nil {
		t.Fatalf("second Read error: %v", err)
	}

	if first.Tag != TagPDF || first.String() != "%PDF-stub" {
		t.Errorf("first = %s %q", first.Tag, first.String())
	}
	if second.Tag != TagLog || second.String() != "fin|success\n" {
		t.Errorf("second = %s %q", second.Tag, second.String())
	}
}

func TestRead_MaxDigits(t *testing.T) {
	t.Parallel()

	// Nine digits are accepted by the header parser; the stream then ends.
	r := bufio.NewReader(strings.NewReader("pdf 999999999\nabc"))
	_, err := Read(r)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("error = %v, want ErrProtocol", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error = %v, want io.ErrUnexpectedEOF in chain", err)
	}
	if !strings.Contains(err.Error(), "truncated") {
		t.Errorf("error = %v, want payload truncation", err)
	}
}

// ---------------------------------------------------------------------------
// TestRead_Malformed - Framing violations
// ---------------------------------------------------------------------------

func TestRead_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty stream", ""},
		{"short tag", "pd"},
		{"missing separator", "pdf"},
		{"separator not space", "pdf\t3\nabc\n"},
		{"leading non-digit in length", "pdf x3\nabc\n"},
		{"non-digit inside length", "pdf 1a\nabc\n"},
		{"negative length", "pdf -3\nabc\n"},
		{"empty length", "pdf \n\n"},
		{"ten digit length", "pdf 0000000001\nx\n"},
		{"length without newline", "pdf 12"},
		{"payload cut short", "pdf 10\nabc"},
		{"missing trailer", "pdf 3\nabc"},
		{"wrong trailer", "pdf 3\nabcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Read(strings.NewReader(tt.input))
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("Read(%q) error = %v, want ErrProtocol", tt.input, err)
			}
		})
	}
}

func TestRead_ClosedStreamKeepsIOError(t *testing.T) {
	t.Parallel()

	_, err := Read(strings.NewReader(""))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error = %v, want io.ErrUnexpectedEOF in chain", err)
	}
}

func TestResourceRef(t *testing.T) {
	t.Parallel()

	for i, want := range []string{"job-resource:0", "job-resource:1", "job-resource:2"} {
		if got := ResourceRef(i); got != want {
			t.Errorf("ResourceRef(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestParseResourceRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref    string
		want   int
		wantOK bool
	}{
		{"job-resource:0", 0, true},
		{"job-resource:12", 12, true},
		{"job-resource:", 0, false},
		{"job-resource:-1", 0, false},
		{"job-resource:x", 0, false},
		{"style.css", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseResourceRef(tt.ref)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseResourceRef(%q) = (%d, %v), want (%d, %v)", tt.ref, got, ok, tt.want, tt.wantOK)
		}
	}
}
