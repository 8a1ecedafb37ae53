// Package chunk implements the length-prefixed framing used on the control
// process pipes.
//
// A frame is a 3-byte tag, a space, the payload length in decimal (1 to 9
// digits), a newline, the payload, and a trailing newline:
//
//	pdf 9\n%PDF-stub\n
package chunk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Tags exchanged with the engine.
const (
	TagVersion  = "ver"
	TagError    = "err"
	TagJob      = "job"
	TagData     = "dat"
	TagPDF      = "pdf"
	TagPNG      = "png"
	TagJPEG     = "jpg"
	TagLog      = "log"
	TagEnd      = "end"
	tagLength   = 3
	maxLenDigit = 9
)

// resourcePrefix is how job descriptors refer to attached dat chunks.
const resourcePrefix = "job-resource:"

// Sentinel errors for framing failures.
var (
	ErrProtocol   = errors.New("protocol error")
	ErrInvalidTag = errors.New("chunk tag must be 3 bytes")
)

// Chunk is one decoded frame.
type Chunk struct {
	Tag  string
	Data []byte
}

// String returns the payload as UTF-8 text.
func (c Chunk) String() string {
	return string(c.Data)
}

// ResourceRef returns the job-resource reference for the resource at index i.
func ResourceRef(i int) string {
	return resourcePrefix + strconv.Itoa(i)
}

// ParseResourceRef returns the index of a job-resource reference.
func ParseResourceRef(ref string) (int, bool) {
	rest, ok := strings.CutPrefix(ref, resourcePrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Write encodes one frame to w.
func Write(w io.Writer, tag string, data []byte) error {
	if len(tag) != tagLength {
		return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}

	header := make([]byte, 0, tagLength+1+maxLenDigit+1)
	header = append(header, tag...)
	header = append(header, ' ')
	header = strconv.AppendInt(header, int64(len(data)), 10)
	header = append(header, '\n')

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s header: %w", tag, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s payload: %w", tag, err)
	}
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("writing %s trailer: %w", tag, err)
	}
	return nil
}

// WriteString encodes s as UTF-8 and writes it as one frame.
func WriteString(w io.Writer, tag, s string) error {
	return Write(w, tag, []byte(s))
}

// Read decodes exactly one frame from r, blocking until it is complete.
// Every malformed frame yields an error matching ErrProtocol; when the stream
// ended early the underlying io error is kept in the chain.
//
// Read never consumes bytes past the frame, so r may be shared between calls.
// Passing a reader that implements io.ByteReader (e.g. *bufio.Reader) avoids
// one read call per header byte.
func Read(r io.Reader) (Chunk, error) {
	br := byteReader(r)

	var tag [tagLength]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return Chunk{}, fmt.Errorf("%w: reading tag: %w", ErrProtocol, eof(err))
	}

	sep, err := br.ReadByte()
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: reading separator: %w", ErrProtocol, eof(err))
	}
	if sep != ' ' {
		return Chunk{}, fmt.Errorf("%w: expected space after tag %q, got %q", ErrProtocol, tag[:], sep)
	}

	length, err := readLength(br)
	if err != nil {
		return Chunk{}, err
	}

	// Copy incrementally so a bogus length on a short stream does not
	// allocate the announced size up front.
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, length)
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: payload truncated after %d of %d bytes: %w", ErrProtocol, n, length, eof(err))
	}

	trailer, err := br.ReadByte()
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: reading trailer: %w", ErrProtocol, eof(err))
	}
	if trailer != '\n' {
		return Chunk{}, fmt.Errorf("%w: expected newline after payload, got %q", ErrProtocol, trailer)
	}

	return Chunk{Tag: string(tag[:]), Data: buf.Bytes()}, nil
}

// readLength parses the decimal length field up to and including its newline.
func readLength(br io.ByteReader) (int64, error) {
	var length int64
	digits := 0

	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: reading length: %w", ErrProtocol, eof(err))
		}
		if b == '\n' {
			break
		}
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("%w: unexpected byte %q in length", ErrProtocol, b)
		}
		digits++
		if digits > maxLenDigit {
			return 0, fmt.Errorf("%w: length exceeds %d digits", ErrProtocol, maxLenDigit)
		}
		length = length*10 + int64(b-'0')
	}

	if digits == 0 {
		return 0, fmt.Errorf("%w: empty length", ErrProtocol)
	}
	return length, nil
}

// eof turns a clean EOF inside a frame into io.ErrUnexpectedEOF.
func eof(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// singleByteReader adapts an io.Reader without ReadByte.
type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}

func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &singleByteReader{r: r}
}
