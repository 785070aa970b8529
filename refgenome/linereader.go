package refgenome

import (
	"bufio"
	"bytes"
	"io"
)

// lineReader yields lines along with the byte offset just past them.
type lineReader struct {
	r   *bufio.Reader
	off int64
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 1<<20)}
}

// next returns the next line without its terminator, and the line's width
// in bytes including the terminator.
func (l *lineReader) next() ([]byte, int, error) {
	line, err := l.r.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, 0, err
	}
	l.off += int64(len(line))
	return bytes.TrimRight(line, "\r\n"), len(line), nil
}
