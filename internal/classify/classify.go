package classify

import (
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// SampleSize is how many bytes are read from the head of a file for
// classification. Matches the persisted record format: re-classifying a
// file on a later run must give the same answer.
const SampleSize = 2048

// binaryThreshold is the maximum tolerated fraction of disallowed bytes.
const binaryThreshold = 0.10

// textBytes marks the byte values allowed in a text sample: bell,
// backspace, tab, LF, FF, CR, ESC plus everything from 0x20 upward.
var textBytes = func() [256]bool {
	var t [256]bool
	for _, b := range []byte{0x07, 0x08, 0x09, 0x0A, 0x0C, 0x0D, 0x1B} {
		t[b] = true
	}
	for b := 0x20; b <= 0xFF; b++ {
		t[b] = true
	}
	return t
}()

// IsText reports whether a byte sample looks like text. An empty sample
// is never text. The sample is text when fewer than 10% of its bytes
// fall outside the allowed set.
func IsText(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	nontext := 0
	for _, b := range sample {
		if !textBytes[b] {
			nontext++
		}
	}
	return float64(nontext)/float64(len(sample)) < binaryThreshold
}

// Label returns a MIME type string for the sample, for reporting only.
// Classification never depends on it.
func Label(sample []byte) string {
	if len(sample) == 0 {
		return ""
	}
	return mimetype.Detect(sample).String()
}

// ReadSample reads up to SampleSize bytes from the head of the file.
func ReadSample(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, SampleSize)
	n, err := io.ReadFull(f, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// SniffFile samples the file head and classifies it. Any read failure
// classifies as not-text (fail closed). The returned label is the MIME
// type of the sample, empty when the file is not text.
func SniffFile(path string) (isText bool, label string) {
	sample, err := ReadSample(path)
	if err != nil {
		return false, ""
	}
	if !IsText(sample) {
		return false, ""
	}
	return true, Label(sample)
}
