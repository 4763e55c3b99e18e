package encryption

import (
	"errors"
	"fmt"
	"io"
)

// streamingWriter XORs everything written to it with the keystream and
// forwards the ciphertext to w, folding it into the checksum on the way.
type streamingWriter struct {
	w        io.Writer
	stream   *Keystream
	checksum *Checksummer
	buffer   *[]byte
	release  func()
}

func newStreamingWriter(w io.Writer, password string) *streamingWriter {
	buf, release := getBuffer()

	return &streamingWriter{
		w:        w,
		stream:   NewKeystream(DeriveSeed(password)),
		checksum: NewChecksum(password),
		buffer:   buf,
		release:  release,
	}
}

// writeHeader emits the length prefix. The prefix is covered by the checksum
// but is not XOR-ed.
func (sw *streamingWriter) writeHeader(size int64) error {
	header := newBlobHeader(uint32(size)) //nolint:gosec // checked against MaxPlaintextSize

	_, _ = sw.checksum.Write(header[:])

	if _, err := sw.w.Write(header[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	return nil
}

// Write implements io.Writer.
func (sw *streamingWriter) Write(data []byte) (int, error) {
	buf := *sw.buffer
	written := 0

	for len(data) > 0 {
		n := min(len(data), len(buf))

		sw.stream.XORKeyStream(buf[:n], data[:n])
		_, _ = sw.checksum.Write(buf[:n])

		if _, err := sw.w.Write(buf[:n]); err != nil {
			return written, fmt.Errorf("writing ciphertext: %w", err)
		}

		written += n
		data = data[n:]
	}

	return written, nil
}

// Close returns the scratch buffer to the pool.
func (sw *streamingWriter) Close() error {
	if sw.release != nil {
		sw.release()
		sw.release = nil
	}

	return nil
}

// EncryptStream reads exactly size bytes from r and writes the sealed blob to
// w without materializing the keystream. The returned Sealed has no Blob.
func EncryptStream(w io.Writer, r io.Reader, size int64, password string) (Sealed, error) {
	if size <= 0 {
		return Sealed{}, ErrEmptyInput
	}

	if size > MaxPlaintextSize {
		return Sealed{}, ErrInputTooLarge
	}

	sw := newStreamingWriter(w, password)
	defer sw.Close()

	if err := sw.writeHeader(size); err != nil {
		return Sealed{}, err
	}

	n, err := io.CopyN(sw, r, size)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Sealed{}, fmt.Errorf("reading plaintext: got %d of %d bytes: %w", n, size, io.ErrUnexpectedEOF)
		}

		return Sealed{}, fmt.Errorf("reading plaintext: %w", err)
	}

	return Sealed{
		Fingerprint: Fingerprint(password),
		Checksum:    sw.checksum.String(),
	}, nil
}

// DecryptStream reads a whole blob from r, verifies it and only then writes
// the plaintext to w. It returns the number of plaintext bytes written.
func DecryptStream(w io.Writer, r io.Reader, password, fingerprint, checksum string) (int64, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading blob: %w", err)
	}

	body, err := verify(blob, password, fingerprint, checksum)
	if err != nil {
		return 0, ErrDecryptionFailed
	}

	buf, release := getBuffer()
	defer release()

	stream := NewKeystream(DeriveSeed(password))

	var written int64

	for len(body) > 0 {
		n := min(len(body), len(*buf))

		stream.XORKeyStream((*buf)[:n], body[:n])

		if _, err := w.Write((*buf)[:n]); err != nil {
			return written, fmt.Errorf("writing plaintext: %w", err)
		}

		written += int64(n)
		body = body[n:]
	}

	return written, nil
}
