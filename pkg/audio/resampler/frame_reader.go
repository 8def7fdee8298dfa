package resampler

import "io"

// frameReader returns reads in whole frames, holding back any partial frame
// until the rest of it arrives.
type frameReader struct {
	r       io.Reader
	size    int
	pending []byte
}

func newSampleReader(r io.Reader, frameSize int) *frameReader {
	return &frameReader{
		r:       r,
		size:    frameSize,
		pending: make([]byte, 0, frameSize-1),
	}
}

// Read fills p with a multiple of the frame size. At EOF a trailing partial
// frame is returned together with io.ErrUnexpectedEOF.
func (fr *frameReader) Read(p []byte) (int, error) {
	if len(p) < fr.size {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/fr.size*fr.size]

	n := copy(p, fr.pending)
	fr.pending = fr.pending[:0]

	rn, err := fr.r.Read(p[n:])
	n += rn
	rem := n % fr.size
	if err != nil {
		if rem != 0 && err == io.EOF {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if rem != 0 {
		n -= rem
		fr.pending = append(fr.pending, p[n:n+rem]...)
	}
	return n, nil
}
