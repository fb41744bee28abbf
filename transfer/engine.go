package transfer

import (
	"fmt"
	"ftp-lab/errors"
	"io"
)

// ChunkSize bounds every read and write of a file body.
const ChunkSize = 8192

// Send streams bytes [offset, total) of src to w.
// A source shorter than total yields ErrSizeMismatch, a failed write ErrConnectionLost.
func Send(w io.Writer, src io.ReadSeeker, offset, total int64, progress Progress) (int64, error) {
	if offset < 0 || offset > total {
		return 0, fmt.Errorf("%w: offset %d outside [0, %d]", errors.ErrSizeMismatch, offset, total)
	}
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to %d: %w", offset, err)
	}

	buf := make([]byte, ChunkSize)
	done := offset
	notify(progress, done, total)
	for done < total {
		chunk := buf[:min(int64(ChunkSize), total-done)]
		n, err := io.ReadFull(src, chunk)
		if err != nil {
			return done - offset, fmt.Errorf("%w: source ended after %d of %d bytes", errors.ErrSizeMismatch, done+int64(n), total)
		}
		if _, err := w.Write(chunk[:n]); err != nil {
			return done - offset, fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
		}
		done += int64(n)
		notify(progress, done, total)
	}
	return done - offset, nil
}

// Receive reads exactly total-already bytes from r into dst.
// Short reads are retried; EOF or a read failure before completion yields
// ErrConnectionLost, with everything received so far already written to dst.
func Receive(r io.Reader, dst io.Writer, already, total int64, progress Progress) (int64, error) {
	if already < 0 || already > total {
		return 0, fmt.Errorf("%w: %d already received of %d", errors.ErrSizeMismatch, already, total)
	}

	buf := make([]byte, ChunkSize)
	done := already
	notify(progress, done, total)
	for done < total {
		n, err := r.Read(buf[:min(int64(ChunkSize), total-done)])
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return done - already, fmt.Errorf("write received bytes: %w", werr)
			}
			done += int64(n)
			notify(progress, done, total)
		}
		if err != nil && done < total {
			return done - already, fmt.Errorf("%w: got %d of %d bytes: %v", errors.ErrConnectionLost, done, total, err)
		}
	}
	return done - already, nil
}

func notify(progress Progress, done, total int64) {
	if progress != nil {
		progress(done, total)
	}
}
