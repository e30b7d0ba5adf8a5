package transport

import "io"

// progressReader reports the fraction of total bytes read through it.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	report   ProgressFunc
	lastSent float64
}

func newProgressReader(r io.Reader, total int64, report ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, report: report, lastSent: -1}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.emit()
	}
	return n, err
}

// emit skips duplicate fractions so a slow reader does not flood the monitor.
func (p *progressReader) emit() {
	f := fraction(p.read, p.total)
	if f == p.lastSent {
		return
	}
	p.lastSent = f
	p.report(f)
}

func fraction(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	f := float64(done) / float64(total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
