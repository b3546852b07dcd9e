package playback

import (
	"fmt"
	"time"

	"github.com/desertthunder/musik/internal/shared"
)

// ProgressUnit says what [Progress.Elapsed] and [Progress.Total] count.
type ProgressUnit int

const (
	ProgressUnknown ProgressUnit = iota
	ProgressMillis
	ProgressBytes
)

// Progress is one reading of the progress side channel.
type Progress struct {
	Elapsed   int64
	Total     int64
	Unit      ProgressUnit
	Estimated bool
}

// ProgressFrom converts a backend sample.
//
// An exact duration wins, then the backend's duration estimate, then bytes
// loaded over bytes total. The choice is made for every sample because the
// duration of a stream can become known part way through.
func ProgressFrom(s Sample) Progress {
	switch {
	case s.Duration > 0:
		return Progress{Elapsed: s.Position.Milliseconds(), Total: s.Duration.Milliseconds(), Unit: ProgressMillis}
	case s.DurationEstimate > 0:
		return Progress{
			Elapsed:   s.Position.Milliseconds(),
			Total:     s.DurationEstimate.Milliseconds(),
			Unit:      ProgressMillis,
			Estimated: true,
		}
	case s.BytesTotal > 0:
		return Progress{Elapsed: s.BytesLoaded, Total: s.BytesTotal, Unit: ProgressBytes}
	default:
		return Progress{Elapsed: s.Position.Milliseconds()}
	}
}

// Fraction returns progress in [0, 1], or 0 when the total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Elapsed) / float64(p.Total)
	return min(max(f, 0), 1)
}

func (p Progress) String() string {
	switch p.Unit {
	case ProgressMillis:
		total := shared.FormatDuration(time.Duration(p.Total) * time.Millisecond)
		if p.Estimated {
			total = "~" + total
		}
		return shared.FormatDuration(time.Duration(p.Elapsed)*time.Millisecond) + " / " + total
	case ProgressBytes:
		return fmt.Sprintf("%.0f%% loaded", p.Fraction()*100)
	default:
		return shared.FormatDuration(time.Duration(p.Elapsed) * time.Millisecond)
	}
}
