package retrieval

import (
	"time"

	"github.com/ndgo/studybot/internal/model"
)

// Weighting compensates for embedding models not capturing conversational
// deixis: plain similarity under-prioritizes the document a student uploaded
// seconds before asking "explain this". Each stage is a pure function so the
// multipliers and cutoffs are testable one by one.

const (
	temporaryOriginBonus = 1.2
	videoContextBonus    = 1.35

	permanentThreshold      = 0.35
	temporaryThreshold      = 0.50
	freshTemporaryThreshold = 0.02
	freshTemporaryWindow    = 3 * time.Minute
	sessionGraceWindow      = 5 * time.Minute
)

// recencyWeight buckets by chunk age. Vague queries get the upper bound of
// the sub-15-minute buckets: they most likely point at a fresh upload.
func recencyWeight(age time.Duration, vague bool) float64 {
	switch {
	case age < 2*time.Minute:
		if vague {
			return 5.0
		}
		return 3.0
	case age < 5*time.Minute:
		if vague {
			return 4.0
		}
		return 2.5
	case age < 15*time.Minute:
		if vague {
			return 3.0
		}
		return 2.0
	case age < time.Hour:
		return 1.5
	case age < 24*time.Hour:
		return 1.2
	case age < 7*24*time.Hour:
		// linear decay 1.2 -> 0.5 across days 1..7
		frac := float64(age-24*time.Hour) / float64(6*24*time.Hour)
		return 1.2 - frac*(1.2-0.5)
	default:
		return 0.5
	}
}

func originWeight(origin model.Origin) float64 {
	if origin == model.OriginTemporary {
		return temporaryOriginBonus
	}
	return 1.0
}

func videoWeight(origin model.Origin, videoContext bool) float64 {
	if videoContext && origin == model.OriginTranscript {
		return videoContextBonus
	}
	return 1.0
}

// acceptThreshold varies by origin and age. Very fresh temporary chunks get
// a near-zero bar: a false positive on a document the student just handed
// over is cheap, a false positive on week-old material is not.
func acceptThreshold(origin model.Origin, age time.Duration, vague bool) float64 {
	if origin != model.OriginTemporary {
		return permanentThreshold
	}
	if age < freshTemporaryWindow {
		t := freshTemporaryThreshold
		if vague {
			t /= 2
		}
		return t
	}
	return temporaryThreshold
}

func weightedSimilarity(raw float64, origin model.Origin, age time.Duration, vague, videoContext bool) float64 {
	return raw * recencyWeight(age, vague) * originWeight(origin) * videoWeight(origin, videoContext)
}
