package usecase

import (
	"image"

	"tunesphere/internal/domain"
)

// DefaultSadRatio is the face height/width ratio above which a face without
// a smile reads as sad.
const DefaultSadRatio = 1.5

// ClassifyMood maps a face box and smile flag to a mood. A smile always wins;
// an elongated face without a smile is sad; anything else is neutral.
func ClassifyMood(face image.Rectangle, smile bool, sadRatio float64) domain.Mood {
	if smile {
		return domain.MoodHappy
	}
	if sadRatio <= 0 {
		sadRatio = DefaultSadRatio
	}
	if face.Dx() > 0 && float64(face.Dy())/float64(face.Dx()) > sadRatio {
		return domain.MoodSad
	}
	return domain.MoodNeutral
}

func moodForResult(result domain.DetectionResult, sadRatio float64) (domain.Mood, bool) {
	if result.Face == nil {
		return "", false
	}
	return ClassifyMood(*result.Face, result.Smile, sadRatio), true
}
