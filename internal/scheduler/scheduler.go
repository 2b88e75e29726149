// Package scheduler implements the FSRS-6 spaced-repetition state machine.
// It is deliberately free of I/O, Clock, and logging: the orchestrator
// supplies elapsed_days and persists the result, the scheduler only does
// the arithmetic. Follows the decay.go/decay_manager.go texture (named
// constants, a config struct with a documented default constructor, a
// clamp helper) even though FSRS itself has no prior equivalent here.
package scheduler

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/scrypster/vestige/pkg/types"
)

// Config bundles the weight vector and the tunables the algorithm exposes.
type Config struct {
	Weights Weights

	// DesiredRetention is the target recall probability the next interval
	// is computed to hit. Default 0.9.
	DesiredRetention float64

	// EnableFuzz multiplies the computed interval by a small deterministic
	// factor in [0.95, 1.05] to decorrelate review bursts.
	EnableFuzz bool

	// EnableSentimentBoost, when true and |sentiment_intensity| exceeds
	// SentimentThreshold, scales the new stability by (1 + k*|sentiment|).
	EnableSentimentBoost bool
	SentimentBoostK      float64
	SentimentThreshold   float64
}

// DefaultConfig returns FSRS-6 defaults: the default weight vector, 90%
// desired retention, fuzzing and sentiment boost both off.
func DefaultConfig() Config {
	return Config{
		Weights:            DefaultWeights(),
		DesiredRetention:   0.9,
		SentimentBoostK:    0.15,
		SentimentThreshold: 0.3,
	}
}

// Result is what Review returns: the updated card fields the orchestrator
// should persist, the computed next interval, and the retrievability that
// was used to get there.
type Result struct {
	Card                 types.CardState
	NextIntervalDays     float64
	RetrievabilityAfter  float64
}

const (
	learningRelearningFloorDays = 10.0 / (24.0 * 60.0) // 10 minutes
	reviewFloorDays             = 1.0
	minStability                = 0.1
)

// Review computes the next card state for a single FSRS-6 review. card is
// the card's state before this review; elapsed_days is the real number of
// days since last_review (or since creation for a New card); rating is the
// recall quality reported by the caller. sentimentIntensity is optional
// (nil to disable the emotional-salience modulation for this call even if
// cfg.EnableSentimentBoost is set).
//
// Review is a pure function of its inputs: identical (card, rating,
// elapsed_days, cfg, sentimentIntensity) always produce identical output.
// It does not set Card.LastReview or Card.NextReview — the orchestrator
// derives those from Clock.Now() and NextIntervalDays.
func Review(cfg Config, card types.CardState, rating types.Rating, elapsedDays float64, sentimentIntensity *float64) (Result, error) {
	if !types.IsValidRating(rating) {
		return Result{}, ErrInvalidRating
	}
	if elapsedDays < 0 {
		elapsedDays = 0
	}

	w := cfg.Weights
	next := card
	var retrievability float64

	if card.State == types.StateNew {
		difficulty := clamp(w[4]-(float64(rating)-3)*w[5], 1, 10)
		stability := w[rating-1]
		if stability < minStability {
			stability = minStability
		}

		next.Difficulty = difficulty
		next.Stability = stability
		next.Reps = card.Reps + 1
		if rating >= types.RatingGood {
			next.State = types.StateReview
		} else {
			next.State = types.StateLearning
		}
		retrievability = 1.0
	} else {
		retrievability = retrievabilityOf(card.Stability, elapsedDays, w[20])

		newDifficulty := w[6]*(float64(rating)-3) + card.Difficulty
		newDifficulty += w[8] * (w[7] - newDifficulty)
		newDifficulty = clamp(newDifficulty, 1, 10)
		next.Difficulty = newDifficulty
		next.Reps = card.Reps + 1

		if rating == types.RatingAgain {
			s := w[11] * math.Pow(card.Difficulty, -w[12]) * (math.Pow(card.Stability+1, w[13]) - 1) * math.Exp(w[14]*(1-retrievability))
			if s < minStability {
				s = minStability
			}
			next.Stability = s
			next.Lapses = card.Lapses + 1
			next.State = types.StateRelearning
		} else {
			hardPenalty := 1.0
			if rating == types.RatingHard {
				hardPenalty = w[15]
			}
			easyBonus := 1.0
			if rating == types.RatingEasy {
				easyBonus = w[16]
			}
			s := card.Stability * (1 + math.Exp(w[8])*(11-newDifficulty)*math.Pow(card.Stability, -w[9])*(math.Exp(w[10]*(1-retrievability))-1)*hardPenalty*easyBonus)
			if s < minStability {
				s = minStability
			}
			next.Stability = s

			switch card.State {
			case types.StateLearning, types.StateRelearning:
				if rating >= types.RatingGood {
					next.State = types.StateReview
				} else {
					next.State = card.State
				}
			default: // Review
				next.State = types.StateReview
			}
		}
	}

	if cfg.EnableSentimentBoost && sentimentIntensity != nil {
		s := *sentimentIntensity
		if s < 0 {
			s = -s
		}
		if s > cfg.SentimentThreshold {
			next.Stability *= 1 + cfg.SentimentBoostK*s
		}
	}

	desired := cfg.DesiredRetention
	if desired <= 0 || desired >= 1 {
		desired = 0.9
	}
	interval := next.Stability * math.Log(desired) / math.Log(0.9)

	if cfg.EnableFuzz {
		interval *= fuzzFactor(card, rating, elapsedDays)
	}

	if next.State == types.StateReview {
		if interval < reviewFloorDays {
			interval = reviewFloorDays
		}
	} else if interval < learningRelearningFloorDays {
		interval = learningRelearningFloorDays
	}
	next.ScheduledDays = interval

	return Result{
		Card:                next,
		NextIntervalDays:    interval,
		RetrievabilityAfter: retrievability,
	}, nil
}

// retrievabilityOf computes R = (1 + F*t/S)^(-w20), F = 0.9^(-1/w20) - 1.
func retrievabilityOf(stability, elapsedDays, w20 float64) float64 {
	if stability <= 0 {
		stability = minStability
	}
	f := math.Pow(0.9, -1/w20) - 1
	return math.Pow(1+f*elapsedDays/stability, -w20)
}

// fuzzFactor derives a deterministic value in [0.95, 1.05] from the review
// inputs, keeping Review a pure function while still decorrelating review
// bursts the way real-randomness fuzzing would.
func fuzzFactor(card types.CardState, rating types.Rating, elapsedDays float64) float64 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%.6f|%.6f|%d|%d|%d|%.6f", card.Difficulty, card.Stability, card.Reps, card.Lapses, rating, elapsedDays)
	frac := float64(h.Sum32()%10000) / 10000.0
	return 0.95 + 0.10*frac
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
