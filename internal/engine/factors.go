package engine

import (
	"math"
	"sort"
	"time"

	"trustd/internal/engine/ports"
)

// The calculators below are pure with respect to their inputs: no store
// access, no wall-clock reads. Each returns a sub-score in [0,100] where
// higher means more trustworthy. The orchestrator fetches the historical
// data they need and the aggregator combines their outputs.

// scoreDeviceConsistency compares the current fingerprint against the user's
// known devices. First-seen users are not penalized harshly.
func scoreDeviceConsistency(fingerprint string, devices []ports.DeviceRecord) float64 {
	if len(devices) == 0 {
		return 60.0
	}

	for _, device := range devices {
		if device.Fingerprint == fingerprint {
			return 90.0
		}
	}

	maxSimilarity := 0.0
	for _, device := range devices {
		if s := fingerprintSimilarity(fingerprint, device.Fingerprint); s > maxSimilarity {
			maxSimilarity = s
		}
	}

	switch {
	case maxSimilarity > 0.8:
		return 75.0
	case maxSimilarity > 0.5:
		return 50.0
	default:
		return 30.0
	}
}

// scoreTransactionVelocity penalizes bursts, large amounts, and rapid-fire
// transactions. Logins get a neutral score; velocity only means something for
// transactions.
func scoreTransactionVelocity(ac ActivityContext, recent []ports.TransactionRecord) float64 {
	if ac.Action != ActionTransaction {
		return 80.0
	}

	amount := ac.amount()
	total := amount
	for _, tx := range recent {
		total += tx.Amount
	}

	score := 100.0

	if len(recent) > 10 {
		score -= 30
	} else if len(recent) > 5 {
		score -= 15
	}

	if amount > 1000 {
		score -= 20
	} else if amount > 500 {
		score -= 10
	}

	if total > 5000 {
		score -= 25
	} else if total > 2000 {
		score -= 15
	}

	rapid := 0
	for _, tx := range recent {
		if ac.Timestamp.Sub(tx.Timestamp) < 300*time.Second {
			rapid++
		}
	}
	if rapid > 3 {
		score -= 40
	}

	return math.Max(0, score)
}

const (
	familiarLocationKm = 50.0
	flightSpeedKmh     = 500.0
	impossibleSpeedKmh = 1000.0
)

// scoreGeolocationRisk checks the resolved location against the user's
// location history, flagging impossible travel. current is nil when the
// context carried no IP address.
func scoreGeolocationRisk(ac ActivityContext, current *ports.Location, history []ports.LocationRecord) float64 {
	if current == nil {
		return 70.0
	}
	if len(history) == 0 {
		return 60.0
	}

	for _, loc := range history {
		if distanceKm(*current, loc.Location) < familiarLocationKm {
			return 90.0
		}
	}

	latest := history[0]
	for _, loc := range history[1:] {
		if loc.Timestamp.After(latest.Timestamp) {
			latest = loc
		}
	}

	elapsed := ac.Timestamp.Sub(latest.Timestamp)
	if elapsed > 0 {
		speed := distanceKm(*current, latest.Location) / elapsed.Hours()
		if speed > impossibleSpeedKmh {
			return 20.0
		}
		if speed > flightSpeedKmh {
			return 40.0
		}
	}

	// New location but reasonable travel.
	return 55.0
}

// distanceKm approximates the distance between two coordinates. A degree is
// treated as 111 km; good enough for bucketing travel speed, not navigation.
func distanceKm(a, b ports.Location) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return math.Sqrt(dLat*dLat+dLon*dLon) * 111
}

// SimilarityAggregation selects how per-record behavioral similarities are
// combined. Max preserves the historical behavior of the system: one close
// match fully satisfies the check even if the other records look nothing
// alike. Mean and recency-weighted exist for tuning.
type SimilarityAggregation string

const (
	AggregationMax             SimilarityAggregation = "max"
	AggregationMean            SimilarityAggregation = "mean"
	AggregationRecencyWeighted SimilarityAggregation = "recency_weighted"
)

const behaviorCompareWindow = 10

// scoreBehavioralPattern compares the current action's features against the
// most recent historical actions and maps the aggregated similarity onto
// [30,100].
func scoreBehavioralPattern(ac ActivityContext, history []ports.BehaviorRecord, agg SimilarityAggregation) float64 {
	if len(history) == 0 {
		return 70.0
	}

	current := ac.behaviorFeatures()
	if len(history) > behaviorCompareWindow {
		history = history[:behaviorCompareWindow]
	}

	similarities := make([]float64, 0, len(history))
	for _, past := range history {
		s := 0.0
		if current.Action == past.Action {
			s += 0.3
		}
		hourDiff := current.HourOfDay - past.HourOfDay
		if hourDiff < 0 {
			hourDiff = -hourDiff
		}
		if hourDiff <= 2 {
			s += 0.2
		}
		if current.Weekday == past.Weekday {
			s += 0.1
		}
		similarities = append(similarities, s)
	}

	similarity := aggregateSimilarity(similarities, agg)
	return math.Min(100, 30+similarity*70)
}

func aggregateSimilarity(similarities []float64, agg SimilarityAggregation) float64 {
	if len(similarities) == 0 {
		return 0.5
	}

	switch agg {
	case AggregationMean:
		sum := 0.0
		for _, s := range similarities {
			sum += s
		}
		return sum / float64(len(similarities))
	case AggregationRecencyWeighted:
		// similarities arrive most recent first; weight each record half as
		// much as the one before it.
		weight := 1.0
		sum, totalWeight := 0.0, 0.0
		for _, s := range similarities {
			sum += s * weight
			totalWeight += weight
			weight /= 2
		}
		return sum / totalWeight
	default:
		best := similarities[0]
		for _, s := range similarities[1:] {
			if s > best {
				best = s
			}
		}
		return best
	}
}

// scoreAccountHistory scores account age, verification, recent activity, and
// open incidents. Unknown accounts are treated as high risk.
func scoreAccountHistory(account *ports.AccountRecord, activityCount int, now time.Time) float64 {
	if account == nil {
		return 30.0
	}

	ageDays := int(now.Sub(account.CreatedAt).Hours() / 24)
	if ageDays < 0 {
		ageDays = 0
	}
	ageScore := math.Min(50, float64(ageDays)*2)

	verificationBonus := 0.0
	if account.Verified {
		verificationBonus = 20
	}

	activityScore := math.Min(30, float64(activityCount))
	incidentPenalty := 10 * float64(account.OpenIncidents)

	total := ageScore + verificationBonus + activityScore - incidentPenalty
	return math.Max(0, math.Min(100, total))
}

// scoreTimePattern checks whether the activity hour matches the user's
// typical active hours.
func scoreTimePattern(ac ActivityContext, typicalHours []int) float64 {
	if len(typicalHours) == 0 {
		return 70.0
	}

	hour := ac.Timestamp.Hour()
	for _, h := range typicalHours {
		if h == hour {
			return 85.0
		}
	}

	if hour < 6 || hour > 23 {
		return 45.0
	}
	return 65.0
}

// sortedFactors returns the computed factors ordered ascending by score, ties
// broken by name so explanation output is deterministic.
func sortedFactors(factors map[Factor]float64) []Factor {
	names := make([]Factor, 0, len(factors))
	for factor := range factors {
		names = append(names, factor)
	}
	sort.Slice(names, func(i, j int) bool {
		if factors[names[i]] != factors[names[j]] {
			return factors[names[i]] < factors[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
