package classifier

import "math/rand"

// bootstrapSeed fixes the synthetic set so baseline models are
// reproducible across runs.
const bootstrapSeed int64 = 42

// SyntheticTrainingSet builds the labeled baseline set the model is
// trained on when no persisted state exists: 60 easy captures routed
// fast and 40 hard ones drawn from three failure archetypes, routed to
// the ensemble. Feature order matches FeatureVector.Values.
func SyntheticTrainingSet(seed int64) ([][5]float64, []int) {
	rng := rand.New(rand.NewSource(seed))

	features := make([][5]float64, 0, 100)
	labels := make([]int, 0, 100)

	// Easy cases: bright, contrasty, sharp. Color and aspect are noise.
	for i := 0; i < 60; i++ {
		features = append(features, [5]float64{
			uniform(rng, 0.5, 0.85),
			uniform(rng, 0.4, 0.9),
			uniform(rng, 0.5, 1.0),
			float64(rng.Intn(2)),
			uniform(rng, 0.2, 0.9),
		})
		labels = append(labels, 0)
	}

	// Hard cases: three known failure archetypes.
	for i := 0; i < 40; i++ {
		var f [5]float64
		switch rng.Intn(3) {
		case 0: // washed-out, low contrast
			f = [5]float64{
				uniform(rng, 0.3, 0.7),
				uniform(rng, 0.05, 0.25),
				uniform(rng, 0.2, 0.6),
				float64(rng.Intn(2)),
				uniform(rng, 0.2, 0.9),
			}
		case 1: // very dark or very bright
			brightness := uniform(rng, 0.05, 0.25)
			if rng.Intn(2) == 1 {
				brightness = uniform(rng, 0.85, 1.0)
			}
			f = [5]float64{
				brightness,
				uniform(rng, 0.15, 0.4),
				uniform(rng, 0.3, 0.7),
				float64(rng.Intn(2)),
				uniform(rng, 0.2, 0.9),
			}
		default: // blurry, low edge density
			f = [5]float64{
				uniform(rng, 0.3, 0.8),
				uniform(rng, 0.2, 0.5),
				uniform(rng, 0.05, 0.3),
				float64(rng.Intn(2)),
				uniform(rng, 0.2, 0.9),
			}
		}
		features = append(features, f)
		labels = append(labels, 1)
	}

	return features, labels
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
