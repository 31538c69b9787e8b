package mp4

import "fmt"

// GeoMetadata is the set of values this system can inject into an mdta
// meta island (§3, §6). Pointer fields are optional; ISO6709 always writes
// the required location key even when altitude is nil.
type GeoMetadata struct {
	Latitude          float64
	Longitude         float64
	Altitude          *float64
	AccuracyHorizontal *float64
	Make              string
	Model             string
	Software          string
	CreationDate      string // already normalized, e.g. via NormalizeCreationDate
}

// BuildKeyValues renders g into the ordered (key, value) pairs the injected
// metadata key contract specifies (§6): accuracy, ISO6709, make, model,
// software, creationdate, each included only when present.
func (g GeoMetadata) BuildKeyValues() []MetaKeyValue {
	var pairs []MetaKeyValue

	if g.AccuracyHorizontal != nil {
		pairs = append(pairs, MetaKeyValue{
			Key:   KeyAccuracyHorizontal,
			Value: fmt.Sprintf("%.6f", *g.AccuracyHorizontal),
		})
	}

	pairs = append(pairs, MetaKeyValue{
		Key:   KeyISO6709,
		Value: FormatISO6709(g.Latitude, g.Longitude, g.Altitude),
	})

	if g.Make != "" {
		pairs = append(pairs, MetaKeyValue{Key: KeyMake, Value: g.Make})
	}
	if g.Model != "" {
		pairs = append(pairs, MetaKeyValue{Key: KeyModel, Value: g.Model})
	}
	if g.Software != "" {
		pairs = append(pairs, MetaKeyValue{Key: KeySoftware, Value: g.Software})
	}
	if g.CreationDate != "" {
		pairs = append(pairs, MetaKeyValue{Key: KeyCreationDate, Value: g.CreationDate})
	}

	return pairs
}

// Inject rewrites srcPath's mdta metadata island to hold g's values and
// atomically publishes the result to destPath (§4.6, §5).
func Inject(srcPath, destPath string, g GeoMetadata) error {
	return WriteFile(srcPath, destPath, g.BuildKeyValues())
}
