package mp4

// Config controls which tracks the extractor treats as video and metadata,
// and whether metadata extraction runs at all (§6). Track ordinals are
// 1-based counts of trak children under moov, in file order; this mapping
// is a configured policy, not an inherent property of the format.
type Config struct {
	VideoTrakIndex      int  `koanf:"video_trak_index" json:"video_trak_index" validate:"min=1" default:"1"`
	MetadataTrakIndex   int  `koanf:"metadata_trak_index" json:"metadata_trak_index" validate:"min=1" default:"3"`
	ExtractMetadata     bool `koanf:"extract_metadata" json:"extract_metadata" default:"true"`
	SpecCorrectStsz     bool `koanf:"spec_correct_stsz" json:"spec_correct_stsz" default:"false"`
}

// DefaultConfig returns a Config with the defaults §6 specifies.
func DefaultConfig() Config {
	return Config{
		VideoTrakIndex:    1,
		MetadataTrakIndex: 3,
		ExtractMetadata:   true,
	}
}

// HeaderSummary is the produced output described in §6: video dimensions,
// duration and the derived frame rate.
type HeaderSummary struct {
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	DurationSeconds float64 `json:"duration_seconds"`
	FrameRate       float64 `json:"frame_rate"`
}

// ExtractResult bundles the header summary with the raw metadata-track
// payload, when extraction was requested.
type ExtractResult struct {
	Header          HeaderSummary
	MetadataPayload []byte
}

// Vec3 is a simple (x, y, z) triple, used by TelemetryRecord's
// accelerometer and derivative fields.
type Vec3 struct {
	X, Y, Z float64
}

// TelemetryRecord is the boundary contract (§3) between this package and the
// external, schema-driven decoder that turns a MetadataPayload into
// individual readings. This package never constructs a TelemetryRecord
// itself; the type exists here only so callers and the external decoder
// agree on field shape.
type TelemetryRecord struct {
	Timestamp          string // RFC 3339, timezone-aware
	AltitudeM          float64
	LongitudeDeg       float64
	LatitudeDeg        float64
	CameraAccel1       Vec3
	CameraAccel2       Vec3
	RemoteDerivatives  Vec3
}
