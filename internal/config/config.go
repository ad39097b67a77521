// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and BIZMAP_* environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

// DefaultDatasetURL is the published business list rendered by default.
const DefaultDatasetURL = "https://raw.githubusercontent.com/scooter7/simap/main/List1.csv"

// DefaultDescription is the paragraph shown under the page title.
const DefaultDescription = "This interactive map displays various retail and manufacturing organizations in Madison, WI. " +
	"In the left sidebar, the dropdown menus pertaining to organizational type, size, etc. can be filtered. " +
	"The data table below the interactive map will reflect the filters applied."

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatasetURL locates the CSV: https://, http://, s3://bucket/key, file:// or a bare path.
	DatasetURL string `koanf:"dataset_url"`

	// DatasetTimeoutMS bounds a single fetch+parse of the dataset.
	DatasetTimeoutMS int `koanf:"dataset_timeout_ms"`

	// Preload warms the dataset cache during start-up.
	Preload bool `koanf:"preload"`

	// S3Region and S3Endpoint configure s3:// dataset sources. A non-empty
	// endpoint switches to path-style addressing (MinIO and friends).
	S3Region   string `koanf:"s3_region"`
	S3Endpoint string `koanf:"s3_endpoint"`

	// S3AccessKeyID and S3SecretAccessKey, when set, replace the default AWS
	// credential chain with static keys.
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`

	// UnknownCategoryPolicy decides what happens to ordinal values missing
	// from their reference order: "append" or "skip".
	UnknownCategoryPolicy string `koanf:"unknown_category_policy"`

	// MapDefaultLat and MapDefaultLon center the map when the filtered view is empty.
	MapDefaultLat float64 `koanf:"map_default_lat"`
	MapDefaultLon float64 `koanf:"map_default_lon"`

	// MapZoom is the initial zoom level.
	MapZoom int `koanf:"map_zoom"`

	// MapWidth and MapHeight size the map viewport in pixels.
	MapWidth  int `koanf:"map_width"`
	MapHeight int `koanf:"map_height"`

	// TileURL is the Leaflet tile layer template.
	TileURL string `koanf:"tile_url"`

	// PageTitle and PageDescription head the rendered page.
	PageTitle       string `koanf:"page_title"`
	PageDescription string `koanf:"page_description"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DatasetURL:            DefaultDatasetURL,
		DatasetTimeoutMS:      30_000,
		Preload:               true,
		S3Region:              "us-east-1",
		UnknownCategoryPolicy: "append",
		MapDefaultLat:         43.0731,
		MapDefaultLon:         -89.4012,
		MapZoom:               12,
		MapWidth:              1000,
		MapHeight:             600,
		TileURL:               "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		PageTitle:             "Retail and Manufacturing in Madison, WI",
		PageDescription:       DefaultDescription,
	}
}
