package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/bizmap/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DatasetURL, convey.ShouldEqual, config.DefaultDatasetURL)
				convey.So(cfg.MapZoom, convey.ShouldEqual, 12)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BIZMAP_ADDR", ":8080")
			_ = os.Setenv("BIZMAP_DATASET_URL", "s3://bucket/list.csv")
			_ = os.Setenv("BIZMAP_MAP_ZOOM", "10")
			_ = os.Setenv("BIZMAP_PRELOAD", "false")
			_ = os.Setenv("BIZMAP_UNKNOWN_CATEGORY_POLICY", "skip")
			_ = os.Setenv("BIZMAP_MAP_DEFAULT_LAT", "40.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DatasetURL, convey.ShouldEqual, "s3://bucket/list.csv")
				convey.So(cfg.MapZoom, convey.ShouldEqual, 10)
				convey.So(cfg.Preload, convey.ShouldBeFalse)
				convey.So(cfg.UnknownCategoryPolicy, convey.ShouldEqual, "skip")
				convey.So(cfg.MapDefaultLat, convey.ShouldAlmostEqual, 40.5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
dataset_url: "file:///srv/data/list.csv"
map_width: 800
map_height: 500
page_title: "Retail in Dane County"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BIZMAP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DatasetURL, convey.ShouldEqual, "file:///srv/data/list.csv")
				convey.So(cfg.MapWidth, convey.ShouldEqual, 800)
				convey.So(cfg.MapHeight, convey.ShouldEqual, 500)
				convey.So(cfg.PageTitle, convey.ShouldEqual, "Retail in Dane County")
				convey.So(cfg.MapZoom, convey.ShouldEqual, 12) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
map_zoom: 11
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BIZMAP_CONFIG", tmpFile)
			_ = os.Setenv("BIZMAP_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // Overridden by env
				convey.So(cfg.MapZoom, convey.ShouldEqual, 11)   // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BIZMAP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("BIZMAP_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("BIZMAP_MAP_ZOOM", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()

		cases := []struct {
			name  string
			key   string
			value string
			want  string
		}{
			{"empty addr", "BIZMAP_ADDR", "", "addr must not be empty"},
			{"zoom too large", "BIZMAP_MAP_ZOOM", "30", "map_zoom"},
			{"negative width", "BIZMAP_MAP_WIDTH", "-1", "map_width"},
			{"unknown policy", "BIZMAP_UNKNOWN_CATEGORY_POLICY", "crash", "unknown_category_policy"},
			{"latitude out of range", "BIZMAP_MAP_DEFAULT_LAT", "95", "out of range"},
			{"zero timeout", "BIZMAP_DATASET_TIMEOUT_MS", "0", "dataset_timeout_ms"},
		}

		for _, tc := range cases {
			convey.Convey("When loading with "+tc.name, func() {
				_ = os.Setenv(tc.key, tc.value)
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
					convey.So(cfg, convey.ShouldBeNil)
				})
			})
		}

		convey.Convey("When the policy differs only by case", func() {
			_ = os.Setenv("BIZMAP_UNKNOWN_CATEGORY_POLICY", "SKIP")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be accepted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.UnknownCategoryPolicy, convey.ShouldEqual, "SKIP")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"BIZMAP_CONFIG",
		"BIZMAP_ADDR",
		"BIZMAP_DATASET_URL",
		"BIZMAP_DATASET_TIMEOUT_MS",
		"BIZMAP_PRELOAD",
		"BIZMAP_MAP_ZOOM",
		"BIZMAP_MAP_WIDTH",
		"BIZMAP_MAP_DEFAULT_LAT",
		"BIZMAP_UNKNOWN_CATEGORY_POLICY",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "bizmap-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
