package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// YAMLConfig points the YAML adapter at a file or a directory of files.
type YAMLConfig struct {
	Path string `mapstructure:"path"`
}

// YAMLSource loads points from a YAML file. A directory is walked
// recursively and every *.yaml/*.yml file in it is merged into one series.
//
// Two shapes are accepted:
//
//	series:
//	  label: 两融余额占流通市值比
//	  points:
//	    - {date: "2024-01-05", value: 2.31}
//
// or a top-level list of {date, value, label} points.
type YAMLSource struct {
	Path string
}

func NewYAMLSource(cfg YAMLConfig) (*YAMLSource, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("yaml: path is required")
	}
	return &YAMLSource{Path: cfg.Path}, nil
}

func (s *YAMLSource) Name() string { return "yaml" }

func (s *YAMLSource) Fetch(ctx context.Context, _ int) ([]types.DataPoint, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}

	files := []string{s.Path}
	if info.IsDir() {
		files = files[:0]
		err := filepath.WalkDir(s.Path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(d.Name()))
			if ext == ".yaml" || ext == ".yml" {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, &FetchError{Source: s.Name(), Err: err}
		}
		sort.Strings(files)
	}

	var all []types.DataPoint
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Source: s.Name(), Err: err}
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, &FetchError{Source: s.Name(), Err: err}
		}
		points, err := parseSeriesYAML(data)
		if err != nil {
			return nil, &MalformedError{Source: s.Name(), Reason: f, Err: err}
		}
		all = append(all, points...)
	}
	return types.Normalize(all), nil
}

type yamlSeries struct {
	Series *struct {
		Label  string            `yaml:"label"`
		Points []types.DataPoint `yaml:"points"`
	} `yaml:"series"`
}

func parseSeriesYAML(data []byte) ([]types.DataPoint, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]

	switch doc.Kind {
	case yaml.SequenceNode:
		var points []types.DataPoint
		if err := doc.Decode(&points); err != nil {
			return nil, err
		}
		return points, nil
	case yaml.MappingNode:
		var s yamlSeries
		if err := doc.Decode(&s); err != nil {
			return nil, err
		}
		if s.Series == nil {
			return nil, fmt.Errorf("missing 'series'")
		}
		points := s.Series.Points
		for i := range points {
			if points[i].Label == "" {
				points[i].Label = s.Series.Label
			}
		}
		return points, nil
	}
	return nil, fmt.Errorf("expected a mapping with 'series' or a list of points")
}
