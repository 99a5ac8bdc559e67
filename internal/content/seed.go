package content

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Posts []Post `yaml:"posts"`
}

// LoadSeed reads posts from a YAML file.
func LoadSeed(path string) ([]Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return f.Posts, nil
}

// Seed upserts the posts of a YAML file into the store and returns how many
// were written.
func (s *Store) Seed(ctx context.Context, path string) (int, error) {
	posts, err := LoadSeed(path)
	if err != nil {
		return 0, err
	}
	for _, p := range posts {
		if _, err := s.Upsert(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(posts), nil
}
