// Package seed holds the built-in sample dataset restored by the seed operation.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"logstudio/internal/storage"
)

//go:embed data.yaml
var rawData []byte

// Update is one changelog line of a sample entry.
type Update struct {
	Date    string  `yaml:"date"`
	Version *string `yaml:"version"`
	Type    string  `yaml:"type"`
	Content string  `yaml:"content"`
}

// Entry is a sample entry with its changelog.
type Entry struct {
	ID          string           `yaml:"id"`
	Slug        string           `yaml:"slug"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Level       int              `yaml:"level"`
	Type        string           `yaml:"type"`
	Date        string           `yaml:"date"`
	Tags        []string         `yaml:"tags"`
	Content     string           `yaml:"content"`
	Link        *string          `yaml:"link"`
	Metrics     []storage.Metric `yaml:"metrics"`
	Updates     []Update         `yaml:"updates"`
}

// Block is one block of a sample journal post.
type Block struct {
	Type          string  `yaml:"type"`
	Content       string  `yaml:"content"`
	ComponentName *string `yaml:"componentName"`
}

// Post is a sample journal post.
type Post struct {
	ID         string  `yaml:"id"`
	Slug       string  `yaml:"slug"`
	Title      string  `yaml:"title"`
	Subtitle   string  `yaml:"subtitle"`
	Date       string  `yaml:"date"`
	Quarter    string  `yaml:"quarter"`
	ReadTime   string  `yaml:"readTime"`
	CoverImage *string `yaml:"coverImage"`
	Blocks     []Block `yaml:"blocks"`
}

// Dataset is the full sample content.
type Dataset struct {
	Entries []Entry `yaml:"entries"`
	Journal []Post  `yaml:"journal"`
}

// Load decodes the embedded dataset.
func Load() (*Dataset, error) {
	return Parse(rawData)
}

// Parse decodes a dataset from YAML.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode seed data: %w", err)
	}
	return &ds, nil
}

// EntryBundles converts the sample entries into storage rows stamped with now.
func (d *Dataset) EntryBundles(now time.Time) []storage.EntryBundle {
	bundles := make([]storage.EntryBundle, 0, len(d.Entries))
	for _, e := range d.Entries {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		updates := make([]storage.UpdateRecord, 0, len(e.Updates))
		for _, u := range e.Updates {
			updates = append(updates, storage.UpdateRecord{
				Date:    u.Date,
				Version: u.Version,
				Type:    u.Type,
				Content: u.Content,
			})
		}
		bundles = append(bundles, storage.EntryBundle{
			Entry: storage.EntryRecord{
				ID:          e.ID,
				Slug:        e.Slug,
				Title:       e.Title,
				Description: e.Description,
				Level:       e.Level,
				Type:        e.Type,
				Date:        e.Date,
				Tags:        tags,
				Content:     e.Content,
				Link:        e.Link,
				Metrics:     e.Metrics,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			Updates: updates,
		})
	}
	return bundles
}

// JournalBundles converts the sample posts into storage rows stamped with now.
func (d *Dataset) JournalBundles(now time.Time) []storage.JournalBundle {
	bundles := make([]storage.JournalBundle, 0, len(d.Journal))
	for _, p := range d.Journal {
		blocks := make([]storage.BlockRecord, 0, len(p.Blocks))
		for _, b := range p.Blocks {
			blocks = append(blocks, storage.BlockRecord{
				Type:          b.Type,
				Content:       b.Content,
				ComponentName: b.ComponentName,
			})
		}
		bundles = append(bundles, storage.JournalBundle{
			Post: storage.JournalRecord{
				ID:         p.ID,
				Slug:       p.Slug,
				Title:      p.Title,
				Subtitle:   p.Subtitle,
				Date:       p.Date,
				Quarter:    p.Quarter,
				ReadTime:   p.ReadTime,
				CoverImage: p.CoverImage,
				CreatedAt:  now,
				UpdatedAt:  now,
			},
			Blocks: blocks,
		})
	}
	return bundles
}
