// Package content serves blog posts from the local content backend.
package content

import (
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned when no post matches a slug.
var ErrNotFound = errors.New("post not found")

// reviewedCategory marks editorial state, not a topic, and is never listed.
const reviewedCategory = "reviewed"

// Uncategorized groups posts without a listed category.
const Uncategorized = "Uncategorized"

// Block is one paragraph-level element of a post body.
type Block struct {
	Style string `json:"style" yaml:"style"`
	Text  string `json:"text" yaml:"text"`
}

// Heading reports whether the block renders as a heading.
func (b Block) Heading() bool {
	switch b.Style {
	case "h1", "h2", "h3", "h4":
		return true
	}
	return false
}

// Post is a blog post as the site renders it.
type Post struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Slug       string    `json:"slug" yaml:"slug"`
	MainImage  string    `json:"main_image,omitempty" yaml:"main_image"`
	Excerpt    string    `json:"excerpt" yaml:"excerpt"`
	Body       []Block   `json:"body" yaml:"body"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	AuthorName string    `json:"author_name" yaml:"author"`
	Categories []string  `json:"categories" yaml:"categories"`
	Tags       []string  `json:"tags" yaml:"tags"`
}

// Group is a category and its posts, newest first.
type Group struct {
	Category string
	Posts    []Post
}

// GroupByCategory buckets posts by category, leaving out "reviewed". A post
// appears once under each of its categories; posts with none land in
// Uncategorized. Groups keep the order their category was first seen.
func GroupByCategory(posts []Post) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, p := range posts {
		cats := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			if c != reviewedCategory && c != "" {
				cats = append(cats, c)
			}
		}
		if len(cats) == 0 {
			cats = []string{Uncategorized}
		}

		for _, c := range cats {
			i, ok := index[c]
			if !ok {
				i = len(groups)
				index[c] = i
				groups = append(groups, Group{Category: c})
			}
			groups[i].Posts = append(groups[i].Posts, p)
		}
	}
	return groups
}

// SortNewestFirst orders posts by creation time, descending.
func SortNewestFirst(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
