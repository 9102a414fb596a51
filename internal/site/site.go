// Package site holds the static portfolio content: hero, about, services,
// experience, education, tech stack and social links.
package site

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultContent []byte

type Content struct {
	Name       string    `yaml:"name"`
	Headline   string    `yaml:"headline"`
	Tagline    string    `yaml:"tagline"`
	Email      string    `yaml:"email"`
	About      string    `yaml:"about"`
	Socials    []Link    `yaml:"socials"`
	Services   []Service `yaml:"services"`
	Experience []Entry   `yaml:"experience"`
	Education  []Entry   `yaml:"education"`
	TechStack  []Tech    `yaml:"tech_stack"`
	Footer     string    `yaml:"footer"`
}

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
	Icon  Icon   `yaml:"icon"`
}

type Service struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Icon        Icon   `yaml:"icon"`
}

// Entry is one job or one qualification.
type Entry struct {
	Title        string   `yaml:"title"`
	Organization string   `yaml:"organization"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end"`
	Logo         string   `yaml:"logo"`
	Bullets      []string `yaml:"bullets"`
	Technologies []string `yaml:"technologies"`
}

type Tech struct {
	Name string `yaml:"name"`
	Icon Icon   `yaml:"icon"`
}

// Parse decodes content strictly: unknown keys and unknown icons fail.
func Parse(raw []byte) (*Content, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var c Content
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("site content: %w", err)
	}
	if c.Name == "" {
		return nil, errors.New("site content: name is required")
	}
	return &c, nil
}

// Default is the built-in content.
func Default() *Content {
	c, err := Parse(defaultContent)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the content file at path, falling back to the built-in content
// when the file does not exist.
func Load(path string) (*Content, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[site] %s not found, using built-in content", path)
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}
