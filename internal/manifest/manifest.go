// Package manifest reads the channel manifest a hardware block is lowered
// against: the declared channel names, directions, and kinds. A manifest
// holds either one inline block or a [[block]] list.
package manifest

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"sluice/internal/ir"
)

// Channel is one declared block endpoint.
type Channel struct {
	Name string `toml:"name"`
	Dir  string `toml:"dir"`
	Kind string `toml:"kind"`
}

// Block is one channel manifest.
type Block struct {
	Name     string    `toml:"name"`
	Channels []Channel `toml:"channel"`
}

// manifestFile is the raw decoded form covering both layouts.
type manifestFile struct {
	Name     string    `toml:"name"`
	Channels []Channel `toml:"channel"`
	Blocks   []Block   `toml:"block"`
}

// Parse decodes and validates a single-block manifest.
func Parse(data []byte) (*Block, error) {
	blocks, err := ParseAll(data)
	if err != nil {
		return nil, err
	}
	if len(blocks) != 1 {
		return nil, fmt.Errorf("manifest: expected one block, found %d", len(blocks))
	}
	return blocks[0], nil
}

// ParseAll decodes and validates a manifest with any number of blocks.
func ParseAll(data []byte) ([]*Block, error) {
	var mf manifestFile
	if err := toml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	var blocks []*Block
	if len(mf.Blocks) > 0 {
		if mf.Name != "" || len(mf.Channels) > 0 {
			return nil, fmt.Errorf("manifest: [[block]] entries cannot mix with a top-level block")
		}
		for i := range mf.Blocks {
			blocks = append(blocks, &mf.Blocks[i])
		}
	} else {
		blocks = []*Block{{Name: mf.Name, Channels: mf.Channels}}
	}
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if err := b.validate(); err != nil {
			return nil, err
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("manifest: duplicate block %q", b.Name)
		}
		seen[b.Name] = true
	}
	return blocks, nil
}

func (b *Block) validate() error {
	if b.Name == "" {
		return fmt.Errorf("manifest: missing block name")
	}
	seen := make(map[string]bool, len(b.Channels))
	for _, c := range b.Channels {
		if c.Name == "" {
			return fmt.Errorf("manifest: channel with no name")
		}
		if seen[c.Name] {
			return fmt.Errorf("manifest: duplicate channel %q", c.Name)
		}
		seen[c.Name] = true
		if c.Dir != "in" && c.Dir != "out" {
			return fmt.Errorf("manifest: channel %q: dir must be in or out, got %q", c.Name, c.Dir)
		}
		switch c.Kind {
		case "", "direct", "fifo":
		default:
			return fmt.Errorf("manifest: channel %q: kind must be direct or fifo, got %q", c.Name, c.Kind)
		}
	}
	return nil
}

// Load reads and parses a single-block manifest at path.
func Load(path string) (*Block, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the caller
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadAll reads and parses the manifest at path, inline or [[block]] form.
func LoadAll(path string) ([]*Block, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the caller
	if err != nil {
		return nil, err
	}
	return ParseAll(data)
}

// Channel returns the declaration named name, nil when absent.
func (b *Block) Channel(name string) *Channel {
	for i := range b.Channels {
		if b.Channels[i].Name == name {
			return &b.Channels[i]
		}
	}
	return nil
}

// IRDir maps the declared direction onto the IR enum.
func (c *Channel) IRDir() ir.ChannelDir {
	if c.Dir == "out" {
		return ir.DirOutput
	}
	return ir.DirInput
}

// IRKind maps the declared kind onto the IR enum; the default is FIFO.
func (c *Channel) IRKind() ir.ChannelKind {
	if c.Kind == "direct" {
		return ir.KindDirect
	}
	return ir.KindFIFO
}
