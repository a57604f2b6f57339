/*
 *
 * Copyright 2025 The share-mem Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package config holds the demo harness configuration. The library itself is
// configured through code; this is only for the cmd/sharemem tool.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sharemem "github.com/toto1234567890/share-mem"
)

// Config describes one demo run: the shared region to use, the channel
// geometry inside it, and how much traffic to push through.
type Config struct {
	RegionName    string `yaml:"region_name"`
	RegionSize    int    `yaml:"region_size"` // bytes; 0 derives from geometry
	CapacitySlots uint32 `yaml:"capacity_slots"`
	SlotSize      uint32 `yaml:"slot_size"`
	Framing       string `yaml:"framing"` // "length-prefixed" or "fixed"
	Messages      int    `yaml:"messages"`
	TimeoutS      int    `yaml:"timeout_s"` // per-run deadline for blocking ops
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		RegionName:    "sharemem-demo",
		CapacitySlots: 1024,
		SlotSize:      128,
		Framing:       "length-prefixed",
		Messages:      100000,
		TimeoutS:      30,
	}
}

// Load reads a yaml file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the channel would reject
// anyway, so the demo fails early with a readable message.
func (c Config) Validate() error {
	if c.RegionName == "" {
		return fmt.Errorf("config: region_name must not be empty")
	}
	if c.CapacitySlots < 1 {
		return fmt.Errorf("config: capacity_slots must be at least 1")
	}
	framing, err := sharemem.ParseFraming(c.Framing)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	minSlot := uint32(1)
	if framing == sharemem.FramingLengthPrefixed {
		minSlot = 5
	}
	if c.SlotSize < minSlot {
		return fmt.Errorf("config: slot_size %d below minimum %d for %s framing", c.SlotSize, minSlot, framing)
	}
	if c.Messages < 1 {
		return fmt.Errorf("config: messages must be at least 1")
	}
	if c.RegionSize > 0 && c.RegionSize < c.NeededBytes() {
		return fmt.Errorf("config: region_size %d below the %d bytes the geometry needs", c.RegionSize, c.NeededBytes())
	}
	return nil
}

// FramingPolicy returns the parsed framing policy. Call Validate first.
func (c Config) FramingPolicy() sharemem.Framing {
	framing, _ := sharemem.ParseFraming(c.Framing)
	return framing
}

// NeededBytes returns the minimum region size for the configured geometry.
func (c Config) NeededBytes() int {
	return sharemem.HeaderSize + int(c.CapacitySlots)*int(c.SlotSize)
}

// RegionBytes returns the region size to acquire: the explicit region_size if
// set, otherwise exactly what the geometry needs.
func (c Config) RegionBytes() int {
	if c.RegionSize > 0 {
		return c.RegionSize
	}
	return c.NeededBytes()
}
