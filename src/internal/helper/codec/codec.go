// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package codec loads JSON or YAML documents from disk, detecting the format from
// the file extension. It is shared by the policy, diagnostic and trusted-list loaders.
package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/helper/gc"
)

// Format represents a supported document format.
type Format int

const (
	// FormatJSON represents JSON documents (.json and anything unrecognized).
	FormatJSON Format = iota
	// FormatYAML represents YAML documents (.yaml, .yml).
	FormatYAML
)

// String returns the lowercase format name.
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// DetectFormat determines the document format based on file extension.
// Matching is case-insensitive; unknown extensions default to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Unmarshal decodes data into v according to format.
//
// Parameters:
//   - data: Raw document contents
//   - v: Pointer to the destination value
//   - format: The document format
//
// Returns:
//   - error: Any parsing error, prefixed with the format name
func Unmarshal(data []byte, v any, format Format) error {
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML document: %w", err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON document: %w", err)
		}
	}
	return nil
}

// ReadFile reads the file at path into a pooled buffer and returns a private copy
// of its contents.
func ReadFile(path string) ([]byte, error) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := buf.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out, nil
}

// LoadFile reads path and decodes it into v using the format detected from its extension.
func LoadFile(path string, v any) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	return Unmarshal(data, v, DetectFormat(path))
}
