/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ooxml_test.go
Description: Tests for the OOXML structural parser. Covers a docx-like package,
rels counting, a ZIP without OOXML markers and ordinary non-ZIP input.
*/

package parsers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kleascm/akaylee-featurizer/pkg/parsers"
)

// TestOOXMLDocxPackage validates a minimal Word-like package
func TestOOXMLDocxPackage(t *testing.T) {
	path := buildZip(t, map[string]string{
		"[Content_Types].xml":            `<?xml version="1.0"?><Types xmlns="ct"/>`,
		"_rels/.rels":                    `<Relationships/>`,
		"word/_rels/document.xml.rels":   `<Relationships/>`,
		"word/document.xml":              `<document/>`,
	})

	rec := parsers.NewOOXMLParser().Parse(path)
	assert.True(t, getBool(t, rec, "ooxml_detected"))
	assert.True(t, getBool(t, rec, "ooxml_coreparts_present"))
	assert.Equal(t, int64(2), getInt(t, rec, "ooxml_rel_count"))
	assert.True(t, getBool(t, rec, "ooxml_pkg_ok"))
	assert.True(t, getBool(t, rec, "parser_ok"))
	assert.True(t, getBool(t, rec, "structure_consistent"))
}

// TestOOXMLMissingCoreParts detects the package without structural consistency
func TestOOXMLMissingCoreParts(t *testing.T) {
	path := buildZip(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"_rels/.rels":         `<Relationships/>`,
		"xl/styles.xml":       `<styleSheet/>`,
	})

	rec := parsers.NewOOXMLParser().Parse(path)
	assert.True(t, getBool(t, rec, "ooxml_detected"))
	assert.False(t, getBool(t, rec, "ooxml_coreparts_present"))
	assert.True(t, getBool(t, rec, "parser_ok"))
	assert.False(t, getBool(t, rec, "structure_consistent"))
}

// TestOOXMLPlainZip keeps plain archives out of the OOXML family
func TestOOXMLPlainZip(t *testing.T) {
	path := buildZip(t, map[string]string{
		"readme.txt": "just a zip",
	})

	rec := parsers.NewOOXMLParser().Parse(path)
	assert.False(t, getBool(t, rec, "ooxml_detected"))
	assert.False(t, getBool(t, rec, "parser_ok"))
}

// TestOOXMLNotZip collapses non-ZIP bytes to the default record
func TestOOXMLNotZip(t *testing.T) {
	path := writeTempFile(t, []byte("no archive here"))

	rec := parsers.NewOOXMLParser().Parse(path)
	assert.False(t, getBool(t, rec, "ooxml_detected"))
	assert.False(t, getBool(t, rec, "parser_ok"))
}
