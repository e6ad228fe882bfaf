/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pdf_test.go
Description: Tests for the PDF structural parser. Covers a minimal classical
document, startxref discovery, missing cross-reference tables, version sniffing
and non-PDF input.
*/

package parsers_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kleascm/akaylee-featurizer/pkg/parsers"
)

// buildClassicPDF assembles a minimal classical PDF with a correct startxref
func buildClassicPDF() []byte {
	body := "%PDF-1.4\n" +
		"1 0 obj\n<< /Type /Catalog >>\nendobj\n"
	xrefOff := len(body)
	body += "xref\n0 2\n" +
		"0000000000 65535 f \n" +
		"0000000009 00000 n \n" +
		"trailer\n<< /Size 2 /Root 1 0 R /ID [<aa><bb>] >>\n" +
		fmt.Sprintf("startxref\n%d\n%%%%EOF\n", xrefOff)
	return []byte(body)
}

// TestPDFMinimalClassic validates the full classical layout
func TestPDFMinimalClassic(t *testing.T) {
	path := writeTempFile(t, buildClassicPDF())

	rec := parsers.NewPDFParser().Parse(path)
	assert.Equal(t, 1.4, getFloat(t, rec, "pdf_version"))
	assert.True(t, getBool(t, rec, "pdf_startxref_found"))
	assert.True(t, getBool(t, rec, "pdf_xref_ok"))
	assert.True(t, getBool(t, rec, "pdf_has_trailer"))
	assert.True(t, getBool(t, rec, "pdf_root_present"))
	assert.True(t, getBool(t, rec, "pdf_ids_present"))
	assert.True(t, getBool(t, rec, "pdf_trailer_ok"))
	assert.Greater(t, getFloat(t, rec, "pdf_obj_count_est"), 0.0)
	assert.True(t, getBool(t, rec, "parser_ok"))
	assert.True(t, getBool(t, rec, "structure_consistent"))
}

// TestPDFNoStartxref degrades without a cross-reference anchor
func TestPDFNoStartxref(t *testing.T) {
	body := "%PDF-1.7\n1 0 obj\n<< >>\nendobj\n%%EOF\n"
	path := writeTempFile(t, []byte(body))

	rec := parsers.NewPDFParser().Parse(path)
	assert.Equal(t, 1.7, getFloat(t, rec, "pdf_version"))
	assert.False(t, getBool(t, rec, "pdf_startxref_found"))
	assert.False(t, getBool(t, rec, "pdf_xref_ok"))
	assert.False(t, getBool(t, rec, "parser_ok"))
}

// TestPDFBogusStartxrefOffset tolerates an offset pointing at nothing
func TestPDFBogusStartxrefOffset(t *testing.T) {
	body := "%PDF-1.5\n" + strings.Repeat("x", 200) + "\nstartxref\n999999\n%%EOF\n"
	path := writeTempFile(t, []byte(body))

	rec := parsers.NewPDFParser().Parse(path)
	assert.True(t, getBool(t, rec, "pdf_startxref_found"))
	assert.False(t, getBool(t, rec, "pdf_xref_ok"))
	assert.False(t, getBool(t, rec, "structure_consistent"))
}

// TestPDFMissingVersion reports a null version for a digitless header
func TestPDFMissingVersion(t *testing.T) {
	path := writeTempFile(t, []byte("%PDF-\nsomething\n"))

	rec := parsers.NewPDFParser().Parse(path)
	v, ok := rec.Get("pdf_version")
	assert.True(t, ok)
	assert.True(t, v.IsNull())
}

// TestPDFNotPDF collapses other bytes to sane defaults
func TestPDFNotPDF(t *testing.T) {
	path := writeTempFile(t, []byte("plain text file"))

	rec := parsers.NewPDFParser().Parse(path)
	v, _ := rec.Get("pdf_version")
	assert.True(t, v.IsNull())
	assert.False(t, getBool(t, rec, "parser_ok"))
}
