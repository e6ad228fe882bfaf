/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ooxml.go
Description: OOXML structural parser for the Akaylee Featurizer. Layered on the ZIP
archive listing: detects [Content_Types].xml plus a known core part or OOXML root
directory, counts .rels parts with an early stop, and probes the content-types part
for an XML Types declaration without a full XML parse.
*/

package parsers

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

const (
	ooxmlContentTypes = "[Content_Types].xml"
	ooxmlCoreDocx     = "word/document.xml"
	ooxmlCoreXlsx     = "xl/workbook.xml"
	ooxmlCorePptx     = "ppt/presentation.xml"

	// Early stop keeps large packages cheap; the count saturates at 21
	ooxmlRelsEarlyStop = 20
	ooxmlCTScanBytes   = 4096
)

// OOXMLParser extracts structural features from OOXML packages
type OOXMLParser struct{}

// NewOOXMLParser creates a new OOXML structural parser
func NewOOXMLParser() *OOXMLParser { return &OOXMLParser{} }

// Family returns the format family handled by this parser
func (p *OOXMLParser) Family() string { return "ooxml" }

// Default returns the all-default OOXML record
func (p *OOXMLParser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("ooxml_detected", interfaces.BoolValue(false))
	rec.Set("ooxml_coreparts_present", interfaces.BoolValue(false))
	rec.Set("ooxml_rel_count", interfaces.IntValue(0))
	rec.Set("ooxml_pkg_ok", interfaces.BoolValue(false))
	rec.Set("parser_ok", interfaces.BoolValue(false))
	rec.Set("structure_consistent", interfaces.BoolValue(false))
	return rec
}

// relCount counts .rels parts, saturating just past the early-stop bound
func relCount(names []string) int {
	cnt := 0
	for _, n := range names {
		if strings.HasSuffix(n, ".rels") || strings.HasSuffix(n, ".RELS") {
			cnt++
			if cnt > ooxmlRelsEarlyStop {
				return ooxmlRelsEarlyStop + 1
			}
		}
	}
	return cnt
}

// probeContentTypes reads the head of [Content_Types].xml and looks for an
// XML Types declaration, with or without a namespace prefix.
func probeContentTypes(zr *zip.ReadCloser) bool {
	for _, f := range zr.File {
		if f.Name != ooxmlContentTypes {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return false
		}
		head, err := io.ReadAll(io.LimitReader(rc, ooxmlCTScanBytes))
		rc.Close()
		if err != nil {
			return false
		}
		return bytes.Contains(head, []byte("<Types")) || bytes.Contains(head, []byte(":Types"))
	}
	return false
}

// Parse extracts OOXML features; failures collapse to the default record
func (p *OOXMLParser) Parse(path string) *interfaces.Record {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return p.Default()
	}
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	hasContentTypes := false
	corePresent := false
	hasOOXMLDirs := false
	for _, n := range names {
		switch n {
		case ooxmlContentTypes:
			hasContentTypes = true
		case ooxmlCoreDocx, ooxmlCoreXlsx, ooxmlCorePptx:
			corePresent = true
		}
		if strings.HasPrefix(n, "word/") || strings.HasPrefix(n, "xl/") || strings.HasPrefix(n, "ppt/") {
			hasOOXMLDirs = true
		}
	}

	detected := hasContentTypes && (corePresent || hasOOXMLDirs)
	rels := relCount(names)

	pkgOK := false
	if hasContentTypes && (corePresent || hasOOXMLDirs) {
		pkgOK = probeContentTypes(zr)
	}

	parserOK := detected && pkgOK && (corePresent || rels > 0)
	structureConsistent := parserOK && corePresent && rels >= 2

	rec := interfaces.NewRecord()
	rec.Set("ooxml_detected", interfaces.BoolValue(detected))
	rec.Set("ooxml_coreparts_present", interfaces.BoolValue(corePresent))
	rec.Set("ooxml_rel_count", interfaces.IntValue(int64(rels)))
	rec.Set("ooxml_pkg_ok", interfaces.BoolValue(pkgOK))
	rec.Set("parser_ok", interfaces.BoolValue(parserOK))
	rec.Set("structure_consistent", interfaces.BoolValue(structureConsistent))
	return rec
}

var _ interfaces.StructuralParser = (*OOXMLParser)(nil)
