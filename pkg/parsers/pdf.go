/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pdf.go
Description: PDF structural parser for the Akaylee Featurizer. Works over bounded head
and tail windows only: extracts the header version, locates startxref, verifies the
classical or stream cross-reference at its offset, scans the tail for /Root and /ID,
and estimates the object count from /Size or a bounded token scan.
*/

package parsers

import (
	"bytes"
	"math"
	"os"
	"regexp"
	"strconv"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

const (
	pdfHeadRead      = 64 * 1024
	pdfTailRead      = 128 * 1024
	pdfStartxrefScan = 256 * 1024
	pdfNearWindow    = 4096
)

var (
	rePDFXrefTable  = regexp.MustCompile(`(?i)xref\s+((?:\d+\s+\d+\s*)+)`)
	rePDFXrefPair   = regexp.MustCompile(`(\d+)\s+(\d+)`)
	rePDFSize       = regexp.MustCompile(`/Size\s+(\d+)`)
	rePDFObjToken   = regexp.MustCompile(`\d+\s+0\s+obj`)
	pdfHeaderPrefix = []byte("%PDF-")
)

// PDFParser extracts structural features from PDF documents
type PDFParser struct{}

// NewPDFParser creates a new PDF structural parser
func NewPDFParser() *PDFParser { return &PDFParser{} }

// Family returns the format family handled by this parser
func (p *PDFParser) Family() string { return "pdf" }

// Default returns the all-default PDF record
func (p *PDFParser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("pdf_version", interfaces.Null())
	rec.Set("pdf_has_trailer", interfaces.BoolValue(false))
	rec.Set("pdf_startxref_found", interfaces.BoolValue(false))
	rec.Set("pdf_xref_ok", interfaces.BoolValue(false))
	rec.Set("pdf_ids_present", interfaces.BoolValue(false))
	rec.Set("pdf_root_present", interfaces.BoolValue(false))
	rec.Set("pdf_trailer_ok", interfaces.BoolValue(false))
	rec.Set("pdf_obj_count_est", interfaces.FloatValue(0.0))
	rec.Set("parser_ok", interfaces.BoolValue(false))
	rec.Set("structure_consistent", interfaces.BoolValue(false))
	return rec
}

// sniffVersion extracts the numeric version immediately following %PDF-
func sniffVersion(head []byte) (float64, bool) {
	if !bytes.HasPrefix(head, pdfHeaderPrefix) {
		return 0, false
	}
	rest := head[len(pdfHeaderPrefix):]
	end := 0
	for end < len(rest) && ((rest[end] >= '0' && rest[end] <= '9') || rest[end] == '.') {
		end++
	}
	v, err := strconv.ParseFloat(string(rest[:end]), 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// findStartxref reverse-searches the tail scan window for the startxref
// keyword and parses the ASCII offset that follows it
func findStartxref(f *os.File, size int64) (found bool, offset int64, offsetOK bool) {
	scan := int64(pdfStartxrefScan)
	if scan > size {
		scan = size
	}
	tail := readAt(f, size-scan, int(scan))
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return false, 0, false
	}

	after := tail[idx+len("startxref"):]
	if len(after) > 64 {
		after = after[:64]
	}
	var digits []byte
	for _, c := range after {
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		} else if len(digits) > 0 {
			break
		}
	}
	if len(digits) == 0 {
		return true, 0, false
	}
	off, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return true, 0, false
	}
	return true, off, true
}

// checkXrefAtOffset probes a small window around the claimed xref offset for
// either a classical table (xref keyword + trailer keyword) or a cross-
// reference stream (/Type /XRef), optionally recovering a declared size.
func checkXrefAtOffset(f *os.File, xrefOff int64) (xrefOK, trailerPresent bool, declaredSize int) {
	if xrefOff < 0 {
		return false, false, 0
	}
	start := xrefOff - 16
	if start < 0 {
		start = 0
	}
	buf := readAt(f, start, pdfNearWindow)
	if len(buf) == 0 {
		return false, false, 0
	}

	probe := buf
	if len(probe) > 128 {
		probe = probe[:128]
	}
	classic := bytes.Contains(probe, []byte("xref"))
	trailerPresent = bytes.Contains(buf, []byte("trailer"))
	xrefStream := bytes.Contains(buf, []byte("/Type")) && bytes.Contains(buf, []byte("/XRef"))
	xrefOK = classic || xrefStream

	if classic {
		// Sum the subsection entry counts of the classical table
		if m := rePDFXrefTable.FindSubmatch(buf); m != nil {
			for _, pair := range rePDFXrefPair.FindAllSubmatch(m[1], -1) {
				if n, err := strconv.Atoi(string(pair[2])); err == nil {
					declaredSize += n
				}
			}
		}
	} else if xrefStream {
		if m := rePDFSize.FindSubmatch(buf); m != nil {
			declaredSize, _ = strconv.Atoi(string(m[1]))
		}
	}
	return xrefOK, trailerPresent, declaredSize
}

// scanObjTokens counts "N 0 obj" tokens over bounded head and tail buffers
func scanObjTokens(f *os.File, size int64, capKiB int64) int {
	maxBytes := capKiB * 1024

	headN := maxBytes
	if headN > size {
		headN = size
	}
	head := readAt(f, 0, int(headN))

	tailN := maxBytes
	if rest := size - headN; tailN > rest {
		tailN = rest
	}
	var tail []byte
	if tailN > 0 {
		tail = readAt(f, size-tailN, int(tailN))
	}

	combined := append(append(append([]byte{}, head...), '\n'), tail...)
	return len(rePDFObjToken.FindAll(combined, -1))
}

// Parse extracts PDF features; failures collapse to the default record
func (p *PDFParser) Parse(path string) *interfaces.Record {
	f, err := os.Open(path)
	if err != nil {
		return p.Default()
	}
	defer f.Close()

	size, err := fileSize(f)
	if err != nil {
		return p.Default()
	}

	headN := int64(pdfHeadRead)
	if headN > size {
		headN = size
	}
	head := readAt(f, 0, int(headN))

	version, versionOK := sniffVersion(head)

	startxrefFound, xrefOff, xrefOffOK := findStartxref(f, size)
	xrefOK := false
	hasTrailer := false
	declaredSize := 0
	if startxrefFound && xrefOffOK {
		xrefOK, hasTrailer, declaredSize = checkXrefAtOffset(f, xrefOff)
	}

	// /Root and /ID are scanned independently over the tail window
	tailScan := int64(pdfTailRead)
	if tailScan > size {
		tailScan = size
	}
	tail := readAt(f, size-tailScan, int(tailScan))
	rootPresent := bytes.Contains(tail, []byte("/Root"))
	idsPresent := bytes.Contains(tail, []byte("/ID"))

	trailerOK := startxrefFound && xrefOK && (hasTrailer || rootPresent)

	// Object-count estimate: declared /Size wins, else a bounded token scan
	objCount := 0
	if xrefOK && declaredSize > 0 {
		objCount = declaredSize
	} else {
		capKiB := size / 4096
		if capKiB < 512 {
			capKiB = 512
		}
		if capKiB > 4096 {
			capKiB = 4096
		}
		objCount = scanObjTokens(f, size, capKiB)
	}
	objCountEst := math.Log1p(float64(objCount))

	parserOK := (hasTrailer && startxrefFound) || xrefOK || trailerOK
	structureConsistent := parserOK &&
		((xrefOK && trailerOK && rootPresent) || (trailerOK && rootPresent && idsPresent))

	rec := interfaces.NewRecord()
	if versionOK {
		rec.Set("pdf_version", interfaces.FloatValue(version))
	} else {
		rec.Set("pdf_version", interfaces.Null())
	}
	rec.Set("pdf_has_trailer", interfaces.BoolValue(hasTrailer))
	rec.Set("pdf_startxref_found", interfaces.BoolValue(startxrefFound))
	rec.Set("pdf_xref_ok", interfaces.BoolValue(xrefOK))
	rec.Set("pdf_ids_present", interfaces.BoolValue(idsPresent))
	rec.Set("pdf_root_present", interfaces.BoolValue(rootPresent))
	rec.Set("pdf_trailer_ok", interfaces.BoolValue(trailerOK))
	rec.Set("pdf_obj_count_est", interfaces.FloatValue(objCountEst))
	rec.Set("parser_ok", interfaces.BoolValue(parserOK))
	rec.Set("structure_consistent", interfaces.BoolValue(structureConsistent))
	return rec
}

var _ interfaces.StructuralParser = (*PDFParser)(nil)
