/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pdf.go
Description: PDF encryption-marker parser for the Akaylee Featurizer. Scans the tail
window (then the head as fallback) for an /Encrypt key and extracts the /Filter name
and /EncryptMetadata flag from a bounded window around its first occurrence.
*/

package encryption

import (
	"bytes"
	"os"
	"regexp"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

const (
	pdfEncTailRead     = 256 * 1024
	pdfEncHeadRead     = 1024 * 1024
	pdfEncWindowBefore = 2 * 1024
	pdfEncWindowAfter  = 8 * 1024
)

var (
	rePDFEncFilter   = regexp.MustCompile(`/Filter\s*/([A-Za-z0-9]+)`)
	rePDFEncMetadata = regexp.MustCompile(`(?i)/EncryptMetadata\s+(true|false)`)
)

// PDFEncParser detects the /Encrypt dictionary markers of encrypted PDFs
type PDFEncParser struct{}

// NewPDFEncParser creates a new PDF encryption-marker parser
func NewPDFEncParser() *PDFEncParser { return &PDFEncParser{} }

// Family returns the encryption family handled by this parser
func (p *PDFEncParser) Family() string { return "pdf_enc" }

// Default returns the all-default PDF encryption record
func (p *PDFEncParser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("pdf_encrypt_dict_present", interfaces.BoolValue(false))
	rec.Set("pdf_encrypt_filter", interfaces.StringValue(""))
	rec.Set("pdf_encrypt_metadata", interfaces.StringValue(""))
	return rec
}

// scanEncryptWindow searches a buffer for /Encrypt and resolves filter and
// metadata flags near its first occurrence, widening to the whole buffer
// when the local window misses them
func scanEncryptWindow(buf []byte) (present bool, filter string, meta interfaces.FeatureValue) {
	meta = interfaces.Null()
	pos := bytes.Index(buf, []byte("/Encrypt"))
	if pos < 0 {
		return false, "", meta
	}
	present = true

	start := pos - pdfEncWindowBefore
	if start < 0 {
		start = 0
	}
	end := pos + pdfEncWindowAfter
	if end > len(buf) {
		end = len(buf)
	}
	win := buf[start:end]

	if m := rePDFEncFilter.FindSubmatch(win); m != nil {
		filter = string(m[1])
	}
	if m := rePDFEncMetadata.FindSubmatch(win); m != nil {
		meta = interfaces.BoolValue(bytes.EqualFold(m[1], []byte("true")))
	}

	if filter == "" {
		if m := rePDFEncFilter.FindSubmatch(buf); m != nil {
			filter = string(m[1])
		}
	}
	if meta.IsNull() {
		if m := rePDFEncMetadata.FindSubmatch(buf); m != nil {
			meta = interfaces.BoolValue(bytes.EqualFold(m[1], []byte("true")))
		}
	}
	return present, filter, meta
}

// record assembles the PDF encryption feature record
func (p *PDFEncParser) record(present bool, filter string, meta interfaces.FeatureValue) *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("pdf_encrypt_dict_present", interfaces.BoolValue(present))
	if filter != "" {
		rec.Set("pdf_encrypt_filter", interfaces.StringValue(filter))
	} else {
		rec.Set("pdf_encrypt_filter", interfaces.Null())
	}
	rec.Set("pdf_encrypt_metadata", meta)
	return rec
}

// Parse extracts PDF encryption markers; failures collapse to the default record
func (p *PDFEncParser) Parse(path string) *interfaces.Record {
	f, err := os.Open(path)
	if err != nil {
		return p.Default()
	}
	defer f.Close()

	size, err := fileSize(f)
	if err != nil {
		return p.Default()
	}

	// Trailer first: the /Encrypt reference lives in the trailer dictionary
	tailN := int64(pdfEncTailRead)
	if tailN > size {
		tailN = size
	}
	tail := readAt(f, size-tailN, int(tailN))
	if present, filter, meta := scanEncryptWindow(tail); present {
		return p.record(present, filter, meta)
	}

	// Fallback: linearized or rewritten files may carry it near the head
	head := readAt(f, 0, pdfEncHeadRead)
	if present, filter, meta := scanEncryptWindow(head); present {
		return p.record(present, filter, meta)
	}

	return p.record(false, "", interfaces.Null())
}

var _ interfaces.EncryptionParser = (*PDFEncParser)(nil)
