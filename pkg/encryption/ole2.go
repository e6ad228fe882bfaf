/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ole2.go
Description: OLE2/CFB encryption-marker parser for the Akaylee Featurizer. Detects
OOXML-in-CFB encryption streams and classifies the scheme, plus legacy RC4/CryptoAPI
markers: BIFF FILEPASS records, PowerPoint encryption markers, cryptographic-provider
name strings, and the salt/verifier/verifier-hash triple heuristic.
*/

package encryption

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

// Probe length for stream-head heuristics
const oleProbeLen = 16384

// Known legacy RC4/CryptoAPI provider names, matched in ASCII and UTF-16LE
var oleProviderHints = []string{
	"Microsoft Enhanced Cryptographic Provider",
	"Microsoft Base Cryptographic Provider",
	"Microsoft Strong Cryptographic Provider",
	"Microsoft Enhanced RSA and AES Cryptographic Provider",
}

var (
	reProviderASCII = regexp.MustCompile(`Microsoft[^\x00\r\n]{0,64}Cryptographic Provider[^\x00\r\n]{0,32}`)
	reProviderUTF16 = regexp.MustCompile(`Microsoft.{0,64}Cryptographic Provider.{0,32}`)
)

// OLE2EncParser detects legitimate-encryption markers in CFB containers
type OLE2EncParser struct{}

// NewOLE2EncParser creates a new OLE2 encryption-marker parser
func NewOLE2EncParser() *OLE2EncParser { return &OLE2EncParser{} }

// Family returns the encryption family handled by this parser
func (p *OLE2EncParser) Family() string { return "ole2_enc" }

// Default returns the all-default OLE2 encryption record
func (p *OLE2EncParser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("encrypted_package_present", interfaces.BoolValue(false))
	rec.Set("ooxml_encryption_info_present", interfaces.BoolValue(false))
	rec.Set("ooxml_encryption_type", interfaces.StringValue(""))
	rec.Set("ole_crypto_provider", interfaces.StringValue(""))
	rec.Set("ole_rc4_meta_present", interfaces.BoolValue(false))
	rec.Set("ole_rc4_triplet_present", interfaces.BoolValue(false))
	return rec
}

// oleStream pairs a lowercase /-joined path with its readable entry
type oleStream struct {
	lowerPath string
	entry     *mscfb.File
}

// listStreams collects every directory entry with its full path, lowercased
// for case-insensitive lookup
func listStreams(r *mscfb.Reader) []oleStream {
	var streams []oleStream
	for {
		entry, err := r.Next()
		if err != nil {
			break
		}
		parts := append(append([]string{}, entry.Path...), entry.Name)
		streams = append(streams, oleStream{
			lowerPath: strings.ToLower(strings.Join(parts, "/")),
			entry:     entry,
		})
	}
	return streams
}

// findStream locates a stream whose path ends with target, case-insensitively
func findStream(streams []oleStream, target string) *mscfb.File {
	t := strings.ToLower(target)
	for _, s := range streams {
		if strings.HasSuffix(s.lowerPath, t) {
			return s.entry
		}
	}
	return nil
}

// readProbe reads the head of a stream for marker heuristics. The entry is a
// stateful reader and the same stream may be probed more than once, so the
// read always rewinds to the stream head first.
func readProbe(entry *mscfb.File) []byte {
	if entry == nil {
		return nil
	}
	if _, err := entry.Seek(0, io.SeekStart); err != nil {
		return nil
	}
	buf, err := io.ReadAll(io.LimitReader(entry, oleProbeLen))
	if err != nil {
		return nil
	}
	return buf
}

// detectOOXMLEncType classifies the EncryptionInfo payload: Agile when the
// 2006 encryption schema markers appear, Extensible for other XML, Standard
// for the binary legacy layout.
func detectOOXMLEncType(blob []byte) string {
	if len(blob) == 0 {
		return ""
	}
	b := bytes.TrimLeft(blob, " \t\r\n\x00")
	if bytes.HasPrefix(b, []byte("<?xml")) || bytes.HasPrefix(b, []byte("<")) {
		if bytes.Contains(b, []byte("<encryption")) &&
			(bytes.Contains(b, []byte("http://schemas.microsoft.com/office/2006/encryption")) ||
				bytes.Contains(b, []byte("http://schemas.microsoft.com/office/2006/keyEncryptor/password")) ||
				bytes.Contains(b, []byte("keyData"))) {
			return "Agile"
		}
		return "Extensible"
	}
	return "Standard"
}

// decodeUTF16LE decodes a byte blob as UTF-16LE, dropping a trailing odd byte
func decodeUTF16LE(b []byte) string {
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(u))
}

// detectLegacyProvider extracts a legacy crypto-provider name from a stream
// probe, trying known hint strings first, then the generic provider pattern,
// in ASCII and UTF-16LE.
func detectLegacyProvider(blob []byte) string {
	if len(blob) == 0 {
		return ""
	}
	for _, hint := range oleProviderHints {
		if bytes.Contains(blob, []byte(hint)) {
			return hint
		}
	}
	for _, hint := range oleProviderHints {
		wide := encodeUTF16LE(hint)
		if bytes.Contains(blob, wide) {
			return hint
		}
	}
	if m := reProviderASCII.Find(blob); m != nil {
		return string(m)
	}
	if m := reProviderUTF16.FindString(decodeUTF16LE(blob)); m != "" {
		return m
	}
	return ""
}

// encodeUTF16LE encodes an ASCII string as UTF-16LE bytes
func encodeUTF16LE(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}

// hasBIFFFilePass probes for the BIFF FILEPASS record id (0x002F, LE)
func hasBIFFFilePass(blob []byte) bool {
	if len(blob) < 4 {
		return false
	}
	return bytes.Contains(blob, []byte{0x2F, 0x00})
}

// hasPPTEncMarker probes for textual encryption markers in a PowerPoint
// document stream, in ASCII and UTF-16LE
func hasPPTEncMarker(blob []byte) bool {
	if len(blob) == 0 {
		return false
	}
	if bytes.Contains(blob, []byte("DocumentEncryption")) || bytes.Contains(blob, []byte("Encryption")) {
		return true
	}
	u := decodeUTF16LE(blob)
	return strings.Contains(u, "DocumentEncryption") || strings.Contains(u, "Encryption")
}

// hasRC4Triplet probes for the CryptoAPI salt/verifier/verifier-hash triple.
// Any probe carrying 48 contiguous bytes is treated as a candidate; otherwise
// the length-prefixed layout (0x10 LE before each 16-byte block) is scanned.
func hasRC4Triplet(blob []byte) bool {
	// Contiguous variant: any probe able to hold the 48-byte span counts
	if len(blob) >= 48 {
		return true
	}

	// Length-prefixed variant: three 16-byte blocks, each preceded by an
	// LE length of 16, spaced 20 bytes apart
	pat := []byte{0x10, 0x00, 0x00, 0x00}
	for i := 0; i+3*(4+16) <= len(blob) && i < 8192; i++ {
		if bytes.Equal(blob[i:i+4], pat) &&
			bytes.Equal(blob[i+20:i+24], pat) &&
			bytes.Equal(blob[i+40:i+44], pat) {
			return true
		}
	}
	return false
}

// Parse extracts OLE2 encryption markers; failures collapse to the default record
func (p *OLE2EncParser) Parse(path string) *interfaces.Record {
	f, err := os.Open(path)
	if err != nil {
		return p.Default()
	}
	defer f.Close()

	reader, err := mscfb.New(f)
	if err != nil {
		return p.Default()
	}
	streams := listStreams(reader)

	encPkg := findStream(streams, "EncryptedPackage") != nil
	encInfoEntry := findStream(streams, "EncryptionInfo")
	encInfo := encInfoEntry != nil

	encType := ""
	if encInfoEntry != nil {
		encType = detectOOXMLEncType(readProbe(encInfoEntry))
		if encType == "" {
			encType = "Unknown"
		}
	} else if encPkg {
		encType = "Unknown"
	}

	provider := ""
	rc4MetaPresent := false

	// Excel: FILEPASS record in the Workbook/Book stream
	for _, cand := range []string{"Workbook", "Book"} {
		entry := findStream(streams, cand)
		if entry == nil {
			continue
		}
		blob := readProbe(entry)
		if hasBIFFFilePass(blob) {
			rc4MetaPresent = true
			if prov := detectLegacyProvider(blob); prov != "" {
				provider = prov
			}
			break
		}
	}

	// PowerPoint: textual markers in the document stream
	if !rc4MetaPresent {
		if entry := findStream(streams, "PowerPoint Document"); entry != nil {
			blob := readProbe(entry)
			if hasPPTEncMarker(blob) {
				rc4MetaPresent = true
				if prov := detectLegacyProvider(blob); prov != "" {
					provider = prov
				}
			}
		}
	}

	// Word and the general case: a provider name alone counts
	if !rc4MetaPresent {
		if entry := findStream(streams, "WordDocument"); entry != nil {
			if prov := detectLegacyProvider(readProbe(entry)); prov != "" {
				provider = prov
				rc4MetaPresent = true
			}
		}
	}

	tripletPresent := false
	for _, cand := range []string{"WordDocument", "Workbook", "Book", "PowerPoint Document"} {
		entry := findStream(streams, cand)
		if entry == nil {
			continue
		}
		if hasRC4Triplet(readProbe(entry)) {
			tripletPresent = true
			break
		}
	}

	rec := interfaces.NewRecord()
	rec.Set("encrypted_package_present", interfaces.BoolValue(encPkg))
	rec.Set("ooxml_encryption_info_present", interfaces.BoolValue(encInfo))
	if encType != "" {
		rec.Set("ooxml_encryption_type", interfaces.StringValue(encType))
	} else {
		rec.Set("ooxml_encryption_type", interfaces.Null())
	}
	if provider != "" {
		rec.Set("ole_crypto_provider", interfaces.StringValue(provider))
	} else {
		rec.Set("ole_crypto_provider", interfaces.Null())
	}
	rec.Set("ole_rc4_meta_present", interfaces.BoolValue(rc4MetaPresent))
	rec.Set("ole_rc4_triplet_present", interfaces.BoolValue(tripletPresent))
	return rec
}

var _ interfaces.EncryptionParser = (*OLE2EncParser)(nil)
