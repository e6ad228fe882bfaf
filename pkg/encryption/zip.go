/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: zip.go
Description: ZIP encryption-marker parser for the Akaylee Featurizer. Inspects every
central-directory entry for the encryption bit and AES extra fields, inferring the
archive-wide method (AES, ZipCrypto, or Mixed) and whether every entry is encrypted.
*/

package encryption

import (
	"archive/zip"
	"encoding/binary"

	"github.com/kleascm/akaylee-featurizer/pkg/interfaces"
)

// AES extra-field header ID used by WinZip-style AES encryption
const zipAESExtraID = 0x9901

// ZIPEncParser detects per-entry encryption markers in ZIP archives
type ZIPEncParser struct{}

// NewZIPEncParser creates a new ZIP encryption-marker parser
func NewZIPEncParser() *ZIPEncParser { return &ZIPEncParser{} }

// Family returns the encryption family handled by this parser
func (p *ZIPEncParser) Family() string { return "zip_enc" }

// Default returns the all-default ZIP encryption record
func (p *ZIPEncParser) Default() *interfaces.Record {
	rec := interfaces.NewRecord()
	rec.Set("zip_any_entry_encrypted", interfaces.BoolValue(false))
	rec.Set("zip_encryption_method", interfaces.StringValue(""))
	rec.Set("zip_all_headers_encrypted", interfaces.BoolValue(false))
	return rec
}

// entryEncrypted tests general-purpose bit 0 of the entry flags
func entryEncrypted(f *zip.File) bool {
	return f.Flags&0x0001 != 0
}

// entryHasAESExtra walks the extra-field records for the AES header ID
func entryHasAESExtra(f *zip.File) bool {
	data := f.Extra
	for i := 0; i+4 <= len(data); {
		headerID := binary.LittleEndian.Uint16(data[i:])
		sz := int(binary.LittleEndian.Uint16(data[i+2:]))
		i += 4
		if i+sz > len(data) {
			break
		}
		if headerID == zipAESExtraID {
			return true
		}
		i += sz
	}
	return false
}

// Parse extracts ZIP encryption markers; failures and empty archives collapse
// to the default record
func (p *ZIPEncParser) Parse(path string) *interfaces.Record {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return p.Default()
	}
	defer zr.Close()

	if len(zr.File) == 0 {
		return p.Default()
	}

	anyEnc := false
	allEnc := true
	methods := make(map[string]bool)
	for _, f := range zr.File {
		enc := entryEncrypted(f)
		anyEnc = anyEnc || enc
		allEnc = allEnc && enc
		if enc {
			if entryHasAESExtra(f) {
				methods["AES"] = true
			} else {
				methods["ZipCrypto"] = true
			}
		}
	}

	method := interfaces.Null()
	if !anyEnc {
		allEnc = false
	} else {
		switch len(methods) {
		case 0:
			// Encrypted but unrecognized: ZipCrypto is the safe default
			method = interfaces.StringValue("ZipCrypto")
		case 1:
			for m := range methods {
				method = interfaces.StringValue(m)
			}
		default:
			method = interfaces.StringValue("Mixed")
		}
	}

	rec := interfaces.NewRecord()
	rec.Set("zip_any_entry_encrypted", interfaces.BoolValue(anyEnc))
	rec.Set("zip_encryption_method", method)
	rec.Set("zip_all_headers_encrypted", interfaces.BoolValue(allEnc))
	return rec
}

var _ interfaces.EncryptionParser = (*ZIPEncParser)(nil)
