package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/strata/internal/schema"
)

// DomainChangeSet prefixes change-set checksums. The version suffix leaves
// room to change what is hashed.
const DomainChangeSet = "strata/changeset/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Checksum hashes the rendered SQL of cs. Text is NFC-normalised first so
// identifiers that differ only in Unicode composition hash the same.
//
// Function steps hash by name only.
func Checksum(cs schema.ChangeSet) string {
	text := strings.Join(cs.Statements(), ";\n")
	return hashWithDomain(DomainChangeSet, norm.NFC.Bytes([]byte(text)))
}
