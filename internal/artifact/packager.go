package artifact

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// ResultEntryName is the single file stored inside the results archive.
const ResultEntryName = "network.gexf"

// ArchiveContentType is the MIME type sent with the uploaded archive.
const ArchiveContentType = "application/zip"

// Package wraps serialized graph content as the single deflate-compressed
// entry of an in-memory zip archive. The entry header carries no timestamp so
// identical content produces identical archive bytes.
func Package(gexfContent []byte) ([]byte, error) {
	buffer := &bytes.Buffer{}
	writer := zip.NewWriter(buffer)
	entry, err := writer.CreateHeader(&zip.FileHeader{
		Name:   ResultEntryName,
		Method: zip.Deflate,
	})
	if err != nil {
		return nil, fmt.Errorf("create archive entry: %w", err)
	}
	if _, err := entry.Write(gexfContent); err != nil {
		return nil, fmt.Errorf("write archive entry: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buffer.Bytes(), nil
}
