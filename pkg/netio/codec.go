package netio

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
)

// Binary frame format: [Magic:4][Version:1][DataLen:4][Data:N][Checksum:4]
// where Data is the snappy-compressed JSON document and the checksum covers
// the compressed bytes.
const (
	frameMagic   = 0x52584e54 // "RXNT"
	frameVersion = 1
)

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode network document: %w", err)
	}
	return nil
}

// ReadJSON decodes a plain JSON document.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode network document: %w", err)
	}
	return &doc, nil
}

// WriteBinary writes the document as a snappy-compressed checksummed frame.
func WriteBinary(w io.Writer, doc *Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode network document: %w", err)
	}
	compressed := snappy.Encode(nil, raw)

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, uint32(frameMagic)); err != nil {
		return err
	}
	if err := bw.WriteByte(frameVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := bw.Write(compressed); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadBinary decodes a frame written by WriteBinary, verifying the checksum
// before decompressing.
func ReadBinary(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)

	var magic uint32
	if err := binary.Read(br, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	if magic != frameMagic {
		return nil, fmt.Errorf("bad frame magic 0x%08x", magic)
	}
	version, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read frame version: %w", err)
	}
	if version != frameVersion {
		return nil, fmt.Errorf("unsupported frame version %d", version)
	}
	var dataLen uint32
	if err := binary.Read(br, binary.BigEndian, &dataLen); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(br, compressed); err != nil {
		return nil, fmt.Errorf("read frame data: %w", err)
	}
	var sum uint32
	if err := binary.Read(br, binary.BigEndian, &sum); err != nil {
		return nil, fmt.Errorf("read frame checksum: %w", err)
	}
	if got := crc32.ChecksumIEEE(compressed); got != sum {
		return nil, fmt.Errorf("frame checksum mismatch: got 0x%08x, want 0x%08x", got, sum)
	}

	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress network document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode network document: %w", err)
	}
	return &doc, nil
}
