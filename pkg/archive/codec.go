/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package archive

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/carverauto/warehouse/pkg/models"
)

const (
	// maxEntryBytes caps the decoded JSON entry of a single day bucket.
	maxEntryBytes = 256 << 20

	entryMode = 0o644
)

// epoch pins every header timestamp so identical buckets encode to identical bytes.
var epoch = time.Unix(0, 0).UTC()

// EntryName is the name of the single JSON entry inside a day container.
func EntryName(dateKey string) string {
	return dateKey + ".json"
}

// Encode serializes bucket as JSON and packs it as the sole entry of a gzip
// compressed tar stream. The output is deterministic for a given bucket.
func Encode(dateKey string, bucket models.DayBucket) ([]byte, error) {
	if bucket == nil {
		bucket = models.DayBucket{}
	}

	payload, err := json.Marshal(bucket)
	if err != nil {
		return nil, fmt.Errorf("marshal bucket: %w", err)
	}

	var buf bytes.Buffer

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}

	zw.ModTime = epoch

	tw := tar.NewWriter(zw)

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     EntryName(dateKey),
		Mode:     entryMode,
		Size:     int64(len(payload)),
		ModTime:  epoch,
		Format:   tar.FormatUSTAR,
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("write tar header: %w", err)
	}

	if _, err := tw.Write(payload); err != nil {
		return nil, fmt.Errorf("write tar entry: %w", err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode unpacks a day container. Any deviation from a single regular JSON
// entry is reported as ErrArchiveCorrupt.
func Decode(data []byte) (models.DayBucket, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", ErrArchiveCorrupt, err)
	}
	defer func() { _ = zr.Close() }()

	tr := tar.NewReader(zr)

	hdr, err := tr.Next()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrArchiveCorrupt, errEntryCount)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: tar: %w", ErrArchiveCorrupt, err)
	}

	if hdr.Typeflag != tar.TypeReg {
		return nil, fmt.Errorf("%w: %w: %s", ErrArchiveCorrupt, errEntryNotRegular, hdr.Name)
	}

	if hdr.Size > maxEntryBytes {
		return nil, fmt.Errorf("%w: %w: %d bytes", ErrArchiveCorrupt, errEntryTooLarge, hdr.Size)
	}

	payload, err := io.ReadAll(tr)
	if err != nil {
		return nil, fmt.Errorf("%w: read entry: %w", ErrArchiveCorrupt, err)
	}

	if _, err := tr.Next(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("%w: %w", ErrArchiveCorrupt, errEntryCount)
		}

		return nil, fmt.Errorf("%w: tar: %w", ErrArchiveCorrupt, err)
	}

	// Drain the gzip trailer so a truncated checksum is detected.
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", ErrArchiveCorrupt, err)
	}

	var bucket models.DayBucket
	if err := json.Unmarshal(payload, &bucket); err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrArchiveCorrupt, err)
	}

	if bucket == nil {
		bucket = models.DayBucket{}
	}

	return bucket, nil
}
