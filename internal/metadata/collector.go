// Package metadata gathers what the rename and sort prompts know about a
// file: a text excerpt for documents and image dimensions plus EXIF fields
// for photos.
package metadata

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/llm-wrapper/internal/fsops"
	"github.com/temirov/llm-wrapper/internal/prompts"
)

const (
	DefaultExcerptBytes = 4096
	DefaultConcurrency  = 4

	maxImageBytes  = 32 << 20
	titleMaxRunes  = 120
	markdownPrefix = "#"

	openErrorFormat = "collect metadata for %s: %w"
)

var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".markdown": {}, ".csv": {}, ".tsv": {}, ".json": {},
	".yaml": {}, ".yml": {}, ".xml": {}, ".html": {}, ".htm": {}, ".log": {},
	".go": {}, ".py": {}, ".js": {}, ".ts": {}, ".sh": {}, ".rst": {}, ".tex": {},
}

type Collector struct {
	FS           fsops.FS
	ExcerptBytes int
}

func NewCollector(fileSystem fsops.FS) Collector {
	return Collector{FS: fileSystem, ExcerptBytes: DefaultExcerptBytes}
}

// Collect never fails on unreadable content; only a file that cannot be
// opened is an error.
func (collector Collector) Collect(info fsops.FileInfo) (prompts.FileMetadata, error) {
	metadata := prompts.FileMetadata{
		Extension: strings.TrimPrefix(info.Extension, "."),
		MIMEType:  info.MIMEType,
		SizeBytes: info.SizeBytes,
	}
	switch {
	case isImage(info):
		extra, err := collector.imageFields(info)
		if err != nil {
			return prompts.FileMetadata{}, fmt.Errorf(openErrorFormat, info.AbsolutePath, err)
		}
		metadata.Extra = extra
	case isText(info):
		excerpt, err := collector.readExcerpt(info.AbsolutePath)
		if err != nil {
			return prompts.FileMetadata{}, fmt.Errorf(openErrorFormat, info.AbsolutePath, err)
		}
		metadata.Title = extractTitle(excerpt)
		metadata.Summary = strings.Join(strings.Fields(excerpt), " ")
	}
	return metadata, nil
}

// CollectAll collects metadata for every file with at most concurrency
// readers. Results keep the input order.
func (collector Collector) CollectAll(ctx context.Context, infos []fsops.FileInfo, concurrency int) ([]prompts.FileMetadata, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]prompts.FileMetadata, len(infos))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for index, info := range infos {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			metadata, err := collector.Collect(info)
			if err != nil {
				return err
			}
			results[index] = metadata
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Describe renders metadata as a one-line description for sort prompts.
func Describe(metadata prompts.FileMetadata) string {
	parts := make([]string, 0, 3)
	if metadata.Title != "" {
		parts = append(parts, metadata.Title)
	}
	if metadata.Summary != "" && metadata.Summary != metadata.Title {
		parts = append(parts, metadata.Summary)
	}
	for _, key := range []string{"format", "camera_model", "datetime"} {
		if value := metadata.Extra[key]; value != "" {
			parts = append(parts, key+"="+value)
		}
	}
	if len(parts) == 0 && metadata.MIMEType != "" {
		parts = append(parts, metadata.MIMEType)
	}
	return strings.Join(parts, "; ")
}

func isText(info fsops.FileInfo) bool {
	if strings.HasPrefix(info.MIMEType, "text/") {
		return true
	}
	_, known := textExtensions[strings.ToLower(info.Extension)]
	return known
}

func (collector Collector) readExcerpt(path string) (string, error) {
	reader, err := collector.FS.Open(path)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	limit := collector.ExcerptBytes
	if limit <= 0 {
		limit = DefaultExcerptBytes
	}
	content, err := io.ReadAll(io.LimitReader(reader, int64(limit)))
	if err != nil {
		return "", err
	}
	// A cut may land inside a multi-byte rune.
	for trimmed := 0; trimmed < utf8.UTFMax && len(content) > 0 && !utf8.Valid(content); trimmed++ {
		content = content[:len(content)-1]
	}
	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return "", nil
	}
	return string(content), nil
}

// extractTitle prefers a markdown heading, then the first non-empty line.
func extractTitle(excerpt string) string {
	scanner := bufio.NewScanner(strings.NewReader(excerpt))
	firstLine := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, markdownPrefix) {
			return clip(strings.TrimSpace(strings.TrimLeft(line, markdownPrefix)), titleMaxRunes)
		}
		if firstLine == "" {
			firstLine = line
		}
	}
	return clip(firstLine, titleMaxRunes)
}

func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
