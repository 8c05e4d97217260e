package metadata

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/temirov/llm-wrapper/internal/fsops"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".heic": {}, ".heif": {}, ".tiff": {}, ".tif": {},
}

func isImage(info fsops.FileInfo) bool {
	_, known := imageExtensions[strings.ToLower(info.Extension)]
	return known
}

// imageFields decodes dimensions and, for JPEG and TIFF files, EXIF tags.
// Undecodable content yields no fields rather than an error.
func (collector Collector) imageFields(info fsops.FileInfo) (map[string]string, error) {
	reader, err := collector.FS.Open(info.AbsolutePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, maxImageBytes))
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if cfg, format, decodeErr := image.DecodeConfig(bytes.NewReader(data)); decodeErr == nil {
		fields["width"] = strconv.Itoa(cfg.Width)
		fields["height"] = strconv.Itoa(cfg.Height)
		fields["format"] = format
	}

	ext := strings.ToLower(info.Extension)
	if strings.Contains(info.MIMEType, "jpeg") || strings.Contains(info.MIMEType, "tiff") || ext == ".jpg" || ext == ".jpeg" || ext == ".tif" || ext == ".tiff" {
		if exifData, exifErr := exif.Decode(bytes.NewReader(data)); exifErr == nil {
			populateExifFields(exifData, fields)
		}
	}

	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

func populateExifFields(x *exif.Exif, fields map[string]string) {
	if tm, err := x.DateTime(); err == nil {
		fields["datetime"] = tm.UTC().Format(time.RFC3339)
	}
	for key, tag := range map[string]exif.FieldName{
		"camera_model":  exif.Model,
		"camera_make":   exif.Make,
		"lens_model":    exif.LensModel,
		"exposure_time": exif.ExposureTime,
		"iso":           exif.ISOSpeedRatings,
		"focal_length":  exif.FocalLength,
	} {
		if value, err := x.Get(tag); err == nil {
			if cleaned := cleanExifString(value.String()); cleaned != "" {
				fields[key] = cleaned
			}
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		fields["gps_latitude"] = fmt.Sprintf("%.6f", lat)
		fields["gps_longitude"] = fmt.Sprintf("%.6f", long)
	}
}

func cleanExifString(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.Trim(trimmed, "\"")
	return strings.TrimRight(trimmed, "\x00")
}
