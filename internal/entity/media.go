package entity

import (
	"net/url"
	"path"
	"strings"
)

var (
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {}, ".svg": {}, ".heic": {},
	}
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".mov": {}, ".webm": {}, ".avi": {}, ".mkv": {}, ".m4v": {},
	}
	documentExtensions = map[string]struct{}{
		".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {}, ".csv": {}, ".txt": {},
	}
)

// ClassifyMediaURL buckets an unlabeled media URL by its file extension,
// checking image, video, and document sets in that order. Unmatched URLs
// fall back to plain links.
func ClassifyMediaURL(rawURL string) MediaKind {
	extension := mediaExtension(rawURL)
	if _, ok := imageExtensions[extension]; ok {
		return MediaKindImage
	}
	if _, ok := videoExtensions[extension]; ok {
		return MediaKindVideo
	}
	if _, ok := documentExtensions[extension]; ok {
		return MediaKindDocument
	}
	return MediaKindLink
}

func mediaExtension(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Path != "" {
		trimmed = parsed.Path
	}
	return strings.ToLower(path.Ext(trimmed))
}

// classifyRawMedia splits a flat unlabeled media array into the canonical
// MediaSet. An explicit server-supplied type label wins over the extension
// heuristic.
func classifyRawMedia(items []RawMediaItem) MediaSet {
	var set MediaSet
	for _, item := range items {
		mediaURL := firstNonEmpty(item.URL, item.Link)
		if strings.TrimSpace(mediaURL) == "" {
			continue
		}
		kind := mediaKindFromLabel(firstNonEmpty(item.Kind, item.Type))
		if kind == "" {
			kind = ClassifyMediaURL(mediaURL)
		}
		record := MediaItem{URL: mediaURL, Name: item.Name, Kind: kind}
		switch kind {
		case MediaKindImage:
			set.Images = append(set.Images, record)
		case MediaKindVideo:
			set.Videos = append(set.Videos, record)
		case MediaKindDocument:
			set.Documents = append(set.Documents, record)
		default:
			record.Kind = MediaKindLink
			set.Links = append(set.Links, record)
		}
	}
	return set
}

func mediaKindFromLabel(label string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "image", "img", "photo":
		return MediaKindImage
	case "video":
		return MediaKindVideo
	case "document", "doc", "file":
		return MediaKindDocument
	case "link":
		return MediaKindLink
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
