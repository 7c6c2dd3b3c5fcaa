package api

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
)

var errMalformedForm = errors.New("malformed form payload")

// parseFormRecords decodes a PHP-style bracketed form array into submission
// records. Keys look like "0[title]" or "0[custom_fields][color]"; the numeric
// prefix is the record index. Unknown fields are ignored, like a permissive
// form decoder would.
func parseFormRecords(form url.Values) ([]mobilecontent.SubmissionRecord, error) {
	records := make(map[int]*mobilecontent.SubmissionRecord)

	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		value := values[0]

		index, segments, err := splitFormKey(key)
		if err != nil {
			return nil, err
		}

		rec := records[index]
		if rec == nil {
			rec = &mobilecontent.SubmissionRecord{}
			records[index] = rec
		}

		switch segments[0] {
		case "author_email":
			rec.AuthorEmail = value
		case "title":
			rec.Title = value
		case "content":
			rec.Content = value
		case "status":
			rec.Status = value
		case "tags":
			rec.Tags = value
		case "categories":
			rec.Categories = value
		case "featured_image":
			rec.FeaturedImageURL = value
		case "custom_fields":
			if len(segments) != 2 || segments[1] == "" {
				return nil, errMalformedForm
			}
			if rec.CustomFields == nil {
				rec.CustomFields = make(map[string]string)
			}
			rec.CustomFields[segments[1]] = value
		}
	}

	if len(records) == 0 {
		return nil, errMalformedForm
	}

	indexes := make([]int, 0, len(records))
	for index := range records {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	result := make([]mobilecontent.SubmissionRecord, 0, len(records))
	for _, index := range indexes {
		result = append(result, *records[index])
	}
	return result, nil
}

// splitFormKey parses "<index>[<field>]..." into the record index and the
// bracketed segments.
func splitFormKey(key string) (int, []string, error) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return 0, nil, errMalformedForm
	}

	index, err := strconv.Atoi(key[:open])
	if err != nil || index < 0 {
		return 0, nil, errMalformedForm
	}

	var segments []string
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return 0, nil, errMalformedForm
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return 0, nil, errMalformedForm
		}
		segment := rest[1:end]
		if segment == "" {
			return 0, nil, errMalformedForm
		}
		segments = append(segments, segment)
		rest = rest[end+1:]
	}
	if len(segments) == 0 {
		return 0, nil, errMalformedForm
	}
	return index, segments, nil
}
