package document

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortName   SortKey = "name"
	SortDate   SortKey = "date"
	SortSize   SortKey = "size"
	SortStatus SortKey = "status"
)

// FilterAll passes every status through.
const FilterAll = "all"

type Query struct {
	Search string
	Filter string
	Sort   SortKey
}

var statusRank = map[Status]int{
	StatusReady:      0,
	StatusProcessing: 1,
	StatusFailed:     2,
}

func ParseSort(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case "":
		return SortDate, nil
	case SortName, SortDate, SortSize, SortStatus:
		return key, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", raw)
	}
}

func ParseFilter(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "":
		return FilterAll, nil
	case FilterAll, string(StatusReady), string(StatusProcessing), string(StatusFailed):
		return f, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", raw)
	}
}

// View returns the documents matching q in the order q.Sort asks for.
// docs is never modified; ties keep their original relative order.
func View(docs []Document, q Query) []Document {
	needle := strings.ToLower(q.Search)
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if needle != "" && !strings.Contains(strings.ToLower(d.Name), needle) {
			continue
		}
		if q.Filter != "" && q.Filter != FilterAll && string(d.Status) != q.Filter {
			continue
		}
		out = append(out, d)
	}

	var less func(a, b Document) bool
	switch q.Sort {
	case SortName:
		col := collate.New(language.Und)
		less = func(a, b Document) bool { return col.CompareString(a.Name, b.Name) < 0 }
	case SortDate:
		less = func(a, b Document) bool { return a.UploadedAt.After(b.UploadedAt) }
	case SortSize:
		less = func(a, b Document) bool { return a.Size > b.Size }
	case SortStatus:
		less = func(a, b Document) bool { return statusRank[a.Status] < statusRank[b.Status] }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
