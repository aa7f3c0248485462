package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

const (
	markerOpen  = "{{"
	markerClose = "}}"
)

var (
	paragraphPattern = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*[^/>])?>.*?</w:p>`)
	textPattern      = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*[^/>])?>(.*?)</w:t>`)
	markerPattern    = regexp.MustCompile(`\{\{[A-Za-z0-9_]+\}\}`)
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// isTextPart reports whether a docx part carries user-visible text.
func isTextPart(name string) bool {
	return name == "word/document.xml" ||
		strings.HasPrefix(name, "word/header") ||
		strings.HasPrefix(name, "word/footer")
}

func markerReplacer(fields map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, markerOpen+k+markerClose, xmlEscaper.Replace(fields[k]))
	}
	return strings.NewReplacer(pairs...)
}

// FillDocx substitutes {{KEY}} markers in the body, headers and footers of a
// .docx document. Markers without a value are left as they are.
func FillDocx(template []byte, fields map[string]string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, fmt.Errorf("read docx template: %w", err)
	}

	replacer := markerReplacer(fields)
	out := new(bytes.Buffer)
	zw := zip.NewWriter(out)

	for _, file := range zr.File {
		if err := copyPart(zw, file, replacer); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx: %w", err)
	}
	return out.Bytes(), nil
}

func copyPart(zw *zip.Writer, file *zip.File, replacer *strings.Replacer) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     file.Name,
		Method:   file.Method,
		Modified: file.Modified,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", file.Name, err)
	}
	r, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer r.Close()

	if !isTextPart(file.Name) {
		if _, err := io.Copy(w, r); err != nil {
			return fmt.Errorf("copy %s: %w", file.Name, err)
		}
		return nil
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", file.Name, err)
	}
	if _, err := io.WriteString(w, fillPart(string(content), replacer)); err != nil {
		return fmt.Errorf("write %s: %w", file.Name, err)
	}
	return nil
}

// fillPart replaces markers inside single text elements, then markers that
// Word split across several runs of one paragraph, whatever their formatting.
func fillPart(xml string, replacer *strings.Replacer) string {
	xml = replacer.Replace(xml)
	return paragraphPattern.ReplaceAllStringFunc(xml, func(p string) string {
		return joinSplitMarkers(p, replacer)
	})
}

// joinSplitMarkers moves the text of the runs a known marker spans into the
// first of them and empties the rest, one marker at a time.
func joinSplitMarkers(p string, replacer *strings.Replacer) string {
	for {
		locs := textPattern.FindAllStringSubmatchIndex(p, -1)
		if len(locs) < 2 {
			return p
		}
		starts := make([]int, len(locs))
		var joined strings.Builder
		for i, loc := range locs {
			starts[i] = joined.Len()
			joined.WriteString(p[loc[2]:loc[3]])
		}
		text := joined.String()

		first, last, ok := splitMarker(text, starts, replacer)
		if !ok {
			return p
		}
		end := starts[last] + locs[last][3] - locs[last][2]

		var b strings.Builder
		prev := 0
		for i := first; i <= last; i++ {
			loc := locs[i]
			b.WriteString(p[prev:loc[0]])
			if i == first {
				b.WriteString(`<w:t xml:space="preserve">`)
				b.WriteString(replacer.Replace(text[starts[first]:end]))
				b.WriteString(`</w:t>`)
			} else {
				b.WriteString(p[loc[0]:loc[2]])
				b.WriteString(p[loc[3]:loc[1]])
			}
			prev = loc[1]
		}
		b.WriteString(p[prev:])
		p = b.String()
	}
}

// splitMarker finds the first known marker whose characters sit in more than
// one text element and returns the indexes of the first and last of them.
func splitMarker(text string, starts []int, replacer *strings.Replacer) (int, int, bool) {
	element := func(pos int) int {
		return sort.Search(len(starts), func(i int) bool { return starts[i] > pos }) - 1
	}
	for _, m := range markerPattern.FindAllStringIndex(text, -1) {
		marker := text[m[0]:m[1]]
		if replacer.Replace(marker) == marker {
			continue
		}
		if first, last := element(m[0]), element(m[1]-1); first != last {
			return first, last, true
		}
	}
	return 0, 0, false
}
