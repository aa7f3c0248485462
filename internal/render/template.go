package render

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"smetka/internal/core"
)

// Renderer fills a loaded .docx template.
type Renderer struct {
	template []byte
}

// NewRenderer wraps template bytes. A nil template falls back to DefaultTemplate.
func NewRenderer(template []byte) (*Renderer, error) {
	if template == nil {
		var err error
		if template, err = DefaultTemplate(); err != nil {
			return nil, err
		}
	}
	if _, err := zip.NewReader(bytes.NewReader(template), int64(len(template))); err != nil {
		return nil, fmt.Errorf("invalid docx template: %w", err)
	}
	return &Renderer{template: template}, nil
}

// LoadRenderer reads the template at path. A missing file falls back to the
// built-in layout so the service still prints something useful.
func LoadRenderer(path string) (*Renderer, error) {
	if path == "" {
		return NewRenderer(nil)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRenderer(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	return NewRenderer(data)
}

// Render produces the filled document and its attachment name.
func (r *Renderer) Render(s Snapshot, p PrintDetails) ([]byte, string, error) {
	if err := p.Validate(); err != nil {
		return nil, "", err
	}
	doc, err := FillDocx(r.template, Fields(s, p))
	if err != nil {
		return nil, "", err
	}
	return doc, FileName(p.PersonName), nil
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

// defaultLayout is the paragraph list of the built-in form.
func defaultLayout() []string {
	lines := []string{
		"СМЕТКА ЗА ИЗПЛАТЕНИ СУМИ",
		"Предприятие: {{COMPANY_NAME}}, ЕИК {{COMPANY_EIK}}, ТД на НАП {{NAP_OFFICE}}",
		"Лице: {{PERSON_NAME}}, ЕГН {{PERSON_EGN}}",
		"Договор № {{CONTRACT_NUMBER}} от {{CONTRACT_DATE}}, {{QUARTER}}",
		"Месец: {{MONTH_AND_YEAR}}   {{QUARTER_CHECKBOXES}}",
		"Лице с увреждане: {{HAS_DISABILITY}}",
		"Осигурен на максимален доход: {{MAX_INSURED}}",
		"Пенсионер: {{RETIRED}} {{WANTS_INSURANCE}}",
		"Осигурен на друго основание: {{INSURED_ELSEWHERE}}",
		"Удържане на данък за IV тримесечие: {{WANTS_TAX_IV_TRIM}}",
	}
	for _, l := range (core.Result{}).Summary() {
		lines = append(lines, l.Label+": {{"+l.Key+"}}")
	}
	return append(lines,
		"Общо осигурителни вноски: {{INSURANCE_TOTAL}}",
		"Словом: {{NET_AMOUNT_WORDS}}",
	)
}

func documentXML(paragraphs []string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		b.WriteString(xmlEscaper.Replace(p))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

// BuildDocx assembles a minimal WordprocessingML package with one paragraph per line.
func BuildDocx(paragraphs []string) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentXML(paragraphs)},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultTemplate is the built-in form used when no template file is configured.
func DefaultTemplate() ([]byte, error) {
	return BuildDocx(defaultLayout())
}
