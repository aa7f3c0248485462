package render

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"smetka/internal/core"
)

func testSnapshot(t *testing.T, month int, mutate func(*core.Declaration)) Snapshot {
	t.Helper()
	d := core.Declaration{
		ContractAmount: decimal.NewFromInt(1000),
		ExpenseRatio:   core.Ratio25,
		DocumentDate:   core.NewDate(2025, month, 10),
	}
	if mutate != nil {
		mutate(&d)
	}
	s, err := NewSnapshot(d)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return s
}

func readPart(t *testing.T, doc []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(b)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestFields(t *testing.T) {
	s := testSnapshot(t, 5, nil)
	p := PrintDetails{
		Payer:          core.Payer{Name: "Алфа ООД", EIK: "123456789", NAPOffice: "София"},
		PersonName:     "Иван Петров Иванов",
		ContractNumber: "17",
		ContractDate:   core.NewDate(2025, 4, 3),
	}
	f := Fields(s, p)

	want := map[string]string{
		"NET_AMOUNT":         "925.00",
		"TAX_ADVANCE":        "75.00",
		"INSURANCE_INCOME":   "0.00",
		"INSURANCE_TOTAL":    "0.00",
		"NET_AMOUNT_WORDS":   "деветстотин двадесет пет лева",
		"CONTRACT_DATE":      "03.04.2025",
		"MONTH_AND_YEAR":     "05.2025",
		"QUARTER":            core.QuarterNames[0],
		"QUARTER_CHECKBOXES": core.QuarterLabel(5),
		"HAS_DISABILITY":     checkboxNo,
		"WANTS_TAX_IV_TRIM":  checkboxBlank,
		"WANTS_INSURANCE":    "",
		"COMPANY_EIK":        "123456789",
	}
	for k, v := range want {
		if f[k] != v {
			t.Errorf("%s = %q, want %q", k, f[k], v)
		}
	}
}

func TestFields_FourthQuarterRetiree(t *testing.T) {
	s := testSnapshot(t, 11, func(d *core.Declaration) {
		d.Retired = true
		d.NoTaxFourthQuarter = true
		d.RetiredWantsInsurance = true
	})
	f := Fields(s, PrintDetails{})

	if f["WANTS_TAX_IV_TRIM"] != checkboxNo {
		t.Errorf("WANTS_TAX_IV_TRIM = %q, want %q", f["WANTS_TAX_IV_TRIM"], checkboxNo)
	}
	if f["WANTS_INSURANCE"] != checkboxYes {
		t.Errorf("WANTS_INSURANCE = %q, want %q", f["WANTS_INSURANCE"], checkboxYes)
	}
	if f["TAX_ADVANCE"] != "0.00" {
		t.Errorf("TAX_ADVANCE = %q, want 0.00", f["TAX_ADVANCE"])
	}
	if f["CONTRACT_DATE"] != "" {
		t.Errorf("CONTRACT_DATE = %q, want empty", f["CONTRACT_DATE"])
	}
}

func TestFillDocx_MergesRunsAndEscapes(t *testing.T) {
	body := `<w:document><w:body><w:p><w:r><w:t>{{COMP</w:t></w:r><w:r><w:t>ANY_NAME}}</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>{{UNKNOWN}}</w:t></w:r></w:p></w:body></w:document>`
	tmpl := buildZip(t, map[string]string{
		"word/document.xml": body,
		"word/header1.xml":  "<w:hdr>{{NET_AMOUNT}}</w:hdr>",
		"word/styles.xml":   "<w:styles>{{NET_AMOUNT}}</w:styles>",
	})

	out, err := FillDocx(tmpl, map[string]string{
		"COMPANY_NAME": "Алфа & Бета <ООД>",
		"NET_AMOUNT":   "925.00",
	})
	if err != nil {
		t.Fatalf("FillDocx: %v", err)
	}

	doc := readPart(t, out, "word/document.xml")
	if !strings.Contains(doc, "Алфа &amp; Бета &lt;ООД&gt;") {
		t.Errorf("document not filled or not escaped: %s", doc)
	}
	if !strings.Contains(doc, "{{UNKNOWN}}") {
		t.Errorf("unknown marker should stay: %s", doc)
	}
	if got := readPart(t, out, "word/header1.xml"); got != "<w:hdr>925.00</w:hdr>" {
		t.Errorf("header = %q", got)
	}
	if got := readPart(t, out, "word/styles.xml"); got != "<w:styles>{{NET_AMOUNT}}</w:styles>" {
		t.Errorf("non-text part changed: %q", got)
	}
}

func TestFillDocx_MarkerSplitAcrossFormattedRuns(t *testing.T) {
	bold := `<w:rPr><w:b/></w:rPr>`
	body := `<w:document><w:body>` +
		`<w:p><w:r>` + bold + `<w:t>Сума: {{NET_</w:t></w:r><w:r>` + bold + `<w:t>AMOUNT}} лв.</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve">{{</w:t></w:r><w:proofErr w:type="spellStart"/>` +
		`<w:r><w:rPr><w:i/></w:rPr><w:t>PERSON_NAME</w:t></w:r><w:proofErr w:type="spellEnd"/>` +
		`<w:r><w:t>}}</w:t></w:r><w:r><w:t xml:space="preserve"> край</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>{{UNKN</w:t></w:r><w:r>` + bold + `<w:t>OWN}}</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	tmpl := buildZip(t, map[string]string{"word/document.xml": body})

	out, err := FillDocx(tmpl, map[string]string{
		"NET_AMOUNT":  "925.00",
		"PERSON_NAME": "Иван Петров",
	})
	if err != nil {
		t.Fatalf("FillDocx: %v", err)
	}

	doc := readPart(t, out, "word/document.xml")
	for _, want := range []string{
		`<w:t xml:space="preserve">Сума: 925.00 лв.</w:t>`,
		`<w:t xml:space="preserve">Иван Петров</w:t>`,
		`<w:t xml:space="preserve"> край</w:t>`,
		`<w:p/>`,
		`{{UNKN`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
	for _, gone := range []string{"{{NET_", "AMOUNT}}", "PERSON_NAME"} {
		if strings.Contains(doc, gone) {
			t.Errorf("marker fragment %q left in document:\n%s", gone, doc)
		}
	}
	if got := strings.Count(doc, "<w:b/>"); got != 4 {
		t.Errorf("run formatting changed: %d bold marks, want 4", got)
	}
}

func TestFillDocx_CorruptTemplate(t *testing.T) {
	if _, err := FillDocx([]byte("not a zip"), nil); err == nil {
		t.Fatal("expected error for corrupt template")
	}
}

func TestRenderer_DefaultTemplate(t *testing.T) {
	r, err := LoadRenderer(filepath.Join(t.TempDir(), "missing.docx"))
	if err != nil {
		t.Fatalf("LoadRenderer: %v", err)
	}
	doc, name, err := r.Render(testSnapshot(t, 2, nil), PrintDetails{PersonName: "Мария Иванова"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if name != "smetka_Мария_Иванова.docx" {
		t.Errorf("file name = %q", name)
	}
	body := readPart(t, doc, "word/document.xml")
	for _, want := range []string{"925.00", "деветстотин двадесет пет лева", "Мария Иванова"} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered form is missing %q", want)
		}
	}
	if strings.Contains(body, "{{") {
		t.Errorf("default template left markers unfilled: %s", body)
	}
}

func TestRenderer_UnknownQuarter(t *testing.T) {
	r, err := NewRenderer(nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	_, _, err = r.Render(testSnapshot(t, 2, nil), PrintDetails{Quarter: "Q5"})
	if !errors.Is(err, ErrUnknownQuarter) {
		t.Errorf("err = %v, want ErrUnknownQuarter", err)
	}
}

func TestLoadRenderer_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.docx")
	if err := os.WriteFile(path, []byte("plain text"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRenderer(path); err == nil {
		t.Fatal("expected error for non-docx template")
	}
}

func TestSnapshotRoundTripRecalculates(t *testing.T) {
	s := testSnapshot(t, 6, nil)
	s.Result.NetAmount = decimal.NewFromInt(1_000_000)

	token, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeSnapshot(token)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if !got.Result.NetAmount.Equal(decimal.NewFromInt(925)) {
		t.Errorf("net = %s, want recalculated 925", got.Result.NetAmount)
	}
	if got.Declaration.DocumentDate.Month() != 6 {
		t.Errorf("document month = %d, want 6", got.Declaration.DocumentDate.Month())
	}
}

func TestDecodeSnapshot_Invalid(t *testing.T) {
	if _, err := DecodeSnapshot("%%%"); err == nil {
		t.Error("expected error for bad encoding")
	}
}

func buildZip(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
