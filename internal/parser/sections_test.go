package parser

import (
	"reflect"
	"testing"

	"document-qa/internal/models"
)

func TestExtractSections(t *testing.T) {
	text := "Lời nói đầu của văn bản.\n" +
		"I. MỤC TIÊU CHUNG\n" +
		"Nội dung mục tiêu.\n" +
		"II. GIẢI PHÁP THỰC HIỆN\n" +
		"Giải pháp một.\nGiải pháp hai.\n"

	got := ExtractSections(text, 800)
	want := []models.Record{
		{Section: models.PreambleSection, Subsection: "Đoạn 1", Type: models.TypeText, Content: "Lời nói đầu của văn bản."},
		{Section: "I. MỤC TIÊU CHUNG", Subsection: "Đoạn 1", Type: models.TypeText, Content: "Nội dung mục tiêu."},
		{Section: "II. GIẢI PHÁP THỰC HIỆN", Subsection: "Đoạn 1", Type: models.TypeText, Content: "Giải pháp một. Giải pháp hai."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractSections =\n%+v\nwant\n%+v", got, want)
	}
}

func TestExtractSections_NoHeadingFallsBack(t *testing.T) {
	got := ExtractSections("Đoạn thứ nhất.\n\nĐoạn thứ hai.", 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %+v", got)
	}
	for i, r := range got {
		if r.Section != models.WholeDocumentSection {
			t.Errorf("record %d section = %q", i, r.Section)
		}
	}
	if got[1].Subsection != "Đoạn 2" {
		t.Errorf("subsection = %q", got[1].Subsection)
	}
}

func TestIsHeading(t *testing.T) {
	tests := map[string]bool{
		"I. MỤC TIÊU":               true,
		"IV.  Tổ chức thực hiện":    true,
		"Chương II: Tổ chức":        true,
		"CHƯƠNG III":                true,
		"Điều 5. Hiệu lực thi hành": true,
		"Phần 1":                    true,
		"Mục tiêu: ABC":             false,
		"Phần lớn học sinh":         false,
		"Điều này được áp dụng":     false,
		"V. ab":                     false,
		"":                          false,
	}
	for line, want := range tests {
		if got := IsHeading(line); got != want {
			t.Errorf("IsHeading(%q) = %v, want %v", line, got, want)
		}
	}
}
