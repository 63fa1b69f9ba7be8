package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"document-qa/internal/models"

	"github.com/xuri/excelize/v2"
)

var dumpRecords = []models.Record{
	{Section: "Toàn văn", Subsection: "Đoạn 1", Type: models.TypeText, Content: "Mục tiêu <chung> & riêng"},
	{Section: "Bảng 1", Type: models.TypeTable, Content: "Toán: lớp 1: 105 tiết"},
}

func TestWriteDump_JSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path, err := WriteDump(dir, "ke-hoach", "json", dumpRecords)
	if err != nil {
		t.Fatalf("WriteDump: %v", err)
	}
	if filepath.Base(path) != "ke-hoach.json" {
		t.Fatalf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Mục tiêu <chung> & riêng") {
		t.Fatalf("dump escapes text: %s", data)
	}
	var got []models.Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, dumpRecords) {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestWriteDump_XLSX(t *testing.T) {
	path, err := WriteDump(t.TempDir(), "ke-hoach", "xlsx", dumpRecords)
	if err != nil {
		t.Fatalf("WriteDump: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open dump: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("chunks")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][3] != "content" || rows[2][0] != "Bảng 1" {
		t.Fatalf("unexpected rows: %q", rows)
	}
}

func TestWriteDump_UnknownFormat(t *testing.T) {
	if _, err := WriteDump(t.TempDir(), "x", "csv", nil); err == nil {
		t.Fatal("expected error")
	}
}
