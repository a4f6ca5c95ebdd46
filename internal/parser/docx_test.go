package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestDOCXParser_StylesAndTables(t *testing.T) {
	f := docx.New().WithDefaultTheme()
	f.AddParagraph().Style("Title").AddText("Trip Plan")
	f.AddParagraph().Style("Heading1").AddText("Itinerary")
	f.AddParagraph().AddText("Four days along the coast.")
	tbl := f.AddTable(2, 2, 0, nil)
	tbl.TableRows[0].TableCells[0].AddParagraph().AddText("city")
	tbl.TableRows[0].TableCells[1].AddParagraph().AddText("days")
	tbl.TableRows[1].TableCells[0].AddParagraph().AddText("Nice")
	tbl.TableRows[1].TableCells[1].AddParagraph().AddText("3")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	doc, err := (&DOCXParser{}).Parse(&buf, "trip.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := blockTexts(doc)
	want := []string{"Trip Plan", "Itinerary", "Four days along the coast.", "city: Nice, days: 3"}
	if len(got) != len(want) {
		t.Fatalf("expected blocks %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	blocks := doc.Pages[0].Blocks
	if size := firstSpan(blocks[0]).Size; size != titleSize {
		t.Errorf("expected Title style at %v, got %v", titleSize, size)
	}
	if size := firstSpan(blocks[1]).Size; size != headingSize(1) {
		t.Errorf("expected Heading1 at %v, got %v", headingSize(1), size)
	}
	if size := firstSpan(blocks[2]).Size; size != bodySize {
		t.Errorf("expected body at %v, got %v", bodySize, size)
	}
}

func TestDOCXParser_NotADocument(t *testing.T) {
	if _, err := (&DOCXParser{}).Parse(strings.NewReader("plain text"), "x.docx"); err == nil {
		t.Error("expected error for non-docx input")
	}
}
