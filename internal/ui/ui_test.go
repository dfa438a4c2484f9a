package ui

import (
	"strings"
	"testing"
)

func TestPalette(t *testing.T) {
	p := NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

	for name, render := range map[string]func(string) string{
		"Title": p.Title, "OK": p.OK, "Err": p.Err, "Warn": p.Warn, "Help": p.Help,
	} {
		t.Run(name, func(t *testing.T) {
			if got := render("hello"); !strings.Contains(got, "hello") {
				t.Errorf("%s dropped text: %q", name, got)
			}
		})
	}
}

func TestTable(t *testing.T) {
	out := Styles.Table([]string{"ID", "Title"}, [][]string{{"1", "Shape of You"}, {"2", "Believer"}})

	for _, want := range []string{"ID", "Title", "Shape of You", "Believer"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines < 4 {
		t.Errorf("expected bordered table, got %d lines", lines)
	}
}

func TestKeyValue(t *testing.T) {
	out := Styles.KeyValue([][2]string{{"Title", "Believer"}, {"Duration", "3:24"}})

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "Believer") || !strings.Contains(lines[1], "3:24") {
		t.Errorf("unexpected output: %q", out)
	}
}
