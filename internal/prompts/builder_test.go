package prompts_test

import (
	"strings"
	"testing"

	"github.com/temirov/llm-wrapper/internal/prompts"
)

func TestFormatFixPromptIncludesExample(t *testing.T) {
	result := prompts.Builder{}.FormatFixPrompt("prompt", "<tag>ok</tag>")
	lines := strings.Split(result, "\n")
	if lines[0] != "Reply with tags only." {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "<tag>ok</tag>" {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	if !strings.HasSuffix(result, "\nprompt") {
		t.Fatalf("expected original prompt to be echoed, got:\n%s", result)
	}
}

func TestRenamePromptIncludesFields(t *testing.T) {
	request := prompts.RenameRequest{
		CurrentName: "old.pdf",
		Metadata: prompts.FileMetadata{
			Title:       "Annual Report",
			Keywords:    []string{"alpha", "beta"},
			Summary:     "A short summary.",
			Description: "A much longer description.",
			Extension:   "pdf",
			Extra:       map[string]string{"camera_model": "X100V"},
		},
	}
	prompt := prompts.Builder{}.RenamePrompt(request)
	for _, expected := range []string{
		"current_name: old.pdf",
		"title: Annual Report",
		"keywords: alpha, beta",
		"extension: pdf",
		"excerpt: A short summary.",
		"camera_model: X100V",
	} {
		if !strings.Contains(prompt, expected) {
			t.Fatalf("expected %q in prompt:\n%s", expected, prompt)
		}
	}
	if strings.Contains(prompt, "much longer description") {
		t.Fatalf("summary should win over description:\n%s", prompt)
	}
}

func TestRenamePromptMinimalIsSmaller(t *testing.T) {
	request := prompts.RenameRequest{
		CurrentName: "old.pdf",
		Metadata: prompts.FileMetadata{
			Title:     "Annual Report",
			Summary:   strings.Repeat("long text ", 100),
			Extension: ".pdf",
		},
	}
	builder := prompts.Builder{}
	full := builder.RenamePrompt(request)
	minimal := builder.RenamePromptMinimal(request)
	if len(minimal) >= len(full) {
		t.Fatalf("minimal prompt (%d) should be shorter than full prompt (%d)", len(minimal), len(full))
	}
	if !strings.Contains(minimal, "extension: pdf") || !strings.Contains(minimal, "current_name: old.pdf") {
		t.Fatalf("minimal prompt lost required fields:\n%s", minimal)
	}
}

func TestPromptTextStripsCodeFences(t *testing.T) {
	request := prompts.RenameRequest{
		CurrentName: "a.txt",
		Metadata:    prompts.FileMetadata{Summary: "```code```\nline"},
	}
	prompt := prompts.Builder{}.RenamePrompt(request)
	if strings.Contains(prompt, "```") {
		t.Fatalf("code fences leaked into prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "code") {
		t.Fatalf("fenced content should be kept:\n%s", prompt)
	}
}

func TestKeepPromptIncludesFeatures(t *testing.T) {
	request := prompts.KeepRequest{
		OriginalStem:  "file",
		SuggestedName: "file.pdf",
		Extension:     "pdf",
		Features:      map[string]any{"has_letter": true, "length": 5},
	}
	prompt := prompts.Builder{}.KeepPrompt(request)
	if !strings.Contains(prompt, "features:") {
		t.Fatalf("missing features header:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- has_letter: true\n- length: 5") {
		t.Fatalf("features should be listed in key order:\n%s", prompt)
	}
}

func TestSortPromptIncludesCategoriesAndFiles(t *testing.T) {
	request := prompts.SortRequest{Files: []prompts.SortItem{{Path: "notes.txt", Name: "notes", Ext: "txt", Description: "meeting"}}}
	prompt := prompts.Builder{}.SortPrompt(request)
	for _, expected := range []string{"Allowed categories:", "- Document", "path=notes.txt"} {
		if !strings.Contains(prompt, expected) {
			t.Fatalf("expected %q in prompt:\n%s", expected, prompt)
		}
	}

	custom := prompts.Builder{Categories: []string{"Receipts"}}.SortPrompt(request)
	if !strings.Contains(custom, "- Receipts") || strings.Contains(custom, "- Document") {
		t.Fatalf("custom categories not honoured:\n%s", custom)
	}
}

func TestComputeStemFeatures(t *testing.T) {
	features := prompts.ComputeStemFeatures("IMG_1234", "photo")
	if features["has_letter"] != true {
		t.Fatalf("expected has_letter true, got %v", features["has_letter"])
	}
	if features["is_numeric_only"] != false {
		t.Fatalf("expected is_numeric_only false, got %v", features["is_numeric_only"])
	}
	if features["looks_generated"] != true {
		t.Fatalf("expected looks_generated true, got %v", features["looks_generated"])
	}

	numeric := prompts.ComputeStemFeatures("20240101", "")
	if numeric["is_numeric_only"] != true || numeric["has_date"] != true {
		t.Fatalf("unexpected numeric features: %v", numeric)
	}

	shared := prompts.ComputeStemFeatures("invoice-acme", "Acme-Invoice-March.pdf")
	if shared["shared_tokens"] != 2 {
		t.Fatalf("expected 2 shared tokens, got %v", shared["shared_tokens"])
	}
}
