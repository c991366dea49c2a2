package infra

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantBody   string
		wantErr    bool
	}{
		{
			name:       "valid",
			query:      "--sql 0f7c4c52-8d0e-4a4f-9c55-1f1f0b8e2a11\nselect 1;",
			wantMarker: "0f7c4c52-8d0e-4a4f-9c55-1f1f0b8e2a11",
			wantBody:   "select 1;",
		},
		{
			name:       "leading whitespace",
			query:      "\n   --sql 0f7c4c52-8d0e-4a4f-9c55-1f1f0b8e2a11\nselect 1;\n",
			wantMarker: "0f7c4c52-8d0e-4a4f-9c55-1f1f0b8e2a11",
			wantBody:   "select 1;",
		},
		{name: "missing marker", query: "select 1;", wantErr: true},
		{name: "uppercase uuid", query: "--sql 0F7C4C52-8D0E-4A4F-9C55-1F1F0B8E2A11\nselect 1;", wantErr: true},
		{name: "empty", query: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := extractMarker(tc.query)
			if tc.wantErr {
				if !errors.Is(err, errMarker) {
					t.Fatalf("expected marker error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractMarker returned error: %v", err)
			}
			if marker != tc.wantMarker {
				t.Fatalf("marker = %q, want %q", marker, tc.wantMarker)
			}
			if strings.TrimSpace(body) != tc.wantBody {
				t.Fatalf("body = %q, want %q", body, tc.wantBody)
			}
		})
	}
}
