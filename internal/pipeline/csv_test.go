// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/sowads/content-engine/pkg/types"
)

func TestArticlesCSVRoundTrip(t *testing.T) {
	batch := &types.Batch{
		BatchID:   "BATCH-teste-20260115-101500",
		Iteration: 2,
		Items: map[string]*types.ArticleRecord{
			"SOWADS-20260115-101500-AB12CD": {
				BatchID:         "BATCH-teste-20260115-101500",
				ID:              "SOWADS-20260115-101500-AB12CD",
				Version:         2,
				Theme:           "Orquestração de conteúdo",
				PrimaryKeyword:  "orquestração de conteúdo",
				SecondaryKeys:   "pipeline editorial | seo técnico",
				CompanySize:     "Média Empresa",
				BusinessModel:   "B2B",
				Vertical:        "Geral",
				ProductFocus:    "Ambos os pilares",
				ContentAngle:    "Educacional",
				Slug:            "orquestracao-de-conteudo",
				MetaTitle:       "Orquestração de conteúdo na prática",
				MetaDescription: "Como estruturar um pipeline editorial com controle de qualidade.",
				ContentPackage:  "=== META INFORMATION ===\nMeta Title: x\n\ntexto, com vírgulas\ne \"aspas\"",
				Status:          types.StatusApproved,
			},
			"SOWADS-20260115-101500-EF34GH": {
				BatchID: "BATCH-teste-20260115-101500",
				ID:      "SOWADS-20260115-101500-EF34GH",
				Version: 1,
				Status:  types.StatusRejected,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "articles_v2.csv")
	if err := WriteArticlesCSV(path, batch); err != nil {
		t.Fatalf("WriteArticlesCSV: %v", err)
	}
	got, err := ReadArticlesCSV(path)
	if err != nil {
		t.Fatalf("ReadArticlesCSV: %v", err)
	}

	if got.BatchID != batch.BatchID {
		t.Errorf("batch id = %q, want %q", got.BatchID, batch.BatchID)
	}
	if got.Iteration != 2 {
		t.Errorf("iteration = %d, want 2 (highest version)", got.Iteration)
	}
	if len(got.Items) != len(batch.Items) {
		t.Fatalf("items = %d, want %d", len(got.Items), len(batch.Items))
	}
	want := batch.Items["SOWADS-20260115-101500-AB12CD"]
	rec := got.Items["SOWADS-20260115-101500-AB12CD"]
	if rec == nil {
		t.Fatal("approved record missing after round trip")
	}
	if *rec != *want {
		t.Errorf("record mismatch:\n got %+v\nwant %+v", rec, want)
	}
}

func TestReadArticlesCSVRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.csv")
	batch := &types.Batch{Items: map[string]*types.ArticleRecord{}}
	if err := WriteArticlesCSV(path, batch); err != nil {
		t.Fatalf("WriteArticlesCSV: %v", err)
	}
	if _, err := ReadArticlesCSV(path); err == nil {
		t.Error("expected error for a table with no article rows")
	}
}
