// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sowads/content-engine/pkg/types"
)

// articleColumns is the fixed column set of the batch record table. The
// surrounding tooling consumes this schema; order matters.
var articleColumns = []string{
	"batch_id", "id", "version", "tema_principal", "keyword_primaria",
	"keywords_secundarias", "porte_empresa_alvo", "modelo_negocio_alvo",
	"vertical_alvo", "produto_foco", "angulo_conteudo", "url_interna",
	"slug", "meta_title", "meta_description", "content_package", "status",
}

// WriteArticlesCSV writes the batch record table in ID order.
func WriteArticlesCSV(path string, batch *types.Batch) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(articleColumns); err != nil {
		return fmt.Errorf("writing article header: %w", err)
	}
	for _, id := range batch.IDs() {
		rec := batch.Items[id]
		row := []string{
			rec.BatchID, rec.ID, strconv.Itoa(rec.Version), rec.Theme,
			rec.PrimaryKeyword, rec.SecondaryKeys, rec.CompanySize,
			rec.BusinessModel, rec.Vertical, rec.ProductFocus,
			rec.ContentAngle, rec.InternalURL, rec.Slug, rec.MetaTitle,
			rec.MetaDescription, rec.ContentPackage, string(rec.Status),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing article row %s: %w", rec.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing article table: %w", err)
	}
	return nil
}

// ReadArticlesCSV loads a batch record table. Unknown columns are
// ignored; missing columns read as empty strings so older tables still
// load.
func ReadArticlesCSV(path string) (*types.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty article table", filepath.Base(path))
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	batch := &types.Batch{Items: make(map[string]*types.ArticleRecord)}
	for _, row := range rows[1:] {
		version, _ := strconv.Atoi(field(row, "version"))
		rec := &types.ArticleRecord{
			BatchID:         field(row, "batch_id"),
			ID:              field(row, "id"),
			Version:         version,
			Theme:           field(row, "tema_principal"),
			PrimaryKeyword:  field(row, "keyword_primaria"),
			SecondaryKeys:   field(row, "keywords_secundarias"),
			CompanySize:     field(row, "porte_empresa_alvo"),
			BusinessModel:   field(row, "modelo_negocio_alvo"),
			Vertical:        field(row, "vertical_alvo"),
			ProductFocus:    field(row, "produto_foco"),
			ContentAngle:    field(row, "angulo_conteudo"),
			InternalURL:     field(row, "url_interna"),
			Slug:            field(row, "slug"),
			MetaTitle:       field(row, "meta_title"),
			MetaDescription: field(row, "meta_description"),
			ContentPackage:  field(row, "content_package"),
			Status:          types.ArticleStatus(field(row, "status")),
		}
		if rec.ID == "" {
			continue
		}
		batch.Items[rec.ID] = rec
		if batch.BatchID == "" {
			batch.BatchID = rec.BatchID
		}
		if rec.Version > batch.Iteration {
			batch.Iteration = rec.Version
		}
	}
	if len(batch.Items) == 0 {
		return nil, fmt.Errorf("%s: no article rows", filepath.Base(path))
	}
	return batch, nil
}
