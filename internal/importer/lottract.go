package importer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/buildinghawk/deedwatch/internal/model"
	"github.com/buildinghawk/deedwatch/internal/normalize"
)

// ImportLotTract loads lot/tract to APN mappings from a CSV, XLSX, or
// assessor shapefile. When a source row has no explicit lot and tract
// columns the legal description column is parsed instead. Rows that yield
// neither are skipped. Returns the number of mappings written.
func (im *Importer) ImportLotTract(ctx context.Context, path, sheet, mappingPath string) (int64, error) {
	mapping, err := LoadMapping(mappingPath, defaultLotTractMapping)
	if err != nil {
		return 0, err
	}

	var mappings []model.LotTractMapping
	var skipped int
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		mappings, skipped, err = im.lotTractFromShapefile(path, mapping)
	} else {
		mappings, skipped, err = im.lotTractFromTable(path, sheet, mapping)
	}
	if err != nil {
		return 0, err
	}
	if skipped > 0 {
		im.log.Warn("skipped rows without lot/tract or APN", zap.Int("count", skipped))
	}

	total, err := upsertBatches(ctx, mappings, im.cfg, im.store.UpsertLotTract)
	if err != nil {
		return total, err
	}
	im.log.Info("lot/tract import complete",
		zap.String("file", path), zap.Int64("rows", total), zap.Int("skipped", skipped))
	return total, nil
}

func (im *Importer) lotTractFromTable(path, sheet string, mapping ColumnMapping) ([]model.LotTractMapping, int, error) {
	table, err := ReadTable(path, sheet)
	if err != nil {
		return nil, 0, err
	}
	cols := mapping.Resolve(table.Headers)
	if _, ok := cols["apn"]; !ok {
		return nil, 0, eris.Errorf("importer: no APN column found in %s", path)
	}

	titled := cases.Title(language.English)
	var out []model.LotTractMapping
	skipped := 0
	for _, row := range table.Rows {
		m, ok := buildMapping(
			cell(row, cols, "apn"),
			cell(row, cols, "lot"),
			cell(row, cols, "tract"),
			cell(row, cols, "city"),
			cell(row, cols, "legal"),
			parseFloat(cell(row, cols, "latitude")),
			parseFloat(cell(row, cols, "longitude")),
			titled,
		)
		if !ok {
			skipped++
			continue
		}
		out = append(out, m)
	}
	return out, skipped, nil
}

func (im *Importer) lotTractFromShapefile(path string, mapping ColumnMapping) ([]model.LotTractMapping, int, error) {
	records, err := readShapefile(path)
	if err != nil {
		return nil, 0, err
	}

	titled := cases.Title(language.English)
	var out []model.LotTractMapping
	skipped := 0
	for _, rec := range records {
		m, ok := buildMapping(
			shapeCell(rec, mapping, "apn"),
			shapeCell(rec, mapping, "lot"),
			shapeCell(rec, mapping, "tract"),
			shapeCell(rec, mapping, "city"),
			shapeCell(rec, mapping, "legal"),
			rec.lat,
			rec.lng,
			titled,
		)
		if !ok {
			skipped++
			continue
		}
		out = append(out, m)
	}
	return out, skipped, nil
}

// buildMapping assembles one lot/tract row, falling back to parsing the
// legal description when explicit lot/tract values are absent.
func buildMapping(apn, lot, tract, city, legal string, lat, lng *float64, titled cases.Caser) (model.LotTractMapping, bool) {
	if apn == "" {
		return model.LotTractMapping{}, false
	}
	if lot == "" || tract == "" {
		plot, ptract := normalize.ParseLegalDescription(legal)
		if lot == "" {
			lot = plot
		}
		if tract == "" {
			tract = ptract
		}
	}
	if lot == "" || tract == "" {
		return model.LotTractMapping{}, false
	}
	return model.LotTractMapping{
		LotNumber:   normalize.LotTract(lot),
		TractNumber: normalize.LotTract(tract),
		City:        titled.String(strings.ToLower(city)),
		APN:         apn,
		CentroidLat: lat,
		CentroidLng: lng,
	}, true
}
