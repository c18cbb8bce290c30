package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"sneakerstore/internal/domain"
)

// Columns every import file must carry.
var requiredColumns = []string{"name", "brand", "price", "colors", "sizes"}

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and inserts/updates products.
// Colors and sizes are ';'-separated lists within their cells.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	log         zerolog.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, log zerolog.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		log:         log,
	}
}

// Run upserts one product per data row and returns how many were written.
// It stops at the first malformed row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if missing := lo.Filter(requiredColumns, func(col string, _ int) bool {
		_, ok := index[col]
		return !ok
	}); len(missing) > 0 {
		return 0, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		if lo.EveryBy(record, func(v string) bool { return strings.TrimSpace(v) == "" }) {
			continue
		}
		product, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		saved, err := i.productRepo.Upsert(ctx, product)
		if err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", product.Name, err)
		}
		i.log.Debug().Int("line", line).Str("id", saved.ID).Str("name", saved.Name).Msg("imported")
		imported++
	}
	return imported, nil
}

func parseRow(record []string, index map[string]int) (domain.Product, error) {
	p := domain.Product{
		ID:     pick(record, index, "id"),
		Name:   pick(record, index, "name"),
		Brand:  pick(record, index, "brand"),
		Colors: splitList(pick(record, index, "colors")),
	}
	if p.ID != "" {
		if _, err := uuid.Parse(p.ID); err != nil {
			return domain.Product{}, fmt.Errorf("invalid id %q", p.ID)
		}
	}
	if p.Name == "" {
		return domain.Product{}, errors.New("name is required")
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil || !price.IsPositive() {
		return domain.Product{}, fmt.Errorf("invalid price %q for %q", pick(record, index, "price"), p.Name)
	}
	p.Price = price

	sizes := make([]float64, 0)
	for _, raw := range splitList(pick(record, index, "sizes")) {
		size, err := strconv.ParseFloat(raw, 64)
		if err != nil || size <= 0 {
			return domain.Product{}, fmt.Errorf("invalid size %q for %q", raw, p.Name)
		}
		sizes = append(sizes, size)
	}
	p.Sizes = lo.Uniq(sizes)
	return p, nil
}

func splitList(cell string) []string {
	parts := lo.Map(strings.Split(cell, ";"), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Uniq(lo.Compact(parts))
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
