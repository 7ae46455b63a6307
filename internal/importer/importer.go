package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and inserts or updates products by business id.
//
// Expected header: key,name,description,brand,price,originalPrice,category,subcategory,
// image,rating,reviewCount,inStock,featured,deals. Column order is free and unknown
// columns are ignored. A row with an empty key and an image adds that image to the
// product above it.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

// Run parses CSV rows and upserts products grouped by product key.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["key"]; !ok {
		return 0, errors.New("read headers: missing key column")
	}

	var (
		current  *domain.Product
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		key := pick(record, index, "key")
		image := pick(record, index, "image")
		if key == "" {
			// Continuation rows (images) belong to the current product.
			if current != nil && image != "" {
				current.Images = append(current.Images, image)
			}
			continue
		}

		if current != nil {
			if err := i.save(ctx, current); err != nil {
				return imported, err
			}
			imported++
		}
		current, err = parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, p *domain.Product) error {
	if p.Name == "" {
		return fmt.Errorf("invalid product row (missing name) for key %q", p.Key)
	}
	if _, err := i.productRepo.Upsert(ctx, *p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Key, err)
	}
	return nil
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	p := &domain.Product{
		Key:         pick(record, index, "key"),
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Brand:       pick(record, index, "brand"),
		Category:    pick(record, index, "category"),
		Subcategory: pick(record, index, "subcategory"),
		InStock:     true,
	}
	if image := pick(record, index, "image"); image != "" {
		p.Images = []string{image}
	}

	var err error
	if p.Price, err = money(pick(record, index, "price")); err != nil {
		return nil, fmt.Errorf("price for key %q: %w", p.Key, err)
	}
	if p.OriginalPrice, err = money(pick(record, index, "originalPrice")); err != nil {
		return nil, fmt.Errorf("originalPrice for key %q: %w", p.Key, err)
	}
	if raw := pick(record, index, "rating"); raw != "" {
		if p.Rating, err = strconv.ParseFloat(raw, 64); err != nil || p.Rating < 0 || p.Rating > 5 {
			return nil, fmt.Errorf("rating for key %q: %q", p.Key, raw)
		}
	}
	if raw := pick(record, index, "reviewCount"); raw != "" {
		if p.ReviewCount, err = strconv.Atoi(raw); err != nil || p.ReviewCount < 0 {
			return nil, fmt.Errorf("reviewCount for key %q: %q", p.Key, raw)
		}
	}
	if raw := pick(record, index, "inStock"); raw != "" {
		p.InStock = flag(raw)
	}
	p.Featured = flag(pick(record, index, "featured"))
	p.Deals = flag(pick(record, index, "deals"))
	return p, nil
}

// money parses an optional amount. Empty cells leave the price unset.
func money(raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("negative amount %s", raw)
	}
	return decimal.NewNullDecimal(d), nil
}

func flag(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "1", "y":
		return true
	default:
		return false
	}
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
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
