// Package importer loads catalog and user data from CSV exports into the
// document store.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"wanderlist/db"
	"wanderlist/models"
	"wanderlist/schema"
	"wanderlist/store"
)

// Files maps each importable collection to its CSV file name, in import
// order.
var Files = []struct {
	Collection string
	File       string
}{
	{db.Activities, "activities.csv"},
	{db.Attractions, "attractions.csv"},
	{db.Categories, "categories.csv"},
	{db.Subcategories, "subcategories.csv"},
	{db.Tags, "tags.csv"},
	{db.UserActivities, "userActivities.csv"},
	{db.UserPreferences, "userPreferences.csv"},
}

var idFields = map[string]string{
	db.Activities:      "activity_id",
	db.Attractions:     "attraction_id",
	db.Categories:      "category_id",
	db.Subcategories:   "subcategory_id",
	db.Tags:            "tag_id",
	db.UserPreferences: "userId",
}

var ErrUnknownCollection = errors.New("unknown collection")

// Report summarizes one CSV import. Row errors are collected, not fatal.
type Report struct {
	Collection string
	Imported   int
	Skipped    int
	Errors     []error
}

type Importer struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) *Importer {
	return &Importer{store: s, now: time.Now}
}

// ImportDir imports every known CSV present in dir. Missing files are
// skipped.
func (im *Importer) ImportDir(ctx context.Context, dir string, only ...string) ([]Report, error) {
	var reports []Report
	for _, f := range Files {
		if len(only) > 0 && !contains(only, f.Collection) {
			continue
		}
		path := filepath.Join(dir, f.File)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Info().Str("file", path).Msg("no csv, skipping")
			continue
		}
		rep, err := im.ImportFile(ctx, f.Collection, path)
		reports = append(reports, rep)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (im *Importer) ImportFile(ctx context.Context, collection, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{Collection: collection}, err
	}
	defer f.Close()
	return im.Import(ctx, collection, f)
}

// Import reads a CSV with a header row and writes one document per valid
// row. Store failures abort the import.
func (im *Importer) Import(ctx context.Context, collection string, r io.Reader) (Report, error) {
	rep := Report{Collection: collection}
	sch, ok := schema.For(collection)
	if !ok {
		return rep, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		log.Info().Str("collection", collection).Msg("empty csv, skipping")
		return rep, nil
	}
	if err != nil {
		return rep, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = CleanHeader(h)
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rep.Skipped++
			rep.Errors = append(rep.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}

		row := toDocument(header, rec)
		key, doc, err := im.prepare(collection, sch, row)
		if err != nil {
			rep.Skipped++
			rep.Errors = append(rep.Errors, fmt.Errorf("line %d: %w", line, err))
			log.Warn().Err(err).Int("line", line).Str("collection", collection).Msg("row skipped")
			continue
		}
		if err := im.store.Set(ctx, collection, key, doc, store.SetOptions{}); err != nil {
			return rep, fmt.Errorf("write %s/%s: %w", collection, key, err)
		}
		rep.Imported++
	}

	log.Info().
		Str("collection", collection).
		Int("imported", rep.Imported).
		Int("skipped", rep.Skipped).
		Msg("import finished")
	return rep, nil
}

func (im *Importer) prepare(collection string, sch schema.Schema, row store.Document) (string, store.Document, error) {
	if collection == db.UserActivities || collection == db.UserPreferences {
		if v, ok := row["user_id"]; ok {
			if _, exists := row["userId"]; !exists {
				row["userId"] = v
			}
			delete(row, "user_id")
		}
	}
	if collection == db.UserActivities {
		if row.String("imageUrl") == "" {
			row["imageUrl"] = models.PlaceholderImage
		}
		if row.String("timestamp") == "" {
			row["timestamp"] = im.now().UTC()
		}
	}

	key := recordKey(collection, row)
	if key != "" {
		row[store.KeyField] = key
	}
	doc, err := sch.Check(row)
	if err != nil {
		return "", nil, err
	}
	if key == "" {
		return "", nil, &schema.ValidationError{Entity: sch.Entity, Missing: []string{idFields[collection]}}
	}
	delete(doc, store.KeyField)
	return key, doc, nil
}

func recordKey(collection string, row store.Document) string {
	if collection == db.UserActivities {
		user, act := row.String("userId"), row.String("activity_id")
		if user == "" || act == "" {
			return ""
		}
		return models.RecordKey(user, act)
	}
	return strings.TrimSpace(row.String(idFields[collection]))
}

func toDocument(header, rec []string) store.Document {
	doc := make(store.Document, len(header))
	for i, h := range header {
		if h == "" || i >= len(rec) {
			continue
		}
		doc[h] = rec[i]
	}
	return doc
}

var edgeNonWord = regexp.MustCompile(`^\W+|\W+$`)

// CleanHeader strips leading and trailing non-word characters, such as a
// byte order mark or stray quotes, from a CSV column name.
func CleanHeader(h string) string {
	return strings.TrimSpace(edgeNonWord.ReplaceAllString(strings.TrimSpace(h), ""))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
