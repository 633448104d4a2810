// Package migrate maps rows of a parsed dump onto Strapi content types.
//
// The positional column layouts of the authors, categories and posts tables
// are owned here; the dump parser knows nothing about them.
package migrate

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/DumpMigration/internal/dump"
	"github.com/JonMunkholm/DumpMigration/internal/logging"
	"github.com/JonMunkholm/DumpMigration/internal/strapi"
)

// Source table positions.
const (
	authorID = iota
	authorName
	authorImage
	authorAbout
)

const (
	categoryID = iota
	categoryName
	_ // icon
	_ // created_at
	_ // updated_at
	_ // order
	categorySlug
	categoryDescription
)

const (
	postID = iota
	postTitle
	postDescription
	postContent
	postImage
	postAuthorID
	postCategoryID
	postCreatedAt
	_ // updated_at
	postSlug
)

// ContentStore is the destination the mapper writes documents to.
type ContentStore interface {
	CreateEntry(ctx context.Context, contentType string, data any) (*strapi.Entry, error)
	UploadFile(ctx context.Context, path, alt string) ([]strapi.File, error)
}

// AuthorDoc is the Strapi document for one author.
type AuthorDoc struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	PublishedAt string `json:"publishedAt"`
	Avatar      *int64 `json:"avatar,omitempty"`
}

// CategoryDoc is the Strapi document for one category.
type CategoryDoc struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
}

// Block is a dynamic-zone component of an article.
type Block struct {
	Component string `json:"__component"`
	Body      string `json:"body"`
}

// ArticleDoc is the Strapi document for one post.
type ArticleDoc struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Slug          string  `json:"slug"`
	DatePublished string  `json:"datePublished"`
	PublishedAt   string  `json:"publishedAt"`
	Author        *int64  `json:"author,omitempty"`
	Category      *int64  `json:"category,omitempty"`
	Cover         *int64  `json:"cover,omitempty"`
	Blocks        []Block `json:"blocks,omitempty"`
}

// Report counts what one run created.
type Report struct {
	Authors    int
	Categories int
	Articles   int
	Failed     int
}

// Mapper migrates authors, categories and posts, in that order.
// Articles reference authors and categories through the ID maps built by
// the earlier phases, so a Mapper is good for one run.
type Mapper struct {
	store      ContentStore
	uploadsDir string
	now        func() time.Time

	authorIDs   map[int64]int64
	categoryIDs map[int64]int64
	report      Report
}

// NewMapper creates a mapper writing to store. Image columns are resolved
// relative to uploadsDir.
func NewMapper(store ContentStore, uploadsDir string) *Mapper {
	return &Mapper{
		store:       store,
		uploadsDir:  uploadsDir,
		now:         time.Now,
		authorIDs:   make(map[int64]int64),
		categoryIDs: make(map[int64]int64),
	}
}

// Run migrates every supported table present in db.
// Per-record failures are logged and counted; only cancellation stops a run.
func (m *Mapper) Run(ctx context.Context, db *dump.Database) (Report, error) {
	phases := []struct {
		table   string
		migrate func(context.Context, []dump.Row) error
	}{
		{"authors", m.migrateAuthors},
		{"categories", m.migrateCategories},
		{"posts", m.migrateArticles},
	}

	for _, phase := range phases {
		t, ok := db.Table(phase.table)
		if !ok || len(t.Rows) == 0 {
			logging.FromContext(ctx).Info("Skipping table with no rows", "table", phase.table)
			continue
		}
		if err := phase.migrate(ctx, t.Rows); err != nil {
			return m.report, err
		}
	}
	return m.report, nil
}

func (m *Mapper) timestamp() string {
	return m.now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (m *Mapper) migrateAuthors(ctx context.Context, rows []dump.Row) error {
	logger := logging.FromContext(ctx)
	logger.Info("Migrating authors", "count", len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := text(field(row, authorName))
		doc := AuthorDoc{
			Name:        textOr(field(row, authorName), "Unknown Author"),
			Title:       textOr(field(row, authorAbout), ""),
			PublishedAt: m.timestamp(),
			Avatar:      m.upload(ctx, field(row, authorImage), name),
		}

		entry, err := m.store.CreateEntry(ctx, "authors", doc)
		if err != nil {
			logger.Error("Failed to migrate author", "name", name, "error", err)
			m.report.Failed++
			continue
		}
		if srcID, ok := id(field(row, authorID)); ok {
			m.authorIDs[srcID] = entry.ID
		}
		m.report.Authors++
		logger.Debug("Created author", "name", name, "id", entry.ID)
	}

	logger.Info("Migrated authors", "created", m.report.Authors)
	return nil
}

func (m *Mapper) migrateCategories(ctx context.Context, rows []dump.Row) error {
	logger := logging.FromContext(ctx)
	logger.Info("Migrating categories", "count", len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := text(field(row, categoryName))
		slug := textOr(field(row, categorySlug), "")
		if slug == "" {
			slug = textOr(dump.Text(slugify(name)), "unnamed")
		}
		doc := CategoryDoc{
			Name:        textOr(field(row, categoryName), "Unnamed Category"),
			Slug:        slug,
			Description: textOr(field(row, categoryDescription), ""),
			PublishedAt: m.timestamp(),
		}

		entry, err := m.store.CreateEntry(ctx, "categories", doc)
		if err != nil {
			logger.Error("Failed to migrate category", "name", name, "error", err)
			m.report.Failed++
			continue
		}
		if srcID, ok := id(field(row, categoryID)); ok {
			m.categoryIDs[srcID] = entry.ID
		}
		m.report.Categories++
		logger.Debug("Created category", "name", name, "id", entry.ID)
	}

	logger.Info("Migrated categories", "created", m.report.Categories)
	return nil
}

func (m *Mapper) migrateArticles(ctx context.Context, rows []dump.Row) error {
	logger := logging.FromContext(ctx)
	logger.Info("Migrating articles", "count", len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		title := text(field(row, postTitle))
		slug := textOr(field(row, postSlug), "")
		if slug == "" {
			slug = textOr(dump.Text(slugify(title)), "untitled")
		}
		published := m.timestamp()
		doc := ArticleDoc{
			Title:         textOr(field(row, postTitle), "Untitled Article"),
			Description:   textOr(field(row, postDescription), ""),
			Slug:          slug,
			DatePublished: textOr(field(row, postCreatedAt), published),
			PublishedAt:   published,
			Author:        lookup(m.authorIDs, field(row, postAuthorID)),
			Category:      lookup(m.categoryIDs, field(row, postCategoryID)),
			Cover:         m.upload(ctx, field(row, postImage), title),
		}
		if content, ok := present(field(row, postContent)); ok {
			doc.Blocks = []Block{{Component: "shared.rich-text", Body: content}}
		}

		entry, err := m.store.CreateEntry(ctx, "articles", doc)
		if err != nil {
			logger.Error("Failed to migrate article", "title", title, "error", err)
			m.report.Failed++
			continue
		}
		m.report.Articles++
		logger.Debug("Created article", "title", title, "id", entry.ID)
	}

	logger.Info("Migrated articles", "created", m.report.Articles)
	return nil
}

// upload sends the image named by v and returns its media ID. A missing
// file or failed upload is a warning, not a record failure.
func (m *Mapper) upload(ctx context.Context, v dump.Value, alt string) *int64 {
	name, ok := present(v)
	if !ok {
		return nil
	}

	logger := logging.FromContext(ctx)
	path := filepath.Join(m.uploadsDir, name)
	if _, err := os.Stat(path); err != nil {
		logger.Warn("Image not found", "path", path)
		return nil
	}

	files, err := m.store.UploadFile(ctx, path, alt)
	if err != nil {
		logger.Warn("Failed to upload image", "path", path, "error", err)
		return nil
	}
	if len(files) == 0 {
		logger.Warn("Upload returned no files", "path", path)
		return nil
	}
	return &files[0].ID
}

// lookup resolves a source foreign key through an ID map.
func lookup(ids map[int64]int64, v dump.Value) *int64 {
	srcID, ok := id(v)
	if !ok {
		return nil
	}
	dst, ok := ids[srcID]
	if !ok {
		return nil
	}
	return &dst
}
