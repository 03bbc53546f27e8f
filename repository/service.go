// Package repository is a small document service on top of the query
// compiler: keyed CRUD through a driver.KeyValue and filtered reads
// through a driver.Querier.
//
//	svc, err := repository.New(repository.Config{
//	    Bucket:   "default",
//	    Name:     "room",
//	    KV:       driver.NewRedisKV(rdb),
//	    Querier:  driver.NewQueryService("http://localhost:8093"),
//	    Paginate: repository.Paginate{Default: 10, Max: 50},
//	})
//	page, err := svc.Find(ctx, q.D("volume", q.D("$gt", 3)),
//	    repository.SortDesc("volume"),
//	    repository.Select("name", "volume"),
//	)
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/manojoshi/docquery/driver"
	"github.com/manojoshi/docquery/internal"
	q "github.com/manojoshi/docquery/query"
	"github.com/manojoshi/docquery/scan"
)

const typeField = "_type"

var (
	ErrNotFound   = errors.New("repository: does not exist")
	ErrBadRequest = errors.New("repository: bad request")
	ErrConflict   = errors.New("repository: already exists")
)

// Paginate enables paged Find results. Default is the page size used when
// the filter has no $limit; Max caps any requested limit (0 means no cap).
type Paginate struct {
	Default int
	Max     int
}

type Config struct {
	Bucket    string // scope of compiled statements
	Name      string // document type, stamped into _type and used as key prefix
	IDField   string // defaults to "uuid"
	Separator string // defaults to "::"
	KV        driver.KeyValue
	Querier   driver.Querier
	Paginate  Paginate
	Logger    *slog.Logger
}

// Page is one Find result. Total is the row count reported by the query
// service.
type Page struct {
	Total int              `json:"total"`
	Limit int64            `json:"limit"`
	Skip  int64            `json:"skip"`
	Data  []map[string]any `json:"data"`
}

// Service is the single, reusable handle you inject everywhere.
type Service struct {
	cfg Config
	log *slog.Logger
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Bucket == "":
		return nil, errors.New("repository: bucket name is required")
	case cfg.Name == "":
		return nil, errors.New("repository: service name is required")
	case cfg.KV == nil:
		return nil, errors.New("repository: key-value store is required")
	case cfg.Querier == nil:
		return nil, errors.New("repository: querier is required")
	}
	if cfg.IDField == "" {
		cfg.IDField = "uuid"
	}
	if cfg.Separator == "" {
		cfg.Separator = "::"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{cfg: cfg, log: log.With("service", cfg.Name)}, nil
}

// Name is the document type this service manages.
func (s *Service) Name() string { return s.cfg.Name }

// Key is the storage key for id.
func (s *Service) Key(id string) string { return s.cfg.Name + s.cfg.Separator + id }

/*───────────────────────────────────────────────────────────────
|  Reads                                                         |
└───────────────────────────────────────────────────────────────*/

// Get loads one document by id.
func (s *Service) Get(ctx context.Context, id string) (map[string]any, error) {
	raw, err := s.cfg.KV.Get(ctx, s.Key(id))
	if err != nil {
		return nil, s.mapErr(err)
	}
	return scan.Unmarshal(raw)
}

// Find runs filter (plus opts) against the bucket, restricted to this
// service's document type.
func (s *Service) Find(ctx context.Context, filter q.Document, opts ...Opt) (*Page, error) {
	fc := &findCfg{paginate: s.cfg.Paginate}
	fc.b = q.NewBuilder(s.cfg.Bucket).
		Interpret(filter.Clone().Set(typeField, s.cfg.Name)).
		Using(s.cfg.Querier)
	for _, o := range opts {
		o.apply(fc)
	}

	limit, skip, hasLimit, err := fc.b.Window()
	if err != nil {
		return nil, s.mapErr(err)
	}
	if p := fc.paginate; p.Default > 0 {
		if !hasLimit {
			limit = int64(p.Default)
		}
		hi := int64(math.MaxInt64)
		if p.Max > 0 {
			hi = int64(p.Max)
		}
		limit = internal.Clamp(limit, 0, hi)
		fc.b.Limit(limit)
	}

	stmt, err := fc.b.Build()
	if err != nil {
		return nil, s.mapErr(err)
	}
	s.log.DebugContext(ctx, "find", "statement", stmt.Text, "params", len(stmt.Params))

	res, err := fc.b.Run(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "find failed", "statement", stmt.Text, "err", err)
		return nil, s.mapErr(err)
	}

	rows := res.Rows
	if sel := fc.b.Selected(); len(sel) > 0 {
		rows = scan.Strip(sel, rows)
	}
	return &Page{
		Total: res.Metrics.ResultCount,
		Limit: limit,
		Skip:  skip,
		Data:  rows,
	}, nil
}

// FindAs is Find decoded into []T.
func FindAs[T any](ctx context.Context, s *Service, filter q.Document, opts ...Opt) ([]T, error) {
	page, err := s.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return scan.Decode[T](page.Data)
}

/*───────────────────────────────────────────────────────────────
|  Writes                                                        |
└───────────────────────────────────────────────────────────────*/

// Create stores data under a new key. An id is generated when data has
// none. The stored document is returned.
func (s *Service) Create(ctx context.Context, data map[string]any) (map[string]any, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: no data passed to create", ErrBadRequest)
	}
	doc := maps.Clone(data)
	doc[typeField] = s.cfg.Name
	id := s.id(doc)

	raw, err := scan.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := s.cfg.KV.Insert(ctx, s.Key(id), raw); err != nil {
		return nil, s.mapErr(err)
	}
	s.log.InfoContext(ctx, "created", "id", id)
	return s.Get(ctx, id)
}

// Update is Patch: the stored document is merged with data, never
// replaced wholesale.
func (s *Service) Update(ctx context.Context, id string, data map[string]any) (map[string]any, error) {
	return s.Patch(ctx, id, data)
}

// Patch merges data into the stored document and re-stamps its type.
func (s *Service) Patch(ctx context.Context, id string, data map[string]any) (map[string]any, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	maps.Copy(doc, data)
	doc[typeField] = s.cfg.Name

	raw, err := scan.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := s.cfg.KV.Replace(ctx, s.Key(id), raw); err != nil {
		return nil, s.mapErr(err)
	}
	s.log.InfoContext(ctx, "patched", "id", id, "fields", len(data))
	return s.Get(ctx, id)
}

// Remove deletes the document and returns what was stored.
func (s *Service) Remove(ctx context.Context, id string) (map[string]any, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cfg.KV.Remove(ctx, s.Key(id)); err != nil {
		return nil, s.mapErr(err)
	}
	s.log.InfoContext(ctx, "removed", "id", id)
	return doc, nil
}

// id reads the id field of doc, generating one when it is missing.
func (s *Service) id(doc map[string]any) string {
	if v, ok := doc[s.cfg.IDField]; ok && v != nil {
		return cast.ToString(v)
	}
	id := uuid.NewString()
	doc[s.cfg.IDField] = id
	return id
}

func (s *Service) mapErr(err error) error {
	switch {
	case errors.Is(err, driver.ErrKeyNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, driver.ErrKeyExists):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case q.IsQueryError(err):
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return err
}
