// Package resolver turns an OSM element id into the ordered coordinates it
// references, following relation members to ways and nodes.
//
// Every reference is resolved in isolation: a member or node that cannot be
// fetched or parsed is recorded as a Failure and logged, and resolution
// continues with its siblings.
package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/beevik/etree"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/geo"
	"github.com/NERVsystems/rel2coords/pkg/osm"
	"github.com/NERVsystems/rel2coords/pkg/tracing"
)

// Fetcher retrieves the document of a single element. *osm.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, kind osm.ElementKind, id string) (*etree.Document, error)
}

// Failure records a reference that contributed no coordinates.
type Failure struct {
	Kind string
	Ref  string
	Err  error
}

// Code returns the error code of the failure.
func (f Failure) Code() core.ErrorCode {
	return core.CodeOf(f.Err)
}

// Error implements the error interface
func (f Failure) Error() string {
	return f.Err.Error()
}

// MarshalJSON renders the failure for diagnostics output.
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string         `json:"kind"`
		Ref   string         `json:"ref"`
		Code  core.ErrorCode `json:"code"`
		Error string         `json:"error"`
	}{f.Kind, f.Ref, f.Code(), f.Err.Error()})
}

// Result is the outcome of resolving one element.
type Result struct {
	Coordinates []geo.Location
	Failures    []Failure
}

// Resolver walks relation, way and node references.
type Resolver struct {
	fetcher     Fetcher
	logger      *slog.Logger
	concurrency int
	maxDepth    int
	onFailure   func(Failure)
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger failures are reported to
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithConcurrency sets how many sibling references are resolved at once.
// n <= 1 resolves strictly one reference after another.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.concurrency = n }
}

// WithMaxDepth follows relation members of relations up to n levels deep.
// With the default of 0 a relation member is an unknown member type.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) { r.maxDepth = n }
}

// WithFailureObserver registers fn to be called once per recorded failure.
// fn may be called from several goroutines when concurrency is above 1.
func WithFailureObserver(fn func(Failure)) Option {
	return func(r *Resolver) { r.onFailure = fn }
}

// New creates a Resolver reading elements through f
func New(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:     f,
		logger:      slog.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// segment is the contribution of one reference: its coordinates in order
// and the failures met beneath it.
type segment struct {
	coords   []geo.Location
	failures []Failure
}

func (s *segment) append(o segment) {
	s.coords = append(s.coords, o.coords...)
	s.failures = append(s.failures, o.failures...)
}

// Resolve dispatches on kind. The error is non-nil only for invalid input or
// a cancelled context; per-reference problems are reported in Result.Failures.
func (r *Resolver) Resolve(ctx context.Context, kind osm.ElementKind, id string) (*Result, error) {
	if id == "" {
		return nil, core.NewError(core.ErrMissingParameter, "element id is required")
	}

	ctx, span := tracing.StartSpan(ctx, "resolve."+string(kind),
		trace.WithAttributes(tracing.ElementAttributes(string(kind), id)...))
	defer span.End()

	var seg segment
	switch kind {
	case osm.KindRelation:
		seg = r.relation(ctx, id, nil)
	case osm.KindWay:
		seg = r.way(ctx, id)
	case osm.KindNode:
		seg = r.node(ctx, id)
	default:
		return nil, core.NewError(core.ErrInvalidInput, "unsupported element kind "+string(kind))
	}

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	span.SetAttributes(tracing.ResultAttributes(len(seg.coords), len(seg.failures))...)
	if seg.coords == nil {
		seg.coords = []geo.Location{}
	}
	return &Result{Coordinates: seg.coords, Failures: seg.failures}, nil
}

// ResolveRelation resolves every member of a relation.
func (r *Resolver) ResolveRelation(ctx context.Context, id string) (*Result, error) {
	return r.Resolve(ctx, osm.KindRelation, id)
}

// ResolveWay resolves the nodes of a way.
func (r *Resolver) ResolveWay(ctx context.Context, id string) (*Result, error) {
	return r.Resolve(ctx, osm.KindWay, id)
}

// ResolveNode resolves a single node.
func (r *Resolver) ResolveNode(ctx context.Context, id string) (*Result, error) {
	return r.Resolve(ctx, osm.KindNode, id)
}

// fail logs err once and wraps it in a single-failure segment. Once ctx is
// done the walk is abandoned and nothing is reported.
func (r *Resolver) fail(ctx context.Context, kind, ref string, err error) segment {
	if ctx.Err() != nil {
		return segment{}
	}
	f := Failure{Kind: kind, Ref: ref, Err: err}
	r.logger.ErrorContext(ctx, "skipping reference",
		"kind", kind,
		"ref", ref,
		"code", f.Code(),
		"error", err,
	)
	tracing.AddEvent(ctx, "reference_skipped", trace.WithAttributes(
		attribute.String(tracing.AttrElementKind, kind),
		attribute.String(tracing.AttrElementRef, ref),
		attribute.String(tracing.AttrErrorCode, string(f.Code())),
	))
	if r.onFailure != nil {
		r.onFailure(f)
	}
	return segment{failures: []Failure{f}}
}

// relation resolves the members of relation id. ancestors holds the ids of
// the enclosing relations, outermost first.
func (r *Resolver) relation(ctx context.Context, id string, ancestors []string) segment {
	doc, err := r.fetcher.Fetch(ctx, osm.KindRelation, id)
	if err != nil {
		return r.fail(ctx, string(osm.KindRelation), id, err)
	}
	rel, err := osm.Element(doc, osm.KindRelation)
	if err != nil {
		return r.fail(ctx, string(osm.KindRelation), id, withRef(err, osm.KindRelation, id))
	}

	members := osm.Members(rel)
	tracing.SetAttributes(ctx, attribute.Int(tracing.AttrMemberCount, len(members)))
	path := append(slices.Clip(ancestors), id)

	return r.each(ctx, len(members), func(ctx context.Context, i int) segment {
		return r.member(ctx, members[i], path)
	})
}

func (r *Resolver) member(ctx context.Context, m osm.Member, path []string) segment {
	if m.Ref == "" {
		return r.fail(ctx, m.Type, "", core.NewError(core.ErrMissingAttribute, "member has no ref attribute").
			WithRef(m.Type, ""))
	}

	switch osm.ElementKind(m.Type) {
	case osm.KindNode:
		return r.node(ctx, m.Ref)
	case osm.KindWay:
		return r.way(ctx, m.Ref)
	case osm.KindRelation:
		if r.maxDepth <= 0 {
			break
		}
		if slices.Contains(path, m.Ref) {
			return r.fail(ctx, m.Type, m.Ref, core.NewError(core.ErrCyclicRelation, "relation contains itself").
				WithRef(m.Type, m.Ref))
		}
		if len(path) > r.maxDepth {
			return r.fail(ctx, m.Type, m.Ref, core.NewError(core.ErrDepthExceeded, "nested relation below maximum depth").
				WithRef(m.Type, m.Ref))
		}
		ctx, span := tracing.StartSpan(ctx, "resolve.relation",
			trace.WithAttributes(attribute.Int(tracing.AttrDepth, len(path))))
		defer span.End()
		return r.relation(ctx, m.Ref, path)
	}

	return r.fail(ctx, m.Type, m.Ref, core.NewError(core.ErrUnknownMemberType, "unknown member type "+quote(m.Type)).
		WithRef(m.Type, m.Ref))
}

func (r *Resolver) way(ctx context.Context, id string) segment {
	doc, err := r.fetcher.Fetch(ctx, osm.KindWay, id)
	if err != nil {
		return r.fail(ctx, string(osm.KindWay), id, err)
	}
	way, err := osm.Element(doc, osm.KindWay)
	if err != nil {
		return r.fail(ctx, string(osm.KindWay), id, withRef(err, osm.KindWay, id))
	}

	refs := osm.NodeRefs(way)
	return r.each(ctx, len(refs), func(ctx context.Context, i int) segment {
		if refs[i] == "" {
			return r.fail(ctx, string(osm.KindNode), "", core.NewError(core.ErrMissingAttribute, "nd of way "+id+" has no ref attribute").
				WithRef(string(osm.KindNode), ""))
		}
		return r.node(ctx, refs[i])
	})
}

func (r *Resolver) node(ctx context.Context, id string) segment {
	doc, err := r.fetcher.Fetch(ctx, osm.KindNode, id)
	if err != nil {
		return r.fail(ctx, string(osm.KindNode), id, err)
	}
	el, err := osm.Element(doc, osm.KindNode)
	if err != nil {
		return r.fail(ctx, string(osm.KindNode), id, withRef(err, osm.KindNode, id))
	}
	loc, err := osm.NodeLocation(el)
	if err != nil {
		return r.fail(ctx, string(osm.KindNode), id, withRef(err, osm.KindNode, id))
	}
	return segment{coords: []geo.Location{loc}}
}

// each resolves n sibling references and concatenates their segments in
// index order, sequentially or with up to r.concurrency in flight.
func (r *Resolver) each(ctx context.Context, n int, fn func(ctx context.Context, i int) segment) segment {
	var out segment
	if r.concurrency <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if ctx.Err() != nil {
				break
			}
			out.append(fn(ctx, i))
		}
		return out
	}

	parts := make([]segment, n)
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			parts[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range parts {
		out.append(p)
	}
	return out
}

func withRef(err error, kind osm.ElementKind, id string) error {
	if e, ok := err.(*core.Error); ok && e.Ref == "" {
		return e.WithRef(string(kind), id)
	}
	return err
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	return s
}
