package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Query targets one collection. Filters accumulate; the terminal call
// (Do, Insert, Update, Delete) issues exactly one request.
type Query struct {
	c      *Client
	table  string
	params url.Values
	single bool
}

func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table, params: url.Values{}}
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Single requires the result to be exactly one row; anything else fails with
// an error matching domain.ErrNotFound.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) headers(prefer string) map[string]string {
	h := map[string]string{}
	if prefer != "" {
		h["Prefer"] = prefer
	}
	if q.single {
		h["Accept"] = "application/vnd.pgrst.object+json"
	}
	return h
}

func (q *Query) path() string {
	return "/rest/v1/" + url.PathEscape(q.table)
}

// Do runs a select and decodes the rows (or the single row) into dst.
func (q *Query) Do(ctx context.Context, dst any) error {
	if q.params.Get("select") == "" {
		q.params.Set("select", "*")
	}
	return q.c.do(ctx, request{
		method:  http.MethodGet,
		path:    q.path(),
		query:   q.params.Encode(),
		headers: q.headers(""),
	}, dst)
}

// Insert writes rows and decodes the stored representation into dst. With a
// nil dst nothing is read back, which anonymous inserts under row-level
// security require.
func (q *Query) Insert(ctx context.Context, rows any, dst any) error {
	prefer := "return=minimal"
	if dst != nil {
		prefer = "return=representation"
		if q.params.Get("select") == "" {
			q.params.Set("select", "*")
		}
	}
	return q.c.do(ctx, request{
		method:  http.MethodPost,
		path:    q.path(),
		query:   q.params.Encode(),
		body:    rows,
		headers: q.headers(prefer),
	}, dst)
}

// Update patches every row matching the filters.
func (q *Query) Update(ctx context.Context, patch any, dst any) error {
	if q.params.Get("select") == "" {
		q.params.Set("select", "*")
	}
	return q.c.do(ctx, request{
		method:  http.MethodPatch,
		path:    q.path(),
		query:   q.params.Encode(),
		body:    patch,
		headers: q.headers("return=representation"),
	}, dst)
}

// Delete removes every row matching the filters. When dst is non-nil the
// deleted rows are decoded into it.
func (q *Query) Delete(ctx context.Context, dst any) error {
	prefer := "return=minimal"
	if dst != nil {
		prefer = "return=representation"
		if q.params.Get("select") == "" {
			q.params.Set("select", "*")
		}
	}
	return q.c.do(ctx, request{
		method:  http.MethodDelete,
		path:    q.path(),
		query:   q.params.Encode(),
		headers: q.headers(prefer),
	}, dst)
}
