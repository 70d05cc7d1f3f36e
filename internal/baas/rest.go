package baas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const restPrefix = "/rest/v1/"

// Filter builds PostgREST query parameters.
type Filter url.Values

// NewFilter returns an empty filter.
func NewFilter() Filter {
	return Filter{}
}

// Eq adds column=eq.value.
func (f Filter) Eq(column, value string) Filter {
	url.Values(f).Add(column, "eq."+value)
	return f
}

// Neq adds column=neq.value.
func (f Filter) Neq(column, value string) Filter {
	url.Values(f).Add(column, "neq."+value)
	return f
}

// NotNull adds column=not.is.null.
func (f Filter) NotNull(column string) Filter {
	url.Values(f).Add(column, "not.is.null")
	return f
}

// Select restricts the returned columns.
func (f Filter) Select(columns string) Filter {
	url.Values(f).Set("select", columns)
	return f
}

// Order sets the ordering, e.g. "updated_at.desc,id.asc".
func (f Filter) Order(order string) Filter {
	url.Values(f).Set("order", order)
	return f
}

// Page sets limit and offset.
func (f Filter) Page(limit, offset int) Filter {
	url.Values(f).Set("limit", fmt.Sprint(limit))
	url.Values(f).Set("offset", fmt.Sprint(offset))
	return f
}

// SelectRows reads rows from table into dst, a pointer to a slice.
func (c *Client) SelectRows(ctx context.Context, table string, filter Filter, dst any) error {
	op := "select " + table
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   restPrefix + table,
		query:  url.Values(filter),
	})
	if err != nil {
		return err
	}
	return decode(op, body, dst)
}

// Insert creates row in table and decodes the stored representation into dst.
func (c *Client) Insert(ctx context.Context, table string, row, dst any) error {
	op := "insert " + table
	body, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    restPrefix + table,
		body:    row,
		headers: map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return err
	}
	return decode(op, body, dst)
}

// Update patches the rows matching filter and decodes the updated rows into
// dst. A filter that matches nothing yields an empty slice, not an error.
func (c *Client) Update(ctx context.Context, table string, filter Filter, patch, dst any) error {
	op := "update " + table
	body, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodPatch,
		path:    restPrefix + table,
		query:   url.Values(filter),
		body:    patch,
		headers: map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return err
	}
	return decode(op, body, dst)
}

// DeleteRows removes the rows matching filter and decodes them into dst.
func (c *Client) DeleteRows(ctx context.Context, table string, filter Filter, dst any) error {
	op := "delete " + table
	body, err := c.do(ctx, request{
		op:      op,
		method:  http.MethodDelete,
		path:    restPrefix + table,
		query:   url.Values(filter),
		headers: map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return err
	}
	return decode(op, body, dst)
}

// RPC calls a database function with named arguments.
func (c *Client) RPC(ctx context.Context, fn string, args, dst any) error {
	return c.postJSON(ctx, "rpc "+fn, restPrefix+"rpc/"+fn, args, dst)
}

func decode(op string, body []byte, dst any) error {
	if dst == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return wrapError(op, 0, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
