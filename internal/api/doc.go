// Package api provides an HTTP client for the evaluation platform's variant
// registry.
//
// # Overview
//
// The client covers the read-only endpoints the query layer needs:
//
//   - GET /apps/{appId}/variants: paged variant list (search, offset, limit)
//   - GET /variants/{variantId}/revisions: paged revision history
//   - GET /variants/{variantId}: single variant
//   - GET /variants/{variantId}/revisions/{revisionNumber}: single revision
//   - GET /apps/{appId}/environments: deployment environments
//
// Every request carries the configured project_id query parameter.
//
// # Payload Normalisation
//
// The platform returns snake_case JSON and has not always been consistent
// about numeric types. Payloads are decoded into generic maps and normalised
// into Go structs with spf13/cast, so "revision": "3" and "revision": 3 both
// decode. camelCase keys are accepted as fallbacks. List endpoints may answer
// with a bare array or with an envelope carrying total/has_more; both shapes
// are handled by decodeList.
//
// # Pagination
//
// When the server reports a total, a page has more data when
// offset+limit < total. Without a total, a full page implies more may follow.
//
// # Error Handling
//
// Non-2xx responses become *StatusError. errors.Is(err, ErrNotFound) matches
// 404s. Transport and decode failures are wrapped with fmt.Errorf.
//
// # Batch Helpers
//
// FetchVariants issues bounded parallel single-variant requests through an
// errgroup and keeps the caller's id order. FetchAllRevisions walks revision
// pages until exhausted.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package api
