// Package store persists audits and compliance history in SQLite.
package store

import "errors"

var ErrNotFound = errors.New("not found")
