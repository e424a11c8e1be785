package inventory

import "errors"

// ErrNotFound indicates the requested item does not exist in the inventory.
var ErrNotFound = errors.New("item not found")
