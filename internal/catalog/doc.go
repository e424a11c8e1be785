// Package catalog implements the HTTP client for the product catalog search
// API used to find card images.
//
// The API is a simple JSON-over-HTTP contract: GET {base_url}/products with
// query and limit parameters and an X-Api-Key header, returning a products
// array of {name, set_name, card_number, image_url, relevance}. Catalogs
// commonly return a stock placeholder image for products that have not been
// photographed; Product.HasUsableImage treats those as missing.
package catalog
