// Package importer loads inventory items from CSV exports. Parsing is
// header-driven and deliberately forgiving: unusable rows are skipped and
// logged so one bad line never loses the rest of the file.
package importer
