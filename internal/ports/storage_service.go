package ports

import "context"

// PageRequest addresses one page of the storage service catalog. A
// non-empty Cursor wins over Offset/Limit.
type PageRequest struct {
	Cursor string
	Offset int
	Limit  int
}

type PageMeta struct {
	Next       string
	Previous   string
	TotalCount int
	Limit      int
	Offset     int
}

type CatalogEntry struct {
	UUID        string
	PackageType string
	Status      string
}

type CatalogPage struct {
	Meta    PageMeta
	Objects []CatalogEntry
}

// Paginator decides how the catalog is walked. Next reports false when
// there are no further pages.
type Paginator interface {
	First() PageRequest
	Next(current PageRequest, page CatalogPage) (PageRequest, bool)
}

// StorageService is the remote service holding the packages.
// Failures are returned as *fixity.ServiceError.
type StorageService interface {
	BaseURL() string
	ListPackages(ctx context.Context, req PageRequest) (CatalogPage, error)
	GetPackage(ctx context.Context, aip string) error
	// CheckFixity returns the raw body of a 200 verification response.
	CheckFixity(ctx context.Context, aip string, forceLocal bool) ([]byte, error)
}
