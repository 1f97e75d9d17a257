package pincode

import (
	"context"
	"sync"
)

// SeedLocations is the built-in directory used when no database is configured.
var SeedLocations = []Location{
	{PostalCode: "110001", City: "New Delhi", State: "Delhi"},
	{PostalCode: "400001", City: "Mumbai", State: "Maharashtra"},
	{PostalCode: "411001", City: "Pune", State: "Maharashtra"},
	{PostalCode: "560001", City: "Bengaluru", State: "Karnataka"},
	{PostalCode: "600001", City: "Chennai", State: "Tamil Nadu"},
	{PostalCode: "700001", City: "Kolkata", State: "West Bengal"},
	{PostalCode: "500001", City: "Hyderabad", State: "Telangana"},
	{PostalCode: "380001", City: "Ahmedabad", State: "Gujarat"},
	{PostalCode: "302001", City: "Jaipur", State: "Rajasthan"},
	{PostalCode: "226001", City: "Lucknow", State: "Uttar Pradesh"},
	{PostalCode: "682001", City: "Kochi", State: "Kerala"},
	{PostalCode: "160017", City: "Chandigarh", State: "Chandigarh"},
}

// MemoryDirectory is an in-process Directory.
type MemoryDirectory struct {
	mu      sync.RWMutex
	entries map[string]Location
}

// NewMemoryDirectory creates a directory holding the given locations.
func NewMemoryDirectory(locations []Location) *MemoryDirectory {
	d := &MemoryDirectory{entries: make(map[string]Location, len(locations))}
	for _, loc := range locations {
		d.entries[loc.PostalCode] = loc
	}
	return d
}

// Find returns the location for code.
func (d *MemoryDirectory) Find(ctx context.Context, code string) (*Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !Valid(code) {
		return nil, ErrInvalidFormat
	}

	d.mu.RLock()
	loc, ok := d.entries[code]
	d.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return &loc, nil
}

// Put adds or replaces an entry.
func (d *MemoryDirectory) Put(loc Location) {
	d.mu.Lock()
	d.entries[loc.PostalCode] = loc
	d.mu.Unlock()
}

// Len returns the number of entries.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
